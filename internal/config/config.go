package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	OutputDir  string `toml:"output_dir"`
	PreviewDir string `toml:"preview_dir"`
	LogDir     string `toml:"log_dir"`
	EnvFile    string `toml:"env_file"`
}

// Workflow contains worker pool sizing, polling, and retry policy.
type Workflow struct {
	Workers           int `toml:"workers"`
	QueuePollInterval int `toml:"queue_poll_interval"`
	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`
	StageTimeout      int `toml:"stage_timeout"`
	StageRetryLimit   int `toml:"stage_retry_limit"`
	StageRetryDelay   int `toml:"stage_retry_delay"`
	MaxJobRetries     int `toml:"max_job_retries"`
	JobExpiryDays     int `toml:"job_expiry_days"`
}

// WhisperX contains settings for the local whisperx backend.
type WhisperX struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	CacheDir    string `toml:"cache_dir"`
}

// OpenAI contains settings for the hosted transcription backend.
type OpenAI struct {
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
}

// Detection selects and configures the language detection backend.
type Detection struct {
	Backend         string   `toml:"backend"`
	DefaultLanguage string   `toml:"default_language"`
	Timeout         int      `toml:"timeout"`
	WhisperX        WhisperX `toml:"whisperx"`
	OpenAI          OpenAI   `toml:"openai"`
}

// Audio contains codec binaries and timing.
type Audio struct {
	FFmpegBinary   string `toml:"ffmpeg_binary"`
	FFprobeBinary  string `toml:"ffprobe_binary"`
	CodecTimeout   int    `toml:"codec_timeout"`
	PreviewSeconds int    `toml:"preview_seconds"`
	NativeWAV      bool   `toml:"native_wav"`
}

// Lexicon extends or trims the built-in profanity lexicon.
type Lexicon struct {
	CustomWords       map[string][]string `toml:"custom_words"`
	DisablePatterns   bool                `toml:"disable_patterns"`
	DisableHeuristics bool                `toml:"disable_heuristics"`
}

// Notifications configures ntfy delivery of job outcomes.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnCompleted    bool   `toml:"on_completed"`
	OnFailed       bool   `toml:"on_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for fwea.
//
// Configuration sections by subsystem:
//   - Paths: data, output, preview and log directories
//   - Workflow: worker pool size, polling, stage timeouts and retry budgets
//   - Detection: speech-to-text backend used for language detection
//   - Audio: ffmpeg/ffprobe binaries and preview length
//   - Lexicon: custom profanity words per language
//   - Notifications: ntfy topic for job outcome alerts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Detection     Detection     `toml:"detection"`
	Audio         Audio         `toml:"audio"`
	Lexicon       Lexicon       `toml:"lexicon"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.loadEnvFile(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFile populates unset environment variables from a dotenv file. An
// explicit env_file must exist; otherwise a .env beside the config is optional.
func (c *Config) loadEnvFile(configDir string) error {
	if explicit := strings.TrimSpace(c.Paths.EnvFile); explicit != "" {
		expanded, err := expandPath(explicit)
		if err != nil {
			return fmt.Errorf("paths.env_file: %w", err)
		}
		if err := godotenv.Load(expanded); err != nil {
			return fmt.Errorf("load env file %q: %w", expanded, err)
		}
		c.Paths.EnvFile = expanded
		return nil
	}
	candidate := filepath.Join(configDir, ".env")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load env file %q: %w", candidate, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("fwea.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.PreviewDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite job store location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "fwea.lock")
}

// LogPath is the JSON log file shared by the daemon and "fwea process".
// Empty when no log directory is configured.
func (c *Config) LogPath() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "fwea.log")
}

// StageTimeout returns the per-stage deadline for external calls.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Workflow.StageTimeout) * time.Second
}

// StageRetryDelay returns the pause before a failed stage is re-entered.
func (c *Config) StageRetryDelay() time.Duration {
	return time.Duration(c.Workflow.StageRetryDelay) * time.Second
}

// PollInterval returns how often idle workers check the queue.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Workflow.QueuePollInterval) * time.Second
}

// DetectionTimeout returns the deadline for a single detector call.
func (c *Config) DetectionTimeout() time.Duration {
	return time.Duration(c.Detection.Timeout) * time.Second
}

// NotifyTimeout bounds a single ntfy request.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// CodecTimeout returns the deadline for a single ffmpeg/ffprobe invocation.
func (c *Config) CodecTimeout() time.Duration {
	return time.Duration(c.Audio.CodecTimeout) * time.Second
}

// JobExpiry returns the age after which terminal jobs are cleaned up. Zero
// disables cleanup.
func (c *Config) JobExpiry() time.Duration {
	return time.Duration(c.Workflow.JobExpiryDays) * 24 * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
