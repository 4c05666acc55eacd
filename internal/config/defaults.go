package config

const (
	defaultConfigPath        = "~/.config/fwea/config.toml"
	defaultDataDir           = "~/.local/share/fwea"
	defaultOutputDir         = "~/.local/share/fwea/output"
	defaultPreviewDir        = "~/.local/share/fwea/previews"
	defaultLogDir            = "~/.local/share/fwea/logs"
	defaultWhisperXCacheDir  = "~/.local/share/fwea/cache/whisperx"
	defaultWorkers           = 5
	defaultQueuePollInterval = 2
	defaultHeartbeatInterval = 15
	defaultHeartbeatTimeout  = 120
	defaultStageTimeout      = 600
	defaultStageRetryLimit   = 3
	defaultStageRetryDelay   = 5
	defaultMaxJobRetries     = 3
	defaultJobExpiryDays     = 7
	defaultDetectionBackend  = DetectionBackendWhisperX
	defaultDetectionLanguage = "en"
	defaultDetectionTimeout  = 300
	defaultWhisperXModel     = "large-v3-turbo"
	defaultWhisperXVADMethod = "silero"
	defaultOpenAIModel       = "whisper-1"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultCodecTimeout      = 300
	defaultPreviewSeconds    = 30
	defaultNotifyTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Detection backends accepted by detection.backend.
const (
	DetectionBackendWhisperX = "whisperx"
	DetectionBackendOpenAI   = "openai"
	DetectionBackendNone     = "none"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:    defaultDataDir,
			OutputDir:  defaultOutputDir,
			PreviewDir: defaultPreviewDir,
			LogDir:     defaultLogDir,
		},
		Workflow: Workflow{
			Workers:           defaultWorkers,
			QueuePollInterval: defaultQueuePollInterval,
			HeartbeatInterval: defaultHeartbeatInterval,
			HeartbeatTimeout:  defaultHeartbeatTimeout,
			StageTimeout:      defaultStageTimeout,
			StageRetryLimit:   defaultStageRetryLimit,
			StageRetryDelay:   defaultStageRetryDelay,
			MaxJobRetries:     defaultMaxJobRetries,
			JobExpiryDays:     defaultJobExpiryDays,
		},
		Detection: Detection{
			Backend:         defaultDetectionBackend,
			DefaultLanguage: defaultDetectionLanguage,
			Timeout:         defaultDetectionTimeout,
			WhisperX: WhisperX{
				Model:     defaultWhisperXModel,
				VADMethod: defaultWhisperXVADMethod,
				CacheDir:  defaultWhisperXCacheDir,
			},
			OpenAI: OpenAI{
				Model: defaultOpenAIModel,
			},
		},
		Audio: Audio{
			FFmpegBinary:   defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			CodecTimeout:   defaultCodecTimeout,
			PreviewSeconds: defaultPreviewSeconds,
			NativeWAV:      true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnCompleted:    true,
			OnFailed:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
