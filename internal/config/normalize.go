package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	if err := c.normalizeDetection(); err != nil {
		return err
	}
	c.normalizeAudio()
	c.normalizeLexicon()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.PreviewDir, err = expandPath(c.Paths.PreviewDir); err != nil {
		return fmt.Errorf("paths.preview_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.Workers <= 0 {
		c.Workflow.Workers = defaultWorkers
	}
	if c.Workflow.StageRetryLimit < 0 {
		c.Workflow.StageRetryLimit = 0
	}
	if c.Workflow.StageRetryDelay < 0 {
		c.Workflow.StageRetryDelay = 0
	}
	if c.Workflow.MaxJobRetries < 0 {
		c.Workflow.MaxJobRetries = 0
	}
	if c.Workflow.JobExpiryDays < 0 {
		c.Workflow.JobExpiryDays = 0
	}
}

func (c *Config) normalizeDetection() error {
	c.Detection.Backend = strings.ToLower(strings.TrimSpace(c.Detection.Backend))
	if c.Detection.Backend == "" {
		c.Detection.Backend = defaultDetectionBackend
	}
	c.Detection.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.Detection.DefaultLanguage))
	if c.Detection.DefaultLanguage == "" {
		c.Detection.DefaultLanguage = defaultDetectionLanguage
	}

	wx := &c.Detection.WhisperX
	wx.Model = strings.TrimSpace(wx.Model)
	if wx.Model == "" {
		wx.Model = defaultWhisperXModel
	}
	wx.VADMethod = strings.ToLower(strings.TrimSpace(wx.VADMethod))
	if wx.VADMethod == "" {
		wx.VADMethod = defaultWhisperXVADMethod
	}
	if strings.TrimSpace(wx.CacheDir) == "" {
		wx.CacheDir = defaultWhisperXCacheDir
	}
	var err error
	if wx.CacheDir, err = expandPath(wx.CacheDir); err != nil {
		return fmt.Errorf("detection.whisperx.cache_dir: %w", err)
	}

	oa := &c.Detection.OpenAI
	oa.APIKey = strings.TrimSpace(oa.APIKey)
	if oa.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			oa.APIKey = strings.TrimSpace(value)
		}
	}
	oa.BaseURL = strings.TrimSpace(oa.BaseURL)
	if oa.BaseURL == "" {
		if value, ok := os.LookupEnv("OPENAI_BASE_URL"); ok {
			oa.BaseURL = strings.TrimSpace(value)
		}
	}
	oa.Model = strings.TrimSpace(oa.Model)
	if oa.Model == "" {
		oa.Model = defaultOpenAIModel
	}
	return nil
}

func (c *Config) normalizeAudio() {
	c.Audio.FFmpegBinary = strings.TrimSpace(c.Audio.FFmpegBinary)
	if c.Audio.FFmpegBinary == "" {
		c.Audio.FFmpegBinary = defaultFFmpegBinary
	}
	c.Audio.FFprobeBinary = strings.TrimSpace(c.Audio.FFprobeBinary)
	if c.Audio.FFprobeBinary == "" {
		c.Audio.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Audio.PreviewSeconds < 0 {
		c.Audio.PreviewSeconds = 0
	}
}

func (c *Config) normalizeLexicon() {
	if len(c.Lexicon.CustomWords) == 0 {
		return
	}
	normalized := make(map[string][]string, len(c.Lexicon.CustomWords))
	for lang, words := range c.Lexicon.CustomWords {
		key := strings.ToLower(strings.TrimSpace(lang))
		if key == "" {
			continue
		}
		for _, word := range words {
			if w := strings.TrimSpace(word); w != "" {
				normalized[key] = append(normalized[key], w)
			}
		}
	}
	c.Lexicon.CustomWords = normalized
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("FWEA_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
