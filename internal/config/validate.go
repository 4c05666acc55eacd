package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.workers":             c.Workflow.Workers,
		"workflow.queue_poll_interval": c.Workflow.QueuePollInterval,
		"workflow.stage_timeout":       c.Workflow.StageTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateDetection() error {
	switch c.Detection.Backend {
	case DetectionBackendWhisperX, DetectionBackendNone:
	case DetectionBackendOpenAI:
		if c.Detection.OpenAI.APIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("detection.openai.api_key is required for the openai backend. Set OPENAI_API_KEY or edit %s (create with 'fwea config init')", defaultPath)
		}
	default:
		return fmt.Errorf("detection.backend: unsupported value %q (want whisperx, openai or none)", c.Detection.Backend)
	}
	if c.Detection.Timeout <= 0 {
		return errors.New("detection.timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.CodecTimeout <= 0 {
		return errors.New("audio.codec_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	parsed, err := url.Parse(topic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic: %q is not an http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
