package config

import "time"

// Configuration keys read from the environment file.
const (
	KeyLogFile            = "LOG_FILE"
	KeyPromptFile         = "PROMPT_FILE"
	KeyTimeoutMarker      = "TIMEOUT_MARKER"
	KeyRulesFile          = "RULES_FILE"
	KeyPriorityFile       = "PRIORITY_FILE"
	KeyPollIntervalSec    = "POLL_INTERVAL_SEC"
	KeyTimeoutDurationSec = "TIMEOUT_DURATION_SEC"
	KeyLLMScript          = "LLM_SCRIPT"
	KeyReflectScript      = "REFLECT_SCRIPT"
	KeyShell              = "SHELL"
	KeyLogLevel           = "LOG_LEVEL"
	KeyMaxReflections     = "MAX_REFLECTIONS"
)

// Default values for optional settings.
const (
	DefaultConfigPath     = "config/environment.txt"
	DefaultLLMScript      = "scripts/run_llm.sh"
	DefaultShell          = "bash"
	DefaultLogLevel       = "info"
	DefaultMaxReflections = 1
	EnvPrefix             = "QUANTA"
)

// Settings is the typed view of the scheduler's configuration.
// The key tag names the configuration key each field is read from.
type Settings struct {
	LogFile            string `key:"LOG_FILE" validate:"required"`
	PromptFile         string `key:"PROMPT_FILE" validate:"required"`
	TimeoutMarker      string `key:"TIMEOUT_MARKER" validate:"required"`
	RulesFile          string `key:"RULES_FILE" validate:"required"`
	PriorityFile       string `key:"PRIORITY_FILE" validate:"required"`
	PollIntervalSec    int    `key:"POLL_INTERVAL_SEC" validate:"gt=0"`
	TimeoutDurationSec int    `key:"TIMEOUT_DURATION_SEC" validate:"gte=0"`

	LLMScript      string `key:"LLM_SCRIPT" validate:"required"`
	ReflectScript  string `key:"REFLECT_SCRIPT"`
	Shell          string `key:"SHELL" validate:"required"`
	LogLevel       string `key:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
	MaxReflections int    `key:"MAX_REFLECTIONS" validate:"gte=1"`
}

// PollInterval returns the pause between scheduler cycles.
func (s *Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSec) * time.Second
}

// TimeoutDuration returns how long a tripped timeout marker stays active.
func (s *Settings) TimeoutDuration() time.Duration {
	return time.Duration(s.TimeoutDurationSec) * time.Second
}
