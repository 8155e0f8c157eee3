package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Store holds key=value configuration. Keys are case-sensitive as written
// in the file. Each key can be overridden by a QUANTA_<KEY> environment
// variable, with the key upper-cased.
type Store struct {
	v      *viper.Viper
	values map[string]string
}

// NewStore creates a Store from already-parsed values.
func NewStore(values map[string]string) *Store {
	// viper folds key case, so it only serves environment lookups and the
	// file values stay in their own map.
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	m := make(map[string]string, len(values))
	for k, val := range values {
		m[k] = val
	}
	return &Store{v: v, values: m}
}

// Load reads a key=value configuration file.
func Load(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	values, err := Parse(file)
	if err != nil {
		return nil, err
	}
	return NewStore(values), nil
}

// Parse reads newline-delimited key=value pairs. Lines starting with # and
// blank lines are ignored, keys and values are whitespace-trimmed, lines
// without '=' or with an empty key are skipped, and later duplicates
// overwrite earlier ones.
func Parse(r io.Reader) (map[string]string, error) {
	values := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()

		// Skip empty lines and comments
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first =
		idx := strings.Index(line, "=")
		if idx == -1 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}

		values[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return values, nil
}

// LoadDotenv loads a dotenv file into the process environment so its
// QUANTA_* entries act as overrides. Existing variables are kept.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// GetString returns the value for key and whether it is set.
func (s *Store) GetString(key string) (string, bool) {
	if s.v.IsSet(key) {
		return s.v.GetString(key), true
	}
	value, ok := s.values[key]
	return value, ok
}

// GetStringOr returns the value for key, or fallback when unset or empty.
func (s *Store) GetStringOr(key, fallback string) string {
	if value, ok := s.GetString(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetInt returns the value for key parsed as a base-10 integer.
func (s *Store) GetInt(key string) (int, error) {
	raw, ok := s.GetString(key)
	if !ok {
		return 0, ValidationError{Field: key, Message: "required key is missing"}
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ValidationError{Field: key, Message: fmt.Sprintf("must be an integer, got %q", raw)}
	}
	return n, nil
}

// GetIntOr returns the integer value for key, or fallback when unset.
// A present but malformed value is still an error.
func (s *Store) GetIntOr(key string, fallback int) (int, error) {
	if _, ok := s.GetString(key); !ok {
		return fallback, nil
	}
	return s.GetInt(key)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if key := fld.Tag.Get("key"); key != "" {
			return key
		}
		return fld.Name
	})
	return v
}

// LoadSettings builds and validates Settings from a Store.
func LoadSettings(s *Store) (*Settings, error) {
	pollInterval, err := s.GetInt(KeyPollIntervalSec)
	if err != nil {
		return nil, err
	}
	timeoutDuration, err := s.GetInt(KeyTimeoutDurationSec)
	if err != nil {
		return nil, err
	}
	maxReflections, err := s.GetIntOr(KeyMaxReflections, DefaultMaxReflections)
	if err != nil {
		return nil, err
	}

	settings := &Settings{
		LogFile:            s.GetStringOr(KeyLogFile, ""),
		PromptFile:         s.GetStringOr(KeyPromptFile, ""),
		TimeoutMarker:      s.GetStringOr(KeyTimeoutMarker, ""),
		RulesFile:          s.GetStringOr(KeyRulesFile, ""),
		PriorityFile:       s.GetStringOr(KeyPriorityFile, ""),
		PollIntervalSec:    pollInterval,
		TimeoutDurationSec: timeoutDuration,
		LLMScript:          s.GetStringOr(KeyLLMScript, DefaultLLMScript),
		ReflectScript:      s.GetStringOr(KeyReflectScript, ""),
		Shell:              s.GetStringOr(KeyShell, DefaultShell),
		LogLevel:           strings.ToLower(s.GetStringOr(KeyLogLevel, DefaultLogLevel)),
		MaxReflections:     maxReflections,
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// ValidateSettings checks that all settings values are valid.
func ValidateSettings(settings *Settings) error {
	err := validate.Struct(settings)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate settings: %w", err)
	}

	fe := fieldErrs[0]
	return ValidationError{Field: fe.Field(), Message: describeTag(fe)}
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required key is missing"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
