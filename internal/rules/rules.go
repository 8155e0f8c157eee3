// Package rules loads acceptance rules and evaluates responses against them.
package rules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"
)

// Rule types.
const (
	TypeContains    = "contains"
	TypeNotContains = "not_contains"
	TypeRegex       = "regex"
	TypeMinLength   = "min_length"
	TypeMaxLength   = "max_length"
)

// regexTimeout bounds a single regex evaluation.
const regexTimeout = 100 * time.Millisecond

// Rule is one acceptance check over a response.
type Rule struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`

	re     *regexp2.Regexp
	length int
}

// File is the on-disk layout of a rules file.
type File struct {
	Rules []Rule `yaml:"rules"`
}

// Set is a compiled list of rules. The zero Set accepts every response.
type Set struct {
	rules []Rule
}

// Load reads and compiles a YAML rules file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("rules file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse compiles rules from YAML.
func Parse(data []byte) (*Set, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	return Compile(f.Rules)
}

// Compile validates rules and prepares them for evaluation.
func Compile(rules []Rule) (*Set, error) {
	compiled := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			r.Name = fmt.Sprintf("rule-%d", i+1)
		}
		r.Type = strings.ToLower(strings.TrimSpace(r.Type))

		switch r.Type {
		case TypeContains, TypeNotContains:
			if r.Value == "" {
				return nil, fmt.Errorf("rule %s: %s needs a value", r.Name, r.Type)
			}
		case TypeRegex:
			re, err := regexp2.Compile(r.Value, regexp2.None)
			if err != nil {
				return nil, fmt.Errorf("rule %s: invalid pattern: %w", r.Name, err)
			}
			re.MatchTimeout = regexTimeout
			r.re = re
		case TypeMinLength, TypeMaxLength:
			n, err := strconv.Atoi(strings.TrimSpace(r.Value))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("rule %s: %s needs a non-negative integer, got %q", r.Name, r.Type, r.Value)
			}
			r.length = n
		default:
			return nil, fmt.Errorf("rule %s: unknown type %q", r.Name, r.Type)
		}
		compiled = append(compiled, r)
	}
	return &Set{rules: compiled}, nil
}

// Len returns the number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// Names returns the rule names in file order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.rules))
	for _, r := range s.rules {
		names = append(names, r.Name)
	}
	return names
}

// Failures returns the names of rules the response does not satisfy.
// A regex that times out is an error rather than a failure.
func (s *Set) Failures(response string) ([]string, error) {
	if s == nil {
		return nil, nil
	}

	var failed []string
	for _, r := range s.rules {
		ok, err := r.check(response)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if !ok {
			failed = append(failed, r.Name)
		}
	}
	return failed, nil
}

// Evaluate reports whether every rule accepts the response.
func (s *Set) Evaluate(_ context.Context, response string) (bool, error) {
	failed, err := s.Failures(response)
	if err != nil {
		return false, err
	}
	return len(failed) == 0, nil
}

func (r Rule) check(response string) (bool, error) {
	switch r.Type {
	case TypeContains:
		return strings.Contains(response, r.Value), nil
	case TypeNotContains:
		return !strings.Contains(response, r.Value), nil
	case TypeRegex:
		if r.re == nil {
			return false, errors.New("rule not compiled")
		}
		return r.re.MatchString(response)
	case TypeMinLength:
		return utf8.RuneCountInString(strings.TrimSpace(response)) >= r.length, nil
	case TypeMaxLength:
		return utf8.RuneCountInString(strings.TrimSpace(response)) <= r.length, nil
	default:
		return false, fmt.Errorf("unknown type %q", r.Type)
	}
}
