package config

import (
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/red-hand/midenclaim/internal/claim"
	"github.com/red-hand/midenclaim/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "scheduler.max_concurrent")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Upper bounds that catch unit mistakes such as "5000h".
const (
	maxConcurrentLimit = 64
	maxLoopLimit       = 24 * time.Hour
	maxLogSizeMB       = 1000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError
	errors = append(errors, c.validateScheduler()...)
	errors = append(errors, c.validateInputs()...)
	errors = append(errors, c.validateClaim()...)
	errors = append(errors, c.validateTUI()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateMetrics()...)
	return errors
}

func (c *Config) validateScheduler() []ValidationError {
	var errors []ValidationError
	s := c.Scheduler

	if s.MaxConcurrent < 1 || s.MaxConcurrent > maxConcurrentLimit {
		errors = append(errors, ValidationError{
			Field:   "scheduler.max_concurrent",
			Value:   s.MaxConcurrent,
			Message: fmt.Sprintf("must be between 1 and %d", maxConcurrentLimit),
		})
	}
	if s.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.max_retries",
			Value:   s.MaxRetries,
			Message: "must be non-negative",
		})
	}
	if s.RetryDelay <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.retry_delay",
			Value:   s.RetryDelay,
			Message: "must be positive",
		})
	}
	if s.MinLoop <= 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.min_loop",
			Value:   s.MinLoop,
			Message: "must be positive",
		})
	}
	if s.MaxLoop < s.MinLoop {
		errors = append(errors, ValidationError{
			Field:   "scheduler.max_loop",
			Value:   s.MaxLoop,
			Message: fmt.Sprintf("must not be less than min_loop (%s)", s.MinLoop),
		})
	}
	if s.MaxLoop > maxLoopLimit {
		errors = append(errors, ValidationError{
			Field:   "scheduler.max_loop",
			Value:   s.MaxLoop,
			Message: fmt.Sprintf("exceeds maximum of %s", maxLoopLimit),
		})
	}
	if s.ShutdownTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "scheduler.shutdown_timeout",
			Value:   s.ShutdownTimeout,
			Message: "must be non-negative",
		})
	}
	return errors
}

func (c *Config) validateInputs() []ValidationError {
	if strings.TrimSpace(c.Inputs.Wallets) == "" {
		return []ValidationError{{
			Field:   "inputs.wallets",
			Value:   c.Inputs.Wallets,
			Message: "must not be empty",
		}}
	}
	return nil
}

func (c *Config) validateClaim() []ValidationError {
	var errors []ValidationError

	kind, err := claim.ParseKind(c.Claim.Kind)
	if err != nil {
		names := make([]string, 0, len(claim.Kinds()))
		for _, k := range claim.Kinds() {
			names = append(names, string(k))
		}
		return append(errors, ValidationError{
			Field:   "claim.kind",
			Value:   c.Claim.Kind,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(names, ", ")),
		})
	}

	switch kind {
	case claim.KindBrowser:
		b := c.Claim.Browser
		if u, err := url.Parse(b.TargetURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "claim.browser.target_url",
				Value:   b.TargetURL,
				Message: "must be an absolute URL",
			})
		}
		if b.SettleMax < b.SettleMin {
			errors = append(errors, ValidationError{
				Field:   "claim.browser.settle_max",
				Value:   b.SettleMax,
				Message: fmt.Sprintf("must not be less than settle_min (%s)", b.SettleMin),
			})
		}
		if b.LaunchBurst < 0 {
			errors = append(errors, ValidationError{
				Field:   "claim.browser.launch_burst",
				Value:   b.LaunchBurst,
				Message: "must be non-negative",
			})
		}
	case claim.KindCommand:
		if strings.TrimSpace(c.Claim.Command.Path) == "" {
			errors = append(errors, ValidationError{
				Field:   "claim.command.path",
				Value:   c.Claim.Command.Path,
				Message: "is required when claim.kind is command",
			})
		}
		if c.Claim.Command.Timeout < 0 {
			errors = append(errors, ValidationError{
				Field:   "claim.command.timeout",
				Value:   c.Claim.Command.Timeout,
				Message: "must be non-negative",
			})
		}
	}
	return errors
}

func (c *Config) validateTUI() []ValidationError {
	if c.TUI.StatsInterval < 0 {
		return []ValidationError{{
			Field:   "tui.stats_interval",
			Value:   c.TUI.StatsInterval,
			Message: "must be non-negative",
		}}
	}
	return nil
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be non-negative",
		})
	}
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}
	return errors
}

func (c *Config) validateMetrics() []ValidationError {
	if c.Metrics.Addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
		return []ValidationError{{
			Field:   "metrics.addr",
			Value:   c.Metrics.Addr,
			Message: "must be host:port or :port",
		}}
	}
	return nil
}
