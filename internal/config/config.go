// Package config holds midenclaim's configuration: defaults, viper loading
// and validation.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/red-hand/midenclaim/internal/claim"
	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/scheduler"
)

// Config represents the complete midenclaim configuration
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	Inputs    InputsConfig    `mapstructure:"inputs" yaml:"inputs"`
	Claim     ClaimConfig     `mapstructure:"claim" yaml:"claim"`
	TUI       TUIConfig       `mapstructure:"tui" yaml:"tui"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

// SchedulerConfig holds the scheduling tunables. They are read once at
// startup and never change during a run.
type SchedulerConfig struct {
	// MaxConcurrent bounds simultaneous claims (forced to 1 for one account)
	MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	MaxRetries    int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MinLoop       time.Duration `mapstructure:"min_loop" yaml:"min_loop"`
	MaxLoop       time.Duration `mapstructure:"max_loop" yaml:"max_loop"`
	// ShutdownTimeout bounds how long a run waits for in-flight claims on quit
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// InputsConfig names the flat files accounts are loaded from
type InputsConfig struct {
	Wallets string `mapstructure:"wallets" yaml:"wallets"`
	// Proxies is optional; a missing file means every account is direct
	Proxies string `mapstructure:"proxies" yaml:"proxies"`
}

// ClaimConfig selects and configures the claim executor
type ClaimConfig struct {
	// Kind is "browser" or "command"
	Kind    string        `mapstructure:"kind" yaml:"kind"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Command CommandConfig `mapstructure:"command" yaml:"command"`
}

// BrowserConfig configures the headless browser executor
type BrowserConfig struct {
	TargetURL       string        `mapstructure:"target_url" yaml:"target_url"`
	ChromePath      string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	Amount          string        `mapstructure:"amount" yaml:"amount"`
	NavigateTimeout time.Duration `mapstructure:"navigate_timeout" yaml:"navigate_timeout"`
	InputTimeout    time.Duration `mapstructure:"input_timeout" yaml:"input_timeout"`
	SettleMin       time.Duration `mapstructure:"settle_min" yaml:"settle_min"`
	SettleMax       time.Duration `mapstructure:"settle_max" yaml:"settle_max"`
	ProofWait       time.Duration `mapstructure:"proof_wait" yaml:"proof_wait"`
	LaunchInterval  time.Duration `mapstructure:"launch_interval" yaml:"launch_interval"`
	LaunchBurst     int           `mapstructure:"launch_burst" yaml:"launch_burst"`
}

// CommandConfig configures the external command executor
type CommandConfig struct {
	Path    string        `mapstructure:"path" yaml:"path"`
	Args    []string      `mapstructure:"args" yaml:"args"`
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// TUIConfig controls the dashboard
type TUIConfig struct {
	// Enabled selects the interactive dashboard when stdout is a terminal
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// StatsInterval is how often the headless sink prints the counters
	StatsInterval time.Duration `mapstructure:"stats_interval" yaml:"stats_interval"`
}

// LoggingConfig controls the structured log file
type LoggingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Dir is the log directory; empty means <config dir>/logs
	Dir        string `mapstructure:"dir" yaml:"dir"`
	Level      string `mapstructure:"level" yaml:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	// Addr is the listen address, e.g. ":9464"; empty disables the endpoint
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	sched := scheduler.DefaultOptions()
	browser := claim.DefaultBrowserConfig()
	rotation := logging.DefaultRotationConfig()
	return &Config{
		Scheduler: SchedulerConfig{
			MaxConcurrent:   sched.MaxConcurrent,
			MaxRetries:      sched.MaxRetries,
			RetryDelay:      sched.RetryDelay,
			MinLoop:         sched.MinLoop,
			MaxLoop:         sched.MaxLoop,
			ShutdownTimeout: 15 * time.Second,
		},
		Inputs: InputsConfig{
			Wallets: "wallets.txt",
			Proxies: "proxies.txt",
		},
		Claim: ClaimConfig{
			Kind: string(claim.KindBrowser),
			Browser: BrowserConfig{
				TargetURL:       browser.TargetURL,
				Headless:        browser.Headless,
				UserAgent:       browser.UserAgent,
				Amount:          browser.Amount,
				NavigateTimeout: browser.NavigateTimeout,
				InputTimeout:    browser.InputTimeout,
				SettleMin:       browser.SettleMin,
				SettleMax:       browser.SettleMax,
				ProofWait:       browser.ProofWait,
				LaunchInterval:  browser.LaunchInterval,
				LaunchBurst:     browser.LaunchBurst,
			},
			Command: CommandConfig{
				Args: []string{},
			},
		},
		TUI: TUIConfig{
			Enabled:       true,
			StatsInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  rotation.MaxSizeMB,
			MaxBackups: rotation.MaxBackups,
			Compress:   rotation.Compress,
		},
	}
}

// SchedulerOptions converts the scheduler section into scheduler options
func (c *Config) SchedulerOptions() scheduler.Options {
	return scheduler.Options{
		MaxConcurrent: c.Scheduler.MaxConcurrent,
		MaxRetries:    c.Scheduler.MaxRetries,
		RetryDelay:    c.Scheduler.RetryDelay,
		MinLoop:       c.Scheduler.MinLoop,
		MaxLoop:       c.Scheduler.MaxLoop,
	}
}

// ClaimOptions converts the claim section into executor options. The kind
// is normalised; an invalid one is left for claim.New to reject.
func (c *Config) ClaimOptions() claim.Options {
	b := c.Claim.Browser
	kind, err := claim.ParseKind(c.Claim.Kind)
	if err != nil {
		kind = claim.Kind(c.Claim.Kind)
	}
	return claim.Options{
		Kind: kind,
		Browser: claim.BrowserConfig{
			TargetURL:       b.TargetURL,
			ChromePath:      b.ChromePath,
			Headless:        b.Headless,
			UserAgent:       b.UserAgent,
			Amount:          b.Amount,
			NavigateTimeout: b.NavigateTimeout,
			InputTimeout:    b.InputTimeout,
			SettleMin:       b.SettleMin,
			SettleMax:       b.SettleMax,
			ProofWait:       b.ProofWait,
			LaunchInterval:  b.LaunchInterval,
			LaunchBurst:     b.LaunchBurst,
		},
		Command: claim.CommandConfig{
			Path:    c.Claim.Command.Path,
			Args:    c.Claim.Command.Args,
			Dir:     c.Claim.Command.Dir,
			Timeout: c.Claim.Command.Timeout,
		},
	}
}

// Rotation converts the logging section into a rotation config
func (c *LoggingConfig) Rotation() logging.RotationConfig {
	return logging.RotationConfig{
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		Compress:   c.Compress,
	}
}

// LogDir returns the configured log directory or the default one
func (c *LoggingConfig) LogDir() string {
	if c.Dir != "" {
		return c.Dir
	}
	return filepath.Join(ConfigDir(), "logs")
}

// SetDefaults registers default values with viper. Durations are registered
// in their string form so AllSettings renders them readably.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	d := Default()

	// Scheduler defaults
	v.SetDefault("scheduler.max_concurrent", d.Scheduler.MaxConcurrent)
	v.SetDefault("scheduler.max_retries", d.Scheduler.MaxRetries)
	v.SetDefault("scheduler.retry_delay", d.Scheduler.RetryDelay.String())
	v.SetDefault("scheduler.min_loop", d.Scheduler.MinLoop.String())
	v.SetDefault("scheduler.max_loop", d.Scheduler.MaxLoop.String())
	v.SetDefault("scheduler.shutdown_timeout", d.Scheduler.ShutdownTimeout.String())

	// Input defaults
	v.SetDefault("inputs.wallets", d.Inputs.Wallets)
	v.SetDefault("inputs.proxies", d.Inputs.Proxies)

	// Claim defaults
	v.SetDefault("claim.kind", d.Claim.Kind)
	v.SetDefault("claim.browser.target_url", d.Claim.Browser.TargetURL)
	v.SetDefault("claim.browser.chrome_path", d.Claim.Browser.ChromePath)
	v.SetDefault("claim.browser.headless", d.Claim.Browser.Headless)
	v.SetDefault("claim.browser.user_agent", d.Claim.Browser.UserAgent)
	v.SetDefault("claim.browser.amount", d.Claim.Browser.Amount)
	v.SetDefault("claim.browser.navigate_timeout", d.Claim.Browser.NavigateTimeout.String())
	v.SetDefault("claim.browser.input_timeout", d.Claim.Browser.InputTimeout.String())
	v.SetDefault("claim.browser.settle_min", d.Claim.Browser.SettleMin.String())
	v.SetDefault("claim.browser.settle_max", d.Claim.Browser.SettleMax.String())
	v.SetDefault("claim.browser.proof_wait", d.Claim.Browser.ProofWait.String())
	v.SetDefault("claim.browser.launch_interval", d.Claim.Browser.LaunchInterval.String())
	v.SetDefault("claim.browser.launch_burst", d.Claim.Browser.LaunchBurst)
	v.SetDefault("claim.command.path", d.Claim.Command.Path)
	v.SetDefault("claim.command.args", d.Claim.Command.Args)
	v.SetDefault("claim.command.dir", d.Claim.Command.Dir)
	v.SetDefault("claim.command.timeout", d.Claim.Command.Timeout.String())

	// TUI defaults
	v.SetDefault("tui.enabled", d.TUI.Enabled)
	v.SetDefault("tui.stats_interval", d.TUI.StatsInterval.String())

	// Logging defaults
	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.compress", d.Logging.Compress)

	// Metrics defaults
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for a specific viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "midenclaim")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".midenclaim"
	}
	return filepath.Join(home, ".config", "midenclaim")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultSettings returns the default configuration as a nested map, the
// shape written by "config init".
func DefaultSettings() map[string]any {
	v := viper.New()
	setDefaults(v)
	return v.AllSettings()
}
