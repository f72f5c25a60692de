package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/red-hand/midenclaim/internal/claim"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scheduler.MaxConcurrent != 4 {
		t.Errorf("Scheduler.MaxConcurrent = %d, want 4", cfg.Scheduler.MaxConcurrent)
	}
	if cfg.Scheduler.MaxRetries != 3 {
		t.Errorf("Scheduler.MaxRetries = %d, want 3", cfg.Scheduler.MaxRetries)
	}
	if cfg.Scheduler.RetryDelay != time.Minute {
		t.Errorf("Scheduler.RetryDelay = %v, want 1m", cfg.Scheduler.RetryDelay)
	}
	if cfg.Scheduler.MinLoop != 5*time.Minute || cfg.Scheduler.MaxLoop != 10*time.Minute {
		t.Errorf("loop bounds = [%v, %v], want [5m, 10m]", cfg.Scheduler.MinLoop, cfg.Scheduler.MaxLoop)
	}
	if cfg.Inputs.Wallets != "wallets.txt" || cfg.Inputs.Proxies != "proxies.txt" {
		t.Errorf("Inputs = %+v", cfg.Inputs)
	}
	if cfg.Claim.Kind != "browser" {
		t.Errorf("Claim.Kind = %q, want browser", cfg.Claim.Kind)
	}
	if cfg.Claim.Browser.TargetURL != claim.DefaultTargetURL {
		t.Errorf("Claim.Browser.TargetURL = %q", cfg.Claim.Browser.TargetURL)
	}
	if !cfg.TUI.Enabled {
		t.Error("TUI.Enabled should be true by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Metrics.Addr != "" {
		t.Errorf("Metrics.Addr = %q, want empty", cfg.Metrics.Addr)
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v", errs)
	}
}

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	setDefaults(v)
	return v
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(newViper(t))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	want := Default()
	if cfg.Scheduler != want.Scheduler {
		t.Errorf("Scheduler = %+v, want %+v", cfg.Scheduler, want.Scheduler)
	}
	if cfg.Claim.Browser != want.Claim.Browser {
		t.Errorf("Claim.Browser = %+v, want %+v", cfg.Claim.Browser, want.Claim.Browser)
	}
	if cfg.Logging != want.Logging {
		t.Errorf("Logging = %+v, want %+v", cfg.Logging, want.Logging)
	}
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scheduler:
  max_concurrent: 2
  retry_delay: 30s
  max_loop: 1h
claim:
  kind: command
  command:
    path: /usr/local/bin/claim
    args: ["--wallet", "{wallet}"]
    timeout: 2m
metrics:
  addr: ":9464"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := newViper(t)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Scheduler.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.Scheduler.MaxConcurrent)
	}
	if cfg.Scheduler.RetryDelay != 30*time.Second {
		t.Errorf("RetryDelay = %v, want 30s", cfg.Scheduler.RetryDelay)
	}
	if cfg.Scheduler.MaxLoop != time.Hour {
		t.Errorf("MaxLoop = %v, want 1h", cfg.Scheduler.MaxLoop)
	}
	if cfg.Scheduler.MinLoop != 5*time.Minute {
		t.Errorf("MinLoop = %v, want default 5m", cfg.Scheduler.MinLoop)
	}
	if cfg.Claim.Command.Path != "/usr/local/bin/claim" || len(cfg.Claim.Command.Args) != 2 {
		t.Errorf("Claim.Command = %+v", cfg.Claim.Command)
	}
	if cfg.Claim.Command.Timeout != 2*time.Minute {
		t.Errorf("Claim.Command.Timeout = %v, want 2m", cfg.Claim.Command.Timeout)
	}
	if cfg.Metrics.Addr != ":9464" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("MIDENCLAIM_SCHEDULER_MAX_RETRIES", "7")
	t.Setenv("MIDENCLAIM_LOGGING_LEVEL", "debug")

	v := newViper(t)
	v.SetEnvPrefix("MIDENCLAIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg, err := LoadFrom(v)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Scheduler.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.Scheduler.MaxRetries)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	v := newViper(t)
	v.Set("scheduler.max_concurrent", 0)
	v.Set("logging.level", "verbose")

	_, err := LoadFrom(v)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("LoadFrom() error = %v, want ValidationErrors", err)
	}
	if len(verrs) != 2 {
		t.Errorf("got %d validation errors, want 2: %v", len(verrs), verrs)
	}
}

func TestConfig_SchedulerOptions(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.MaxConcurrent = 6
	cfg.Scheduler.RetryDelay = 10 * time.Second

	opts := cfg.SchedulerOptions()
	if opts.MaxConcurrent != 6 || opts.RetryDelay != 10*time.Second || opts.MaxRetries != 3 {
		t.Errorf("SchedulerOptions() = %+v", opts)
	}
	if opts.MinLoop != 5*time.Minute || opts.MaxLoop != 10*time.Minute {
		t.Errorf("loop bounds = [%v, %v]", opts.MinLoop, opts.MaxLoop)
	}
}

func TestConfig_ClaimOptions(t *testing.T) {
	cfg := Default()
	cfg.Claim.Kind = " Command "
	cfg.Claim.Command.Path = "claim.sh"
	cfg.Claim.Browser.ChromePath = "/opt/chrome"

	opts := cfg.ClaimOptions()
	if opts.Kind != claim.KindCommand {
		t.Errorf("Kind = %q, want command", opts.Kind)
	}
	if opts.Command.Path != "claim.sh" {
		t.Errorf("Command.Path = %q", opts.Command.Path)
	}
	if opts.Browser.ChromePath != "/opt/chrome" || opts.Browser.Amount != claim.DefaultAmount {
		t.Errorf("Browser = %+v", opts.Browser)
	}
}

func TestLoggingConfig_Paths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	if got := ConfigDir(); got != filepath.Join("/tmp/xdg", "midenclaim") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigFile(); got != filepath.Join("/tmp/xdg", "midenclaim", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}

	l := LoggingConfig{}
	if got := l.LogDir(); got != filepath.Join("/tmp/xdg", "midenclaim", "logs") {
		t.Errorf("LogDir() default = %q", got)
	}
	l.Dir = "/var/log/midenclaim"
	if got := l.LogDir(); got != "/var/log/midenclaim" {
		t.Errorf("LogDir() = %q", got)
	}

	l.MaxSizeMB, l.MaxBackups, l.Compress = 5, 2, true
	r := l.Rotation()
	if r.MaxSizeMB != 5 || r.MaxBackups != 2 || !r.Compress {
		t.Errorf("Rotation() = %+v", r)
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	sched, ok := settings["scheduler"].(map[string]any)
	if !ok {
		t.Fatalf("scheduler section = %T", settings["scheduler"])
	}
	if sched["retry_delay"] != "1m0s" {
		t.Errorf("scheduler.retry_delay = %v, want 1m0s", sched["retry_delay"])
	}
	if sched["max_concurrent"] != 4 {
		t.Errorf("scheduler.max_concurrent = %v, want 4", sched["max_concurrent"])
	}
	for _, section := range []string{"inputs", "claim", "tui", "logging", "metrics"} {
		if _, ok := settings[section]; !ok {
			t.Errorf("missing section %q", section)
		}
	}
}
