package claim

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/errors"
)

func TestSettleDelay(t *testing.T) {
	lo, hi := 2*time.Second, 5*time.Second
	for range 500 {
		if d := settleDelay(lo, hi); d < lo || d > hi {
			t.Fatalf("settleDelay() = %v, outside [%v, %v]", d, lo, hi)
		}
	}
	if d := settleDelay(3*time.Second, time.Second); d != 3*time.Second {
		t.Errorf("inverted range = %v, want lower bound", d)
	}
}

func TestSelectAmountScript(t *testing.T) {
	js := selectAmountScript("1000")
	for _, want := range []string{`"#token-amount"`, `"1000"`, "opts[opts.length - 1]", "dispatchEvent"} {
		if !strings.Contains(js, want) {
			t.Errorf("script missing %q:\n%s", want, js)
		}
	}
}

func TestBrowserConfigDefaults(t *testing.T) {
	cfg := BrowserConfig{SettleMin: 4 * time.Second, SettleMax: time.Second}.withDefaults()

	if cfg.TargetURL != DefaultTargetURL || cfg.Amount != DefaultAmount || cfg.UserAgent != DefaultUserAgent {
		t.Errorf("string defaults not applied: %+v", cfg)
	}
	if cfg.NavigateTimeout != 60*time.Second || cfg.InputTimeout != 30*time.Second {
		t.Errorf("timeouts = %v / %v", cfg.NavigateTimeout, cfg.InputTimeout)
	}
	if cfg.SettleMax != cfg.SettleMin {
		t.Errorf("SettleMax = %v, want clamped to %v", cfg.SettleMax, cfg.SettleMin)
	}
	if cfg.LaunchBurst != 1 {
		t.Errorf("LaunchBurst = %d, want 1", cfg.LaunchBurst)
	}
}

func TestAllocatorOptions_Proxy(t *testing.T) {
	b := NewBrowserExecutor(DefaultBrowserConfig(), nil)

	direct := b.allocatorOptions(account.Direct())
	proxied := b.allocatorOptions(account.Via(account.Proxy{Server: "http://10.0.0.1:8080"}))
	if len(proxied) != len(direct)+1 {
		t.Errorf("proxied options = %d, want %d", len(proxied), len(direct)+1)
	}

	b = NewBrowserExecutor(BrowserConfig{ChromePath: "/opt/chrome/chrome"}, nil)
	if got := len(b.allocatorOptions(account.Direct())); got != len(direct)+1 {
		t.Errorf("options with exec path = %d, want %d", got, len(direct)+1)
	}
}

func TestPrepare_EnablesFetchOnlyForAuthenticatedProxy(t *testing.T) {
	b := NewBrowserExecutor(DefaultBrowserConfig(), nil)

	tests := []struct {
		name  string
		route account.Route
		want  int
	}{
		{"direct", account.Direct(), 2},
		{"open proxy", account.Via(account.Proxy{Server: "http://h:1"}), 2},
		{"authenticated proxy", account.Via(account.Proxy{Server: "http://h:1", Username: "u", Password: "p"}), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(b.prepare(tt.route)); got != tt.want {
				t.Errorf("prepare() has %d tasks, want %d", got, tt.want)
			}
		})
	}
}

func TestBrowserExecutor_LaunchFailure(t *testing.T) {
	b := NewBrowserExecutor(BrowserConfig{ChromePath: "/nonexistent/chrome-for-tests"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	acct := account.Account{ID: 4, Wallet: "mtst1qlaunchfailure", Route: account.Direct()}

	err := b.Execute(ctx, acct, &progressRecorder{})
	if !errors.Is(err, errors.ErrBrowserLaunch) {
		t.Fatalf("Execute() = %v, want ErrBrowserLaunch", err)
	}
	var ce *errors.ClaimError
	if !errors.As(err, &ce) || ce.Phase != "launch" || ce.AccountID != 4 {
		t.Errorf("want launch ClaimError for account 4, got %#v", err)
	}
}

func TestBrowserExecutor_LaunchThrottleHonoursContext(t *testing.T) {
	b := NewBrowserExecutor(BrowserConfig{LaunchInterval: time.Hour, LaunchBurst: 1}, nil)
	// Use up the only token.
	b.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Execute(ctx, account.Account{ID: 1, Route: account.Direct()}, &progressRecorder{})

	var ce *errors.ClaimError
	if !errors.As(err, &ce) || ce.Phase != "launch" {
		t.Errorf("Execute() = %v, want launch ClaimError from the limiter", err)
	}
}

func TestNew(t *testing.T) {
	exec, err := New(Options{Kind: KindBrowser}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := exec.(*BrowserExecutor); !ok {
		t.Errorf("New(browser) = %T", exec)
	}
	if _, err := New(Options{Kind: "nope"}, nil); err == nil {
		t.Error("unknown kind should fail")
	}
	if _, err := New(Options{Kind: KindCommand}, nil); err == nil {
		t.Error("command kind without a path should fail")
	}
}
