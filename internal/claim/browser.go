package claim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/errors"
	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/scheduler"
)

// Page selectors and defaults of the faucet form.
const (
	DefaultTargetURL = "https://faucet.testnet.miden.io/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultAmount    = "1000"

	recipientSelector = "#recipient-address"
	amountSelector    = "#token-amount"
	sendSelector      = "#send-public-button"
)

// BrowserConfig configures BrowserExecutor.
type BrowserConfig struct {
	TargetURL  string
	ChromePath string // empty uses chromedp's lookup
	Headless   bool
	UserAgent  string
	Amount     string // amount option label to pick

	NavigateTimeout time.Duration
	InputTimeout    time.Duration
	SettleMin       time.Duration
	SettleMax       time.Duration
	ProofWait       time.Duration

	// LaunchInterval and LaunchBurst throttle browser start-ups across
	// all workers.
	LaunchInterval time.Duration
	LaunchBurst    int
}

// DefaultBrowserConfig returns the production browser settings.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		TargetURL:       DefaultTargetURL,
		Headless:        true,
		UserAgent:       DefaultUserAgent,
		Amount:          DefaultAmount,
		NavigateTimeout: 60 * time.Second,
		InputTimeout:    30 * time.Second,
		SettleMin:       2 * time.Second,
		SettleMax:       5 * time.Second,
		ProofWait:       60 * time.Second,
		LaunchInterval:  2 * time.Second,
		LaunchBurst:     2,
	}
}

func (c BrowserConfig) withDefaults() BrowserConfig {
	d := DefaultBrowserConfig()
	if c.TargetURL == "" {
		c.TargetURL = d.TargetURL
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Amount == "" {
		c.Amount = d.Amount
	}
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = d.NavigateTimeout
	}
	if c.InputTimeout <= 0 {
		c.InputTimeout = d.InputTimeout
	}
	if c.SettleMax < c.SettleMin {
		c.SettleMax = c.SettleMin
	}
	if c.LaunchBurst <= 0 {
		c.LaunchBurst = 1
	}
	return c
}

// hideAutomation runs before any page script.
const hideAutomation = `
if (!Uint8Array.fromHex) {
  Uint8Array.fromHex = function (hex) {
    if (hex.length % 2 !== 0) throw new Error('Invalid hex');
    const out = new Uint8Array(hex.length / 2);
    for (let i = 0; i < hex.length; i += 2) out[i / 2] = parseInt(hex.substring(i, i + 2), 16);
    return out;
  };
}
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
`

// selectAmountJS picks the option labelled %q, or the last option, and
// returns the chosen label.
const selectAmountJS = `(() => {
  const sel = document.querySelector(%q);
  if (!sel || sel.options.length === 0) return '';
  const opts = Array.from(sel.options);
  const opt = opts.find(o => o.label.trim() === %q) || opts[opts.length - 1];
  sel.value = opt.value;
  sel.dispatchEvent(new Event('change', { bubbles: true }));
  return opt.label;
})()`

// BrowserExecutor claims through a fresh headless Chrome per attempt.
type BrowserExecutor struct {
	cfg     BrowserConfig
	limiter *rate.Limiter
	logger  *logging.Logger
}

// NewBrowserExecutor creates a BrowserExecutor.
func NewBrowserExecutor(cfg BrowserConfig, logger *logging.Logger) *BrowserExecutor {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = logging.NopLogger()
	}
	limit := rate.Inf
	if cfg.LaunchInterval > 0 {
		limit = rate.Every(cfg.LaunchInterval)
	}
	return &BrowserExecutor{
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, cfg.LaunchBurst),
		logger:  logger.With("executor", string(KindBrowser)),
	}
}

// Execute performs one claim for acct.
func (b *BrowserExecutor) Execute(ctx context.Context, acct account.Account, progress scheduler.Progress) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return errors.NewClaimError("launch", err).WithAccount(acct.ID)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions(acct.Route)...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer b.closeBrowser(browserCtx, cancelBrowser, acct.ID)

	if p, ok := acct.Route.Proxy(); ok && p.HasCredentials() {
		b.answerProxyAuth(browserCtx, p)
	}

	if err := chromedp.Run(browserCtx, b.prepare(acct.Route)); err != nil {
		return errors.NewClaimError("launch", fmt.Errorf("%w: %w", errors.ErrBrowserLaunch, err)).WithAccount(acct.ID)
	}

	progress.Logf("Opening %s", b.cfg.TargetURL)
	if err := b.step(browserCtx, "navigate", b.cfg.NavigateTimeout, chromedp.Navigate(b.cfg.TargetURL)); err != nil {
		return b.fail(acct, err)
	}

	progress.Logf("Waiting for input...")
	if err := b.step(browserCtx, "wait for input", b.cfg.InputTimeout,
		chromedp.WaitVisible(recipientSelector, chromedp.ByQuery)); err != nil {
		return b.fail(acct, err)
	}

	progress.Logf("Typing wallet...")
	if err := b.step(browserCtx, "type wallet", b.cfg.InputTimeout,
		chromedp.SetValue(recipientSelector, "", chromedp.ByQuery),
		chromedp.SendKeys(recipientSelector, acct.Wallet, chromedp.ByQuery)); err != nil {
		return b.fail(acct, err)
	}

	progress.Logf("Selecting amount (%s)...", b.cfg.Amount)
	var chosen string
	if err := b.step(browserCtx, "select amount", b.cfg.InputTimeout,
		chromedp.Evaluate(selectAmountScript(b.cfg.Amount), &chosen)); err != nil {
		return b.fail(acct, err)
	}
	if chosen != "" && chosen != b.cfg.Amount {
		progress.Logf("Amount %s unavailable, using %s", b.cfg.Amount, chosen)
	}

	if err := chromedp.Run(browserCtx, chromedp.Sleep(settleDelay(b.cfg.SettleMin, b.cfg.SettleMax))); err != nil {
		return b.fail(acct, errors.NewClaimError("settle", err))
	}

	progress.Logf("Clicking SEND...")
	if err := b.step(browserCtx, "click send", b.cfg.InputTimeout,
		chromedp.Click(sendSelector, chromedp.ByQuery)); err != nil {
		return b.fail(acct, err)
	}
	progress.Submitted()

	progress.Logf("Waiting for Proof Generation (%ds)...", int(b.cfg.ProofWait/time.Second))
	if err := chromedp.Run(browserCtx, chromedp.Sleep(b.cfg.ProofWait)); err != nil {
		return b.fail(acct, errors.NewClaimError("proof generation", err))
	}
	return nil
}

func (b *BrowserExecutor) allocatorOptions(route account.Route) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.NoSandbox,
		chromedp.UserAgent(b.cfg.UserAgent),
		chromedp.WindowSize(1280, 720),
	)
	if b.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ChromePath))
	}
	if p, ok := route.Proxy(); ok {
		opts = append(opts, chromedp.ProxyServer(p.Server))
	}
	return opts
}

// prepare installs the page hooks and, for authenticated proxies, turns on
// request interception so auth challenges reach answerProxyAuth.
func (b *BrowserExecutor) prepare(route account.Route) chromedp.Tasks {
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(1280, 720),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideAutomation).Do(ctx)
			return err
		}),
	}
	if p, ok := route.Proxy(); ok && p.HasCredentials() {
		tasks = append(tasks, fetch.Enable().WithHandleAuthRequests(true))
	}
	return tasks
}

// answerProxyAuth supplies the proxy credentials whenever Chrome asks.
// Paused requests must be continued explicitly once Fetch is enabled.
func (b *BrowserExecutor) answerProxyAuth(ctx context.Context, p account.Proxy) {
	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev := ev.(type) {
		case *fetch.EventRequestPaused:
			go func() {
				execCtx := cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Target)
				_ = fetch.ContinueRequest(ev.RequestID).Do(execCtx)
			}()
		case *fetch.EventAuthRequired:
			go func() {
				execCtx := cdp.WithExecutor(ctx, chromedp.FromContext(ctx).Target)
				_ = fetch.ContinueWithAuth(ev.RequestID, &fetch.AuthChallengeResponse{
					Response: fetch.AuthChallengeResponseResponseProvideCredentials,
					Username: p.Username,
					Password: p.Password,
				}).Do(execCtx)
			}()
		}
	})
}

// step runs actions under their own deadline and names the phase on failure.
func (b *BrowserExecutor) step(ctx context.Context, phase string, timeout time.Duration, actions ...chromedp.Action) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := chromedp.Run(stepCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
		err = errors.NewTimeoutError(phase, timeout).WithCause(err)
	}
	return errors.NewClaimError(phase, err)
}

func (b *BrowserExecutor) fail(acct account.Account, err error) error {
	var ce *errors.ClaimError
	if errors.As(err, &ce) {
		return ce.WithAccount(acct.ID)
	}
	return errors.NewClaimError("claim", err).WithAccount(acct.ID)
}

// closeBrowser shuts Chrome down. Failures are logged and dropped.
func (b *BrowserExecutor) closeBrowser(ctx context.Context, cancel context.CancelFunc, accountID int) {
	if err := chromedp.Cancel(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cerr := errors.NewCleanupError("browser", err)
		b.logger.WithAccount(accountID).Debug("browser cleanup failed", "error", cerr.Error())
	}
	cancel()
}

func selectAmountScript(amount string) string {
	return fmt.Sprintf(selectAmountJS, amountSelector, amount)
}

// settleDelay is a uniform pause in [lo, hi].
func settleDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
