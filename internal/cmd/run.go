package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/claim"
	"github.com/red-hand/midenclaim/internal/config"
	"github.com/red-hand/midenclaim/internal/errors"
	"github.com/red-hand/midenclaim/internal/event"
	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/metrics"
	"github.com/red-hand/midenclaim/internal/scheduler"
	"github.com/red-hand/midenclaim/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the claim scheduler",
	Long: `Load the wallets and proxies, then claim for every account until
interrupted.

The dashboard is shown when stdout is a terminal; otherwise (or with
--no-tui) worker log lines and periodic stats are printed as plain text.

Examples:
  # Claim for every wallet in wallets.txt
  midenclaim run

  # Only accounts whose wallet matches a glob, without the dashboard
  midenclaim run --only 'mtst1qz*' --no-tui`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runNoTUI bool
	runOnly  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runNoTUI, "no-tui", false, "Print plain log lines instead of the dashboard")
	runCmd.Flags().StringVar(&runOnly, "only", "", "Only run accounts whose wallet or number matches this glob")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	runID := uuid.NewString()
	root, err := newLogger(cfg)
	if err != nil {
		return errors.NewStartupError(cfg.Logging.LogDir(), err)
	}
	defer func() { _ = root.Close() }()
	logger := root.WithRun(runID)

	accounts, proxies, err := loadAccounts(cfg.Inputs, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		return err
	}
	if runOnly != "" {
		if accounts, err = filterAccounts(accounts, runOnly); err != nil {
			return err
		}
	}
	if len(accounts) == 0 {
		logger.Warn("no accounts loaded", "wallets", cfg.Inputs.Wallets, "only", runOnly)
	}

	exec, err := claim.New(cfg.ClaimOptions(), logger)
	if err != nil {
		return errors.NewStartupError(cfg.Claim.Kind, err)
	}

	bus := event.NewBus()
	sched := scheduler.New(accounts, len(proxies), exec, cfg.SchedulerOptions(), bus, logger)

	watchConfig(root)

	sigCtx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var dashboard func(context.Context) error
	if cfg.TUI.Enabled && !runNoTUI && isTerminal(cmd.OutOrStdout()) {
		board := tui.NewBoard()
		defer board.Attach(bus)()
		dashboard = tui.New(board, sched, accounts).Run
	} else {
		headless := tui.NewHeadless(cmd.OutOrStdout(), sched, logger, cfg.TUI.StatsInterval)
		defer headless.Attach(bus)()
		dashboard = headless.Run
	}

	logger.Info("run starting",
		"accounts", len(accounts),
		"proxies", len(proxies),
		"executor", cfg.Claim.Kind,
		"max_concurrent", sched.MaxConcurrent(),
	)

	g, gctx := errgroup.WithContext(runCtx)
	if err := sched.Start(gctx); err != nil {
		return err
	}

	// The dashboard returning (quit key or signal) ends the run.
	g.Go(func() error {
		defer cancel()
		return dashboard(gctx)
	})
	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry(sched)
		g.Go(func() error {
			return metrics.Serve(gctx, cfg.Metrics.Addr, reg, logger)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return stopScheduler(sched, cfg.Scheduler.ShutdownTimeout, logger)
	})

	err = g.Wait()
	s := sched.Stats()
	logger.Info("run finished", "success", s.Success, "errors", s.Errors)
	return err
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	return logging.NewLoggerWithRotation(cfg.Logging.LogDir(), cfg.Logging.Level, cfg.Logging.Rotation())
}

// loadAccounts reads the wallets and proxies named by in. A missing or
// unreadable wallets file is a StartupError. The proxies file is optional:
// when it cannot be read every account runs direct.
func loadAccounts(in config.InputsConfig, logger *logging.Logger) ([]account.Account, []account.Proxy, error) {
	wallets, err := account.LoadWallets(in.Wallets)
	if err != nil {
		return nil, nil, errors.NewStartupError(in.Wallets, err)
	}
	var proxies []account.Proxy
	if in.Proxies != "" {
		if proxies, err = account.LoadProxies(in.Proxies); err != nil {
			logger.Warn("proxies unavailable, running direct", "path", in.Proxies, "error", err)
			proxies = nil
		}
	}
	return account.Assign(wallets, proxies), proxies, nil
}

// filterAccounts keeps the accounts whose wallet address or number matches
// pattern. Account numbers are not renumbered.
func filterAccounts(accounts []account.Account, pattern string) ([]account.Account, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid --only pattern %q", pattern)
	}
	var out []account.Account
	for _, a := range accounts {
		if g.Match(a.Wallet) || g.Match(strconv.Itoa(a.ID)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func stopScheduler(sched *scheduler.Scheduler, timeout time.Duration, logger *logging.Logger) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := sched.Stop(ctx); err != nil {
		logger.Warn("shutdown incomplete", "error", err)
	}
	return nil
}

// watchConfig applies logging.level changes from the config file without a
// restart. Scheduling tunables are fixed for the life of the run.
func watchConfig(logger *logging.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		level := viper.GetString("logging.level")
		if logging.ParseLevel(level) == logger.Level() {
			return
		}
		logger.SetLevel(level)
		logger.Info("log level changed", "level", logging.ParseLevel(level), "file", e.Name)
	})
	viper.WatchConfig()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
