package claim

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/red-hand/midenclaim/internal/account"
	"github.com/red-hand/midenclaim/internal/errors"
	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/ringlog"
	"github.com/red-hand/midenclaim/internal/scheduler"
)

// SubmittedMarker is the stdout line a claim command prints once the claim
// has been sent.
const SubmittedMarker = "SUBMITTED"

// Placeholders expanded in command arguments.
const (
	PlaceholderWallet  = "{wallet}"
	PlaceholderProxy   = "{proxy}"
	PlaceholderAccount = "{account}"
)

// Environment variables set for the claim command.
const (
	EnvWallet        = "MIDENCLAIM_WALLET"
	EnvAccountID     = "MIDENCLAIM_ACCOUNT_ID"
	EnvProxyServer   = "MIDENCLAIM_PROXY_SERVER"
	EnvProxyUsername = "MIDENCLAIM_PROXY_USERNAME"
	EnvProxyPassword = "MIDENCLAIM_PROXY_PASSWORD"
)

const stderrTail = 5

// CommandConfig configures CommandExecutor.
type CommandConfig struct {
	Path    string
	Args    []string
	Dir     string
	Timeout time.Duration // 0 means no limit beyond the scheduler's context
	// WaitDelay bounds how long the process may linger after being killed.
	WaitDelay time.Duration
}

// CommandExecutor runs an external program per claim.
type CommandExecutor struct {
	cfg    CommandConfig
	logger *logging.Logger
}

// NewCommandExecutor checks that the program exists and returns an executor
// for it.
func NewCommandExecutor(cfg CommandConfig, logger *logging.Logger) (*CommandExecutor, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("claim command path is empty")
	}
	path, err := exec.LookPath(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("claim command not found: %w", err)
	}
	cfg.Path = path
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = 5 * time.Second
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &CommandExecutor{cfg: cfg, logger: logger.With("executor", string(KindCommand))}, nil
}

// Execute runs the command for acct. Each stdout line other than the
// SUBMITTED marker is copied to the worker log.
func (c *CommandExecutor) Execute(ctx context.Context, acct account.Account, progress scheduler.Progress) error {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.cfg.Path, expandArgs(c.cfg.Args, acct)...)
	cmd.Dir = c.cfg.Dir
	cmd.Env = append(os.Environ(), commandEnv(acct)...)
	cmd.WaitDelay = c.cfg.WaitDelay

	stderr := ringlog.New(stderrTail)
	outLines := &lineWriter{onLine: func(line string) {
		if line == SubmittedMarker {
			progress.Submitted()
			return
		}
		progress.Logf("%s", line)
	}}
	cmd.Stdout = outLines
	errLines := &lineWriter{onLine: stderr.Append}
	cmd.Stderr = errLines

	progress.Logf("Starting %s", shortCommand(c.cfg.Path))
	if err := cmd.Start(); err != nil {
		return errors.NewClaimError("start command", err).WithAccount(acct.ID)
	}

	err := cmd.Wait()
	outLines.Flush()
	errLines.Flush()
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && c.cfg.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewClaimError("command", errors.NewTimeoutError("claim command", c.cfg.Timeout).WithCause(err)).WithAccount(acct.ID)
	case ctx.Err() != nil:
		return errors.NewClaimError("command", ctx.Err()).WithAccount(acct.ID)
	}

	reason := err.Error()
	if tail := stderr.Tail(1); len(tail) > 0 {
		reason = tail[0]
	}
	c.logger.WithAccount(acct.ID).Debug("claim command failed", "error", err.Error(), "stderr", strings.Join(stderr.Lines(), " | "))
	return errors.NewClaimError("command", fmt.Errorf("%s: %w", reason, errors.ErrCommandFailed)).WithAccount(acct.ID)
}

func expandArgs(args []string, acct account.Account) []string {
	server := ""
	if p, ok := acct.Route.Proxy(); ok {
		server = p.Server
	}
	r := strings.NewReplacer(
		PlaceholderWallet, acct.Wallet,
		PlaceholderProxy, server,
		PlaceholderAccount, strconv.Itoa(acct.ID),
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

func commandEnv(acct account.Account) []string {
	env := []string{
		EnvWallet + "=" + acct.Wallet,
		EnvAccountID + "=" + strconv.Itoa(acct.ID),
	}
	if p, ok := acct.Route.Proxy(); ok {
		env = append(env, EnvProxyServer+"="+p.Server)
		if p.HasCredentials() {
			env = append(env,
				EnvProxyUsername+"="+p.Username,
				EnvProxyPassword+"="+p.Password,
			)
		}
	}
	return env
}

func shortCommand(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// maxLineBytes caps a pending output line; longer runs without a newline
// are emitted in pieces of this size.
const maxLineBytes = 4 << 10

// lineWriter calls onLine for every complete, non-blank line written to it.
type lineWriter struct {
	mu      sync.Mutex
	partial strings.Builder
	onLine  func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, b := range p {
		if b == '\n' {
			w.flushLocked()
			continue
		}
		w.partial.WriteByte(b)
		if w.partial.Len() >= maxLineBytes {
			w.flushLocked()
		}
	}
	return len(p), nil
}

// Flush emits a trailing line that has no newline.
func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *lineWriter) flushLocked() {
	line := strings.TrimSpace(w.partial.String())
	w.partial.Reset()
	if line != "" {
		w.onLine(line)
	}
}
