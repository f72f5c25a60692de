package claim

import (
	"fmt"
	"strings"

	"github.com/red-hand/midenclaim/internal/logging"
	"github.com/red-hand/midenclaim/internal/scheduler"
)

// Kind selects an executor implementation.
type Kind string

const (
	KindBrowser Kind = "browser"
	KindCommand Kind = "command"
)

// Kinds returns every supported executor kind.
func Kinds() []Kind { return []Kind{KindBrowser, KindCommand} }

// ParseKind converts a configuration value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindBrowser, KindCommand:
		return k, nil
	default:
		return "", fmt.Errorf("unknown executor %q (want browser or command)", s)
	}
}

// Options configures New.
type Options struct {
	Kind    Kind
	Browser BrowserConfig
	Command CommandConfig
}

// New builds the executor selected by opts.Kind.
func New(opts Options, logger *logging.Logger) (scheduler.Executor, error) {
	switch opts.Kind {
	case KindBrowser, "":
		return NewBrowserExecutor(opts.Browser, logger), nil
	case KindCommand:
		c, err := NewCommandExecutor(opts.Command, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown executor %q", opts.Kind)
	}
}
