package resume

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/funvibe/cppi/internal/config"
	"github.com/funvibe/cppi/internal/diagnostics"
)

// Host answers Await prompts.
type Host interface {
	Input(ctx context.Context, prompt string) (string, error)
}

// HostFunc adapts a function to a Host.
type HostFunc func(ctx context.Context, prompt string) (string, error)

func (f HostFunc) Input(ctx context.Context, prompt string) (string, error) { return f(ctx, prompt) }

// Script answers prompts from a fixed list of lines.
type Script struct {
	Lines []string
	next  int
}

func (s *Script) Input(_ context.Context, prompt string) (string, error) {
	if s.next >= len(s.Lines) {
		return "", diagnostics.New(diagnostics.ErrNoInput, "no scripted input left for %q", prompt)
	}
	line := s.Lines[s.next]
	s.next++
	return line, nil
}

// Reader answers prompts with successive lines of r, writing each prompt
// to w when w is not nil.
func Reader(r io.Reader, w io.Writer) Host {
	sc := bufio.NewScanner(r)
	return HostFunc(func(_ context.Context, prompt string) (string, error) {
		if w != nil {
			fmt.Fprint(w, prompt)
		}
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", diagnostics.New(diagnostics.ErrNoInput, "input ended before %q was answered", prompt)
		}
		return sc.Text(), nil
	})
}

// Driver runs steps to completion.
type Driver struct {
	Host Host
	// MaxYields bounds consecutive Defer steps; zero means the default.
	MaxYields int
	Logger    *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Run drives s until it finishes. Await steps are answered by the host.
// Cancelling ctx stops the computation where it stands; work already done
// is not rolled back.
func Run[T any](ctx context.Context, d *Driver, s Step[T]) (T, error) {
	var zero T
	limit := d.MaxYields
	if limit <= 0 {
		limit = config.DefaultMaxYields
	}
	yields := 0
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		switch s.kind {
		case kindDone:
			return s.value, nil
		case kindFail:
			return zero, s.err
		case kindDefer:
			yields++
			if yields > limit {
				return zero, iterationLimit(limit)
			}
			s = s.thunk()
		case kindAwait:
			yields = 0
			if d.Host == nil {
				return zero, diagnostics.New(diagnostics.ErrNoInput, "computation awaits input for %q but no host is attached", s.prompt)
			}
			in, err := d.Host.Input(ctx, s.prompt)
			if err != nil {
				return zero, err
			}
			d.logger().Debug("resumed", "prompt", s.prompt)
			s = s.cont(in)
		}
	}
}
