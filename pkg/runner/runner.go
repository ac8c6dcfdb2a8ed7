package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/unicorn/internal/logging"
	"github.com/aretw0/unicorn/pkg/domain"
)

// Engine is the part of the composition engine the runner needs.
// *unicorn.Engine implements it.
type Engine interface {
	ProcessRuneContext(ctx context.Context, r rune) []domain.Action
	Candidates() []string
	SelectCandidate(i int) bool
	Snapshot() domain.Composition
	Deactivate()
}

// Runner handles the input loop of the engine using the configured IOHandler.
type Runner struct {
	Handler     IOHandler
	Logger      *slog.Logger
	DigitSelect bool
}

// NewRunner creates a Runner. Without WithInputHandler it reads keys from
// stdin and writes plain text to stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:      logging.NewNop(),
		DigitSelect: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run consumes events until the handler reports io.EOF, a quit event arrives or
// ctx is done. It returns all committed text.
func (r *Runner) Run(ctx context.Context, engine Engine) (string, error) {
	var committed strings.Builder
	for {
		if ctx.Err() != nil {
			r.Logger.Debug("runner stopped", "reason", ctx.Err())
			return committed.String(), nil
		}

		ev, err := r.Handler.Next(ctx)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return committed.String(), nil
		}
		if err != nil {
			return committed.String(), err
		}
		if ev.Kind == EventQuit {
			return committed.String(), nil
		}

		res := r.apply(ctx, engine, ev)
		for _, a := range res.Actions {
			if a.Kind == domain.ActionCommit {
				committed.WriteString(a.Text)
			}
		}
		if err := r.Handler.Output(ctx, res); err != nil {
			return committed.String(), err
		}
	}
}

func (r *Runner) apply(ctx context.Context, engine Engine, ev Event) Result {
	res := Result{Actions: []domain.Action{}}

	switch ev.Kind {
	case EventDeactivate:
		engine.Deactivate()
		res.Actions = append(res.Actions, domain.UpdateComposition(""))

	case EventSelect:
		res.Selection = engine.SelectCandidate(ev.Index)

	case EventKey:
		actions := engine.ProcessRuneContext(ctx, ev.Key)
		// A digit the table does not accept picks a candidate instead. Reject
		// never changes state, so this cannot shadow a digit mnemonic.
		if r.DigitSelect && isRejection(actions) && r.selectByDigit(engine, ev.Key) {
			res.Selection = true
			break
		}
		res.Actions = actions
	}

	res.Composition = engine.Snapshot()
	res.Candidates = engine.Candidates()
	return res
}

func (r *Runner) selectByDigit(engine Engine, key rune) bool {
	if key < '1' || key > '9' || !engine.Snapshot().Active {
		return false
	}
	return engine.SelectCandidate(int(key - '1'))
}

func isRejection(actions []domain.Action) bool {
	return len(actions) == 1 && actions[0].Kind == domain.ActionReject
}
