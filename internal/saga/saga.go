// Package saga keeps an ordered stack of compensating actions for
// multi-step writes that span stores without a shared transaction.
package saga

import (
	"context"
	"errors"
	"fmt"

	"github.com/sbilibin2017/gw-recipe-book/internal/logger"
)

// Compensation undoes one completed step.
type Compensation func(ctx context.Context) error

type step struct {
	name string
	undo Compensation
}

// Saga records compensations as steps succeed and drains them in reverse
// order on failure. A Saga is not safe for concurrent use.
type Saga struct {
	name  string
	steps []step
}

// New creates an empty Saga labelled name in logs.
func New(name string) *Saga {
	return &Saga{name: name}
}

// Push registers the compensation for a step that has just succeeded.
func (s *Saga) Push(name string, undo Compensation) {
	s.steps = append(s.steps, step{name: name, undo: undo})
}

// Len reports the number of pending compensations.
func (s *Saga) Len() int {
	return len(s.steps)
}

// Rollback runs every pending compensation, last pushed first. A failing
// compensation is logged and does not stop the remaining ones. The joined
// compensation errors are returned for diagnostics only.
func (s *Saga) Rollback(ctx context.Context) error {
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		st := s.steps[i]
		if err := st.undo(ctx); err != nil {
			logger.Log.Errorw("compensation failed",
				"saga", s.name,
				"step", st.name,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
			continue
		}
		logger.Log.Infow("compensation applied", "saga", s.name, "step", st.name)
	}
	s.steps = nil
	return errors.Join(errs...)
}

// Forget drops pending compensations once every step has succeeded.
func (s *Saga) Forget() {
	s.steps = nil
}
