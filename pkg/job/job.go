package job

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

type Func func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       Func
}

// Scheduler runs registered functions periodically until the context is done.
// Each job runs once right after Start.
type Scheduler struct {
	jobs []job
	wg   sync.WaitGroup
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) Register(name string, interval time.Duration, fn Func) *Scheduler {
	return s.TryRegister(true, name, interval, fn)
}

// TryRegister skips the job when it is disabled or has no positive interval.
func (s *Scheduler) TryRegister(isEnabled bool, name string, interval time.Duration, fn Func) *Scheduler {
	if !isEnabled || interval <= 0 {
		slog.Info("job disabled", "job", name)
		return s
	}

	s.jobs = append(s.jobs, job{
		name:     name,
		interval: interval,
		fn:       fn,
	})

	return s
}

func (s *Scheduler) Start(ctx context.Context) {
	for _, j := range s.jobs {
		s.wg.Add(1)

		go s.run(ctx, j)
	}
}

// Wait blocks until every started job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer s.wg.Done()

	l := slog.Default().With("job", j.name)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		l.DebugContext(ctx, "job started")

		start := time.Now()

		err := runSafe(ctx, l, j.fn)
		if err != nil {
			l.ErrorContext(ctx, "job failed", "error", err, "duration", time.Since(start))
		} else {
			l.DebugContext(ctx, "job done", "duration", time.Since(start))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func runSafe(ctx context.Context, l *slog.Logger, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.ErrorContext(ctx, "job panic", "error", r, "stack", string(debug.Stack()))
		}
	}()

	return fn(ctx)
}
