package breaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrBlocked is returned when a breaker rejects the call without running it.
var ErrBlocked = errors.New("circuit breaker is blocking calls")

type Settings struct {
	MinRequests      uint32
	FailureRatio     float64
	Interval         time.Duration
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
	// Ignore lists errors that are returned to the caller but counted as successes.
	Ignore []error
}

type StateObserver func(name string, state gobreaker.State)

// Registry lazily creates one named breaker per protected operation.
type Registry struct {
	settings Settings
	observer StateObserver

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func New(settings Settings, observer StateObserver) *Registry {
	return &Registry{
		settings: settings,
		observer: observer,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Execute runs fn through the breaker with the given name.
func (r *Registry) Execute(name string, fn func() error) error {
	_, err := r.get(name).Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrBlocked
	}

	return err
}

func (r *Registry) State(name string) gobreaker.State {
	return r.get(name).State()
}

func (r *Registry) get(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	cb, ok := r.breakers[name]
	if ok {
		return cb
	}

	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          name,
		MaxRequests:   r.settings.HalfOpenRequests,
		Interval:      r.settings.Interval,
		Timeout:       r.settings.OpenTimeout,
		ReadyToTrip:   r.readyToTrip,
		OnStateChange: r.onStateChange,
		IsSuccessful:  r.isSuccessful,
	})
	r.breakers[name] = cb

	return cb
}

func (r *Registry) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < r.settings.MinRequests || counts.Requests == 0 {
		return false
	}

	ratio := float64(counts.TotalFailures) / float64(counts.Requests)

	return ratio >= r.settings.FailureRatio
}

func (r *Registry) isSuccessful(err error) bool {
	if err == nil {
		return true
	}

	for _, ignored := range r.settings.Ignore {
		if errors.Is(err, ignored) {
			return true
		}
	}

	return false
}

func (r *Registry) onStateChange(name string, from, to gobreaker.State) {
	slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())

	if r.observer != nil {
		r.observer(name, to)
	}
}
