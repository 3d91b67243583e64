// Package breaker isolates failing gateways. Each gateway owns one two-step circuit
// breaker; callers ask for permission, call the provider, then report the outcome.
package breaker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
	"github.com/sony/gobreaker"
)

var ErrOpen = errors.New("circuit breaker is open")

type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

type Snapshot struct {
	Gateway       domain.Gateway `json:"gateway"`
	State         State          `json:"state"`
	Failures      uint32         `json:"failures"`
	LastFailureAt *time.Time     `json:"last_failure_at,omitempty"`
	NextAttemptAt *time.Time     `json:"next_attempt_at,omitempty"`
}

// Done reports the outcome of a call admitted by Allow.
type Done func(success bool)

type Breaker interface {
	// Ready fails fast with ErrOpen while the gateway is cooling down. It does not
	// consume the half-open trial.
	Ready(gateway domain.Gateway) error
	// Allow admits one call. The returned Done must be invoked exactly once.
	Allow(gateway domain.Gateway) (Done, error)
	Snapshot(gateway domain.Gateway) Snapshot
}

type Settings struct {
	FailureThreshold uint32
	CoolDown         time.Duration
}

func DefaultSettings() Settings {
	return Settings{FailureThreshold: 5, CoolDown: 5 * time.Minute}
}

type entry struct {
	cb *gobreaker.TwoStepCircuitBreaker

	mu            sync.Mutex
	failures      uint32
	lastFailureAt *time.Time
	nextAttemptAt *time.Time
}

// Clock stamps failure and reopening times in snapshots.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Option func(*Registry)

// WithClock replaces the wall clock used for snapshot timestamps.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// Registry keeps one breaker per gateway. State lives in process memory only.
type Registry struct {
	settings Settings
	clock    Clock
	logger   *slog.Logger

	mu       sync.Mutex
	breakers map[domain.Gateway]*entry
}

func NewRegistry(settings Settings, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		settings: settings,
		clock:    systemClock{},
		logger:   logger,
		breakers: make(map[domain.Gateway]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) get(gateway domain.Gateway) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.breakers[gateway]; ok {
		return e
	}

	e := &entry{}
	threshold := r.settings.FailureThreshold
	e.cb = gobreaker.NewTwoStepCircuitBreaker(gobreaker.Settings{
		Name:        string(gateway),
		MaxRequests: 1,
		Interval:    0,
		Timeout:     r.settings.CoolDown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.mu.Lock()
			switch to {
			case gobreaker.StateOpen:
				next := r.clock.Now().Add(r.settings.CoolDown)
				e.nextAttemptAt = &next
			case gobreaker.StateClosed:
				e.nextAttemptAt = nil
				e.failures = 0
			}
			e.mu.Unlock()

			r.logger.Warn("circuit breaker state changed",
				"gateway", name,
				"from", toState(from),
				"to", toState(to),
			)
		},
	})
	r.breakers[gateway] = e
	return e
}

func (r *Registry) Ready(gateway domain.Gateway) error {
	if r.get(gateway).cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: %s", ErrOpen, gateway)
	}
	return nil
}

func (r *Registry) Allow(gateway domain.Gateway) (Done, error) {
	e := r.get(gateway)

	done, err := e.cb.Allow()
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s", ErrOpen, gateway)
		}
		return nil, err
	}

	return func(success bool) {
		if !success {
			now := r.clock.Now()
			e.mu.Lock()
			e.failures++
			e.lastFailureAt = &now
			e.mu.Unlock()
		} else {
			e.mu.Lock()
			e.failures = 0
			e.mu.Unlock()
		}
		done(success)
	}, nil
}

func (r *Registry) Snapshot(gateway domain.Gateway) Snapshot {
	e := r.get(gateway)
	state := toState(e.cb.State())

	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Gateway:       gateway,
		State:         state,
		Failures:      e.failures,
		LastFailureAt: e.lastFailureAt,
	}
	if state == StateOpen {
		s.NextAttemptAt = e.nextAttemptAt
	}
	return s
}

// Snapshots reports every gateway in a stable order.
func (r *Registry) Snapshots() []Snapshot {
	gateways := domain.Gateways()
	out := make([]Snapshot, 0, len(gateways))
	for _, g := range gateways {
		out = append(out, r.Snapshot(g))
	}
	return out
}

func toState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}
