package translate

import (
	"context"
	"errors"
	"sync"
	"time"

	"bankreviews/internal/logger"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker stops calling a provider after threshold consecutive failures.
// Once cooldown has elapsed it lets a single trial call through; other
// callers are refused until that call is recorded.
type Breaker struct {
	mu          sync.Mutex
	name        string
	state       State
	failures    int
	threshold   int
	cooldown    time.Duration
	lastFailure time.Time
	probing     bool
}

// NewBreaker returns a breaker; threshold <= 0 disables it.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{name: name, threshold: threshold, cooldown: cooldown, state: StateClosed}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) > b.cooldown {
			b.transition(StateHalfOpen)
			b.probing = true
			return true
		}
		return false
	case StateHalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

// release ends a trial call that was neither a success nor a failure.
func (b *Breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.transition(StateClosed)
	}
	b.probing = false
	b.failures = 0
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if b.threshold <= 0 {
		return
	}
	b.failures++
	b.lastFailure = time.Now()

	switch b.state {
	case StateClosed:
		if b.failures >= b.threshold {
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.transition(StateOpen)
	}
}

func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	logger.Warnf("translation breaker %s: %s -> %s (failures=%d/%d, cooldown=%s)",
		b.name, from, to, b.failures, b.threshold, b.cooldown)
}

type guarded struct {
	Translator
	breaker *Breaker
}

// WithBreaker fails fast with ErrCircuitOpen while b is open. Cancellation
// of ctx is not counted as a provider failure.
func WithBreaker(tr Translator, b *Breaker) Translator {
	return &guarded{Translator: tr, breaker: b}
}

func (g *guarded) Translate(ctx context.Context, text, from, to string) (string, error) {
	if !g.breaker.Allow() {
		return "", ErrCircuitOpen
	}
	out, err := g.Translator.Translate(ctx, text, from, to)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, ErrEmptyText) {
			g.breaker.RecordFailure()
		} else {
			g.breaker.release()
		}
		return "", err
	}
	g.breaker.RecordSuccess()
	return out, nil
}
