package governance

import "context"

// Limiter bounds how many guarded executions run at once. It is an advisory
// admission control: a zero or negative capacity disables limiting entirely.
type Limiter struct {
	slots chan struct{}
}

// NewLimiter creates a limiter with the given capacity.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		return &Limiter{}
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.slots == nil {
		return nil
	}
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired earlier.
func (l *Limiter) Release() {
	if l.slots == nil {
		return
	}
	<-l.slots
}
