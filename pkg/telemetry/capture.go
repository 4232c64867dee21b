package telemetry

import (
	"context"
	"sync"
)

// CaptureSink records every emitted event in memory. Intended for tests and
// diagnostics; safe for concurrent use.
type CaptureSink struct {
	mu     sync.Mutex
	events []Event
}

// NewCaptureSink returns an empty capture sink.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// Emit implements Sink.
func (c *CaptureSink) Emit(_ context.Context, ev Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

// Events returns a copy of everything captured so far.
func (c *CaptureSink) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Names returns the captured event names in emission order.
func (c *CaptureSink) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.events))
	for _, ev := range c.events {
		names = append(names, ev.Name)
	}
	return names
}

// ByName returns all captured events with the given name.
func (c *CaptureSink) ByName(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}
