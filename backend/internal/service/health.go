package service

import (
	"context"
	"fmt"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health pings every dependency a request may need.
type Health struct {
	names   []string
	pingers []Pinger
}

func NewHealth() *Health {
	return &Health{}
}

func (h *Health) Add(name string, p Pinger) *Health {
	h.names = append(h.names, name)
	h.pingers = append(h.pingers, p)
	return h
}

func (h *Health) Ping(ctx context.Context) error {
	for i, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s unavailable: %w", h.names[i], err)
		}
	}
	return nil
}
