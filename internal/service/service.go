package service

import (
	"github.com/rs/zerolog"

	"roombook/internal/events"
	"roombook/internal/scheduling"
	"roombook/internal/store"
)

// Service validates requests, runs the scheduling checks against the store
// and broadcasts the resulting events.
type Service struct {
	store  *store.Store
	engine *scheduling.Engine
	logger zerolog.Logger
}

// New creates a service over st.
func New(st *store.Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  st,
		engine: scheduling.NewEngine(st),
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// Store exposes the underlying store for subscribers and read-only callers.
func (s *Service) Store() *store.Store {
	return s.store
}

func (s *Service) broadcast(evs ...events.Event) {
	for _, e := range evs {
		s.store.Broadcast(e)
	}
}
