package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/semla/internal/allocation"
	"github.com/shrimpsizemoose/semla/internal/pairing"
	"github.com/shrimpsizemoose/semla/internal/selection"
	"github.com/shrimpsizemoose/semla/internal/store"
)

// Service wires the engine together: store, auth and the three
// domain services sharing them.
type Service struct {
	Config    *Config
	Store     store.EngineStore
	Auth      *Auth
	Allocator *allocation.Allocator
	Pairings  *pairing.Service
	Selector  *selection.Selector
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	pairings := pairing.NewService(st, config.DecisionWindow())

	return &Service{
		Config:    config,
		Store:     st,
		Auth:      auth,
		Allocator: allocation.NewAllocator(st),
		Pairings:  pairings,
		Selector:  selection.NewSelector(st, pairings),
	}, nil
}

func (s *Service) ValidateAuthAndTeam(r *http.Request, team string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Config.Auth.TokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), team, token)
}

func (s *Service) ValidateHeaders(headers map[string][]string) bool {
	for _, required := range s.Config.API.RequiredHeaders {
		value := headers[http.CanonicalHeaderKey(required.Name)]
		if len(value) == 0 || !strings.EqualFold(value[0], required.Value) {
			return false
		}
	}
	return true
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
