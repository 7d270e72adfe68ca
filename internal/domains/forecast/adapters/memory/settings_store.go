package memory

import (
	"context"
	"sync"

	"github.com/fincast/balance-forecast/internal/domains/forecast/ports"
)

var _ ports.SettingsStore = (*SettingsStore)(nil)

// SettingsStore is an in-memory settings adapter. It starts empty: Get
// returns ErrSettingsNotFound until a configuration is stored, matching the
// configuration-error semantics of a run against an unconfigured system.
type SettingsStore struct {
	mu       sync.RWMutex
	settings *ports.Settings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{}
}

// NewSeededSettingsStore starts with a configuration already present.
func NewSeededSettingsStore(settings ports.Settings) *SettingsStore {
	return &SettingsStore{settings: &settings}
}

func (s *SettingsStore) Get(_ context.Context) (ports.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return ports.Settings{}, ports.ErrSettingsNotFound
	}
	return *s.settings, nil
}

func (s *SettingsStore) Put(_ context.Context, settings ports.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}
