package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/Veraticus/leech-actions/internal/common"
	"github.com/Veraticus/leech-actions/internal/model"
)

// AddonName is the key the configuration document is stored under.
const AddonName = "leech_actions"

// Store persists the raw configuration document.
// GetAddonConfig returns an error wrapping common.ErrNotFound when nothing was saved yet.
type Store interface {
	GetAddonConfig(ctx context.Context, name string) ([]byte, error)
	SaveAddonConfig(ctx context.Context, name string, raw []byte) error
}

// Manager owns the live configuration. Readers get immutable snapshots;
// a failed save leaves the previous configuration in effect.
type Manager struct {
	store       Store
	current     model.Configuration
	subscribers []func(model.Configuration)
	mu          sync.RWMutex
}

// Open loads the stored configuration, migrating it when it is older than
// CurrentVersion and writing the migrated form back.
func Open(ctx context.Context, store Store) (*Manager, error) {
	raw, err := store.GetAddonConfig(ctx, AddonName)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	cfg, stored, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	m := &Manager{store: store, current: cfg}

	if raw == nil || stored < CurrentVersion {
		slog.Info("Upgrading stored configuration",
			"from_version", stored,
			"to_version", CurrentVersion)
		if err := m.persist(ctx, cfg); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Current returns a snapshot of the live configuration.
func (m *Manager) Current() model.Configuration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// Save validates and persists cfg, then notifies subscribers.
func (m *Manager) Save(ctx context.Context, cfg model.Configuration) error {
	cfg = Normalize(cfg)
	if err := m.persist(ctx, cfg); err != nil {
		return err
	}
	m.publish(cfg)
	return nil
}

// Update applies fn to a snapshot of the current configuration and saves the result.
func (m *Manager) Update(ctx context.Context, fn func(*model.Configuration) error) error {
	cfg := m.Current()
	if err := fn(&cfg); err != nil {
		return err
	}
	return m.Save(ctx, cfg)
}

// SaveRaw loads a document of any supported version and saves it as current.
func (m *Manager) SaveRaw(ctx context.Context, raw []byte) (model.Configuration, error) {
	cfg, err := Load(raw)
	if err != nil {
		return model.Configuration{}, err
	}
	if err := m.Save(ctx, cfg); err != nil {
		return model.Configuration{}, err
	}
	return cfg, nil
}

// Subscribe registers fn to receive every configuration saved after this call.
func (m *Manager) Subscribe(fn func(model.Configuration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) persist(ctx context.Context, cfg model.Configuration) error {
	data, err := Save(cfg)
	if err != nil {
		return err
	}
	if err := m.store.SaveAddonConfig(ctx, AddonName, data); err != nil {
		return fmt.Errorf("failed to store configuration: %w", err)
	}
	return nil
}

func (m *Manager) publish(cfg model.Configuration) {
	m.mu.Lock()
	m.current = cfg
	subs := slices.Clone(m.subscribers)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(cfg.Clone())
	}
}
