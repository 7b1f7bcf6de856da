package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// Manager loads presets from a directory and caches them.
type Manager struct {
	configDir     string
	defaultPreset *Preset
	presets       map[string]*Preset
	mu            sync.RWMutex
}

// NewManager creates a preset manager over configDir.
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		presets:   make(map[string]*Preset),
	}

	if err := m.loadDefault(); err != nil {
		return nil, fmt.Errorf("failed to load default preset: %w", err)
	}

	return m, nil
}

// LoadConfig loads a preset by name, with or without the .json suffix.
func (m *Manager) LoadConfig(name string) (*Preset, error) {
	name = strings.TrimSuffix(name, ".json")
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: bad preset name %q", ErrInvalidConfig, name)
	}

	m.mu.RLock()
	if p, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return p, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if p, exists := m.presets[name]; exists {
		return p, nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: failed to parse preset: %v", ErrInvalidConfig, err)
	}
	if err := ValidatePreset(&p); err != nil {
		return nil, err
	}

	m.presets[name] = &p
	return &p, nil
}

// ListConfigs describes every valid preset in the directory. Invalid files
// are skipped.
func (m *Manager) ListConfigs() ([]*PresetInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var infos []*PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		p, err := m.LoadConfig(id)
		if err != nil {
			continue
		}

		infos = append(infos, &PresetInfo{
			Filename:       entry.Name(),
			ConfigID:       id,
			Name:           p.Name,
			Description:    p.Description,
			TickIntervalMS: int(p.TickInterval().Milliseconds()),
			AutoLock:       p.AutoLock,
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ConfigID < infos[j].ConfigID })
	return infos, nil
}

// GetDefault returns the preset used when a session names none.
func (m *Manager) GetDefault() *Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPreset
}

// SetDefault makes the named preset the default.
func (m *Manager) SetDefault(name string) error {
	p, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPreset = p
	return nil
}

// RefreshCache drops every cached preset and reloads the default.
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.presets = make(map[string]*Preset)
	m.mu.Unlock()

	return m.loadDefault()
}

func (m *Manager) loadDefault() error {
	p, err := m.LoadConfig(DefaultPresetName)
	if err != nil {
		infos, listErr := m.ListConfigs()
		if listErr != nil || len(infos) == 0 {
			m.setDefault(MinimalPreset())
			return nil
		}

		p, err = m.LoadConfig(infos[0].ConfigID)
		if err != nil {
			m.setDefault(MinimalPreset())
			return nil
		}
	}

	m.setDefault(p)
	return nil
}

func (m *Manager) setDefault(p *Preset) {
	m.mu.Lock()
	m.defaultPreset = p
	m.mu.Unlock()
}

// SaveConfig validates p and writes it to the directory as name.json.
func (m *Manager) SaveConfig(name string, p *Preset) error {
	name = strings.TrimSuffix(name, ".json")
	if !ValidName(name) {
		return fmt.Errorf("%w: bad preset name %q", ErrInvalidConfig, name)
	}
	if err := ValidatePreset(p); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[name] = p
	m.mu.Unlock()

	return nil
}

// MinimalPreset is used when the directory holds no usable preset.
func MinimalPreset() *Preset {
	return &Preset{
		Name:           DefaultPresetName,
		Description:    "Manual locking at 100ms per tick",
		TickIntervalMS: int(DefaultTickInterval.Milliseconds()),
	}
}
