package notify

import "sync"

// Settings are the operator's alert preferences.
type Settings struct {
	AlertsEnabled bool `json:"alertsEnabled"`
	SoundEnabled  bool `json:"soundEnabled"`
}

// SettingsUpdate carries a partial change; nil fields are left as they are.
type SettingsUpdate struct {
	AlertsEnabled *bool `json:"alertsEnabled"`
	SoundEnabled  *bool `json:"soundEnabled"`
}

// SettingsStore guards the alert preferences. Both flags start enabled.
type SettingsStore struct {
	mu       sync.RWMutex
	settings Settings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{settings: Settings{AlertsEnabled: true, SoundEnabled: true}}
}

func (s *SettingsStore) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Apply merges the update and returns the resulting settings.
func (s *SettingsStore) Apply(u SettingsUpdate) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.AlertsEnabled != nil {
		s.settings.AlertsEnabled = *u.AlertsEnabled
	}
	if u.SoundEnabled != nil {
		s.settings.SoundEnabled = *u.SoundEnabled
	}
	return s.settings
}
