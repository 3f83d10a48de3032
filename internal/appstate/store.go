// Package appstate holds user preferences shared by the study screens.
package appstate

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownSetting = errors.New("unknown setting")

type Settings struct {
	DarkMode       bool `json:"dark_mode"`
	Notifications  bool `json:"notifications"`
	VoiceResponses bool `json:"voice_responses"`
}

func DefaultSettings() Settings {
	return Settings{
		DarkMode:       false,
		Notifications:  true,
		VoiceResponses: true,
	}
}

// toggles maps the names accepted by Toggle onto fields.
var toggles = map[string]func(*Settings) *bool{
	"dark_mode":       func(s *Settings) *bool { return &s.DarkMode },
	"notifications":   func(s *Settings) *bool { return &s.Notifications },
	"voice_responses": func(s *Settings) *bool { return &s.VoiceResponses },
}

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	settings Settings
}

func NewStore(initial Settings) *Store {
	return &Store{settings: initial}
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update applies fn atomically and returns the new settings.
func (s *Store) Update(fn func(*Settings)) Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.settings)
	return s.settings
}

// Toggle flips one setting by name. Names are matched case-insensitively and
// accept either dashes or underscores.
func (s *Store) Toggle(name string) (Settings, error) {
	field, ok := toggles[normalizeName(name)]
	if !ok {
		return Settings{}, ErrUnknownSetting
	}

	return s.Update(func(settings *Settings) {
		value := field(settings)
		*value = !*value
	}), nil
}

// Names lists the settings accepted by Toggle.
func Names() []string {
	names := make([]string, 0, len(toggles))
	for name := range toggles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "-", "_")
}
