// Package preset persists named filter presets as a JSON file.
package preset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/loglens/loglens/internal/constants"
	"github.com/loglens/loglens/internal/domain"
)

// fileShape is the on-disk document: an object with a presets list.
type fileShape struct {
	Presets []rawPreset `json:"presets"`
}

// rawPreset mirrors FilterPreset with pointer fields so missing keys can be
// distinguished from zero values and defaulted at the deserialization
// boundary.
type rawPreset struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Enabled   *bool                   `json:"enabled"`
	Condition *domain.FilterCondition `json:"condition"`
}

// Store reads and writes the preset file. Reads fail soft (any read or parse
// error yields an empty list); write failures are reported so the caller can
// surface a notification without losing in-memory state.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the preset file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ConfigDirName, constants.PresetFileName), nil
}

// LoadAll reads every stored preset, normalizing missing fields. It never
// fails: an unreadable or malformed file loads as an empty list.
func (s *Store) LoadAll() []domain.FilterPreset {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var doc fileShape
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}

	presets := make([]domain.FilterPreset, 0, len(doc.Presets))
	for _, raw := range doc.Presets {
		presets = append(presets, normalize(raw))
	}
	return presets
}

// normalize applies defaults for missing fields: a fresh unique id, a
// placeholder name, enabled=true and an empty condition.
func normalize(raw rawPreset) domain.FilterPreset {
	p := domain.FilterPreset{
		ID:      raw.ID,
		Name:    raw.Name,
		Enabled: true,
	}
	if p.ID == "" {
		p.ID = "preset-" + uuid.NewString()
	}
	if p.Name == "" {
		p.Name = "Unnamed"
	}
	if raw.Enabled != nil {
		p.Enabled = *raw.Enabled
	}
	if raw.Condition != nil {
		p.Condition = *raw.Condition
	}
	return p
}

// SaveAll writes the full preset list, creating parent directories as needed.
func (s *Store) SaveAll(presets []domain.FilterPreset) error {
	if presets == nil {
		presets = []domain.FilterPreset{}
	}

	raws := make([]rawPreset, 0, len(presets))
	for _, p := range presets {
		n := normalize(rawPreset{ID: p.ID, Name: p.Name, Enabled: &p.Enabled, Condition: &p.Condition})
		enabled := n.Enabled
		cond := n.Condition
		raws = append(raws, rawPreset{ID: n.ID, Name: n.Name, Enabled: &enabled, Condition: &cond})
	}

	data, err := json.MarshalIndent(fileShape{Presets: raws}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

// Upsert adds the preset or replaces the stored preset with the same id.
func (s *Store) Upsert(preset domain.FilterPreset) error {
	presets := s.LoadAll()
	replaced := false
	for i, p := range presets {
		if p.ID == preset.ID {
			presets[i] = preset
			replaced = true
			break
		}
	}
	if !replaced {
		presets = append(presets, preset)
	}
	return s.SaveAll(presets)
}

// DeleteByID removes the preset with the given id. Deleting an unknown id is
// not an error.
func (s *Store) DeleteByID(id string) error {
	presets := s.LoadAll()
	kept := presets[:0]
	for _, p := range presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return s.SaveAll(kept)
}
