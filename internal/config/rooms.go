package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"roombook/internal/models"
)

// RoomConfig represents a single room of the catalog.
type RoomConfig struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Building  string   `yaml:"building"`
	Capacity  int      `yaml:"capacity"`
	Equipment []string `yaml:"equipment"`
}

// RoomsConfig is the root configuration for rooms.yaml.
type RoomsConfig struct {
	Rooms []RoomConfig `yaml:"rooms"`
}

// LoadRoomsConfig loads and validates the room catalog from a YAML file.
func LoadRoomsConfig(path string) (*RoomsConfig, error) {
	if path == "" {
		path = "configs/rooms.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rooms config: %w", err)
	}

	var cfg RoomsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse rooms config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate rooms config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *RoomsConfig) Validate() error {
	seen := make(map[string]bool, len(c.Rooms))
	for i, r := range c.Rooms {
		if r.ID == "" {
			return fmt.Errorf("room[%d]: id is required", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("room[%d]: duplicate id %q", i, r.ID)
		}
		seen[r.ID] = true

		if r.Name == "" {
			return fmt.Errorf("room[%d]: name is required", i)
		}
		if r.Capacity <= 0 {
			return fmt.Errorf("room[%d]: capacity must be positive", i)
		}
	}
	return nil
}

// Models converts the catalog into store rooms.
func (c *RoomsConfig) Models() []models.Room {
	out := make([]models.Room, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		out = append(out, models.Room{
			ID:        r.ID,
			Name:      r.Name,
			Building:  r.Building,
			Capacity:  r.Capacity,
			Equipment: models.NormalizeTags(r.Equipment),
		})
	}
	return out
}
