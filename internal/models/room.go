package models

import (
	"encoding/json"
	"slices"
	"time"
)

// Room is a bookable space.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Building  string    `json:"building"`
	Capacity  int       `json:"capacity"`
	Equipment []string  `json:"equipment"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasEquipment reports whether every tag in want is present on the room.
func (r *Room) HasEquipment(want ...string) bool {
	for _, tag := range want {
		found := false
		for _, have := range r.Equipment {
			if have == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SameAs reports whether r and other describe the same room, ignoring
// CreatedAt and tag duplicates.
func (r *Room) SameAs(other Room) bool {
	return r.ID == other.ID &&
		r.Name == other.Name &&
		r.Building == other.Building &&
		r.Capacity == other.Capacity &&
		slices.Equal(NormalizeTags(r.Equipment), NormalizeTags(other.Equipment))
}

// Clone returns a deep copy so callers cannot mutate the store's tag set.
func (r Room) Clone() Room {
	r.Equipment = NormalizeTags(r.Equipment)
	return r
}

// NormalizeTags drops empty and duplicate tags, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func (r Room) MarshalJSON() ([]byte, error) {
	type alias Room
	if r.Equipment == nil {
		r.Equipment = []string{}
	}
	return json.Marshal(struct {
		alias
		CreatedAt int64 `json:"createdAt"`
	}{alias(r), Millis(r.CreatedAt)})
}
