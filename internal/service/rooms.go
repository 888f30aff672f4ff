package service

import (
	"errors"
	"fmt"
	"strings"

	"roombook/internal/events"
	"roombook/internal/models"
	"roombook/internal/store"
)

// RoomFilter narrows ListRooms. Equipment tags must all be present.
type RoomFilter struct {
	Building    string
	MinCapacity int
	Equipment   []string
}

// ListRooms returns rooms matching filter.
func (s *Service) ListRooms(filter RoomFilter) []models.Room {
	all := s.store.Rooms()
	out := make([]models.Room, 0, len(all))
	for i := range all {
		r := &all[i]
		if filter.Building != "" && r.Building != filter.Building {
			continue
		}
		if filter.MinCapacity > 0 && r.Capacity < filter.MinCapacity {
			continue
		}
		if !r.HasEquipment(filter.Equipment...) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func validateRoom(r models.Room) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRoom)
	}
	if r.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidRoom)
	}
	return nil
}

// CreateRoom stores a new room. An explicit ID already in use is rejected.
func (s *Service) CreateRoom(room models.Room) (models.Room, error) {
	if err := validateRoom(room); err != nil {
		return models.Room{}, err
	}
	room.CreatedAt = s.store.Now()
	created, err := s.store.InsertRoom(room)
	if err != nil {
		return models.Room{}, fmt.Errorf("create room %s: %w", room.ID, err)
	}
	s.logger.Info().Str("room_id", created.ID).Msg("room created")
	s.broadcast(events.New(events.RoomCreated, created))
	return created, nil
}

// UpdateRoom merges patch into a room.
func (s *Service) UpdateRoom(id string, patch store.RoomPatch) (models.Room, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return models.Room{}, fmt.Errorf("%w: name is required", ErrInvalidRoom)
	}
	if patch.Capacity != nil && *patch.Capacity <= 0 {
		return models.Room{}, fmt.Errorf("%w: capacity must be positive", ErrInvalidRoom)
	}
	updated, err := s.store.UpdateRoom(id, patch)
	if err != nil {
		return models.Room{}, fmt.Errorf("update room %s: %w", id, err)
	}
	s.broadcast(events.New(events.RoomUpdated, updated))
	return updated, nil
}

// DeleteRoom removes a room unless it still has pending or approved
// bookings that have not ended yet. Past and inactive bookings keep their
// room reference as history.
func (s *Service) DeleteRoom(id string) (models.Room, error) {
	var removed models.Room
	err := s.store.Atomically(func(tx *store.Tx) error {
		if _, err := tx.Room(id); err != nil {
			return err
		}
		now := tx.Now()
		for _, b := range tx.Bookings() {
			if b.RoomID == id && b.IsActive() && b.End.After(now) {
				return fmt.Errorf("%w: booking %s", ErrRoomInUse, b.ID)
			}
		}
		var err error
		removed, err = tx.DeleteRoom(id)
		return err
	})
	if err != nil {
		return models.Room{}, fmt.Errorf("delete room %s: %w", id, err)
	}
	s.logger.Info().Str("room_id", id).Msg("room deleted")
	s.broadcast(events.New(events.RoomDeleted, removed))
	return removed, nil
}

// SyncRooms upserts a room catalog. Invalid entries are skipped and
// reported in the returned error; valid ones are applied regardless. Rooms
// the catalog leaves unchanged are not broadcast.
func (s *Service) SyncRooms(catalog []models.Room) error {
	var errs []error
	for _, room := range catalog {
		if err := validateRoom(room); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", room.ID, err))
			continue
		}
		if room.ID == "" {
			errs = append(errs, fmt.Errorf("room %q: %w: id is required", room.Name, ErrInvalidRoom))
			continue
		}
		stored, created, changed := s.store.UpsertRoom(room)
		switch {
		case created:
			s.broadcast(events.New(events.RoomCreated, stored))
		case changed:
			s.broadcast(events.New(events.RoomUpdated, stored))
		}
	}
	s.logger.Info().Int("rooms", len(catalog)).Int("skipped", len(errs)).Msg("room catalog synced")
	return errors.Join(errs...)
}
