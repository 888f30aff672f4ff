package store

import (
	"roombook/internal/models"
)

// Rooms returns a snapshot of all rooms in insertion order.
func (s *Store) Rooms() []models.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRooms()
}

// Room returns a room by ID.
func (s *Store) Room(id string) (models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRoom(id)
}

// InsertRoom stores a room. An empty ID is replaced by a generated one;
// an ID already in use yields ErrDuplicateID.
func (s *Store) InsertRoom(room models.Room) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRoom(room)
}

// UpsertRoom replaces the room with the same ID or appends it. Used when
// loading the room catalog. changed is false when an existing room already
// matched and nothing was written.
func (s *Store) UpsertRoom(room models.Room) (stored models.Room, created, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.roomIndex(room.ID); idx >= 0 {
		if s.rooms[idx].SameAs(room) {
			return s.rooms[idx].Clone(), false, false
		}
		room.CreatedAt = s.rooms[idx].CreatedAt
		s.rooms[idx] = room.Clone()
		return s.rooms[idx].Clone(), false, true
	}
	stored, _ = s.insertRoom(room)
	return stored, true, true
}

// UpdateRoom merges patch into the room.
func (s *Store) UpdateRoom(id string, patch RoomPatch) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.roomIndex(id)
	if idx < 0 {
		return models.Room{}, ErrNotFound
	}
	patch.apply(&s.rooms[idx])
	return s.rooms[idx].Clone(), nil
}

// DeleteRoom removes a room. Bookings referencing it are left untouched.
func (s *Store) DeleteRoom(id string) (models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteRoom(id)
}

func (s *Store) listRooms() []models.Room {
	out := make([]models.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.Clone())
	}
	return out
}

func (s *Store) roomIndex(id string) int {
	for i := range s.rooms {
		if s.rooms[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) getRoom(id string) (models.Room, error) {
	idx := s.roomIndex(id)
	if idx < 0 {
		return models.Room{}, ErrNotFound
	}
	return s.rooms[idx].Clone(), nil
}

func (s *Store) insertRoom(room models.Room) (models.Room, error) {
	if room.ID == "" {
		room.ID = s.newID("r")
	} else if s.roomIndex(room.ID) >= 0 {
		return models.Room{}, ErrDuplicateID
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = s.now()
	}
	room = room.Clone()
	s.rooms = append(s.rooms, room)
	return room.Clone(), nil
}

func (s *Store) deleteRoom(id string) (models.Room, error) {
	idx := s.roomIndex(id)
	if idx < 0 {
		return models.Room{}, ErrNotFound
	}
	removed := s.rooms[idx]
	s.rooms = append(s.rooms[:idx], s.rooms[idx+1:]...)
	return removed, nil
}
