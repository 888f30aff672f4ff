package store

import (
	"roombook/internal/models"
)

// Users returns all users in insertion order.
func (s *Store) Users() []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, len(s.users))
	copy(out, s.users)
	return out
}

func (s *Store) InsertUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = s.newID("u")
	u.CreatedAt = s.now()
	u.LastActive = u.CreatedAt
	s.users = append(s.users, u)
	return u
}

func (s *Store) UpdateUser(id string, patch UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			patch.apply(&s.users[i])
			return s.users[i], nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Store) DeleteUser(id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == id {
			removed := s.users[i]
			s.users = append(s.users[:i], s.users[i+1:]...)
			return removed, nil
		}
	}
	return models.User{}, ErrNotFound
}

// Equipment returns all equipment items in insertion order.
func (s *Store) Equipment() []models.Equipment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Equipment, len(s.equipment))
	copy(out, s.equipment)
	return out
}

func (s *Store) InsertEquipment(e models.Equipment) models.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.newID("eq")
	e.CreatedAt = s.now()
	s.equipment = append(s.equipment, e)
	return e
}

func (s *Store) UpdateEquipment(id string, patch EquipmentPatch) (models.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.equipment {
		if s.equipment[i].ID == id {
			patch.apply(&s.equipment[i])
			return s.equipment[i], nil
		}
	}
	return models.Equipment{}, ErrNotFound
}

func (s *Store) DeleteEquipment(id string) (models.Equipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.equipment {
		if s.equipment[i].ID == id {
			removed := s.equipment[i]
			s.equipment = append(s.equipment[:i], s.equipment[i+1:]...)
			return removed, nil
		}
	}
	return models.Equipment{}, ErrNotFound
}
