package service

import (
	"fmt"
	"strings"

	"roombook/internal/events"
	"roombook/internal/models"
	"roombook/internal/store"
)

func (s *Service) ListUsers() []models.User {
	return s.store.Users()
}

// CreateUser adds a directory entry. Role defaults to student and status to
// active.
func (s *Service) CreateUser(u models.User) (models.User, error) {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
		return models.User{}, fmt.Errorf("%w: name and email are required", ErrInvalidUser)
	}
	if u.Role == "" {
		u.Role = models.RoleStudent
	}
	if !u.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, u.Role)
	}
	if u.Status == "" {
		u.Status = models.UserActive
	}
	created := s.store.InsertUser(u)
	s.broadcast(events.New(events.UserCreated, created))
	return created, nil
}

func (s *Service) UpdateUser(id string, patch store.UserPatch) (models.User, error) {
	if patch.Role != nil && !patch.Role.Valid() {
		return models.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, *patch.Role)
	}
	updated, err := s.store.UpdateUser(id, patch)
	if err != nil {
		return models.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	s.broadcast(events.New(events.UserUpdated, updated))
	return updated, nil
}

func (s *Service) DeleteUser(id string) (models.User, error) {
	removed, err := s.store.DeleteUser(id)
	if err != nil {
		return models.User{}, fmt.Errorf("delete user %s: %w", id, err)
	}
	s.broadcast(events.New(events.UserDeleted, removed))
	return removed, nil
}

func (s *Service) ListEquipment() []models.Equipment {
	return s.store.Equipment()
}

// CreateEquipment adds an inventory item. Status defaults to available.
func (s *Service) CreateEquipment(e models.Equipment) (models.Equipment, error) {
	if strings.TrimSpace(e.Name) == "" {
		return models.Equipment{}, fmt.Errorf("%w: name is required", ErrInvalidEquipment)
	}
	if e.Status == "" {
		e.Status = models.EquipmentAvailable
	}
	created := s.store.InsertEquipment(e)
	s.broadcast(events.New(events.EquipmentCreated, created))
	return created, nil
}

func (s *Service) UpdateEquipment(id string, patch store.EquipmentPatch) (models.Equipment, error) {
	updated, err := s.store.UpdateEquipment(id, patch)
	if err != nil {
		return models.Equipment{}, fmt.Errorf("update equipment %s: %w", id, err)
	}
	s.broadcast(events.New(events.EquipmentUpdated, updated))
	return updated, nil
}

func (s *Service) DeleteEquipment(id string) (models.Equipment, error) {
	removed, err := s.store.DeleteEquipment(id)
	if err != nil {
		return models.Equipment{}, fmt.Errorf("delete equipment %s: %w", id, err)
	}
	s.broadcast(events.New(events.EquipmentDeleted, removed))
	return removed, nil
}
