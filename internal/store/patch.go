package store

import (
	"time"

	"roombook/internal/models"
)

// BookingPatch lists the booking fields to change; nil fields are kept.
type BookingPatch struct {
	RoomID    *string
	Title     *string
	Purpose   *string
	Requester *string
	Role      *models.Role
	Start     *time.Time
	End       *time.Time
	Status    *models.BookingStatus
	Notes     *string
}

// TouchesSchedule reports whether the patch moves the booking in time or
// space, which requires a new conflict check.
func (p BookingPatch) TouchesSchedule() bool {
	return p.RoomID != nil || p.Start != nil || p.End != nil
}

// Preview returns b with the patch applied, leaving b unchanged.
func (p BookingPatch) Preview(b models.Booking) models.Booking {
	p.apply(&b)
	return b
}

func (p BookingPatch) apply(b *models.Booking) {
	if p.RoomID != nil {
		b.RoomID = *p.RoomID
	}
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Purpose != nil {
		b.Purpose = *p.Purpose
	}
	if p.Requester != nil {
		b.Requester = *p.Requester
	}
	if p.Role != nil {
		b.Role = *p.Role
	}
	if p.Start != nil {
		b.Start = *p.Start
	}
	if p.End != nil {
		b.End = *p.End
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
}

// RoomPatch lists the room fields to change; a nil Equipment slice keeps
// the current tags, an empty one clears them.
type RoomPatch struct {
	Name      *string
	Building  *string
	Capacity  *int
	Equipment []string
}

func (p RoomPatch) apply(r *models.Room) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Building != nil {
		r.Building = *p.Building
	}
	if p.Capacity != nil {
		r.Capacity = *p.Capacity
	}
	if p.Equipment != nil {
		r.Equipment = models.NormalizeTags(p.Equipment)
	}
}

type UserPatch struct {
	Name       *string
	Email      *string
	Role       *models.Role
	Department *string
	Phone      *string
	Status     *models.UserStatus
	LastActive *time.Time
}

func (p UserPatch) apply(u *models.User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Department != nil {
		u.Department = *p.Department
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.LastActive != nil {
		u.LastActive = *p.LastActive
	}
}

type EquipmentPatch struct {
	Name            *string
	Type            *string
	Model           *string
	SerialNumber    *string
	Status          *models.EquipmentStatus
	Location        *string
	AssignedTo      *string
	LastMaintenance *time.Time
	Notes           *string
}

func (p EquipmentPatch) apply(e *models.Equipment) {
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Model != nil {
		e.Model = *p.Model
	}
	if p.SerialNumber != nil {
		e.SerialNumber = *p.SerialNumber
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.AssignedTo != nil {
		e.AssignedTo = *p.AssignedTo
	}
	if p.LastMaintenance != nil {
		t := *p.LastMaintenance
		e.LastMaintenance = &t
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
}
