package api

import (
	"time"

	"roombook/internal/models"
	"roombook/internal/service"
	"roombook/internal/store"
)

// Times on the wire are epoch milliseconds.

func msTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := models.FromMillis(*ms)
	return &t
}

func msValue(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return models.FromMillis(*ms)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type bookingRequest struct {
	RoomID    *string `json:"roomId"`
	Title     *string `json:"title"`
	Purpose   *string `json:"purpose"`
	Requester *string `json:"requester"`
	Role      *string `json:"role"`
	Start     *int64  `json:"start"`
	End       *int64  `json:"end"`
	Status    *string `json:"status"`
	Notes     *string `json:"notes"`
}

func (r bookingRequest) input() service.BookingInput {
	return service.BookingInput{
		RoomID:    deref(r.RoomID),
		Title:     deref(r.Title),
		Purpose:   deref(r.Purpose),
		Requester: deref(r.Requester),
		Role:      models.Role(deref(r.Role)),
		Start:     msValue(r.Start),
		End:       msValue(r.End),
		Status:    models.BookingStatus(deref(r.Status)),
		Notes:     deref(r.Notes),
	}
}

func (r bookingRequest) patch() store.BookingPatch {
	p := store.BookingPatch{
		RoomID:    r.RoomID,
		Title:     r.Title,
		Purpose:   r.Purpose,
		Requester: r.Requester,
		Start:     msTime(r.Start),
		End:       msTime(r.End),
		Notes:     r.Notes,
	}
	if r.Role != nil {
		role := models.Role(*r.Role)
		p.Role = &role
	}
	if r.Status != nil {
		status := models.BookingStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type windowRequest struct {
	RoomID    string `json:"roomId" binding:"required"`
	Start     int64  `json:"start" binding:"required"`
	End       int64  `json:"end" binding:"required"`
	ExcludeID string `json:"excludeId"`
	Limit     *int   `json:"limit"`
}

type roomRequest struct {
	ID        *string  `json:"id"`
	Name      *string  `json:"name"`
	Building  *string  `json:"building"`
	Capacity  *int     `json:"capacity"`
	Equipment []string `json:"equipment"`
}

func (r roomRequest) room() models.Room {
	room := models.Room{
		ID:        deref(r.ID),
		Name:      deref(r.Name),
		Building:  deref(r.Building),
		Equipment: r.Equipment,
	}
	if r.Capacity != nil {
		room.Capacity = *r.Capacity
	}
	return room
}

func (r roomRequest) patch() store.RoomPatch {
	return store.RoomPatch{
		Name:      r.Name,
		Building:  r.Building,
		Capacity:  r.Capacity,
		Equipment: r.Equipment,
	}
}

type notificationRequest struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type markReadRequest struct {
	IDs  []string `json:"ids"`
	Read *bool    `json:"read"`
}

type recurringRequest struct {
	Pattern   string `json:"pattern"`
	StartDate *int64 `json:"startDate"`
	EndDate   *int64 `json:"endDate"`
	RoomID    string `json:"roomId"`
	Title     string `json:"title"`
	Requester string `json:"requester"`
	Role      string `json:"role"`
	Duration  int    `json:"duration"`
}

func (r recurringRequest) input() service.RecurringInput {
	return service.RecurringInput{
		Pattern:         models.RecurrencePattern(r.Pattern),
		StartDate:       msValue(r.StartDate),
		EndDate:         msValue(r.EndDate),
		RoomID:          r.RoomID,
		Title:           r.Title,
		Requester:       r.Requester,
		Role:            models.Role(r.Role),
		DurationMinutes: r.Duration,
	}
}

type skippedResponse struct {
	Start     int64            `json:"start"`
	End       int64            `json:"end"`
	Conflicts []models.Booking `json:"conflicts"`
}

type userRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	Phone      *string `json:"phone"`
	Status     *string `json:"status"`
	LastActive *int64  `json:"lastActive"`
}

func (r userRequest) user() models.User {
	return models.User{
		Name:       deref(r.Name),
		Email:      deref(r.Email),
		Role:       models.Role(deref(r.Role)),
		Department: deref(r.Department),
		Phone:      deref(r.Phone),
		Status:     models.UserStatus(deref(r.Status)),
		LastActive: msValue(r.LastActive),
	}
}

func (r userRequest) patch() store.UserPatch {
	p := store.UserPatch{
		Name:       r.Name,
		Email:      r.Email,
		Department: r.Department,
		Phone:      r.Phone,
		LastActive: msTime(r.LastActive),
	}
	if r.Role != nil {
		role := models.Role(*r.Role)
		p.Role = &role
	}
	if r.Status != nil {
		status := models.UserStatus(*r.Status)
		p.Status = &status
	}
	return p
}

type equipmentRequest struct {
	Name            *string `json:"name"`
	Type            *string `json:"type"`
	Model           *string `json:"model"`
	SerialNumber    *string `json:"serialNumber"`
	Status          *string `json:"status"`
	Location        *string `json:"location"`
	AssignedTo      *string `json:"assignedTo"`
	LastMaintenance *int64  `json:"lastMaintenance"`
	Notes           *string `json:"notes"`
}

func (r equipmentRequest) equipment() models.Equipment {
	return models.Equipment{
		Name:            deref(r.Name),
		Type:            deref(r.Type),
		Model:           deref(r.Model),
		SerialNumber:    deref(r.SerialNumber),
		Status:          models.EquipmentStatus(deref(r.Status)),
		Location:        deref(r.Location),
		AssignedTo:      deref(r.AssignedTo),
		LastMaintenance: msTime(r.LastMaintenance),
		Notes:           deref(r.Notes),
	}
}

func (r equipmentRequest) patch() store.EquipmentPatch {
	p := store.EquipmentPatch{
		Name:            r.Name,
		Type:            r.Type,
		Model:           r.Model,
		SerialNumber:    r.SerialNumber,
		Location:        r.Location,
		AssignedTo:      r.AssignedTo,
		LastMaintenance: msTime(r.LastMaintenance),
		Notes:           r.Notes,
	}
	if r.Status != nil {
		status := models.EquipmentStatus(*r.Status)
		p.Status = &status
	}
	return p
}
