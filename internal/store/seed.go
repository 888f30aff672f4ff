package store

import (
	"time"

	"roombook/internal/models"
)

// Seed fills an empty store with the demo data set: four rooms, one
// approved booking from 10:00 to 12:00 on the day of now, one
// notification, three users and five equipment items. It publishes no
// events.
func (s *Store) Seed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms = append(s.rooms,
		models.Room{ID: "r-101", Name: "Room 101", Building: "Main", Capacity: 40, Equipment: []string{"Projector", "AC"}, CreatedAt: now},
		models.Room{ID: "r-102", Name: "Room 102", Building: "Main", Capacity: 30, Equipment: []string{"AC"}, CreatedAt: now},
		models.Room{ID: "lab-1", Name: "Science Lab 1", Building: "Science", Capacity: 25, Equipment: []string{"Projector", "AC"}, CreatedAt: now},
		models.Room{ID: "studio", Name: "Studio A", Building: "Arts", Capacity: 20, Equipment: []string{"Projector"}, CreatedAt: now},
	)

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	s.bookings = append(s.bookings, models.Booking{
		ID:        "b-1",
		RoomID:    "r-101",
		Title:     "Exam Review",
		Requester: "Prof. Lee",
		Role:      models.RoleTeacher,
		Start:     midnight.Add(10 * time.Hour),
		End:       midnight.Add(12 * time.Hour),
		Status:    models.StatusApproved,
		CreatedAt: now,
	})

	s.notifications = append(s.notifications, models.NotificationItem{
		ID:        "n-1",
		Message:   "Booking b-1 confirmed.",
		CreatedAt: now,
		Kind:      models.KindConfirmation,
	})

	s.users = append(s.users,
		models.User{ID: "u-admin", Name: "Admin User", Email: "admin@school.edu", Role: models.RoleAdmin,
			Department: "Administration", Phone: "+1-555-0100", Status: models.UserActive, CreatedAt: now, LastActive: now},
		models.User{ID: "u-teacher1", Name: "Prof. Sarah Johnson", Email: "s.johnson@school.edu", Role: models.RoleTeacher,
			Department: "Computer Science", Phone: "+1-555-0101", Status: models.UserActive, CreatedAt: now, LastActive: now},
		models.User{ID: "u-student1", Name: "John Smith", Email: "j.smith@student.school.edu", Role: models.RoleStudent,
			Department: "Engineering", Status: models.UserActive, CreatedAt: now, LastActive: now},
	)

	lastMaintenance := now.Add(-7 * 24 * time.Hour)
	s.equipment = append(s.equipment,
		models.Equipment{ID: "eq-1", Name: "Digital Projector", Type: "Projector", Model: "Epson BrightLink Pro 1460Ui",
			SerialNumber: "EPS001234", Status: models.EquipmentAvailable, Location: "Room 101", AssignedTo: "Prof. Johnson",
			CreatedAt: now, Notes: "Ultra-short throw projector with interactive features"},
		models.Equipment{ID: "eq-2", Name: "Laptop Cart", Type: "Computer", Model: "Dell Mobile Computing Cart",
			SerialNumber: "DELL567890", Status: models.EquipmentInUse, Location: "Storage Room B", AssignedTo: "IT Department",
			CreatedAt: now, Notes: "Contains 20 student laptops, charging station included"},
		models.Equipment{ID: "eq-3", Name: "Sound System", Type: "Speaker", Model: "Bose Professional",
			SerialNumber: "BOSE789123", Status: models.EquipmentMaintenance, Location: "Auditorium", AssignedTo: "Audio/Visual Team",
			CreatedAt: now, LastMaintenance: &lastMaintenance, Notes: "Annual maintenance check in progress"},
		models.Equipment{ID: "eq-4", Name: "Wireless Router", Type: "Router", Model: "Cisco Meraki MR46",
			SerialNumber: "CISCO456789", Status: models.EquipmentAvailable, Location: "Room 205",
			CreatedAt: now, Notes: "High-performance WiFi 6 access point"},
		models.Equipment{ID: "eq-5", Name: "Document Camera", Type: "Camera", Model: "ELMO PX-10",
			SerialNumber: "ELMO123456", Status: models.EquipmentBroken, Location: "Room 103", AssignedTo: "Prof. Williams",
			CreatedAt: now, Notes: "Power adapter needs replacement"},
	)
}
