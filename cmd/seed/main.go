package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"festreg/internal/events"
	"festreg/internal/shared/config"
	"festreg/internal/shared/database"
	"festreg/internal/users"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Festreg Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_records",
		"participant_markers",
		"bookings",
		"slots",
		"events",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	adminID, err := s.SeedUsers()
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedEvents(adminID); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	// Clear Redis so cached listings do not survive a reseed
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedUsers creates the admin and a staff account
func (s *Seeder) SeedUsers() (uuid.UUID, error) {
	fmt.Println("  👤 Seeding users...")

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		firstName string
		lastName  string
		email     string
		role      users.Role
	}{
		{"Fest", "Admin", "admin@festreg.in", users.RoleAdmin},
		{"Front", "Desk", "desk@festreg.in", users.RoleStaff},
	}

	var adminID uuid.UUID
	for _, userData := range usersData {
		user := users.User{
			ID:        uuid.New(),
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&user).Error; err != nil {
			return uuid.Nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		if user.Role == users.RoleAdmin {
			adminID = user.ID
		}
		fmt.Printf("    ✅ Created user: %s (%s)\n", user.Email, user.Role)
	}

	return adminID, nil
}

// SeedEvents creates demo workshops and games with their slots
func (s *Seeder) SeedEvents(adminID uuid.UUID) error {
	fmt.Println("  🎪 Seeding events and slots...")

	eventsData := []struct {
		name        string
		kind        events.EventKind
		description string
		price       float64
		slots       []struct {
			label    string
			capacity int
		}
	}{
		{
			name:        "Pottery Workshop",
			kind:        events.KindWorkshop,
			description: "Hands-on wheel throwing with local artists",
			price:       150,
			slots: []struct {
				label    string
				capacity int
			}{
				{"Sat 10:00", 12},
				{"Sat 14:00", 12},
				{"Sun 10:00", 8},
			},
		},
		{
			name:        "Laser Tag Arena",
			kind:        events.KindGame,
			description: "Five-a-side laser tag matches in the main hall",
			price:       100,
			slots: []struct {
				label    string
				capacity int
			}{
				{"Sat 11:00", 10},
				{"Sat 16:00", 10},
			},
		},
		{
			name:        "Robotics 101",
			kind:        events.KindWorkshop,
			description: "Build and program a line-following bot",
			price:       250,
			slots: []struct {
				label    string
				capacity int
			}{
				{"Sun 09:00", 20},
			},
		},
	}

	for _, eventData := range eventsData {
		event := events.Event{
			ID:          uuid.New(),
			Name:        eventData.name,
			Kind:        eventData.kind,
			Description: eventData.description,
			Price:       eventData.price,
			IsActive:    true,
			CreatedBy:   adminID,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to create event %s: %w", event.Name, err)
		}

		for _, slotData := range eventData.slots {
			slot := events.Slot{
				ID:          uuid.New(),
				EventID:     event.ID,
				TimeLabel:   slotData.label,
				MaxCapacity: slotData.capacity,
				BookedCount: 0,
			}

			if err := s.db.PostgreSQL.Create(&slot).Error; err != nil {
				return fmt.Errorf("failed to create slot %s for %s: %w", slotData.label, event.Name, err)
			}
		}

		fmt.Printf("    ✅ Created event: %s (%d slots)\n", event.Name, len(eventData.slots))
	}

	return nil
}
