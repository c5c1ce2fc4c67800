package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/medrec/medrec/internal/models"
	"github.com/medrec/medrec/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Patient{},
		&models.Doctor{},
		&models.Admin{},
		&models.Specialty{},
		&models.Appointment{},
		&models.Transaction{},
		&models.VerificationToken{},
	)
}

// SeedOptions configures default records inserted at first start-up.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// SeedData inserts a bootstrap admin account when none exists. The password
// is hashed before it touches the database.
func SeedData(db *gorm.DB, opts SeedOptions) error {
	if opts.AdminEmail == "" || opts.AdminPassword == "" {
		return nil
	}

	var existing models.Admin
	err := db.Where("email = ?", opts.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("seed admin lookup: %w", err)
	}

	hashed, err := crypto.HashPassword(opts.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}

	name := opts.AdminName
	if name == "" {
		name = "Administrator"
	}

	admin := models.Admin{
		FullName: name,
		Email:    opts.AdminEmail,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("seed admin create: %w", err)
	}

	return nil
}

// AutoMigrateAndSeed convenience helper used during application start-up.
func AutoMigrateAndSeed(db *gorm.DB, opts SeedOptions) error {
	if db == nil {
		return errors.New("nil database handle")
	}

	if err := AutoMigrate(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := SeedData(db, opts); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	return nil
}
