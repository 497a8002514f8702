// services/seed.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"motoshop-backend/config"
	"motoshop-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedAdmin creates the configured admin account once. An existing user with
// the same email is left untouched.
func SeedAdmin(ctx context.Context, db *gorm.DB, cfg config.AdminConfig, logger *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" || cfg.Password == "" {
		logger.Info("admin seed skipped, ADMIN_EMAIL or ADMIN_PASSWORD not set")
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		if !existing.IsAdmin() {
			logger.Warn("admin seed email belongs to a non-admin user", zap.String("email", email))
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "Administrator"
	}
	admin := models.User{
		Email:    email,
		Password: cfg.Password,
		Name:     name,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	logger.Info("admin account seeded", zap.Uint("user_id", admin.ID), zap.String("email", email))
	return nil
}
