package services

import (
	"context"
	"testing"

	"motoshop-backend/config"
	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeedAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cfg := config.AdminConfig{Email: "Owner@Shop.test", Password: "changeme1"}

	require.NoError(t, SeedAdmin(ctx, db, cfg, zap.NewNop()))
	require.NoError(t, SeedAdmin(ctx, db, cfg, zap.NewNop()))

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1)
	assert.Equal(t, "owner@shop.test", admins[0].Email)
	assert.Equal(t, "Administrator", admins[0].Name)
	assert.True(t, utils.CheckPasswordHash("changeme1", admins[0].Password))
}

func TestSeedAdmin_SkippedWithoutCredentials(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedAdmin(context.Background(), db, config.AdminConfig{}, zap.NewNop()))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}
