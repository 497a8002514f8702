package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestUpdateStatus_ConcurrentChange(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewJobCardService(db, NewLineItemBuilder(false, zap.NewNop()), nil, zap.NewNop())

	rows := sqlmock.NewRows([]string{"id", "status", "job_description", "total_cost", "created_by"}).
		AddRow(7, "in_progress", "Valve clearance", "120.00", 1)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "service_job_cards"`).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE "service_job_cards" SET "status"=.* WHERE id = .* AND status = .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), 1, 7, "completed")

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.ErrorIs(t, err, errStatusChanged)
	assert.Equal(t, "update job card status failed", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_DatabaseErrorIsGeneric(t *testing.T) {
	db, mock := setupMockDB(t)
	svc := NewJobCardService(db, NewLineItemBuilder(false, zap.NewNop()), nil, zap.NewNop())

	mock.ExpectQuery(`SELECT \* FROM "service_job_cards"`).
		WillReturnError(errors.New("connection reset by peer"))

	_, err := svc.List(context.Background(), JobCardFilter{})

	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "list job cards failed", err.Error())
	assert.ErrorContains(t, opErr.Err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}
