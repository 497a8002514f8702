package services

import (
	"bytes"
	"context"
	"testing"

	"motoshop-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestJobCardService_Export(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	customer := seedUser(t, db, "rider@shop.test", models.RoleCustomer)
	p := seedProduct(t, db, "Brake Pads", "100.00")
	svc := newTestService(db, nil)

	_, err := svc.Create(ctx, adminID, CreateJobCard{
		Customer:    models.LinkedCustomer(customer.ID),
		Description: "Brakes",
		Items:       []ItemSelection{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, adminID, CreateJobCard{Customer: manualCustomer(), Description: "Wash"})
	require.NoError(t, err)

	data, err := svc.Export(ctx, nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(jobCardSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, jobCardHeaders, rows[0])
	assert.Equal(t, customer.Name, rows[1][2])
	assert.Equal(t, "Brakes", rows[1][5])
	assert.Equal(t, "Pending", rows[1][6])
	assert.Equal(t, "200", rows[1][7])
	assert.Equal(t, "Walk-in Rider", rows[2][2])

	items, err := f.GetRows(itemSheet)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Brake Pads", items[1][1])
	assert.Equal(t, "2", items[1][2])
}
