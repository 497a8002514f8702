package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"motoshop-backend/models"
	"motoshop-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRespondServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"validation", &services.ValidationError{Message: "description is required"}, http.StatusBadRequest, "description is required"},
		{"not found", fmt.Errorf("job card 3: %w", services.ErrNotFound), http.StatusNotFound, "Job card not found"},
		{"operation", &services.OperationError{Op: "create job card", Err: errors.New("pq: connection refused")}, http.StatusInternalServerError, "create job card failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondServiceError(c, tt.err, "Job card not found")
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestCreateJobCardInput_Customer(t *testing.T) {
	linked := CreateJobCardInput{CustomerMode: "existing", CustomerID: 4}
	assert.Equal(t, models.LinkedCustomer(4), linked.customer())

	manual := CreateJobCardInput{
		CustomerMode:   "manual",
		ManualCustomer: &ManualCustomerInput{Name: "Ali", Phone: "+923001234567"},
	}
	info := manual.customer()
	assert.False(t, info.IsLinked())
	assert.Equal(t, "Ali", info.Manual.Name)

	empty := CreateJobCardInput{CustomerMode: "manual"}
	assert.True(t, empty.customer().Manual.IsZero())
}

func TestQuarterStart(t *testing.T) {
	loc := time.UTC
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, loc), quarterStart(time.Date(2026, 3, 31, 12, 0, 0, 0, loc)))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, loc), quarterStart(time.Date(2026, 4, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, loc), quarterStart(time.Date(2026, 12, 15, 0, 0, 0, 0, loc)))
}

func TestGrowthPercentage(t *testing.T) {
	d := decimal.RequireFromString
	assert.Equal(t, 0.0, growthPercentage(d("0"), d("0")))
	assert.Equal(t, 100.0, growthPercentage(d("50"), d("0")))
	assert.Equal(t, 50.0, growthPercentage(d("150"), d("100")))
	assert.Equal(t, -25.0, growthPercentage(d("75"), d("100")))
}
