// controllers/jobcard.go
package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"motoshop-backend/models"
	"motoshop-backend/services"
	"motoshop-backend/utils"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// JobCardItemInput is one product line; quantity 0 leaves the product out.
type JobCardItemInput struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity"`
}

type ManualCustomerInput struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	VehicleNumber string `json:"vehicleNumber"`
}

// CreateJobCardInput defines the expected JSON structure for creating a job card
type CreateJobCardInput struct {
	CustomerMode   string               `json:"customerMode" binding:"required,oneof=existing manual"`
	CustomerID     uint                 `json:"customerId"`
	ManualCustomer *ManualCustomerInput `json:"manualCustomer"`
	Description    string               `json:"description" binding:"required"`
	Notes          string               `json:"notes"`
	Items          []JobCardItemInput   `json:"items" binding:"dive"`
}

// UpdateJobCardInput replaces description, notes and every item.
type UpdateJobCardInput struct {
	Description string             `json:"description" binding:"required"`
	Notes       string             `json:"notes"`
	Items       []JobCardItemInput `json:"items" binding:"dive"`
}

type UpdateJobCardStatusInput struct {
	Status string `json:"status" binding:"required"`
}

type JobCardController struct {
	service *services.JobCardService
}

func NewJobCardController(service *services.JobCardService) *JobCardController {
	return &JobCardController{service: service}
}

func (jc *JobCardController) CreateJobCard(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateJobCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	card, err := jc.service.Create(c.Request.Context(), actorID, services.CreateJobCard{
		Customer:    input.customer(),
		Description: input.Description,
		Notes:       input.Notes,
		Items:       toSelections(input.Items),
	})
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusCreated, card)
}

// GetJobCards lists job cards newest first, filtered by ?status= and ?customerId=.
func (jc *JobCardController) GetJobCards(c *gin.Context) {
	var filter services.JobCardFilter
	if s := c.Query("status"); s != "" {
		status, err := models.ParseJobCardStatus(s)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = status
	}
	if s := c.Query("customerId"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid customer ID format")
			return
		}
		userID := uint(id)
		filter.UserID = &userID
	}

	cards, err := jc.service.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (jc *JobCardController) GetJobCard(c *gin.Context) {
	id, ok := jobCardID(c)
	if !ok {
		return
	}
	card, err := jc.service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusOK, card)
}

func (jc *JobCardController) UpdateJobCard(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := jobCardID(c)
	if !ok {
		return
	}

	var input UpdateJobCardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	_, err := jc.service.Update(c.Request.Context(), actorID, id, services.UpdateJobCard{
		Description: input.Description,
		Notes:       input.Notes,
		Items:       toSelections(input.Items),
	})
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}

	card, err := jc.service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusOK, card)
}

func (jc *JobCardController) UpdateJobCardStatus(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := jobCardID(c)
	if !ok {
		return
	}

	var input UpdateJobCardStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	card, err := jc.service.UpdateStatus(c.Request.Context(), actorID, id, input.Status)
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": card.ID, "status": card.Status})
}

func (jc *JobCardController) DeleteJobCard(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := jobCardID(c)
	if !ok {
		return
	}

	if err := jc.service.Delete(c.Request.Context(), actorID, id); err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job card deleted successfully"})
}

// ExportJobCards streams an XLSX workbook of cards created between
// ?from= and ?to= (YYYY-MM-DD, both inclusive).
func (jc *JobCardController) ExportJobCards(c *gin.Context) {
	from, to, err := utils.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Dates must use the YYYY-MM-DD format")
		return
	}

	data, err := jc.service.Export(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	filename := fmt.Sprintf("job-cards-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// MyJobCards lists the signed-in customer's own job cards.
func (jc *JobCardController) MyJobCards(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cards, err := jc.service.List(c.Request.Context(), services.JobCardFilter{UserID: &userID})
	if err != nil {
		respondServiceError(c, err, "Job card not found")
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (in CreateJobCardInput) customer() models.CustomerInfo {
	if in.CustomerMode == string(models.CustomerExisting) {
		return models.LinkedCustomer(in.CustomerID)
	}
	var manual models.ManualCustomer
	if in.ManualCustomer != nil {
		manual = models.ManualCustomer{
			Name:          in.ManualCustomer.Name,
			Phone:         in.ManualCustomer.Phone,
			Email:         in.ManualCustomer.Email,
			VehicleNumber: in.ManualCustomer.VehicleNumber,
		}
	}
	return models.ManualCustomerInfo(manual)
}

func toSelections(items []JobCardItemInput) []services.ItemSelection {
	out := make([]services.ItemSelection, 0, len(items))
	for _, it := range items {
		out = append(out, services.ItemSelection{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

func jobCardID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c, "id")
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid job card ID format")
	}
	return id, ok
}
