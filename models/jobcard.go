// models/jobcard.go
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type JobCardStatus string

const (
	JobCardPending    JobCardStatus = "pending"
	JobCardInProgress JobCardStatus = "in_progress"
	JobCardCompleted  JobCardStatus = "completed"
	JobCardCancelled  JobCardStatus = "cancelled"
)

var jobCardTransitions = map[JobCardStatus][]JobCardStatus{
	JobCardPending:    {JobCardInProgress, JobCardCompleted, JobCardCancelled},
	JobCardInProgress: {JobCardCompleted, JobCardCancelled},
}

// ParseJobCardStatus accepts only the four known values.
func ParseJobCardStatus(s string) (JobCardStatus, error) {
	switch st := JobCardStatus(s); st {
	case JobCardPending, JobCardInProgress, JobCardCompleted, JobCardCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid job card status %q", s)
}

func (s JobCardStatus) IsTerminal() bool {
	return s == JobCardCompleted || s == JobCardCancelled
}

// CanTransitionTo reports whether next is reachable from s in one step.
// Completed and cancelled cards never move again.
func (s JobCardStatus) CanTransitionTo(next JobCardStatus) bool {
	for _, allowed := range jobCardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Label is the customer-facing wording of a status.
func (s JobCardStatus) Label() string {
	switch s {
	case JobCardPending:
		return "Pending"
	case JobCardInProgress:
		return "In Progress"
	case JobCardCompleted:
		return "Completed"
	case JobCardCancelled:
		return "Cancelled"
	}
	return string(s)
}

// JobCard is a service-work order for one customer visit.
// TotalCost always equals the sum of Items' Subtotal.
type JobCard struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         *uint          `gorm:"index" json:"customerId"`
	ManualCustomer ManualCustomer `gorm:"embedded;embeddedPrefix:manual_customer_" json:"manualCustomer"`

	JobDescription string          `gorm:"type:text;not null" json:"description"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Status         JobCardStatus   `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"totalCost"`
	CreatedBy      uint            `gorm:"index;not null" json:"createdBy"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Customer *User        `gorm:"foreignKey:UserID" json:"customer,omitempty"`
	Items    []JobCardItem `gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE" json:"items"`
}

func (JobCard) TableName() string { return "service_job_cards" }

// CustomerInfo rebuilds the tagged customer variant from the stored columns.
func (j *JobCard) CustomerInfo() CustomerInfo {
	if j.UserID != nil {
		return LinkedCustomer(*j.UserID)
	}
	return ManualCustomerInfo(j.ManualCustomer)
}

// SetCustomer stores exactly one side of the variant.
func (j *JobCard) SetCustomer(c CustomerInfo) {
	if c.IsLinked() {
		id := c.CustomerID
		j.UserID = &id
		j.ManualCustomer = ManualCustomer{}
		return
	}
	j.UserID = nil
	j.ManualCustomer = c.Manual
}

// JobCardItem is one product line with its price frozen at write time.
type JobCardItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	JobCardID   uint            `gorm:"index;not null" json:"jobCardId"`
	ProductID   uint            `gorm:"index;not null" json:"productId"`
	ProductName string          `gorm:"not null" json:"productName"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (JobCardItem) TableName() string { return "job_card_items" }
