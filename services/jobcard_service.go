// services/jobcard_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"motoshop-backend/models"
	"motoshop-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errStatusChanged = errors.New("job card status changed concurrently")

// CreateJobCard is the input for JobCardService.Create.
type CreateJobCard struct {
	Customer    models.CustomerInfo
	Description string
	Notes       string
	Items       []ItemSelection
}

// UpdateJobCard replaces the editable fields and the full item set.
type UpdateJobCard struct {
	Description string
	Notes       string
	Items       []ItemSelection
}

type JobCardFilter struct {
	Status models.JobCardStatus
	UserID *uint
	From   *time.Time
	To     *time.Time
}

// JobCardService owns the job card lifecycle. Every mutation runs in one
// transaction; events are published only after commit and a publish failure
// never fails the operation.
type JobCardService struct {
	db        *gorm.DB
	builder   *LineItemBuilder
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewJobCardService(db *gorm.DB, builder *LineItemBuilder, publisher EventPublisher, logger *zap.Logger) *JobCardService {
	return &JobCardService{
		db:        db,
		builder:   builder,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Create inserts a pending job card with its priced items.
func (s *JobCardService) Create(ctx context.Context, actorID uint, req CreateJobCard) (*models.JobCard, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, validationErrorf("description is required")
	}
	customer, err := normalizeCustomer(req.Customer)
	if err != nil {
		return nil, err
	}

	card := &models.JobCard{
		JobDescription: description,
		Notes:          strings.TrimSpace(req.Notes),
		Status:         models.JobCardPending,
		TotalCost:      decimal.Zero,
		CreatedBy:      actorID,
	}
	card.SetCustomer(customer)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if customer.IsLinked() {
			if err := ensureCustomer(tx, customer.CustomerID); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(card).Error; err != nil {
			return fmt.Errorf("insert job card: %w", err)
		}
		items, total, err := s.replaceItems(ctx, tx, card.ID, req.Items)
		if err != nil {
			return err
		}
		card.Items = items
		card.TotalCost = total
		return nil
	})
	if err != nil {
		return nil, s.fail("create job card", err, zap.Uint("actor_id", actorID))
	}

	s.logger.Info("job card created",
		zap.Uint("job_card_id", card.ID),
		zap.Uint("actor_id", actorID),
		zap.Int("items", len(card.Items)),
		zap.String("total_cost", card.TotalCost.StringFixed(2)))

	if card.UserID == nil {
		return card, nil
	}
	s.publish(ctx, JobCardEvent{
		Type:        EventJobCardCreated,
		JobCardID:   card.ID,
		UserID:      card.UserID,
		Description: card.JobDescription,
		Status:      card.Status,
		ActorID:     actorID,
	})
	return card, nil
}

// Update rewrites description, notes and the whole item set. Status is untouched.
func (s *JobCardService) Update(ctx context.Context, actorID, id uint, req UpdateJobCard) (*models.JobCard, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, validationErrorf("description is required")
	}

	var card models.JobCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findJobCard(tx, id, &card); err != nil {
			return err
		}
		err := tx.Model(&models.JobCard{}).Where("id = ?", id).Updates(map[string]interface{}{
			"job_description": description,
			"notes":           strings.TrimSpace(req.Notes),
		}).Error
		if err != nil {
			return fmt.Errorf("update job card header: %w", err)
		}
		items, total, err := s.replaceItems(ctx, tx, id, req.Items)
		if err != nil {
			return err
		}
		card.JobDescription = description
		card.Notes = strings.TrimSpace(req.Notes)
		card.Items = items
		card.TotalCost = total
		return nil
	})
	if err != nil {
		return nil, s.fail("update job card", err, zap.Uint("job_card_id", id), zap.Uint("actor_id", actorID))
	}

	s.logger.Info("job card updated",
		zap.Uint("job_card_id", id),
		zap.Uint("actor_id", actorID),
		zap.Int("items", len(card.Items)),
		zap.String("total_cost", card.TotalCost.StringFixed(2)))
	return &card, nil
}

// UpdateStatus moves the card along pending -> in_progress -> completed,
// or to cancelled from any non-terminal state.
func (s *JobCardService) UpdateStatus(ctx context.Context, actorID, id uint, status string) (*models.JobCard, error) {
	next, err := models.ParseJobCardStatus(status)
	if err != nil {
		return nil, validationErrorf("invalid status %q", status)
	}

	var card models.JobCard
	var previous models.JobCardStatus
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := findJobCard(tx, id, &card); err != nil {
			return err
		}
		if !card.Status.CanTransitionTo(next) {
			return validationErrorf("cannot change status from %s to %s", card.Status, next)
		}
		res := tx.Model(&models.JobCard{}).
			Where("id = ? AND status = ?", id, card.Status).
			Update("status", next)
		if res.Error != nil {
			return fmt.Errorf("update status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errStatusChanged
		}
		previous = card.Status
		card.Status = next
		return nil
	})
	if err != nil {
		return nil, s.fail("update job card status", err, zap.Uint("job_card_id", id), zap.Uint("actor_id", actorID))
	}

	s.logger.Info("job card status changed",
		zap.Uint("job_card_id", id),
		zap.Uint("actor_id", actorID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)))

	if card.UserID == nil {
		return &card, nil
	}
	s.publish(ctx, JobCardEvent{
		Type:           EventJobCardStatusChanged,
		JobCardID:      id,
		UserID:         card.UserID,
		Status:         next,
		PreviousStatus: previous,
		ActorID:        actorID,
	})
	return &card, nil
}

// Delete removes the card and its items. No customer alert is sent.
func (s *JobCardService) Delete(ctx context.Context, actorID, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var card models.JobCard
		if err := findJobCard(tx, id, &card); err != nil {
			return err
		}
		if err := tx.Where("job_card_id = ?", id).Delete(&models.JobCardItem{}).Error; err != nil {
			return fmt.Errorf("delete job card items: %w", err)
		}
		if err := tx.Delete(&models.JobCard{}, id).Error; err != nil {
			return fmt.Errorf("delete job card: %w", err)
		}
		return nil
	})
	if err != nil {
		return s.fail("delete job card", err, zap.Uint("job_card_id", id), zap.Uint("actor_id", actorID))
	}
	s.logger.Info("job card deleted", zap.Uint("job_card_id", id), zap.Uint("actor_id", actorID))
	return nil
}

// Get loads a card with its customer and items.
func (s *JobCardService) Get(ctx context.Context, id uint) (*models.JobCard, error) {
	var card models.JobCard
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&card, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job card %d: %w", id, ErrNotFound)
		}
		return nil, s.fail("get job card", err, zap.Uint("job_card_id", id))
	}
	return &card, nil
}

// List returns job cards newest first.
func (s *JobCardService) List(ctx context.Context, filter JobCardFilter) ([]models.JobCard, error) {
	query := s.db.WithContext(ctx).Preload("Customer")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	cards := []models.JobCard{}
	if err := query.Order("created_at DESC, id DESC").Find(&cards).Error; err != nil {
		return nil, s.fail("list job cards", err)
	}
	return cards, nil
}

// replaceItems deletes the card's items, writes the rebuilt set and only
// then stores the total that summarizes them.
func (s *JobCardService) replaceItems(ctx context.Context, tx *gorm.DB, cardID uint, selections []ItemSelection) ([]models.JobCardItem, decimal.Decimal, error) {
	if err := tx.Where("job_card_id = ?", cardID).Delete(&models.JobCardItem{}).Error; err != nil {
		return nil, decimal.Zero, fmt.Errorf("delete job card items: %w", err)
	}

	items, total, err := s.builder.Build(ctx, tx, selections)
	if err != nil {
		return nil, decimal.Zero, err
	}
	for i := range items {
		items[i].JobCardID = cardID
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return nil, decimal.Zero, fmt.Errorf("insert job card items: %w", err)
		}
	}

	err = tx.Model(&models.JobCard{}).Where("id = ?", cardID).Update("total_cost", total).Error
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("update total cost: %w", err)
	}
	return items, total, nil
}

func (s *JobCardService) publish(ctx context.Context, event JobCardEvent) {
	if s.publisher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = s.now()

	// the request may already be done; the card is committed either way
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("job card event not published",
			zap.String("event_type", string(event.Type)),
			zap.Uint("job_card_id", event.JobCardID),
			zap.Error(err))
	}
}

// fail passes validation and not-found errors through and turns anything
// else into an OperationError after logging the cause.
func (s *JobCardService) fail(op string, err error, fields ...zap.Field) error {
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound) {
		return err
	}
	s.logger.Error(op+" failed", append(fields, zap.Error(err))...)
	return &OperationError{Op: op, Err: err}
}

func findJobCard(tx *gorm.DB, id uint, card *models.JobCard) error {
	if err := tx.First(card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("job card %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("load job card %d: %w", id, err)
	}
	return nil
}

func ensureCustomer(tx *gorm.DB, id uint) error {
	var user models.User
	err := tx.Select("id", "role", "is_active").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return validationErrorf("customer %d does not exist", id)
	}
	if err != nil {
		return fmt.Errorf("lookup customer %d: %w", id, err)
	}
	if user.Role != models.RoleCustomer || !user.IsActive {
		return validationErrorf("user %d is not an active customer", id)
	}
	return nil
}

func normalizeCustomer(c models.CustomerInfo) (models.CustomerInfo, error) {
	switch c.Mode {
	case models.CustomerExisting:
		if c.CustomerID == 0 {
			return c, validationErrorf("customer is required")
		}
		return models.LinkedCustomer(c.CustomerID), nil
	case models.CustomerManual:
		m := models.ManualCustomer{
			Name:          strings.TrimSpace(c.Manual.Name),
			Phone:         utils.NormalizePhone(c.Manual.Phone),
			Email:         strings.TrimSpace(c.Manual.Email),
			VehicleNumber: strings.ToUpper(strings.TrimSpace(c.Manual.VehicleNumber)),
		}
		if m.Name == "" || m.Phone == "" {
			return c, validationErrorf("customer name and phone are required")
		}
		if !utils.ValidatePhone(m.Phone) {
			return c, validationErrorf("customer phone %q is not a valid phone number", c.Manual.Phone)
		}
		return models.ManualCustomerInfo(m), nil
	}
	return c, validationErrorf("invalid customer mode %q", c.Mode)
}
