package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/telemed-assistant/internal/domain/entities"
	"github.com/johnquangdev/telemed-assistant/internal/domain/repositories"
)

// callRequestRepository implements the CallRequestRepository interface
type callRequestRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewCallRequestRepository creates a new call request repository
func NewCallRequestRepository(db *gorm.DB, clk clock.Clock) repositories.CallRequestRepository {
	if clk == nil {
		clk = clock.New()
	}
	return &callRequestRepository{db: db, clock: clk}
}

// Insert creates a new call request
func (r *callRequestRepository) Insert(ctx context.Context, req *entities.CallRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

// FindByID retrieves a call request by its ID
func (r *callRequestRepository) FindByID(ctx context.Context, id string) (*entities.CallRequest, error) {
	var req entities.CallRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, entities.ErrCallRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindAllPending retrieves all pending call requests in insertion order.
// Ids are time-ordered UUIDv7 values, so they break ties within a millisecond.
func (r *callRequestRepository) FindAllPending(ctx context.Context) ([]*entities.CallRequest, error) {
	var reqs []*entities.CallRequest
	err := r.db.WithContext(ctx).
		Where("status = ?", entities.CallRequestStatusPending).
		Order("created_at ASC").
		Order("id ASC").
		Find(&reqs).Error
	return reqs, err
}

// UpdateStatus moves a pending request to a terminal status.
// The status guard in the WHERE clause keeps transitions one-way under concurrent callers.
func (r *callRequestRepository) UpdateStatus(ctx context.Context, id string, status entities.CallRequestStatus, update repositories.StatusUpdate) (*entities.CallRequest, error) {
	at := update.At
	if at.IsZero() {
		at = r.clock.Now()
	}

	updates := map[string]interface{}{
		"status": status,
	}
	switch status {
	case entities.CallRequestStatusAccepted:
		callee := entities.ParticipantInfo{}
		if update.Callee != nil {
			callee = *update.Callee
		}
		raw, err := json.Marshal(callee)
		if err != nil {
			return nil, err
		}
		updates["callee_info"] = datatypes.JSON(raw)
		updates["accepted_at"] = at
	case entities.CallRequestStatusDeclined:
		updates["declined_at"] = at
	default:
		return nil, entities.ErrInvalidRequest
	}

	result := r.db.WithContext(ctx).
		Model(&entities.CallRequest{}).
		Where("id = ? AND status = ?", id, entities.CallRequestStatusPending).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		// distinguish unknown id from an already resolved request
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, entities.ErrCallRequestResolved
	}

	return r.FindByID(ctx, id)
}

// ListCreatedBefore retrieves call requests created strictly before cutoff
func (r *callRequestRepository) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]*entities.CallRequest, error) {
	var reqs []*entities.CallRequest
	err := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UnixMilli()).
		Order("created_at ASC").
		Order("id ASC").
		Find(&reqs).Error
	return reqs, err
}

// PurgeCreatedBefore deletes call requests created strictly before cutoff
func (r *callRequestRepository) PurgeCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UnixMilli()).
		Delete(&entities.CallRequest{})
	return result.RowsAffected, result.Error
}

// PurgeOlderThan deletes call requests created before now - maxAge
func (r *callRequestRepository) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	return r.PurgeCreatedBefore(ctx, r.clock.Now().Add(-maxAge))
}
