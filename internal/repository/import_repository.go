package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"product-import-service/internal/models"
)

// ProgressCacheTTL bounds the polling cache; sessions update often while
// processing so a short TTL keeps readers close to the truth.
const ProgressCacheTTL = 5 * time.Second

// ImportRepositoryInterface defines the persistence contract for import
// sessions so services can be tested against mocks.
type ImportRepositoryInterface interface {
	Create(ctx context.Context, session *models.ImportSession) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.ImportSession, int64, error)
	Update(ctx context.Context, session *models.ImportSession) error
	UpdateCounters(ctx context.Context, session *models.ImportSession) error
	Transition(ctx context.Context, session *models.ImportSession) error
	UpdateProgress(ctx context.Context, id uuid.UUID, stage models.ImportStage, percent int, message string) error
	GetStatus(ctx context.Context, id uuid.UUID) (models.ImportStatus, error)
	SetStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ImportStatus) error
	Delete(ctx context.Context, tenantID string, id uuid.UUID) error
	GetProgress(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSessionProgress, error)
}

type ImportRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

var _ ImportRepositoryInterface = (*ImportRepository)(nil)

func NewImportRepository(db *gorm.DB, redisClient *redis.Client) *ImportRepository {
	return &ImportRepository{db: db, redis: redisClient}
}

func progressCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("import:progress:%s", id.String())
}

// Create persists a new session owned by its tenant/initiator pairing
func (r *ImportRepository) Create(ctx context.Context, session *models.ImportSession) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.StartedAt = time.Now()
	return r.db.WithContext(ctx).Create(session).Error
}

// GetByID retrieves a session scoped to its tenant
func (r *ImportRepository) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSession, error) {
	var session models.ImportSession
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByTenant returns the tenant's import history, newest first
func (r *ImportRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.ImportSession, int64, error) {
	var sessions []models.ImportSession
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ImportSession{}).Where("tenant_id = ?", tenantID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("started_at DESC").Limit(limit).Offset(offset).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

// Update writes the full session record and refreshes the progress cache.
// Reserved for user-initiated resets (reprocess); the background pipeline
// writes through UpdateCounters and Transition, which never clobber a
// terminal status.
func (r *ImportRepository) Update(ctx context.Context, session *models.ImportSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return err
	}
	r.cacheProgress(ctx, session)
	return nil
}

// terminalStatuses are the states a session never leaves on its own. The
// background pipeline must not overwrite them: a user cancellation that
// lands between two pipeline writes has to stick.
var terminalStatuses = []models.ImportStatus{
	models.ImportStatusCompleted,
	models.ImportStatusFailed,
	models.ImportStatusCancelled,
}

// UpdateCounters persists the run's row/group counters and error log in a
// targeted update that never touches status, so it cannot race with a user
// cancellation. Terminal sessions keep their counters frozen.
func (r *ImportRepository) UpdateCounters(ctx context.Context, session *models.ImportSession) error {
	err := r.db.WithContext(ctx).Model(&models.ImportSession{}).
		Where("id = ? AND status NOT IN ?", session.ID, terminalStatuses).
		Updates(map[string]interface{}{
			"total_rows":      session.TotalRows,
			"rows_processed":  session.RowsProcessed,
			"rows_accepted":   session.RowsAccepted,
			"rows_rejected":   session.RowsRejected,
			"rows_skipped":    session.RowsSkipped,
			"groups_created":  session.GroupsCreated,
			"groups_existing": session.GroupsExisting,
			"error_log":       session.ErrorLog,
		}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Del(ctx, progressCacheKey(session.ID))
	}
	return nil
}

// Transition applies the session's status together with its stage, progress,
// counters and error log, refusing to overwrite a session that already
// reached a terminal state. A cancelled session therefore stays cancelled no
// matter when the background run writes.
func (r *ImportRepository) Transition(ctx context.Context, session *models.ImportSession) error {
	err := r.db.WithContext(ctx).Model(&models.ImportSession{}).
		Where("id = ? AND status NOT IN ?", session.ID, terminalStatuses).
		Updates(map[string]interface{}{
			"status":           session.Status,
			"stage":            session.Stage,
			"progress_percent": session.ProgressPercent,
			"status_message":   session.StatusMessage,
			"finished_at":      session.FinishedAt,
			"total_rows":       session.TotalRows,
			"rows_processed":   session.RowsProcessed,
			"rows_accepted":    session.RowsAccepted,
			"rows_rejected":    session.RowsRejected,
			"rows_skipped":     session.RowsSkipped,
			"groups_created":   session.GroupsCreated,
			"groups_existing":  session.GroupsExisting,
			"error_log":        session.ErrorLog,
		}).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Del(ctx, progressCacheKey(session.ID))
	}
	return nil
}

// UpdateProgress advances stage, percentage and message in one write. The
// percentage guard keeps progress monotonically non-decreasing even if a
// stale checkpoint is applied out of order.
func (r *ImportRepository) UpdateProgress(ctx context.Context, id uuid.UUID, stage models.ImportStage, percent int, message string) error {
	err := r.db.WithContext(ctx).Model(&models.ImportSession{}).
		Where("id = ? AND progress_percent <= ?", id, percent).
		Updates(map[string]interface{}{
			"stage":            stage,
			"progress_percent": percent,
			"status_message":   message,
		}).Error
	if err != nil {
		return err
	}

	if r.redis != nil {
		r.redis.Del(ctx, progressCacheKey(id))
	}
	return nil
}

// GetStatus reads only the status column; used for the cooperative
// cancellation check between pipeline stages.
func (r *ImportRepository) GetStatus(ctx context.Context, id uuid.UUID) (models.ImportStatus, error) {
	var session models.ImportSession
	if err := r.db.WithContext(ctx).Select("status").
		Where("id = ?", id).
		First(&session).Error; err != nil {
		return "", err
	}
	return session.Status, nil
}

// SetStatus transitions a session's status scoped to its tenant
func (r *ImportRepository) SetStatus(ctx context.Context, tenantID string, id uuid.UUID, status models.ImportStatus) error {
	err := r.db.WithContext(ctx).Model(&models.ImportSession{}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Update("status", status).Error
	if err != nil {
		return err
	}
	if r.redis != nil {
		r.redis.Del(ctx, progressCacheKey(id))
	}
	return nil
}

// Delete removes a session record
func (r *ImportRepository) Delete(ctx context.Context, tenantID string, id uuid.UUID) error {
	if r.redis != nil {
		r.redis.Del(ctx, progressCacheKey(id))
	}
	return r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.ImportSession{}).Error
}

// GetProgress serves the polling snapshot, preferring the Redis cache so
// frequent UI polls do not hit Postgres on every request.
func (r *ImportRepository) GetProgress(ctx context.Context, tenantID string, id uuid.UUID) (*models.ImportSessionProgress, error) {
	if r.redis != nil {
		if val, err := r.redis.Get(ctx, progressCacheKey(id)).Result(); err == nil {
			var progress models.ImportSessionProgress
			if err := json.Unmarshal([]byte(val), &progress); err == nil {
				return &progress, nil
			}
		}
	}

	session, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	r.cacheProgress(ctx, session)
	progress := session.ToProgress()
	return &progress, nil
}

func (r *ImportRepository) cacheProgress(ctx context.Context, session *models.ImportSession) {
	if r.redis == nil {
		return
	}
	if data, err := json.Marshal(session.ToProgress()); err == nil {
		r.redis.Set(ctx, progressCacheKey(session.ID), data, ProgressCacheTTL)
	}
}
