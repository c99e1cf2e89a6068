package repository

import (
	"time"

	"rostra/internal/apperr"
	"rostra/internal/models"

	"gorm.io/gorm"
)

// ActivityRepository owns the heartbeat state machine. A user is Idle (no
// open row) or Active (one open row); the unique ActiveKey column makes the
// transition race-safe across replicas.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Start opens an activity session. A second start without an intervening
// end hits the ActiveKey unique index and reports AlreadyActive.
func (r *ActivityRepository) Start(userID, workspaceID uint64, placeID *uint64, now time.Time) (*models.ActivitySession, error) {
	key := models.ActiveKeyFor(userID, workspaceID)
	session := &models.ActivitySession{
		UserID:      userID,
		WorkspaceID: workspaceID,
		PlaceID:     placeID,
		StartTime:   now,
		Active:      true,
		ActiveKey:   &key,
	}
	if err := r.db.Create(session).Error; err != nil {
		var existing models.ActivitySession
		if lookupErr := r.db.Where("active_key = ?", key).First(&existing).Error; lookupErr == nil {
			return nil, apperr.ErrAlreadyActive
		}
		return nil, err
	}
	return session, nil
}

// End closes the open session for (user, workspace). The conditional update
// clears ActiveKey, after which the row is never written again.
func (r *ActivityRepository) End(userID, workspaceID uint64, idleMinutes, messageCount int, now time.Time) error {
	res := r.db.Model(&models.ActivitySession{}).
		Where("active_key = ?", models.ActiveKeyFor(userID, workspaceID)).
		Updates(map[string]interface{}{
			"end_time":      now,
			"active":        false,
			"active_key":    nil,
			"idle_minutes":  idleMinutes,
			"message_count": messageCount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNoActiveSession
	}
	return nil
}

// ListClosedInRange returns the user's closed sessions with an end time in
// [from, to), oldest first.
func (r *ActivityRepository) ListClosedInRange(workspaceID, userID uint64, from, to time.Time) ([]models.ActivitySession, error) {
	var list []models.ActivitySession
	err := r.db.
		Where("workspace_id = ? AND user_id = ? AND active = ? AND end_time >= ? AND end_time < ?",
			workspaceID, userID, false, from, to).
		Order("start_time").
		Find(&list).Error
	return list, err
}

// SumMinutesInRange totals closed-session length in whole minutes.
func (r *ActivityRepository) SumMinutesInRange(workspaceID, userID uint64, from, to time.Time) (int64, error) {
	sessions, err := r.ListClosedInRange(workspaceID, userID, from, to)
	if err != nil {
		return 0, err
	}
	var total int64
	for i := range sessions {
		total += sessions[i].Minutes()
	}
	return total, nil
}

// GetActive returns the open session for (user, workspace), if any.
func (r *ActivityRepository) GetActive(userID, workspaceID uint64) (*models.ActivitySession, error) {
	var s models.ActivitySession
	err := r.db.Where("active_key = ?", models.ActiveKeyFor(userID, workspaceID)).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
