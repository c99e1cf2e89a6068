package service

import (
	"time"

	"rostra/internal/domain"
	"rostra/internal/models"
	"rostra/internal/repository"
)

// QuotaProgress is one quota scored for one user over a timeframe.
type QuotaProgress struct {
	QuotaID  string `json:"quota_id"`
	Name     string `json:"name"`
	Metric   string `json:"metric"`
	Achieved int64  `json:"achieved"`
	Target   int    `json:"target"`
	Percent  int    `json:"percent"`
}

// QuotaService aggregates immutable activity and hosting history against
// quota targets. It only reads; the timeframe window is advanced elsewhere.
type QuotaService struct {
	activityRepo   *repository.ActivityRepository
	occurrenceRepo *repository.OccurrenceRepository
	quotaRepo      *repository.QuotaRepository
}

func NewQuotaService(activityRepo *repository.ActivityRepository, occurrenceRepo *repository.OccurrenceRepository, quotaRepo *repository.QuotaRepository) *QuotaService {
	return &QuotaService{activityRepo: activityRepo, occurrenceRepo: occurrenceRepo, quotaRepo: quotaRepo}
}

// Evaluate scores one quota for a user over [from, to).
func (s *QuotaService) Evaluate(workspaceID, userID uint64, quota *models.Quota, from, to time.Time) (*QuotaProgress, error) {
	var achieved int64
	var err error
	switch quota.Metric {
	case domain.MetricMinutes:
		achieved, err = s.activityRepo.SumMinutesInRange(workspaceID, userID, from, to)
	case domain.MetricSessionsHosted:
		achieved, err = s.occurrenceRepo.CountHostedInRange(workspaceID, userID, from, to)
	case domain.MetricSessionsAttended:
		achieved, err = s.occurrenceRepo.CountAttendedInRange(workspaceID, userID, from, to)
	}
	if err != nil {
		return nil, err
	}
	return &QuotaProgress{
		QuotaID:  quota.ID,
		Name:     quota.Name,
		Metric:   quota.Metric,
		Achieved: achieved,
		Target:   quota.Target,
		Percent:  percent(achieved, quota.Target),
	}, nil
}

// EvaluateUser scores every quota assigned to the user's role.
func (s *QuotaService) EvaluateUser(workspaceID, userID uint64, roleID string, from, to time.Time) ([]QuotaProgress, error) {
	quotas, err := s.quotaRepo.ListForRole(workspaceID, roleID)
	if err != nil {
		return nil, err
	}
	progress := make([]QuotaProgress, 0, len(quotas))
	for i := range quotas {
		p, err := s.Evaluate(workspaceID, userID, &quotas[i], from, to)
		if err != nil {
			return nil, err
		}
		progress = append(progress, *p)
	}
	return progress, nil
}

func percent(achieved int64, target int) int {
	if target <= 0 {
		return 0
	}
	p := achieved * 100 / int64(target)
	if p > 100 {
		p = 100
	}
	return int(p)
}
