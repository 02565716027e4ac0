package services

import (
	"encoding/json"

	"github.com/estudio-tools/workflow-api/internal/models"
	"github.com/estudio-tools/workflow-api/internal/repository"
	"go.uber.org/zap"
)

// ActivityRecorder is the side-effect port the mutation services call to emit
// audit trail entries. Recording is fire-and-forget: the primary mutation is
// never rolled back because its own audit trail failed.
type ActivityRecorder interface {
	Record(userID uint64, action, description, targetType string, targetID *uint64, areaID *uint64, details map[string]interface{})
}

// ActivityService writes ActivityLog rows and serves tier-scoped listings.
type ActivityService struct {
	auditRepo repository.AuditRepository
	logger    *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(auditRepo repository.AuditRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{auditRepo: auditRepo, logger: logger}
}

// Record appends an activity entry. Failures are logged and swallowed.
func (s *ActivityService) Record(userID uint64, action, description, targetType string, targetID *uint64, areaID *uint64, details map[string]interface{}) {
	entry := &models.ActivityLog{
		UserID:      userID,
		Action:      action,
		Description: description,
		TargetType:  targetType,
		TargetID:    targetID,
		AreaID:      areaID,
	}

	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = raw
		}
	}

	if err := s.auditRepo.CreateActivity(entry); err != nil {
		s.logger.Warn("activity log write failed",
			zap.String("action", action), zap.Error(err))
	}
}

// ListActivityInput scopes an activity listing request.
type ListActivityInput struct {
	Scope    Scope
	UserID   *uint64
	Action   *string
	Page     int
	PageSize int
}

// List returns the activity entries visible under the caller's scope.
func (s *ActivityService) List(input ListActivityInput) ([]models.ActivityLog, int64, error) {
	return s.auditRepo.ListActivity(repository.ActivityFilter{
		AllAreas: input.Scope.All,
		AreaIDs:  input.Scope.AreaIDs,
		UserID:   input.UserID,
		Action:   input.Action,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

// NopRecorder discards every event; used where audit wiring is not wanted.
type NopRecorder struct{}

func (NopRecorder) Record(uint64, string, string, string, *uint64, *uint64, map[string]interface{}) {
}
