package services

import (
	"context"
	"errors"

	"reward-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskService resolves task claims. The catalog itself is mirrored in by the
// catalog sync worker; this service only reads definitions and writes
// completions.
type TaskService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewTaskService(db *gorm.DB, ledger *LedgerService) *TaskService {
	return &TaskService{DB: db, Ledger: ledger}
}

// ClaimResult is returned for a successful task claim.
type ClaimResult struct {
	Reward     int64 `json:"reward"`
	NewBalance int64 `json:"new_balance"`
}

// ClaimTask credits the task reward at most once per (identity, task).
// The claim-once guarantee is the unique index on TaskCompletion enforced at
// commit time — concurrent duplicates resolve to exactly one winner, never
// via a separate look-then-write check.
func (s *TaskService) ClaimTask(ctx context.Context, identity, taskID string) (*ClaimResult, error) {
	if taskID == "" {
		return nil, ErrValidation
	}

	var result ClaimResult
	err := s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var task models.TaskDefinition
		if err := tx.Where("id = ?", taskID).First(&task).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !task.Active {
			return ErrTaskInactive
		}

		completion := models.TaskCompletion{
			ID:       uuid.NewString(),
			Identity: identity,
			TaskID:   task.ID,
			Reward:   task.Reward,
		}
		if err := tx.Create(&completion).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyClaimed
			}
			return err
		}

		balance, err := s.Ledger.ApplyDelta(tx, identity, task.Reward, models.ReasonTaskReward)
		if err != nil {
			return err
		}
		result = ClaimResult{Reward: task.Reward, NewBalance: balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ActiveTasks lists the claimable catalog, flagging tasks the identity
// already completed.
func (s *TaskService) ActiveTasks(ctx context.Context, identity string) ([]TaskView, error) {
	db := s.DB.WithContext(ctx)

	var tasks []models.TaskDefinition
	if err := db.Where("active = ?", true).Order("created_at ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}

	var done []models.TaskCompletion
	if err := db.Where("identity = ?", identity).Find(&done).Error; err != nil {
		return nil, err
	}
	completed := make(map[string]bool, len(done))
	for _, c := range done {
		completed[c.TaskID] = true
	}

	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = TaskView{
			ID:        t.ID,
			Slug:      t.Slug,
			Title:     t.Title,
			Link:      t.Link,
			Reward:    t.Reward,
			Completed: completed[t.ID],
		}
	}
	return views, nil
}

// TaskView is the catalog entry shape exposed to clients.
type TaskView struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Link      string `json:"link,omitempty"`
	Reward    int64  `json:"reward"`
	Completed bool   `json:"completed"`
}
