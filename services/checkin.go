package services

import (
	"context"
	"errors"
	"time"

	"reward-economy-system/models"

	"gorm.io/gorm"
)

// CheckInService applies daily check-ins: streak transition, reward credit,
// shield consumption and the lastCheckIn stamp all land in one transaction.
type CheckInService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Config EconomyConfig

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewCheckInService(db *gorm.DB, ledger *LedgerService, cfg EconomyConfig) *CheckInService {
	return &CheckInService{DB: db, Ledger: ledger, Config: cfg, Now: time.Now}
}

// CheckInResult is what a successful check-in returns to the caller.
type CheckInResult struct {
	Reward     int64 `json:"reward"`
	Streak     int   `json:"streak"`
	ShieldUsed bool  `json:"shield_used"`
	BonusSpins int   `json:"bonus_spins"`
	NewBalance int64 `json:"new_balance"`
}

// CheckIn performs today's check-in for the identity. Duplicate same-day
// attempts — including concurrent ones — fail with ErrAlreadyCheckedIn and
// leave no trace: the streak/lastCheckIn write is a compare-and-swap on the
// lastCheckIn value we evaluated against, so exactly one racer wins.
func (s *CheckInService) CheckIn(ctx context.Context, identity string) (*CheckInResult, error) {
	now := s.Now()
	var result CheckInResult

	err := s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var acct models.Account
		if err := tx.Where("identity = ?", identity).First(&acct).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		shieldQty, err := s.Ledger.ItemQuantity(tx, identity, models.ItemStreakShield)
		if err != nil {
			return err
		}

		t := EvaluateCheckIn(s.Config, acct.LastCheckIn, now, acct.Streak, shieldQty > 0)
		if t.AlreadyDone {
			return ErrAlreadyCheckedIn
		}

		// CAS on last_check_in: if another request checked in between our
		// read and this write, zero rows match and we report the conflict.
		q := tx.Model(&models.Account{}).Where("identity = ?", identity)
		if acct.LastCheckIn == nil {
			q = q.Where("last_check_in IS NULL")
		} else {
			q = q.Where("last_check_in = ?", *acct.LastCheckIn)
		}
		res := q.Updates(map[string]interface{}{
			"streak":        t.Streak,
			"last_check_in": now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCheckedIn
		}

		if t.UsesShield {
			if err := s.Ledger.ConsumeItem(tx, identity, models.ItemStreakShield); err != nil {
				return err
			}
		}

		balance, err := s.Ledger.ApplyDelta(tx, identity, t.Reward, models.ReasonCheckIn)
		if err != nil {
			return err
		}

		if t.BonusSpins > 0 {
			if err := s.Ledger.GrantItem(tx, identity, models.ItemBonusSpin, int64(t.BonusSpins)); err != nil {
				return err
			}
		}

		result = CheckInResult{
			Reward:     t.Reward,
			Streak:     t.Streak,
			ShieldUsed: t.UsesShield,
			BonusSpins: t.BonusSpins,
			NewBalance: balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckInStatus is the read-only dry run of the transition table.
type CheckInStatus struct {
	CanCheckIn    bool  `json:"can_check_in"`
	CurrentStreak int   `json:"current_streak"`
	NextReward    int64 `json:"next_reward"`
	NextStreak    int   `json:"next_streak"`
	HasShield     bool  `json:"has_shield"`
	WillReset     bool  `json:"will_reset"`
}

// Status reports whether a check-in is currently available without mutating
// anything. Reuses EvaluateCheckIn so status and check-in can never disagree.
func (s *CheckInService) Status(ctx context.Context, identity string) (*CheckInStatus, error) {
	db := s.DB.WithContext(ctx)

	var acct models.Account
	if err := db.Where("identity = ?", identity).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	shieldQty, err := s.Ledger.ItemQuantity(db, identity, models.ItemStreakShield)
	if err != nil {
		return nil, err
	}

	t := EvaluateCheckIn(s.Config, acct.LastCheckIn, s.Now(), acct.Streak, shieldQty > 0)
	status := CheckInStatus{
		CurrentStreak: acct.Streak,
		HasShield:     shieldQty > 0,
	}
	if t.AlreadyDone {
		status.NextReward = checkInReward(s.Config, acct.Streak+1)
		status.NextStreak = acct.Streak + 1
		return &status, nil
	}
	status.CanCheckIn = true
	status.NextReward = t.Reward
	status.NextStreak = t.Streak
	status.WillReset = t.WasReset
	return &status, nil
}
