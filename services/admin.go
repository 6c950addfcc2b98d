package services

import (
	"context"
	"errors"
	"log"

	"reward-economy-system/models"

	"gorm.io/gorm"
)

// AdminService is the privileged mutation surface. Every action goes through
// the same ledger primitives as user-facing operations — admin status skips
// the role gate, never the balance invariants.
type AdminService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewAdminService(db *gorm.DB, ledger *LedgerService) *AdminService {
	return &AdminService{DB: db, Ledger: ledger}
}

// requireAdmin loads the caller and checks the admin role.
func (s *AdminService) requireAdmin(ctx context.Context, caller string) error {
	var acct models.Account
	if err := s.DB.WithContext(ctx).Where("identity = ?", caller).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if !acct.IsAdmin() || acct.Banned {
		return ErrUnauthorized
	}
	return nil
}

// Credit applies a direct balance grant (or debit, with a negative amount)
// through the ledger path.
func (s *AdminService) Credit(ctx context.Context, caller, target string, amount int64) (int64, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, ErrValidation
	}

	var balance int64
	err := s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var err error
		balance, err = s.Ledger.ApplyDelta(tx, target, amount, models.ReasonAdminGrant)
		return err
	})
	if err != nil {
		return 0, err
	}
	log.Printf("🛠️  [ADMIN] %s credited %d to %s (balance %d)", caller, amount, target, balance)
	return balance, nil
}

// SetBanned bans or unbans an account.
func (s *AdminService) SetBanned(ctx context.Context, caller, target string, banned bool) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	res := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("identity = ?", target).
		Update("banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	log.Printf("🛠️  [ADMIN] %s set banned=%t on %s", caller, banned, target)
	return nil
}

// SetRole changes an account's role.
func (s *AdminService) SetRole(ctx context.Context, caller, target, role string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return ErrValidation
	}
	res := s.DB.WithContext(ctx).Model(&models.Account{}).
		Where("identity = ?", target).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	log.Printf("🛠️  [ADMIN] %s set role=%s on %s", caller, role, target)
	return nil
}

// GrantItem adds inventory to an account (shields, scanners, cloaks).
func (s *AdminService) GrantItem(ctx context.Context, caller, target, itemCode string, qty int64) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	var item models.ItemDefinition
	if err := s.DB.WithContext(ctx).Where("code = ?", itemCode).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	var count int64
	if err := s.DB.WithContext(ctx).Model(&models.Account{}).Where("identity = ?", target).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		return s.Ledger.GrantItem(tx, target, itemCode, qty)
	})
}
