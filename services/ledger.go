package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"reward-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	txMaxAttempts = 3
	txRetryDelay  = 50 * time.Millisecond
)

// LedgerService owns every balance mutation. Balances only ever move through
// ApplyDelta inside a transaction, paired with an append-only LedgerEntry, so
// the invariant "balance == sum of deltas" holds by construction.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// RunInTx executes fn inside a transaction with bounded retry on
// conflict/timeout. Business errors abort immediately; only transient store
// errors are retried, and exhaustion surfaces as ErrTransientStore so callers
// can tell "retry me" apart from "you did something wrong".
func (s *LedgerService) RunInTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= txMaxAttempts; attempt++ {
		err = s.DB.WithContext(ctx).Transaction(fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		log.Printf("⚠️  [LEDGER] transient conflict (attempt %d/%d): %v", attempt, txMaxAttempts, err)
		select {
		case <-ctx.Done():
			return ErrTransientStore
		case <-time.After(txRetryDelay * time.Duration(attempt)):
		}
	}
	return ErrTransientStore
}

// ApplyDelta atomically adjusts an account balance and appends the matching
// ledger entry. The guard `balance + delta >= 0` rides in the UPDATE itself:
// concurrent debits can never drive a balance negative, and concurrent
// credits are never lost. Must run inside a transaction.
func (s *LedgerService) ApplyDelta(tx *gorm.DB, identity string, delta int64, reason string) (int64, error) {
	res := tx.Model(&models.Account{}).
		Where("identity = ? AND balance + ? >= 0", identity, delta).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		// Either the account is missing or the debit would go negative.
		var count int64
		if err := tx.Model(&models.Account{}).Where("identity = ?", identity).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientFunds
	}

	entry := models.LedgerEntry{
		ID:       uuid.NewString(),
		Identity: identity,
		Delta:    delta,
		Reason:   reason,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, err
	}

	var acct models.Account
	if err := tx.Select("balance").Where("identity = ?", identity).First(&acct).Error; err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// ConsumeItem is the checked atomic decrement for consumable inventory: the
// quantity guard is part of the UPDATE, so a zero-quantity race loses cleanly
// with ErrInsufficientItem instead of going negative.
func (s *LedgerService) ConsumeItem(tx *gorm.DB, identity, itemCode string) error {
	res := tx.Model(&models.InventoryEntry{}).
		Where("identity = ? AND item_code = ? AND quantity > 0", identity, itemCode).
		Update("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientItem
	}
	return nil
}

// GrantItem upserts an inventory row and bumps its quantity.
func (s *LedgerService) GrantItem(tx *gorm.DB, identity, itemCode string, qty int64) error {
	if qty <= 0 {
		return ErrValidation
	}
	res := tx.Model(&models.InventoryEntry{}).
		Where("identity = ? AND item_code = ?", identity, itemCode).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	entry := models.InventoryEntry{
		ID:       uuid.NewString(),
		Identity: identity,
		ItemCode: itemCode,
		Quantity: qty,
	}
	if err := tx.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the insert race; the row exists now, bump it.
			return tx.Model(&models.InventoryEntry{}).
				Where("identity = ? AND item_code = ?", identity, itemCode).
				Update("quantity", gorm.Expr("quantity + ?", qty)).Error
		}
		return err
	}
	return nil
}

// ItemQuantity reads the held quantity of an item (0 when no row exists).
func (s *LedgerService) ItemQuantity(db *gorm.DB, identity, itemCode string) (int64, error) {
	var entry models.InventoryEntry
	err := db.Where("identity = ? AND item_code = ?", identity, itemCode).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Quantity, nil
}

// isRetryable classifies store failures worth another attempt: serialization
// conflicts, deadlocks, SQLite busy states and timeouts.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"deadlock",
		"serialization failure",
		"could not serialize",
		"database is locked",
		"database table is locked",
		"busy",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
