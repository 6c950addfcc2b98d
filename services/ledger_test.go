package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"reward-economy-system/models"

	"gorm.io/gorm"
)

func TestApplyDeltaCreditAndLedger(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	mustCreateAccount(t, db, "alice", 100)

	var newBalance int64
	err := ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		newBalance, err = ledger.ApplyDelta(tx, "alice", 40, models.ReasonTaskReward)
		return err
	})
	if err != nil {
		t.Fatalf("apply delta: %v", err)
	}
	if newBalance != 140 {
		t.Fatalf("expected balance 140, got %d", newBalance)
	}

	var entries []models.LedgerEntry
	if err := db.Where("identity = ?", "alice").Find(&entries).Error; err != nil {
		t.Fatalf("fetch ledger: %v", err)
	}
	if len(entries) != 1 || entries[0].Delta != 40 || entries[0].Reason != models.ReasonTaskReward {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestApplyDeltaNeverGoesNegative(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	mustCreateAccount(t, db, "bob", 30)

	err := ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
		_, err := ledger.ApplyDelta(tx, "bob", -31, models.ReasonPvpLoss)
		return err
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := accountBalance(t, db, "bob"); got != 30 {
		t.Fatalf("balance must be untouched, got %d", got)
	}
}

func TestApplyDeltaUnknownAccount(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)

	err := ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
		_, err := ledger.ApplyDelta(tx, "ghost", 10, models.ReasonAdminGrant)
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentDeltasAreNotLost(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	mustCreateAccount(t, db, "carol", 0)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
				_, err := ledger.ApplyDelta(tx, "carol", 10, models.ReasonAdReward)
				return err
			})
			if err != nil {
				t.Errorf("concurrent delta: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := accountBalance(t, db, "carol"); got != workers*10 {
		t.Fatalf("expected balance %d, got %d", workers*10, got)
	}
}

func TestConsumeItemCheckedDecrement(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	mustCreateAccount(t, db, "dave", 0)
	mustGrantItem(t, db, "dave", models.ItemScanner, 1)

	err := ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
		return ledger.ConsumeItem(tx, "dave", models.ItemScanner)
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := itemQty(t, db, "dave", models.ItemScanner); got != 0 {
		t.Fatalf("expected quantity 0, got %d", got)
	}

	// Second consumption must fail without touching the row.
	err = ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
		return ledger.ConsumeItem(tx, "dave", models.ItemScanner)
	})
	if !errors.Is(err, ErrInsufficientItem) {
		t.Fatalf("expected ErrInsufficientItem, got %v", err)
	}
	if got := itemQty(t, db, "dave", models.ItemScanner); got != 0 {
		t.Fatalf("quantity must stay 0, got %d", got)
	}
}

func TestGrantItemUpserts(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	mustCreateAccount(t, db, "erin", 0)

	for i := 0; i < 2; i++ {
		err := ledger.RunInTx(context.Background(), func(tx *gorm.DB) error {
			return ledger.GrantItem(tx, "erin", models.ItemStreakShield, 2)
		})
		if err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
	}
	if got := itemQty(t, db, "erin", models.ItemStreakShield); got != 4 {
		t.Fatalf("expected quantity 4, got %d", got)
	}
}
