package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"reward-economy-system/models"
)

func newCheckInFixture(t *testing.T) (*CheckInService, *LedgerService) {
	t.Helper()
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewCheckInService(db, ledger, testConfig())
	return svc, ledger
}

func TestCheckInFirstEver(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	mustCreateAccount(t, svc.DB, "alice", 0)
	svc.Now = func() time.Time { return date(2026, 4, 1) }

	result, err := svc.CheckIn(context.Background(), "alice")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if result.Streak != 1 {
		t.Fatalf("first check-in must yield streak 1, got %d", result.Streak)
	}
	if result.ShieldUsed {
		t.Fatal("no shield may be consumed on first check-in")
	}
	cfg := testConfig()
	if want := cfg.CheckInBase + 1*cfg.CheckInIncrement; result.Reward != want || result.NewBalance != want {
		t.Fatalf("expected reward and balance %d, got %+v", want, result)
	}
}

func TestCheckInConsecutiveDay(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	acct := mustCreateAccount(t, svc.DB, "bob", 0)
	last := date(2026, 4, 1)
	acct.Streak = 5
	acct.LastCheckIn = &last
	if err := svc.DB.Save(acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	svc.Now = func() time.Time { return date(2026, 4, 2) }

	result, err := svc.CheckIn(context.Background(), "bob")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if result.Streak != 6 {
		t.Fatalf("expected streak 6, got %d", result.Streak)
	}
	cfg := testConfig()
	if want := cfg.CheckInBase + 6*cfg.CheckInIncrement; result.Reward != want {
		t.Fatalf("expected reward %d, got %d", want, result.Reward)
	}
}

func TestCheckInGapConsumesShield(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	acct := mustCreateAccount(t, svc.DB, "carol", 0)
	last := date(2026, 4, 1)
	acct.Streak = 5
	acct.LastCheckIn = &last
	if err := svc.DB.Save(acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	mustGrantItem(t, svc.DB, "carol", models.ItemStreakShield, 1)
	svc.Now = func() time.Time { return date(2026, 4, 4) }

	result, err := svc.CheckIn(context.Background(), "carol")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if result.Streak != 6 || !result.ShieldUsed {
		t.Fatalf("expected shielded streak 6, got %+v", result)
	}
	if got := itemQty(t, svc.DB, "carol", models.ItemStreakShield); got != 0 {
		t.Fatalf("expected shield consumed, quantity %d", got)
	}
}

func TestCheckInGapWithoutShieldResets(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	acct := mustCreateAccount(t, svc.DB, "dave", 0)
	last := date(2026, 4, 1)
	acct.Streak = 5
	acct.LastCheckIn = &last
	if err := svc.DB.Save(acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	svc.Now = func() time.Time { return date(2026, 4, 4) }

	result, err := svc.CheckIn(context.Background(), "dave")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if result.Streak != 1 {
		t.Fatalf("expected reset to streak 1, got %d", result.Streak)
	}
}

func TestCheckInSameDayConflict(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	mustCreateAccount(t, svc.DB, "erin", 0)
	svc.Now = func() time.Time { return date(2026, 4, 1) }

	first, err := svc.CheckIn(context.Background(), "erin")
	if err != nil {
		t.Fatalf("first check-in: %v", err)
	}

	_, err = svc.CheckIn(context.Background(), "erin")
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}
	if got := accountBalance(t, svc.DB, "erin"); got != first.NewBalance {
		t.Fatalf("second attempt must not change state, balance %d", got)
	}
}

func TestCheckInCapGrantsBonusSpin(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	acct := mustCreateAccount(t, svc.DB, "frank", 0)
	last := date(2026, 4, 1)
	acct.Streak = 6 // next check-in reaches the cap of 7
	acct.LastCheckIn = &last
	if err := svc.DB.Save(acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	svc.Now = func() time.Time { return date(2026, 4, 2) }

	result, err := svc.CheckIn(context.Background(), "frank")
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if result.BonusSpins != testConfig().CheckInCapBonus {
		t.Fatalf("expected cap bonus spins, got %d", result.BonusSpins)
	}
	if got := itemQty(t, svc.DB, "frank", models.ItemBonusSpin); got != int64(testConfig().CheckInCapBonus) {
		t.Fatalf("expected bonus spin in inventory, quantity %d", got)
	}
}

func TestCheckInStatusDryRun(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	acct := mustCreateAccount(t, svc.DB, "grace", 0)
	last := date(2026, 4, 1)
	acct.Streak = 5
	acct.LastCheckIn = &last
	if err := svc.DB.Save(acct).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
	svc.Now = func() time.Time { return date(2026, 4, 4) }

	status, err := svc.Status(context.Background(), "grace")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.CanCheckIn || !status.WillReset {
		t.Fatalf("expected available check-in with reset warning, got %+v", status)
	}
	if status.NextStreak != 1 {
		t.Fatalf("expected prospective streak 1, got %d", status.NextStreak)
	}

	// Dry run: nothing changed.
	if got := accountBalance(t, svc.DB, "grace"); got != 0 {
		t.Fatalf("status must not mutate, balance %d", got)
	}
	var fresh models.Account
	if err := svc.DB.Where("identity = ?", "grace").First(&fresh).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Streak != 5 {
		t.Fatalf("status must not mutate, streak %d", fresh.Streak)
	}
}

func TestCheckInStatusSameDay(t *testing.T) {
	svc, _ := newCheckInFixture(t)
	mustCreateAccount(t, svc.DB, "henry", 0)
	svc.Now = func() time.Time { return date(2026, 4, 1) }

	if _, err := svc.CheckIn(context.Background(), "henry"); err != nil {
		t.Fatalf("check-in: %v", err)
	}

	status, err := svc.Status(context.Background(), "henry")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.CanCheckIn {
		t.Fatal("same-day status must report unavailable")
	}
	if status.CurrentStreak != 1 {
		t.Fatalf("expected current streak 1, got %d", status.CurrentStreak)
	}
}
