package services

import (
	"context"
	"testing"
)

func TestLeaderboardTopByBalanceExcludesBanned(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	mustCreateAccount(t, db, "first", 900)
	mustCreateAccount(t, db, "second", 500)
	mustCreateAccount(t, db, "third", 100)
	banned := mustCreateAccount(t, db, "cheater", 99999)
	banned.Banned = true
	if err := db.Save(banned).Error; err != nil {
		t.Fatalf("ban: %v", err)
	}

	entries, err := svc.Top(context.Background(), "balance", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Identity != "first" || entries[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", entries[0])
	}
	for _, e := range entries {
		if e.Identity == "cheater" {
			t.Fatal("banned accounts must not rank")
		}
	}
}

func TestLeaderboardTopByWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)
	a := mustCreateAccount(t, db, "brawler", 10)
	a.PvpWins = 7
	if err := db.Save(a).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	mustCreateAccount(t, db, "pacifist", 5000)

	entries, err := svc.Top(context.Background(), "wins", 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if entries[0].Identity != "brawler" {
		t.Fatalf("expected brawler first, got %+v", entries[0])
	}
}

func TestSnapshotAggregatesMatchLedger(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	svc := NewSnapshotService(db)
	mustCreateAccount(t, db, "alice", 0)
	mustCreateAccount(t, db, "bob", 0)

	ctx := context.Background()
	tasks := NewTaskService(db, ledger)
	task := mustCreateTask(t, db, "Snapshot task", 40, true)
	if _, err := tasks.ClaimTask(ctx, "alice", task.ID); err != nil {
		t.Fatalf("claim: %v", err)
	}
	ads := NewAdRewardService(ledger, testConfig())
	if _, err := ads.Claim(ctx, "bob", "rec-1", "adnet"); err != nil {
		t.Fatalf("ad claim: %v", err)
	}

	snap, err := svc.Build(ctx)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if snap.TotalAccounts != 2 {
		t.Fatalf("expected 2 accounts, got %d", snap.TotalAccounts)
	}
	if snap.TotalCoins != snap.LedgerSum {
		t.Fatalf("balances (%d) must equal ledger sum (%d)", snap.TotalCoins, snap.LedgerSum)
	}
	if snap.TotalClaims != 1 || snap.TotalAdGrants != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
	if snap.TotalCoins != 40+testConfig().AdRewardAmount {
		t.Fatalf("expected %d coins in circulation, got %d", 40+testConfig().AdRewardAmount, snap.TotalCoins)
	}
}
