// services/scheduler.go
package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"reward-economy-system/models"
	"reward-economy-system/utils"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// SnapshotService aggregates the economy once a day and exports the result
// to R2 for the reporting/admin side. Read-only over the ledger tables.
type SnapshotService struct {
	DB *gorm.DB
}

func NewSnapshotService(db *gorm.DB) *SnapshotService {
	return &SnapshotService{DB: db}
}

// EconomySnapshot is the exported aggregate shape.
type EconomySnapshot struct {
	Date           string             `json:"date"`
	TotalAccounts  int64              `json:"total_accounts"`
	TotalCoins     int64              `json:"total_coins"`
	LedgerSum      int64              `json:"ledger_sum"`
	TotalCheckIns  int64              `json:"total_check_ins"`
	TotalClaims    int64              `json:"total_claims"`
	TotalAdGrants  int64              `json:"total_ad_grants"`
	PvpEncounters  int64              `json:"pvp_encounters"`
	PvpCoinsStolen int64              `json:"pvp_coins_stolen"`
	TopBalances    []LeaderboardEntry `json:"top_balances"`
}

// Build computes today's snapshot. TotalCoins and LedgerSum are reported side
// by side; they must agree, and the export is where a drift would show up.
func (s *SnapshotService) Build(ctx context.Context) (*EconomySnapshot, error) {
	db := s.DB.WithContext(ctx)
	snap := EconomySnapshot{Date: time.Now().UTC().Format("2006-01-02")}

	if err := db.Model(&models.Account{}).Count(&snap.TotalAccounts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0)").Scan(&snap.TotalCoins).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.LedgerEntry{}).
		Select("COALESCE(SUM(delta), 0)").Scan(&snap.LedgerSum).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.LedgerEntry{}).
		Where("reason = ?", models.ReasonCheckIn).Count(&snap.TotalCheckIns).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.TaskCompletion{}).Count(&snap.TotalClaims).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.AdRewardReceipt{}).Count(&snap.TotalAdGrants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PvpEncounter{}).Count(&snap.PvpEncounters).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.PvpEncounter{}).
		Where("win = ?", true).
		Select("COALESCE(SUM(amount), 0)").Scan(&snap.PvpCoinsStolen).Error; err != nil {
		return nil, err
	}

	top, err := NewLeaderboardService(s.DB).Top(ctx, "balance", 10)
	if err != nil {
		return nil, err
	}
	snap.TopBalances = top
	return &snap, nil
}

// StartSnapshotScheduler exports the daily snapshot shortly after UTC
// midnight, covering the day that just closed.
func (s *SnapshotService) StartSnapshotScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			snap, err := s.Build(ctx)
			if err != nil {
				log.Printf("[Snapshot] build failed: %v", err)
				return
			}
			if snap.TotalCoins != snap.LedgerSum {
				log.Printf("❌ [Snapshot] ledger drift: balances=%d ledger=%d", snap.TotalCoins, snap.LedgerSum)
			}

			payload, err := json.Marshal(snap)
			if err != nil {
				log.Printf("[Snapshot] marshal failed: %v", err)
				return
			}

			key := "snapshots/" + snap.Date + ".json"
			url, err := utils.UploadBytesToR2(ctx, key, payload, "application/json")
			if err != nil {
				log.Printf("[Snapshot] upload failed: %v", err)
				return
			}
			log.Printf("✅ Economy snapshot exported: %s", url)
		}),
	)
}
