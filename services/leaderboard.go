package services

import (
	"context"

	"reward-economy-system/models"

	"gorm.io/gorm"
)

// LeaderboardService serves the read-only rankings. Banned accounts never
// appear — the same rule as PvP target eligibility.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// LeaderboardEntry is one row of a ranking.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
	PvpWins     int64  `json:"pvp_wins"`
	Streak      int    `json:"streak"`
}

// Top returns the top accounts by balance or by pvp wins.
func (s *LeaderboardService) Top(ctx context.Context, by string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	order := "balance DESC"
	if by == "wins" {
		order = "pvp_wins DESC"
	}

	var accounts []models.Account
	if err := s.DB.WithContext(ctx).
		Where("banned = ?", false).
		Order(order).
		Limit(limit).
		Find(&accounts).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(accounts))
	for i, a := range accounts {
		entries[i] = LeaderboardEntry{
			Rank:        i + 1,
			Identity:    a.Identity,
			DisplayName: a.DisplayName,
			Balance:     a.Balance,
			PvpWins:     a.PvpWins,
			Streak:      a.Streak,
		}
	}
	return entries, nil
}
