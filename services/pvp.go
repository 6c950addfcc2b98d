package services

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sort"

	"reward-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PvpService handles raids: probing for a target (with the cloak/scanner
// deception game) and resolving a full attack as one atomic transfer.
type PvpService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Config EconomyConfig

	// Intn is swappable for tests; defaults to math/rand.
	Intn func(n int) int
}

func NewPvpService(db *gorm.DB, ledger *LedgerService, cfg EconomyConfig) *PvpService {
	return &PvpService{DB: db, Ledger: ledger, Config: cfg, Intn: rand.Intn}
}

// TargetView is what the attacker sees after a probe. When the target holds a
// cloak and no scanner was spent, Balance is a randomized decoy and
// BalanceRange is the decoy's coarse bucket — indistinguishable in shape from
// the honest answer.
type TargetView struct {
	Identity      string `json:"identity"`
	DisplayName   string `json:"display_name"`
	Balance       int64  `json:"balance"`
	BalanceRange  string `json:"balance_range"`
	DetectionUsed bool   `json:"detection_used"`
}

// FindTarget picks a uniform-random target from a bounded candidate pool.
// Bounded-pool selection approximates population-wide uniformity; good enough
// at our pool size without scanning every account.
// Eligibility: balance >= MinTargetBalance, not banned, not the attacker.
func (s *PvpService) FindTarget(ctx context.Context, attacker string, useDetection bool) (*TargetView, error) {
	db := s.DB.WithContext(ctx)

	var atk models.Account
	if err := db.Where("identity = ?", attacker).First(&atk).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if atk.Banned {
		return nil, ErrBanned
	}

	var pool []models.Account
	if err := db.
		Where("identity <> ? AND banned = ? AND balance >= ?", attacker, false, s.Config.MinTargetBalance).
		Order("random()").
		Limit(s.Config.TargetPoolSize).
		Find(&pool).Error; err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, ErrNoEligibleTarget
	}
	target := pool[s.Intn(len(pool))]

	cloaked, err := s.Ledger.ItemQuantity(db, target.Identity, models.ItemCloak)
	if err != nil {
		return nil, err
	}

	view := TargetView{
		Identity:    target.Identity,
		DisplayName: target.DisplayName,
	}

	if cloaked > 0 && useDetection {
		// Spending the scanner is a checked decrement inside its own
		// transaction — at zero quantity the probe fails before revealing.
		err := s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
			return s.Ledger.ConsumeItem(tx, attacker, models.ItemScanner)
		})
		if err != nil {
			return nil, err
		}
		view.DetectionUsed = true
		view.Balance = target.Balance
		view.BalanceRange = balanceRange(target.Balance)
		log.Printf("🔍 [PVP] %s scanned through %s's cloak", attacker, target.Identity)
		return &view, nil
	}

	if cloaked > 0 {
		fake := s.fakeBalance()
		view.Balance = fake
		view.BalanceRange = balanceRange(fake)
		return &view, nil
	}

	view.Balance = target.Balance
	view.BalanceRange = balanceRange(target.Balance)
	return &view, nil
}

// AttackResult is the resolved outcome of a raid.
type AttackResult struct {
	Win             bool  `json:"win"`
	Amount          int64 `json:"amount"`
	AttackerBalance int64 `json:"attacker_balance"`
}

// Attack resolves a full engagement against a previously probed target. The
// whole outcome — both balances, win/loss counters, the encounter row and the
// ledger entries — commits as one unit. Balance updates run in canonical
// identity order so two crossing raids cannot deadlock.
func (s *PvpService) Attack(ctx context.Context, attacker, defender string) (*AttackResult, error) {
	if attacker == defender {
		return nil, ErrValidation
	}

	var result AttackResult
	err := s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var atk, def models.Account
		if err := tx.Where("identity = ?", attacker).First(&atk).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if atk.Banned {
			return ErrBanned
		}
		if err := tx.Where("identity = ?", defender).First(&def).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if def.Banned || def.Balance < s.Config.MinTargetBalance {
			return ErrNoEligibleTarget
		}

		win := s.Intn(100) < s.Config.WinChancePercent

		var amount int64
		var loser, winner string
		if win {
			amount = def.Balance * int64(s.Config.StealPercent) / 100
			if amount > s.Config.MaxSteal {
				amount = s.Config.MaxSteal
			}
			if amount > def.Balance {
				amount = def.Balance
			}
			loser, winner = defender, attacker
		} else {
			amount = s.Config.LossPenalty
			if amount > atk.Balance {
				amount = atk.Balance
			}
			loser, winner = attacker, defender
		}

		if amount > 0 {
			// ApplyDelta's own guard keeps the loser non-negative; ordering
			// the two row updates canonically avoids lock cycles.
			ordered := []string{loser, winner}
			sort.Strings(ordered)
			for _, id := range ordered {
				var delta int64
				reason := models.ReasonPvpSteal
				if id == loser {
					delta, reason = -amount, models.ReasonPvpLoss
				} else {
					delta = amount
				}
				if _, err := s.Ledger.ApplyDelta(tx, id, delta, reason); err != nil {
					return err
				}
			}
		}

		counters := map[string]interface{}{"pvp_losses": gorm.Expr("pvp_losses + 1")}
		if win {
			counters = map[string]interface{}{
				"pvp_wins":         gorm.Expr("pvp_wins + 1"),
				"pvp_total_stolen": gorm.Expr("pvp_total_stolen + ?", amount),
			}
		}
		if err := tx.Model(&models.Account{}).Where("identity = ?", attacker).Updates(counters).Error; err != nil {
			return err
		}

		cloaked, err := s.Ledger.ItemQuantity(tx, defender, models.ItemCloak)
		if err != nil {
			return err
		}
		encounter := models.PvpEncounter{
			ID:               uuid.NewString(),
			AttackerIdentity: attacker,
			DefenderIdentity: defender,
			Win:              win,
			Amount:           amount,
			DefenderCloaked:  cloaked > 0,
		}
		if err := tx.Create(&encounter).Error; err != nil {
			return err
		}

		var after models.Account
		if err := tx.Select("balance").Where("identity = ?", attacker).First(&after).Error; err != nil {
			return err
		}
		result = AttackResult{Win: win, Amount: amount, AttackerBalance: after.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Win {
		log.Printf("⚔️  [PVP] %s raided %s for %d coins", attacker, defender, result.Amount)
	} else {
		log.Printf("🛡️  [PVP] %s failed a raid on %s, forfeited %d", attacker, defender, result.Amount)
	}
	return &result, nil
}

// fakeBalance rolls the decoy value shown for cloaked targets.
func (s *PvpService) fakeBalance() int64 {
	span := s.Config.FakeBalanceMax - s.Config.FakeBalanceMin
	if span <= 0 {
		return s.Config.FakeBalanceMin
	}
	return s.Config.FakeBalanceMin + int64(s.Intn(int(span+1)))
}

// balanceRange buckets a balance into the coarse range shown to attackers.
func balanceRange(balance int64) string {
	switch {
	case balance < 100:
		return "0-100"
	case balance < 500:
		return "100-500"
	case balance < 1000:
		return "500-1000"
	case balance < 5000:
		return "1000-5000"
	case balance < 10000:
		return "5000-10000"
	default:
		return "10000+"
	}
}
