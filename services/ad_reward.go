package services

import (
	"context"
	"errors"
	"log"

	"reward-economy-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdRewardService is the idempotency guard in front of ad-network reward
// callbacks. Networks deliver at-least-once; the receipt table's unique
// record id turns that into exactly-once crediting.
type AdRewardService struct {
	Ledger *LedgerService
	Config EconomyConfig
}

func NewAdRewardService(ledger *LedgerService, cfg EconomyConfig) *AdRewardService {
	return &AdRewardService{Ledger: ledger, Config: cfg}
}

// AdGrant reports the outcome of one callback.
type AdGrant struct {
	Granted    bool  `json:"granted"`
	Amount     int64 `json:"amount,omitempty"`
	NewBalance int64 `json:"new_balance,omitempty"`
}

// Claim credits one ad reward. Receipt insert and credit share a transaction:
// under a race on the same recordID exactly one insert commits, every other
// caller observes the duplicate and gets granted=false with no mutation.
//
// An empty recordID forfeits dedup protection — the credit goes through
// unguarded. Best effort only; callers that can supply an id should.
func (s *AdRewardService) Claim(ctx context.Context, identity, recordID, source string) (*AdGrant, error) {
	amount := s.Config.AdRewardAmount

	var grant AdGrant
	err := s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		if recordID != "" {
			receipt := models.AdRewardReceipt{
				ID:       uuid.NewString(),
				RecordID: recordID,
				Identity: identity,
				Amount:   amount,
				Source:   source,
			}
			if err := tx.Create(&receipt).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateReceipt
				}
				return err
			}
		} else {
			log.Printf("⚠️  [AD_REWARD] no record id from %s for %s — crediting without dedup", source, identity)
		}

		balance, err := s.Ledger.ApplyDelta(tx, identity, amount, models.ReasonAdReward)
		if err != nil {
			return err
		}
		grant = AdGrant{Granted: true, Amount: amount, NewBalance: balance}
		return nil
	})
	if errors.Is(err, ErrDuplicateReceipt) {
		log.Printf("↩️  [AD_REWARD] replayed record %s for %s — already credited", recordID, identity)
		return &AdGrant{Granted: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}
