package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"reward-economy-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const referralTokenPrefix = "ref_"

// AccountService resolves authenticated identities into economy accounts and
// handles the one-time referral bonus on first contact.
type AccountService struct {
	DB     *gorm.DB
	Ledger *LedgerService
	Config EconomyConfig
}

func NewAccountService(db *gorm.DB, ledger *LedgerService, cfg EconomyConfig) *AccountService {
	return &AccountService{DB: db, Ledger: ledger, Config: cfg}
}

// Authenticate is idempotent for known identities and creates the account on
// first contact, resolving the optional referral token per the referral
// rules: both sides credited in one transaction, or neither.
func (s *AccountService) Authenticate(ctx context.Context, identity, displayName, referralToken string) (*models.Account, error) {
	if identity == "" {
		return nil, ErrValidation
	}
	displayName = norm.NFC.String(strings.TrimSpace(displayName))

	var acct models.Account
	err := s.DB.WithContext(ctx).Where("identity = ?", identity).First(&acct).Error
	if err == nil {
		return &acct, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	referrer := parseReferralToken(referralToken)
	if referrer == identity {
		// Self-referral is rejected outright — no account, no side effects.
		return nil, ErrSelfReferral
	}
	if displayName == "" {
		displayName = identity
	}

	var created models.Account
	err = s.Ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var bonus int64
		var referredBy *string

		if referrer != "" {
			// Credit the referrer first; if they don't exist the new account
			// still gets created, just without the bonus.
			res := tx.Model(&models.Account{}).
				Where("identity = ? AND banned = ?", referrer, false).
				Updates(map[string]interface{}{
					"balance":        gorm.Expr("balance + ?", s.Config.ReferralReferrerBonus),
					"referral_count": gorm.Expr("referral_count + 1"),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				bonus = s.Config.ReferralWelcomeBonus
				referredBy = &referrer
				entry := models.LedgerEntry{
					ID:       uuid.NewString(),
					Identity: referrer,
					Delta:    s.Config.ReferralReferrerBonus,
					Reason:   models.ReasonReferralBonus,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
			} else {
				log.Printf("⚠️  [AUTH] referral token for unknown referrer %q ignored", referrer)
			}
		}

		created = models.Account{
			ID:          uuid.NewString(),
			Identity:    identity,
			DisplayName: displayName,
			Balance:     bonus,
			ReferredBy:  referredBy,
			Role:        models.RoleUser,
		}
		if err := tx.Create(&created).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent first contact: the other request created the
				// account; abort our bonus and fall through to re-read.
				return gorm.ErrDuplicatedKey
			}
			return err
		}

		if bonus > 0 {
			entry := models.LedgerEntry{
				ID:       uuid.NewString(),
				Identity: identity,
				Delta:    bonus,
				Reason:   models.ReasonWelcomeBonus,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		if err := s.DB.WithContext(ctx).Where("identity = ?", identity).First(&acct).Error; err != nil {
			return nil, err
		}
		return &acct, nil
	}
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [AUTH] created account %s (referrer=%v)", identity, created.ReferredBy)
	return &created, nil
}

// Get fetches an account by identity.
func (s *AccountService) Get(ctx context.Context, identity string) (*models.Account, error) {
	var acct models.Account
	if err := s.DB.WithContext(ctx).Where("identity = ?", identity).First(&acct).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acct, nil
}

// parseReferralToken extracts the referrer identity from a "ref_<identity>"
// token; empty when the token is absent or malformed.
func parseReferralToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || !strings.HasPrefix(token, referralTokenPrefix) {
		return ""
	}
	return strings.TrimPrefix(token, referralTokenPrefix)
}
