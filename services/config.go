package services

import (
	"log"
	"os"
	"strconv"
)

// EconomyConfig holds the tunable reward knobs. Loaded once at startup from
// the environment; every value has a sane default so local runs need no .env.
type EconomyConfig struct {
	// Check-in schedule: reward(day) = CheckInBase + min(day, CheckInCap)*CheckInIncrement.
	CheckInBase      int64
	CheckInIncrement int64
	CheckInCap       int
	CheckInCapBonus  int // bonus spins granted each time the cap is met

	// Referral bonuses.
	ReferralWelcomeBonus  int64 // credited to the newly created account
	ReferralReferrerBonus int64 // credited to the referrer

	// Ad rewards.
	AdRewardAmount int64

	// PvP.
	MinTargetBalance int64 // eligibility floor for raid targets
	TargetPoolSize   int   // bounded candidate pool for random selection
	StealPercent     int   // share of the defender balance taken on a win
	MaxSteal         int64 // absolute cap per raid
	WinChancePercent int   // attacker win probability
	LossPenalty      int64 // coins the attacker forfeits on a loss
	FakeBalanceMin   int64 // concealment fake value range
	FakeBalanceMax   int64
}

// LoadEconomyConfig reads the economy tuning from the environment.
func LoadEconomyConfig() EconomyConfig {
	return EconomyConfig{
		CheckInBase:      envInt64("CHECKIN_BASE_REWARD", 50),
		CheckInIncrement: envInt64("CHECKIN_INCREMENT", 10),
		CheckInCap:       envInt("CHECKIN_CAP", 7),
		CheckInCapBonus:  envInt("CHECKIN_CAP_BONUS", 1),

		ReferralWelcomeBonus:  envInt64("REFERRAL_WELCOME_BONUS", 200),
		ReferralReferrerBonus: envInt64("REFERRAL_REFERRER_BONUS", 500),

		AdRewardAmount: envInt64("AD_REWARD_AMOUNT", 25),

		MinTargetBalance: envInt64("PVP_MIN_TARGET_BALANCE", 100),
		TargetPoolSize:   envInt("PVP_TARGET_POOL_SIZE", 50),
		StealPercent:     envInt("PVP_STEAL_PERCENT", 10),
		MaxSteal:         envInt64("PVP_MAX_STEAL", 1000),
		WinChancePercent: envInt("PVP_WIN_CHANCE_PERCENT", 50),
		LossPenalty:      envInt64("PVP_LOSS_PENALTY", 50),
		FakeBalanceMin:   envInt64("PVP_FAKE_BALANCE_MIN", 1),
		FakeBalanceMax:   envInt64("PVP_FAKE_BALANCE_MAX", 500),
	}
}

func envInt64(key string, def int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}

func envInt(key string, def int) int {
	return int(envInt64(key, int64(def)))
}
