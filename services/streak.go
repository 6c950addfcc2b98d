package services

import "time"

// Day boundaries use UTC midnight everywhere. A single fixed calendar
// reference keeps the streak transition deterministic no matter where the
// caller or the server happens to live.

// StreakTransition is the outcome of evaluating one check-in attempt against
// the calendar. Pure data — applying it is the CheckInService's job.
type StreakTransition struct {
	Streak       int   // the streak after this check-in
	Reward       int64 // coins credited for this check-in
	UsesShield   bool  // a streak shield must be consumed atomically
	WasReset     bool  // the gap broke the streak
	BonusSpins   int   // bonus spins granted for reaching the cap
	AlreadyDone  bool  // same calendar day; nothing to apply
	FirstCheckIn bool
}

// dayNumber collapses a timestamp to its UTC calendar day ordinal.
func dayNumber(t time.Time) int {
	t = t.UTC()
	return t.Year()*1000 + t.YearDay()
}

// daysBetween returns the whole calendar days from a to b (b after a).
func daysBetween(a, b time.Time) int {
	a, b = a.UTC(), b.UTC()
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au) / (24 * time.Hour))
}

// EvaluateCheckIn computes the streak transition for one check-in attempt.
// Pure function: no I/O, no clock reads — now is always supplied, so the
// status endpoint can run the exact same table in dry-run mode.
//
//	lastCheckIn == nil        → streak 1, no shield
//	same calendar day         → AlreadyDone
//	exactly previous day      → streak+1
//	gap > 1 day, has shield   → streak+1, shield consumed
//	gap > 1 day, no shield    → streak resets to 1
func EvaluateCheckIn(cfg EconomyConfig, lastCheckIn *time.Time, now time.Time, currentStreak int, hasShield bool) StreakTransition {
	var t StreakTransition

	switch {
	case lastCheckIn == nil:
		t.Streak = 1
		t.FirstCheckIn = true
	case dayNumber(*lastCheckIn) == dayNumber(now):
		t.AlreadyDone = true
		return t
	case daysBetween(*lastCheckIn, now) == 1:
		t.Streak = currentStreak + 1
	case hasShield:
		t.Streak = currentStreak + 1
		t.UsesShield = true
	default:
		t.Streak = 1
		t.WasReset = true
	}

	t.Reward = checkInReward(cfg, t.Streak)
	if t.Streak >= cfg.CheckInCap {
		t.BonusSpins = cfg.CheckInCapBonus
	}
	return t
}

// checkInReward: BASE + min(day, CAP) × INCREMENT.
func checkInReward(cfg EconomyConfig, day int) int64 {
	capped := day
	if capped > cfg.CheckInCap {
		capped = cfg.CheckInCap
	}
	return cfg.CheckInBase + int64(capped)*cfg.CheckInIncrement
}
