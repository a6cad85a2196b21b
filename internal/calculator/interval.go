package calculator

import (
	"math"
	"time"
)

// MillisPerDay is the length of a UTC day index bucket.
const MillisPerDay = 86_400_000

// ElapsedSeconds returns the non-negative number of seconds between last and now.
func ElapsedSeconds(now, last time.Time) float64 {
	if last.IsZero() {
		return 0
	}
	s := now.Sub(last).Seconds()
	if s < 0 {
		return 0
	}
	return s
}

// PassiveIncomeAccrued converts an hourly rate into the income earned over elapsed seconds.
func PassiveIncomeAccrued(ratePerHour, elapsedSeconds float64) float64 {
	return ratePerHour / 3600 * elapsedSeconds
}

// EnergyRegenerated returns the energy refilled over elapsed seconds when a full
// tank of maxEnergy takes refill to regenerate.
func EnergyRegenerated(maxEnergy float64, refill time.Duration, elapsedSeconds float64) float64 {
	secs := refill.Seconds()
	if secs <= 0 {
		return maxEnergy
	}
	return maxEnergy / secs * elapsedSeconds
}

// RegenerateEnergy adds regenerated energy to current and clamps to [0, maxEnergy].
func RegenerateEnergy(current, maxEnergy float64, refill time.Duration, elapsedSeconds float64) float64 {
	return ClampEnergy(current+EnergyRegenerated(maxEnergy, refill, elapsedSeconds), maxEnergy)
}

// ClampEnergy bounds v to [0, maxEnergy].
func ClampEnergy(v, maxEnergy float64) float64 {
	return math.Max(0, math.Min(maxEnergy, v))
}

// RemainingCooldown returns how long until an action last performed at lastEventAt
// becomes available again. Zero means available; a zero lastEventAt is always available.
func RemainingCooldown(lastEventAt time.Time, cooldown time.Duration, now time.Time) time.Duration {
	if lastEventAt.IsZero() {
		return 0
	}
	remaining := lastEventAt.Add(cooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// UTCDayIndex returns floor(unixMillis / 86_400_000).
func UTCDayIndex(t time.Time) int64 {
	ms := t.UnixMilli()
	idx := ms / MillisPerDay
	if ms%MillisPerDay < 0 {
		idx--
	}
	return idx
}

// DifferentUTCDay reports whether a and b fall on different UTC days.
func DifferentUTCDay(a, b time.Time) bool {
	return UTCDayIndex(a) != UTCDayIndex(b)
}

// OfflineIncome returns the passive income for the gap between lastUpdate and now,
// or zero when the gap is shorter than minOffline.
func OfflineIncome(ratePerHour float64, lastUpdate, now time.Time, minOffline time.Duration) float64 {
	if ratePerHour <= 0 {
		return 0
	}
	elapsed := ElapsedSeconds(now, lastUpdate)
	if elapsed < minOffline.Seconds() {
		return 0
	}
	return PassiveIncomeAccrued(ratePerHour, elapsed)
}
