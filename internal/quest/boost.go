// Package quest computes the yield boost a hero contributes to garden
// emissions. Everything here is pure arithmetic on hero attributes; no
// chain access.
package quest

// Boost model constants. The per-quest boost scales linearly with the
// hero's INT + WIS + Level weighted by gardening skill; Rapid Renewal
// shortens stamina recharge, which multiplies quest frequency.
const (
	// boostFactor converts (INT+WIS+Level)*gardeningSkill into a yield
	// multiplier.
	boostFactor = 0.0002

	// baseStaminaRechargeSec is the unmodified recharge time per stamina
	// point (20 minutes).
	baseStaminaRechargeSec = 1200

	// rapidRenewalRechargeSec is the recharge time with the Rapid Renewal
	// passive active.
	rapidRenewalRechargeSec = 1080
)

// Hero holds the attributes relevant to gardening quests.
type Hero struct {
	Intelligence       int
	Wisdom             int
	Level              int
	GardeningSkill     float64
	StaminaRechargeSec int
}

// Plausible attribute bounds used for the [worst, best] range.
var (
	minHero = Hero{Intelligence: 5, Wisdom: 5, Level: 1, GardeningSkill: 0, StaminaRechargeSec: baseStaminaRechargeSec}
	maxHero = Hero{Intelligence: 100, Wisdom: 100, Level: 100, GardeningSkill: 10, StaminaRechargeSec: rapidRenewalRechargeSec}
)

// PerQuestBoost is the fractional yield boost a single quest earns.
func PerQuestBoost(h Hero) float64 {
	stats := float64(h.Intelligence + h.Wisdom + h.Level)
	return stats * h.GardeningSkill * boostFactor
}

// FrequencyMultiplier is how much more often the hero can quest relative to
// the base stamina recharge rate.
func FrequencyMultiplier(h Hero) float64 {
	if h.StaminaRechargeSec <= 0 {
		return 1
	}
	return float64(baseStaminaRechargeSec) / float64(h.StaminaRechargeSec)
}

// TotalBoost combines per-quest boost and quest frequency.
func TotalBoost(h Hero) float64 {
	return PerQuestBoost(h) * FrequencyMultiplier(h)
}

// BoostRange evaluates the boost at the minimum and maximum plausible hero
// bounds. The calculator reports a range, never a single point.
func BoostRange() (worst, best float64) {
	return TotalBoost(minHero), TotalBoost(maxHero)
}

// AprRange applies the boost range on top of an emission APR, yielding the
// additional quest APR a hero could contribute.
func AprRange(emissionAprPct float64) (worst, best float64) {
	w, b := BoostRange()
	return emissionAprPct * w, emissionAprPct * b
}
