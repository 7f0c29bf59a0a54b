package equity

import (
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
)

// EvaluateStaleness scores how stale a held position's thesis has become, on
// a 0-100 scale, per spec.md 4.5. Nothing is scored before
// StaleMinHoldHours; past that, three independent components accumulate:
// time held, adverse/insufficient price action, and social-volume decay off
// the position's entry volume.
func EvaluateStaleness(cfg domain.Config, pos *domain.PositionEntry, currentPrice float64, history []domain.SocialHistoryPoint, now time.Time) domain.StalenessResult {
	holdHours := pos.HoldHours(now)
	plPct := pos.PLPct(currentPrice)
	res := domain.StalenessResult{Symbol: pos.Symbol, Timestamp: now}

	if holdHours < cfg.StaleMinHoldHours {
		return res
	}

	var score float64
	var reasons []string

	holdDays := holdHours / 24
	if t := staleTimeScore(holdDays, cfg.StaleMidHoldDays, cfg.StaleMaxHoldDays); t > 0 {
		score += t
		if holdDays >= cfg.StaleMaxHoldDays {
			reasons = append(reasons, "max_hold_exceeded")
		} else {
			reasons = append(reasons, "mid_hold_exceeded")
		}
	}

	if plPct < 0 {
		add := plPct * -3
		if add > 30 {
			add = 30
		}
		score += add
		reasons = append(reasons, "negative_pl")
	}
	if holdDays >= cfg.StaleMidHoldDays && plPct < cfg.StaleMidMinGainPct {
		score += 15
		reasons = append(reasons, "below_mid_gain_floor")
	}

	if decay, ok := socialVolumeDecay(pos.EntrySocialVolume, history); ok {
		switch {
		case decay <= cfg.StaleSocialVolumeDecay:
			score += 30
			reasons = append(reasons, "social_volume_decayed")
		case decay <= 0.5:
			score += 15
			reasons = append(reasons, "social_volume_fading")
		}
	}

	res.Score = score
	res.Reasons = reasons
	res.IsStale = score >= 70 || (holdDays >= cfg.StaleMaxHoldDays && plPct < cfg.StaleMinGainPct)
	return res
}

// staleTimeScore is 0 at or before midHoldDays, 40 at or past maxHoldDays,
// and linearly interpolated in between.
func staleTimeScore(holdDays, midHoldDays, maxHoldDays float64) float64 {
	if holdDays >= maxHoldDays {
		return 40
	}
	if holdDays <= midHoldDays || maxHoldDays <= midHoldDays {
		return 0
	}
	return 40 * (holdDays - midHoldDays) / (maxHoldDays - midHoldDays)
}

// socialVolumeDecay is the ratio of the latest sampled volume to the
// position's entry social volume, the denominator spec.md 4.5 names — not
// the peak of the in-memory history, which would mask a token that simply
// never got louder than its entry point. ok is false when there is nothing
// to compare against.
func socialVolumeDecay(entryVolume float64, history []domain.SocialHistoryPoint) (float64, bool) {
	if entryVolume <= 0 || len(history) == 0 {
		return 0, false
	}
	latest := history[len(history)-1].Volume
	return latest / entryVolume, true
}
