package crisis

import "github.com/darkhorse-quant/sentinel-agent/internal/domain"

// Level cutoffs for the summed indicator score. Indicators vary in how many
// thresholds they carry (VIX, HY spread and BTC weekly move have both a
// warning and a critical band; the rest are a single threshold), so the
// total attainable score is not round — it only needs to be monotonic
// against these three cutoffs.
const (
	levelElevatedScore  = 2.0
	levelHighAlertScore = 4.0
	levelFullScore      = 6.0
)

// Score tallies weighted points from every available indicator and returns
// the triggered-indicator names alongside the total, per spec.md 4.6.
func Score(ind domain.CrisisIndicators, cfg domain.Config) (float64, []string) {
	var score float64
	var triggered []string

	add := func(cond bool, points float64, name string) {
		if cond {
			score += points
			triggered = append(triggered, name)
		}
	}

	if ind.VIX != nil {
		add(*ind.VIX >= cfg.VIXCritical, 3, "vix_critical")
		add(*ind.VIX >= cfg.VIXWarning && *ind.VIX < cfg.VIXCritical, 1, "vix_warning")
	}
	if ind.HYSpread != nil {
		add(*ind.HYSpread >= cfg.HYSpreadCritical, 2, "hy_spread_critical")
		add(*ind.HYSpread >= cfg.HYSpreadWarning && *ind.HYSpread < cfg.HYSpreadCritical, 1, "hy_spread_warning")
	}
	if ind.YieldCurve2Y10Y != nil {
		add(*ind.YieldCurve2Y10Y < 0, 1, "yield_curve_inverted")
	}
	if ind.TED != nil {
		add(*ind.TED >= 0.5, 1, "ted_spread_elevated")
	}
	if ind.BTCWeeklyPct != nil {
		add(*ind.BTCWeeklyPct <= cfg.BTCWeeklyCriticalPct, 2, "btc_weekly_critical")
		add(*ind.BTCWeeklyPct <= cfg.BTCWeeklyWarningPct && *ind.BTCWeeklyPct > cfg.BTCWeeklyCriticalPct, 1, "btc_weekly_warning")
	}
	if ind.USDTPeg != nil {
		add(*ind.USDTPeg < 0.98 || *ind.USDTPeg > 1.02, 2, "usdt_depeg")
	}
	if ind.DXY != nil {
		add(*ind.DXY >= 108, 1, "dxy_elevated")
	}
	if ind.USDJPY != nil {
		add(*ind.USDJPY >= 160, 1, "usdjpy_elevated")
	}
	if ind.KREWeeklyPct != nil {
		add(*ind.KREWeeklyPct <= -10, 1, "kre_weekly_decline")
	}
	if ind.GoldSilverRatio != nil {
		add(*ind.GoldSilverRatio >= 90, 1, "gold_silver_ratio_elevated")
	}
	if ind.FedChangePct != nil {
		add(*ind.FedChangePct <= -1, 1, "fed_balance_sheet_contraction")
	}
	// StocksAbove200MA has no sourced implementation (spec.md 9); it never
	// contributes to the score and is never read here.

	return score, triggered
}

// LevelForScore maps a raw score to the 0-3 crisis level ladder.
func LevelForScore(score float64) domain.CrisisLevel {
	switch {
	case score >= levelFullScore:
		return domain.CrisisFull
	case score >= levelHighAlertScore:
		return domain.CrisisHighAlert
	case score >= levelElevatedScore:
		return domain.CrisisElevated
	default:
		return domain.CrisisNormal
	}
}
