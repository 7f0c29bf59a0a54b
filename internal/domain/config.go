package domain

import (
	"math"
	"reflect"
)

// Config holds every tunable of the agent. Every field has a sane default
// (set by Default()) so a blank config file is valid, per spec.md 6.
type Config struct {
	// --- global ---
	Enabled               bool  `yaml:"enabled" json:"enabled"`
	StocksEnabled         bool  `yaml:"stocks_enabled" json:"stocks_enabled"`
	CryptoEnabled         bool  `yaml:"crypto_enabled" json:"crypto_enabled"`
	DexEnabled            bool  `yaml:"dex_enabled" json:"dex_enabled"`
	OptionsEnabled        bool  `yaml:"options_enabled" json:"options_enabled"`
	TwitterEnabled        bool  `yaml:"twitter_enabled" json:"twitter_enabled"`
	CrisisModeEnabled     bool  `yaml:"crisis_mode_enabled" json:"crisis_mode_enabled"`
	DataPollIntervalMs    int64 `yaml:"data_poll_interval_ms" json:"data_poll_interval_ms"`
	AnalystIntervalMs     int64 `yaml:"analyst_interval_ms" json:"analyst_interval_ms"`
	CrisisCheckIntervalMs int64 `yaml:"crisis_check_interval_ms" json:"crisis_check_interval_ms"`

	// --- signal scoring ---
	DecayHalfLifeMinutes float64  `yaml:"decay_half_life_minutes" json:"decay_half_life_minutes"`
	MinSentimentScore    float64  `yaml:"min_sentiment_score" json:"min_sentiment_score"`
	TickerBlacklist      []string `yaml:"ticker_blacklist" json:"ticker_blacklist"`

	// --- equity/crypto trading ---
	TakeProfitPct            float64  `yaml:"take_profit_pct" json:"take_profit_pct"`
	StopLossPct              float64  `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	PositionSizePctOfCash    float64  `yaml:"position_size_pct_of_cash" json:"position_size_pct_of_cash"`
	MaxPositionValue         float64  `yaml:"max_position_value" json:"max_position_value"`
	MinAnalystConfidence     float64  `yaml:"min_analyst_confidence" json:"min_analyst_confidence"`
	LLMMinHoldMinutes        float64  `yaml:"llm_min_hold_minutes" json:"llm_min_hold_minutes"`
	AllowedExchanges         []string `yaml:"allowed_exchanges" json:"allowed_exchanges"`
	TwitterConfidenceBoost   float64  `yaml:"twitter_confidence_boost" json:"twitter_confidence_boost"`
	TwitterConfidencePenalty float64  `yaml:"twitter_confidence_penalty" json:"twitter_confidence_penalty"`
	TwitterDailyReadBudget   int      `yaml:"twitter_daily_read_budget" json:"twitter_daily_read_budget"`

	// --- staleness (spec.md 4.5) ---
	StaleMinHoldHours      float64 `yaml:"stale_min_hold_hours" json:"stale_min_hold_hours"`
	StaleMidHoldDays       float64 `yaml:"stale_mid_hold_days" json:"stale_mid_hold_days"`
	StaleMaxHoldDays       float64 `yaml:"stale_max_hold_days" json:"stale_max_hold_days"`
	StaleMidMinGainPct     float64 `yaml:"stale_mid_min_gain_pct" json:"stale_mid_min_gain_pct"`
	StaleMinGainPct        float64 `yaml:"stale_min_gain_pct" json:"stale_min_gain_pct"`
	StaleSocialVolumeDecay float64 `yaml:"stale_social_volume_decay" json:"stale_social_volume_decay"`

	// --- options sub-flow (spec.md 4.7) ---
	OptionsMinConfidence  float64 `yaml:"options_min_confidence" json:"options_min_confidence"`
	OptionsMinDTE         int     `yaml:"options_min_dte" json:"options_min_dte"`
	OptionsMaxDTE         int     `yaml:"options_max_dte" json:"options_max_dte"`
	OptionsMinDelta       float64 `yaml:"options_min_delta" json:"options_min_delta"`
	OptionsMaxDelta       float64 `yaml:"options_max_delta" json:"options_max_delta"`
	OptionsMaxPctPerTrade float64 `yaml:"options_max_pct_per_trade" json:"options_max_pct_per_trade"`
	OptionsStopLossPct    float64 `yaml:"options_stop_loss_pct" json:"options_stop_loss_pct"`
	OptionsTakeProfitPct  float64 `yaml:"options_take_profit_pct" json:"options_take_profit_pct"`

	// --- DEX momentum engine (spec.md 4.3) ---
	DexStartingBalanceSOL        float64 `yaml:"dex_starting_balance_sol" json:"dex_starting_balance_sol"`
	DexScanIntervalSeconds       int64   `yaml:"dex_scan_interval_seconds" json:"dex_scan_interval_seconds"`
	MicrosprayPositionSOL        float64 `yaml:"microspray_position_sol" json:"microspray_position_sol"`
	BreakoutPositionSOL          float64 `yaml:"breakout_position_sol" json:"breakout_position_sol"`
	LotteryPositionSOL           float64 `yaml:"lottery_position_sol" json:"lottery_position_sol"`
	PctOfBalance                 float64 `yaml:"pct_of_balance" json:"pct_of_balance"`
	EarlyMultiplier              float64 `yaml:"early_multiplier" json:"early_multiplier"`
	MaxPositionSOL               float64 `yaml:"max_position_sol" json:"max_position_sol"`
	MaxPositionsEarlyEstablished int     `yaml:"max_positions_early_established" json:"max_positions_early_established"`
	MinMomentumScore             float64 `yaml:"min_momentum_score" json:"min_momentum_score"`
	ReentryRecoveryPct           float64 `yaml:"reentry_recovery_pct" json:"reentry_recovery_pct"`
	ReentryMinMomentum           float64 `yaml:"reentry_min_momentum" json:"reentry_min_momentum"`
	StopLossCooldownHours        float64 `yaml:"stop_loss_cooldown_hours" json:"stop_loss_cooldown_hours"`
	DexChartAnalysisEnabled      bool    `yaml:"dex_chart_analysis_enabled" json:"dex_chart_analysis_enabled"`
	DexChartMinEntryScore        float64 `yaml:"dex_chart_min_entry_score" json:"dex_chart_min_entry_score"`
	MaxSinglePositionPct         float64 `yaml:"max_single_position_pct" json:"max_single_position_pct"`
	MinViableSOL                 float64 `yaml:"min_viable_sol" json:"min_viable_sol"`
	SlippageModel                string  `yaml:"slippage_model" json:"slippage_model"`
	GasFeeSOL                    float64 `yaml:"gas_fee_sol" json:"gas_fee_sol"`
	DexTakeProfitPct             float64 `yaml:"dex_take_profit_pct" json:"dex_take_profit_pct"`
	TrailingStopEnabled          bool    `yaml:"trailing_stop_enabled" json:"trailing_stop_enabled"`
	TrailingStopActivationPct    float64 `yaml:"trailing_stop_activation_pct" json:"trailing_stop_activation_pct"`
	TrailingStopDistancePct      float64 `yaml:"trailing_stop_distance_pct" json:"trailing_stop_distance_pct"`
	LotteryTrailingActivation    float64 `yaml:"lottery_trailing_activation" json:"lottery_trailing_activation"`
	LotteryTrailingDistance      float64 `yaml:"lottery_trailing_distance" json:"lottery_trailing_distance"`
	DexStopLossPct               float64 `yaml:"dex_stop_loss_pct" json:"dex_stop_loss_pct"`
	MissedScansBeforeExit        int     `yaml:"missed_scans_before_exit" json:"missed_scans_before_exit"`
	CircuitBreakerLosses         int     `yaml:"circuit_breaker_losses" json:"circuit_breaker_losses"`
	CircuitBreakerWindowHours    float64 `yaml:"circuit_breaker_window_hours" json:"circuit_breaker_window_hours"`
	CircuitBreakerPauseHours     float64 `yaml:"circuit_breaker_pause_hours" json:"circuit_breaker_pause_hours"`
	BreakerMinCooldownMinutes    float64 `yaml:"breaker_min_cooldown_minutes" json:"breaker_min_cooldown_minutes"`
	MaxDrawdownPct               float64 `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	SolUSDFallback               float64 `yaml:"sol_usd_fallback" json:"sol_usd_fallback"`

	// --- crisis monitor (spec.md 4.6) ---
	VIXWarning                  float64 `yaml:"vix_warning" json:"vix_warning"`
	VIXCritical                 float64 `yaml:"vix_critical" json:"vix_critical"`
	HYSpreadWarning             float64 `yaml:"hy_spread_warning" json:"hy_spread_warning"`
	HYSpreadCritical            float64 `yaml:"hy_spread_critical" json:"hy_spread_critical"`
	BTCWeeklyWarningPct         float64 `yaml:"btc_weekly_warning_pct" json:"btc_weekly_warning_pct"`
	BTCWeeklyCriticalPct        float64 `yaml:"btc_weekly_critical_pct" json:"btc_weekly_critical_pct"`
	CrisisLevel1StopLossPct     float64 `yaml:"crisis_level1_stop_loss_pct" json:"crisis_level1_stop_loss_pct"`
	CrisisLevel2MinProfitToHold float64 `yaml:"crisis_level2_min_profit_to_hold" json:"crisis_level2_min_profit_to_hold"`

	// --- broker / LLM ---
	AnalystModel  string `yaml:"analyst_model" json:"analyst_model"`
	ResearchModel string `yaml:"research_model" json:"research_model"`

	// --- admin / notifications ---
	APIToken          string `yaml:"api_token" json:"-"`
	KillSwitchSecret  string `yaml:"kill_switch_secret" json:"-"`
	DiscordWebhookURL string `yaml:"discord_webhook_url" json:"-"`
	TelegramBotToken  string `yaml:"telegram_bot_token" json:"-"`
	TelegramChatID    string `yaml:"telegram_chat_id" json:"-"`

	// --- ambient ---
	LogLevel string `yaml:"log_level" json:"log_level"`
	LogFile  string `yaml:"log_file" json:"log_file"`
	DataDir  string `yaml:"data_dir" json:"data_dir"`
	DryRun   bool   `yaml:"dry_run" json:"dry_run"`
}

// Default returns the configuration with every tunable at the value named
// or implied by spec.md.
func Default() Config {
	return Config{
		Enabled:               true,
		StocksEnabled:         true,
		CryptoEnabled:         true,
		DexEnabled:            true,
		OptionsEnabled:        false,
		TwitterEnabled:        false,
		CrisisModeEnabled:     true,
		DataPollIntervalMs:    5 * 60 * 1000,
		AnalystIntervalMs:     10 * 60 * 1000,
		CrisisCheckIntervalMs: 15 * 60 * 1000,

		DecayHalfLifeMinutes: 120,
		MinSentimentScore:    0.3,
		TickerBlacklist:      []string{},

		TakeProfitPct:            20,
		StopLossPct:              10,
		PositionSizePctOfCash:    10,
		MaxPositionValue:         2000,
		MinAnalystConfidence:     0.65,
		LLMMinHoldMinutes:        30,
		AllowedExchanges:         []string{"NASDAQ", "NYSE", "ARCA", "BATS"},
		TwitterConfidenceBoost:   1.15,
		TwitterConfidencePenalty: 0.85,
		TwitterDailyReadBudget:   200,

		StaleMinHoldHours:      24,
		StaleMidHoldDays:       3,
		StaleMaxHoldDays:       10,
		StaleMidMinGainPct:     5,
		StaleMinGainPct:        0,
		StaleSocialVolumeDecay: 0.2,

		OptionsMinConfidence:  0.8,
		OptionsMinDTE:         7,
		OptionsMaxDTE:         45,
		OptionsMinDelta:       0.3,
		OptionsMaxDelta:       0.6,
		OptionsMaxPctPerTrade: 5,
		OptionsStopLossPct:    50,
		OptionsTakeProfitPct:  100,

		DexStartingBalanceSOL:        10,
		DexScanIntervalSeconds:       30,
		MicrosprayPositionSOL:        0.005,
		BreakoutPositionSOL:          0.015,
		LotteryPositionSOL:           0.02,
		PctOfBalance:                 0.05,
		EarlyMultiplier:              0.5,
		MaxPositionSOL:               0.3,
		MaxPositionsEarlyEstablished: 8,
		MinMomentumScore:             60,
		ReentryRecoveryPct:           15,
		ReentryMinMomentum:           70,
		StopLossCooldownHours:        6,
		DexChartAnalysisEnabled:      true,
		DexChartMinEntryScore:        40,
		MaxSinglePositionPct:         40,
		MinViableSOL:                 0.01,
		SlippageModel:                "realistic",
		GasFeeSOL:                    0.00005,
		DexTakeProfitPct:             100,
		TrailingStopEnabled:          true,
		TrailingStopActivationPct:    50,
		TrailingStopDistancePct:      25,
		LotteryTrailingActivation:    100,
		LotteryTrailingDistance:      20,
		DexStopLossPct:               30,
		MissedScansBeforeExit:        10,
		CircuitBreakerLosses:         3,
		CircuitBreakerWindowHours:    24,
		CircuitBreakerPauseHours:     1,
		BreakerMinCooldownMinutes:    30,
		MaxDrawdownPct:               35,
		SolUSDFallback:               200,

		VIXWarning:                  25,
		VIXCritical:                 40,
		HYSpreadWarning:             400,
		HYSpreadCritical:            600,
		BTCWeeklyWarningPct:         -10,
		BTCWeeklyCriticalPct:        -20,
		CrisisLevel1StopLossPct:     5,
		CrisisLevel2MinProfitToHold: 2,

		AnalystModel:  "gpt-4o",
		ResearchModel: "gpt-4o-mini",

		LogLevel: "info",
		LogFile:  "logs/agent.log",
		DataDir:  "data",
		DryRun:   true,
	}
}

// Merge overlays non-zero fields of patch onto the receiver, matching the
// POST /config partial-merge semantics of spec.md 6. A field's Go zero
// value is treated as "not provided" — the same convention the teacher's
// getXFromSources helpers use to let a blank value mean "inherit".
func (c Config) Merge(patch Config) Config {
	out := c
	ov := reflect.ValueOf(&out).Elem()
	pv := reflect.ValueOf(patch)
	for i := 0; i < ov.NumField(); i++ {
		f := pv.Field(i)
		if !f.IsZero() {
			ov.Field(i).Set(f)
		}
	}
	return out
}

// sanitizeNaN zeroes any float64 field holding NaN so it reads as "missing"
// rather than poisoning every downstream comparison with it.
func sanitizeNaN(c *Config) {
	v := reflect.ValueOf(c).Elem()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() == reflect.Float64 && math.IsNaN(f.Float()) {
			f.SetFloat(0)
		}
	}
}

// Migrate substitutes DEFAULT for any field missing/null/NaN in a loaded
// config, per spec.md 6's persistence migration rule. Loaded values that are
// present win; anything left at the zero value falls back to Default().
func Migrate(loaded Config) Config {
	sanitizeNaN(&loaded)
	return Default().Merge(loaded)
}
