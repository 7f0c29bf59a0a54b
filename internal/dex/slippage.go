package dex

// SlippageModel is one of the three slippage curves from spec.md 4.3.
type SlippageModel string

const (
	SlippageNone         SlippageModel = "none"
	SlippageConservative SlippageModel = "conservative"
	SlippageRealistic    SlippageModel = "realistic"
)

type slippageParams struct {
	base       float64
	multiplier float64
}

var slippageTable = map[SlippageModel]slippageParams{
	SlippageNone:         {0, 0},
	SlippageConservative: {0.005, 2},
	SlippageRealistic:    {0.01, 5},
}

// maxSlippage is the hard cap from spec.md 4.3.
const maxSlippage = 0.15

// Slippage computes the execution-price adjustment in [0, 0.15] for a trade
// of positionUSD against liquidityUSD under the named model. It is
// non-decreasing in positionUSD for a fixed model and liquidity — the
// property spec.md 8 requires.
func Slippage(model SlippageModel, positionUSD, liquidityUSD float64) float64 {
	params, ok := slippageTable[model]
	if !ok {
		params = slippageTable[SlippageRealistic]
	}
	liq := liquidityUSD
	if liq < 1 {
		liq = 1
	}
	s := params.base + (positionUSD/liq)*params.multiplier
	if s > maxSlippage {
		return maxSlippage
	}
	if s < 0 {
		return 0
	}
	return s
}

// ApplyBuySlippage inflates the execution price on entry.
func ApplyBuySlippage(price float64, model SlippageModel, positionUSD, liquidityUSD float64) float64 {
	return price * (1 + Slippage(model, positionUSD, liquidityUSD))
}

// ApplySellSlippage deflates the execution price on exit.
func ApplySellSlippage(price float64, model SlippageModel, positionUSD, liquidityUSD float64) float64 {
	return price * (1 - Slippage(model, positionUSD, liquidityUSD))
}

// ParseSlippageModel maps a config string to the typed model, defaulting to
// realistic for anything unrecognized rather than silently trading with no
// slippage at all.
func ParseSlippageModel(s string) SlippageModel {
	switch SlippageModel(s) {
	case SlippageNone, SlippageConservative, SlippageRealistic:
		return SlippageModel(s)
	default:
		return SlippageRealistic
	}
}
