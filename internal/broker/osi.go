package broker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// errContractNotFound reports a snapshot request for a contract Alpaca
// didn't return data for.
func errContractNotFound(symbol string) error {
	return fmt.Errorf("no option snapshot for %s", symbol)
}

// parseOSIContractSymbol decodes an OSI-format option symbol, e.g.
// "AAPL241220C00190000" -> underlying AAPL, expiration 2024-12-20, strike
// 190.00, call. The format is fixed-width from the right: 8 digits of
// strike (in mills), 1 char put/call, 6 digits YYMMDD, underlying is
// whatever remains.
func parseOSIContractSymbol(symbol string) (underlying string, expiration time.Time, strike float64, isCall bool) {
	if len(symbol) < 15 {
		return symbol, time.Time{}, 0, true
	}
	strikeDigits := symbol[len(symbol)-8:]
	cpChar := symbol[len(symbol)-9 : len(symbol)-8]
	dateDigits := symbol[len(symbol)-15 : len(symbol)-9]
	underlying = strings.TrimSpace(symbol[:len(symbol)-15])

	if millis, err := strconv.Atoi(strikeDigits); err == nil {
		strike = float64(millis) / 1000
	}
	isCall = cpChar != "P"
	if t, err := time.Parse("060102", dateDigits); err == nil {
		expiration = t
	}
	return underlying, expiration, strike, isCall
}
