package equity

import (
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

// PDTEquityFloor is the FINRA pattern-day-trader equity threshold; accounts
// at or above it are exempt from the day-trade-count guard.
const PDTEquityFloor = 25_000

// SellBlockedByPDT reports whether closing a position bought today would be
// refused under the PDT guard, and whether it should merely warn instead
// (spec.md 4.4). The guard only ever applies to a same-day round trip on a
// non-crypto position — crypto is exempt and a position entered on an
// earlier day is never a same-day round trip in the first place.
func SellBlockedByPDT(account ports.Account, entry *domain.PositionEntry, isCrypto bool, now time.Time) (blocked, warn bool) {
	if isCrypto || entry == nil || !sameDay(entry.EntryTime, now) {
		return false, false
	}
	if account.Equity >= PDTEquityFloor {
		return false, false
	}
	if account.DaytradeCount >= 3 {
		return true, false
	}
	if account.DaytradeCount == 2 {
		return false, true
	}
	return false, false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
