package equity

import (
	"testing"
	"time"

	"github.com/darkhorse-quant/sentinel-agent/internal/domain"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
)

func TestSellBlockedByPDT_CryptoExempt(t *testing.T) {
	now := time.Now()
	entry := &domain.PositionEntry{EntryTime: now}
	account := ports.Account{Equity: 1000, DaytradeCount: 3}

	blocked, warn := SellBlockedByPDT(account, entry, true, now)
	if blocked || warn {
		t.Fatalf("expected crypto positions exempt from the PDT guard")
	}
}

func TestSellBlockedByPDT_NotSameDayExempt(t *testing.T) {
	now := time.Now()
	entry := &domain.PositionEntry{EntryTime: now.AddDate(0, 0, -1)}
	account := ports.Account{Equity: 1000, DaytradeCount: 3}

	blocked, warn := SellBlockedByPDT(account, entry, false, now)
	if blocked || warn {
		t.Fatalf("expected a prior-day entry to never trigger a same-day round trip guard")
	}
}

func TestSellBlockedByPDT_AboveEquityFloorExempt(t *testing.T) {
	now := time.Now()
	entry := &domain.PositionEntry{EntryTime: now}
	account := ports.Account{Equity: 30_000, DaytradeCount: 5}

	blocked, warn := SellBlockedByPDT(account, entry, false, now)
	if blocked || warn {
		t.Fatalf("expected accounts at or above the PDT equity floor to be exempt")
	}
}

func TestSellBlockedByPDT_BlocksAtThreeDaytrades(t *testing.T) {
	now := time.Now()
	entry := &domain.PositionEntry{EntryTime: now}
	account := ports.Account{Equity: 1000, DaytradeCount: 3}

	blocked, warn := SellBlockedByPDT(account, entry, false, now)
	if !blocked || warn {
		t.Fatalf("expected a block once daytrade count reaches 3, got blocked=%v warn=%v", blocked, warn)
	}
}

func TestSellBlockedByPDT_WarnsAtTwoDaytrades(t *testing.T) {
	now := time.Now()
	entry := &domain.PositionEntry{EntryTime: now}
	account := ports.Account{Equity: 1000, DaytradeCount: 2}

	blocked, warn := SellBlockedByPDT(account, entry, false, now)
	if blocked || !warn {
		t.Fatalf("expected a warning (not a block) at 2 daytrades, got blocked=%v warn=%v", blocked, warn)
	}
}

func TestSellBlockedByPDT_NoWarningBelowTwoDaytrades(t *testing.T) {
	now := time.Now()
	entry := &domain.PositionEntry{EntryTime: now}
	account := ports.Account{Equity: 1000, DaytradeCount: 1}

	blocked, warn := SellBlockedByPDT(account, entry, false, now)
	if blocked || warn {
		t.Fatalf("expected neither block nor warning below 2 daytrades, got blocked=%v warn=%v", blocked, warn)
	}
}
