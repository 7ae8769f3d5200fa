// Package analytics derives performance metrics from the trade log and
// equity history: total return, win rate, max drawdown, and per-trade
// statistics.
package analytics

import (
	"fmt"
	"math"
	"strings"

	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/models"
)

const tradeScanLimit = 10000

// Performance computes metrics against the store's history.
type Performance struct {
	store           *ledger.Store
	startingBalance float64
}

// NewPerformance creates an analytics view over the store.
func NewPerformance(store *ledger.Store, startingBalance float64) *Performance {
	return &Performance{store: store, startingBalance: startingBalance}
}

// TotalReturn returns the absolute and percentage return of current equity
// over the starting balance.
func (p *Performance) TotalReturn() (absolute, percent float64, err error) {
	account, err := p.store.GetAccount()
	if err != nil {
		return 0, 0, err
	}
	if account == nil {
		return 0, 0, nil
	}
	absolute = account.TotalEquity - p.startingBalance
	percent = absolute / p.startingBalance * 100
	return absolute, percent, nil
}

// WinRate returns the share of profitable closed trades. Only sells carry
// realized PnL, so buys are ignored.
func (p *Performance) WinRate() (rate float64, wins, total int, err error) {
	trades, err := p.store.ListTrades("", tradeScanLimit)
	if err != nil {
		return 0, 0, 0, err
	}
	for _, trade := range trades {
		if trade.Side != models.TradeSideSell {
			continue
		}
		total++
		if trade.Pnl > 0 {
			wins++
		}
	}
	if total == 0 {
		return 0, 0, 0, nil
	}
	return float64(wins) / float64(total) * 100, wins, total, nil
}

// MaxDrawdown returns the largest peak-to-trough decline of the equity
// curve, as a percentage of the peak and in absolute terms.
func (p *Performance) MaxDrawdown() (percent, absolute float64, err error) {
	snapshots, err := p.store.ListEquitySnapshots()
	if err != nil {
		return 0, 0, err
	}
	if len(snapshots) < 2 {
		return 0, 0, nil
	}

	peak := snapshots[0].Equity
	for _, snapshot := range snapshots {
		if snapshot.Equity > peak {
			peak = snapshot.Equity
		}
		drawdown := peak - snapshot.Equity
		drawdownPct := 0.0
		if peak > 0 {
			drawdownPct = drawdown / peak * 100
		}
		if drawdownPct > percent {
			percent = drawdownPct
			absolute = drawdown
		}
	}
	return percent, absolute, nil
}

// Stats holds detailed trade statistics over the whole log.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	Buys          int     `json:"buys"`
	Sells         int     `json:"sells"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	GrossProfit   float64 `json:"gross_profit"`
	GrossLoss     float64 `json:"gross_loss"`
	NetProfit     float64 `json:"net_profit"`
	AvgProfit     float64 `json:"avg_profit"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`
	LargestWin    float64 `json:"largest_win"`
	LargestLoss   float64 `json:"largest_loss"`
	TotalFees     float64 `json:"total_fees"`
}

// TradeStatistics aggregates the trade log into Stats. ProfitFactor is
// +Inf when there are profits but no losses.
func (p *Performance) TradeStatistics() (Stats, error) {
	trades, err := p.store.ListTrades("", tradeScanLimit)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalTrades: len(trades)}
	for _, trade := range trades {
		stats.TotalFees += trade.Fee
		if trade.Side == models.TradeSideBuy {
			stats.Buys++
			continue
		}
		stats.Sells++
		switch {
		case trade.Pnl > 0:
			stats.WinningTrades++
			stats.GrossProfit += trade.Pnl
			if trade.Pnl > stats.LargestWin {
				stats.LargestWin = trade.Pnl
			}
		case trade.Pnl < 0:
			stats.LosingTrades++
			stats.GrossLoss += -trade.Pnl
			if trade.Pnl < stats.LargestLoss {
				stats.LargestLoss = trade.Pnl
			}
		}
	}

	stats.NetProfit = stats.GrossProfit - stats.GrossLoss
	if stats.WinningTrades > 0 {
		stats.AvgProfit = stats.GrossProfit / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = stats.GrossLoss / float64(stats.LosingTrades)
	}
	if stats.GrossLoss > 0 {
		stats.ProfitFactor = stats.GrossProfit / stats.GrossLoss
	} else if stats.GrossProfit > 0 {
		stats.ProfitFactor = math.Inf(1)
	}
	return stats, nil
}

// Report renders a plain-text performance report.
func (p *Performance) Report() (string, error) {
	absReturn, pctReturn, err := p.TotalReturn()
	if err != nil {
		return "", err
	}
	winRate, wins, _, err := p.WinRate()
	if err != nil {
		return "", err
	}
	ddPct, ddAbs, err := p.MaxDrawdown()
	if err != nil {
		return "", err
	}
	stats, err := p.TradeStatistics()
	if err != nil {
		return "", err
	}

	account, err := p.store.GetAccount()
	if err != nil {
		return "", err
	}
	currentEquity := p.startingBalance
	if account != nil {
		currentEquity = account.TotalEquity
	}

	var b strings.Builder
	rule := strings.Repeat("=", 60)
	sub := strings.Repeat("-", 40)

	fmt.Fprintf(&b, "%s\nPAPER TRADING PERFORMANCE REPORT\n%s\n\n", rule, rule)

	fmt.Fprintf(&b, "ACCOUNT SUMMARY\n%s\n", sub)
	fmt.Fprintf(&b, "Starting Balance:    $%12.2f\n", p.startingBalance)
	fmt.Fprintf(&b, "Current Equity:      $%12.2f\n", currentEquity)
	fmt.Fprintf(&b, "Total Return:        $%12.2f (%+.2f%%)\n\n", absReturn, pctReturn)

	fmt.Fprintf(&b, "RISK METRICS\n%s\n", sub)
	fmt.Fprintf(&b, "Max Drawdown:        %12.2f%% ($%.2f)\n\n", ddPct, ddAbs)

	fmt.Fprintf(&b, "TRADE STATISTICS\n%s\n", sub)
	fmt.Fprintf(&b, "Total Trades:        %12d\n", stats.TotalTrades)
	fmt.Fprintf(&b, "  - Buys:            %12d\n", stats.Buys)
	fmt.Fprintf(&b, "  - Sells:           %12d\n", stats.Sells)
	fmt.Fprintf(&b, "Win Rate:            %11.1f%%\n", winRate)
	fmt.Fprintf(&b, "Winning Trades:      %12d\n", wins)
	fmt.Fprintf(&b, "Losing Trades:       %12d\n\n", stats.LosingTrades)

	fmt.Fprintf(&b, "PROFIT & LOSS\n%s\n", sub)
	fmt.Fprintf(&b, "Gross Profit:        $%12.2f\n", stats.GrossProfit)
	fmt.Fprintf(&b, "Gross Loss:          $%12.2f\n", stats.GrossLoss)
	fmt.Fprintf(&b, "Net Profit:          $%12.2f\n", stats.NetProfit)
	fmt.Fprintf(&b, "Total Fees Paid:     $%12.2f\n", stats.TotalFees)

	if stats.Sells > 0 {
		fmt.Fprintf(&b, "\nTRADE ANALYSIS\n%s\n", sub)
		fmt.Fprintf(&b, "Avg Winning Trade:   $%12.2f\n", stats.AvgProfit)
		fmt.Fprintf(&b, "Avg Losing Trade:    $%12.2f\n", stats.AvgLoss)
		fmt.Fprintf(&b, "Largest Win:         $%12.2f\n", stats.LargestWin)
		fmt.Fprintf(&b, "Largest Loss:        $%12.2f\n", stats.LargestLoss)
		if math.IsInf(stats.ProfitFactor, 1) {
			fmt.Fprintf(&b, "Profit Factor:       %12s\n", "inf")
		} else {
			fmt.Fprintf(&b, "Profit Factor:       %12.2f\n", stats.ProfitFactor)
		}
	}

	fmt.Fprintf(&b, "\n%s\n", rule)
	return b.String(), nil
}
