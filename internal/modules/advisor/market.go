package advisor

import (
	talib "github.com/markcheno/go-talib"

	"github.com/SHLOK333/xion-trade-miniapp/pkg/formulas"
)

const (
	rsiPeriod     = 14
	smaFastPeriod = 20
	smaSlowPeriod = 50
)

// BuildMarketContext derives technical signals from a daily closing
// price series. Returns nil when the series is too short to compute
// anything meaningful.
func BuildMarketContext(closes []float64) *MarketContext {
	if len(closes) <= rsiPeriod {
		return nil
	}

	rsi := talib.Rsi(closes, rsiPeriod)
	currentRSI := rsi[len(rsi)-1]

	trend := "sideways"
	if len(closes) >= smaSlowPeriod {
		fast := talib.Sma(closes, smaFastPeriod)
		slow := talib.Sma(closes, smaSlowPeriod)
		f, s := fast[len(fast)-1], slow[len(slow)-1]
		switch {
		case f > s*1.01:
			trend = "bullish"
		case f < s*0.99:
			trend = "bearish"
		}
	}

	return &MarketContext{
		Trend:      trend,
		RSI:        currentRSI,
		Volatility: formulas.AnnualizedVolatility(formulas.Returns(closes)),
	}
}
