package market

import (
	"paper-trade-bot-go/internal/ledger"
	"paper-trade-bot-go/internal/models"

	"go.uber.org/zap"
)

// Tracker fetches candles from the exchange and caches them through the
// store. The cached close series is both the strategy's input and the
// price oracle for the ledger: LatestPrice reads the newest cached close,
// so Tracker satisfies ledger.PriceSource.
type Tracker struct {
	store       *ledger.Store
	client      ClientInterface
	logger      *zap.Logger
	timeframe   string
	candleLimit int
}

// ensure Tracker can serve as the ledger's price oracle
var _ ledger.PriceSource = (*Tracker)(nil)

// NewTracker creates a tracker over the given client and store.
func NewTracker(store *ledger.Store, client ClientInterface, logger *zap.Logger, timeframe string, candleLimit int) *Tracker {
	return &Tracker{
		store:       store,
		client:      client,
		logger:      logger,
		timeframe:   timeframe,
		candleLimit: candleLimit,
	}
}

// FetchAndCache pulls the latest candles for a symbol and upserts them
// into the cache, returning how many were stored.
func (t *Tracker) FetchAndCache(symbol string) (int, error) {
	candles, err := t.client.GetKlines(symbol, t.timeframe, t.candleLimit)
	if err != nil {
		return 0, err
	}
	count, err := t.store.SaveCandles(candles)
	if err != nil {
		return 0, err
	}
	t.logger.Debug("Cached candles", zap.String("symbol", symbol), zap.Int("count", count))
	return count, nil
}

// LatestPrice returns the newest cached close for a symbol. The bool is
// false when no candle has ever been cached.
func (t *Tracker) LatestPrice(symbol string) (float64, bool, error) {
	return t.store.LatestClose(symbol)
}

// RecentCandles returns the cached close series for a symbol in
// chronological order.
func (t *Tracker) RecentCandles(symbol string) ([]models.Candle, error) {
	return t.store.RecentCandles(symbol, t.candleLimit)
}
