package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	content := []byte(`
trading:
  symbol: "ETH/USD"
  fee_rate: 0.002

strategy:
  rsi_oversold: 25.0
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), content, 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	// Values from the file override the defaults.
	assert.Equal(t, "ETH/USD", cfg.Trading.Symbol)
	assert.Equal(t, 0.002, cfg.Trading.FeeRate)
	assert.Equal(t, 25.0, cfg.Strategy.RsiOversold)

	// Everything not named in the file keeps its default.
	assert.Equal(t, 10_000.0, cfg.Trading.StartingBalance)
	assert.Equal(t, 500.0, cfg.Trading.TradeAmount)
	assert.Equal(t, 14, cfg.Strategy.RsiPeriod)
	assert.Equal(t, 70.0, cfg.Strategy.RsiOverbought)
	assert.Equal(t, "1m", cfg.Exchange.Timeframe)
	assert.Equal(t, 100, cfg.Exchange.CandleLimit)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	viper.Reset()
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}
