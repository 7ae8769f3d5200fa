package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Exchange Exchange `mapstructure:"exchange"`
	Trading  Trading  `mapstructure:"trading"`
	Strategy Strategy `mapstructure:"strategy"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Exchange holds the configuration for the public market-data API.
type Exchange struct {
	BaseURL        string  `mapstructure:"base_url"`
	Timeframe      string  `mapstructure:"timeframe"`
	CandleLimit    int     `mapstructure:"candle_limit"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the paper trading account.
type Trading struct {
	Symbol          string  `mapstructure:"symbol"`
	StartingBalance float64 `mapstructure:"starting_balance"`
	FeeRate         float64 `mapstructure:"fee_rate"`
	TradeAmount     float64 `mapstructure:"trade_amount"`
	TickInterval    int     `mapstructure:"tick_interval"`
}

// Strategy holds the tunables for the signal engine and indicators.
type Strategy struct {
	RsiPeriod     int     `mapstructure:"rsi_period"`
	RsiOversold   float64 `mapstructure:"rsi_oversold"`
	RsiOverbought float64 `mapstructure:"rsi_overbought"`
	EmaFastPeriod int     `mapstructure:"ema_fast_period"`
	EmaSlowPeriod int     `mapstructure:"ema_slow_period"`
	MacdFast      int     `mapstructure:"macd_fast"`
	MacdSlow      int     `mapstructure:"macd_slow"`
	MacdSignal    int     `mapstructure:"macd_signal"`
	BbPeriod      int     `mapstructure:"bb_period"`
	BbStdDev      float64 `mapstructure:"bb_std_dev"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// setDefaults registers a default for every tunable so the config file only
// needs to name what it changes.
func setDefaults() {
	viper.SetDefault("exchange.base_url", "https://api.binance.com/api/v3")
	viper.SetDefault("exchange.timeframe", "1m")
	viper.SetDefault("exchange.candle_limit", 100)
	viper.SetDefault("exchange.rate_limit", 1) // requests per second
	viper.SetDefault("exchange.rate_limit_burst", 2)

	viper.SetDefault("trading.symbol", "BTC/USD")
	viper.SetDefault("trading.starting_balance", 10_000.0)
	viper.SetDefault("trading.fee_rate", 0.001) // 0.1% per trade
	viper.SetDefault("trading.trade_amount", 500.0)
	viper.SetDefault("trading.tick_interval", 5) // seconds

	viper.SetDefault("strategy.rsi_period", 14)
	viper.SetDefault("strategy.rsi_oversold", 30.0)
	viper.SetDefault("strategy.rsi_overbought", 70.0)
	viper.SetDefault("strategy.ema_fast_period", 12)
	viper.SetDefault("strategy.ema_slow_period", 26)
	viper.SetDefault("strategy.macd_fast", 12)
	viper.SetDefault("strategy.macd_slow", 26)
	viper.SetDefault("strategy.macd_signal", 9)
	viper.SetDefault("strategy.bb_period", 20)
	viper.SetDefault("strategy.bb_std_dev", 2.0)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.dsn", "data/paper_trader.db")
}
