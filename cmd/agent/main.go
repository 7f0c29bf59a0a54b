// Command agent runs the single-actor trading process: it wires every
// broker/data/LLM/notification adapter from environment configuration,
// starts the actor's 30s tick loop, and serves the admin HTTP surface —
// grounded on the teacher's cmd/server/main.go flag-plus-env bootstrap and
// its signal.Notify-driven graceful shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/darkhorse-quant/sentinel-agent/internal/actor"
	"github.com/darkhorse-quant/sentinel-agent/internal/adminserver"
	"github.com/darkhorse-quant/sentinel-agent/internal/broker"
	"github.com/darkhorse-quant/sentinel-agent/internal/crisis"
	"github.com/darkhorse-quant/sentinel-agent/internal/dex"
	"github.com/darkhorse-quant/sentinel-agent/internal/dexdata"
	"github.com/darkhorse-quant/sentinel-agent/internal/equity"
	"github.com/darkhorse-quant/sentinel-agent/internal/llm"
	"github.com/darkhorse-quant/sentinel-agent/internal/notify"
	"github.com/darkhorse-quant/sentinel-agent/internal/options"
	"github.com/darkhorse-quant/sentinel-agent/internal/ports"
	"github.com/darkhorse-quant/sentinel-agent/internal/risk"
	"github.com/darkhorse-quant/sentinel-agent/internal/signals"
	"github.com/darkhorse-quant/sentinel-agent/internal/twitter"
	"github.com/darkhorse-quant/sentinel-agent/pkg/config"
	"github.com/darkhorse-quant/sentinel-agent/pkg/ledger"
	"github.com/darkhorse-quant/sentinel-agent/pkg/logger"
	"github.com/darkhorse-quant/sentinel-agent/pkg/persistence"
	"github.com/darkhorse-quant/sentinel-agent/pkg/secretstore"
)

// secretKeys are the env vars that secret() below will prefer to satisfy
// from the encrypted store when one is configured, keeping API keys out of
// the process environment and shell history on machines where that matters.
var secretKeys = []string{
	"ALPACA_API_KEY_ID", "ALPACA_API_SECRET_KEY",
	"BIRDEYE_API_KEY", "LLM_API_KEY", "TWITTER_BEARER_TOKEN", "FRED_API_KEY",
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()

	var (
		configPath = flag.String("config", getenv("AGENT_CONFIG_FILE", "config.yaml"), "path to the agent's YAML config file")
		listenAddr = flag.String("listen", getenv("AGENT_ADMIN_LISTEN", ":8090"), "admin HTTP listen address")
	)
	flag.Parse()

	config.SetConfigPath(*configPath)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}); err != nil {
		log.Fatalf("init logger: %v", err)
	}

	var secrets *secretstore.Store
	if path := os.Getenv("AGENT_SECRET_STORE_PATH"); path != "" {
		key, err := secretstore.ParseKey(os.Getenv("AGENT_SECRET_STORE_KEY"))
		if err != nil {
			log.Fatalf("parse AGENT_SECRET_STORE_KEY: %v", err)
		}
		secrets, err = secretstore.Open(secretstore.OpenOptions{Path: path, EncryptionKey: key})
		if err != nil {
			log.Fatalf("open secret store: %v", err)
		}
		defer secrets.Close()
		logger.Infof("secret store opened, overriding %d env-var keys where present", len(secretKeys))
	}
	secret := func(key string) string { return lookupSecret(secrets, key) }

	store := persistence.NewJSONFileService(cfg.DataDir).NewStore("state", "agent", "state")
	a := actor.New(cfg, store)

	led, err := ledger.Open(getenv("AGENT_LEDGER_PATH", cfg.DataDir+"/ledger.sqlite"))
	if err != nil {
		logger.Errorf("open ledger: %v", err)
	} else {
		a.Ledger = led
		defer led.Close()
	}

	notifier := notify.New(
		notifierOrNil(cfg.DiscordWebhookURL),
		telegramOrNil(cfg.TelegramBotToken, cfg.TelegramChatID),
	)

	breaker := risk.NewCircuitBreaker(risk.CircuitBreakerConfig{
		MaxConsecutiveErrors: 5,
		DailyLossLimitCents:  int64(cfg.MaxPositionValue * 100),
	})
	liveBroker := broker.New(
		getenv("ALPACA_TRADING_BASE_URL", "https://paper-api.alpaca.markets"),
		getenv("ALPACA_DATA_BASE_URL", "https://data.alpaca.markets"),
		secret("ALPACA_API_KEY_ID"),
		secret("ALPACA_API_SECRET_KEY"),
		breaker,
	)

	var tradingBroker ports.Broker = liveBroker
	if cfg.DryRun {
		tradingBroker = broker.NewPaperBroker(liveBroker, startingCashFromEnv())
	}
	a.Broker = tradingBroker

	llmClient := llm.New(getenv("LLM_BASE_URL", "https://api.openai.com/v1"), secret("LLM_API_KEY"))

	var twitterConfirmer equity.TwitterConfirmer
	if cfg.TwitterEnabled {
		twitterConfirmer = twitter.New(secret("TWITTER_BEARER_TOKEN"))
	}

	a.Equity = &equity.Engine{
		Broker:   a.Broker,
		LLM:      llmClient,
		Twitter:  twitterConfirmer,
		Notifier: notifier,
	}
	a.Options = &options.Engine{Broker: a.Broker, Notifier: notifier}

	birdeye := dexdata.New(getenv("BIRDEYE_BASE_URL", "https://public-api.birdeye.so"), secret("BIRDEYE_API_KEY"))
	a.Dex = &dex.Engine{
		Momentum: birdeye,
		Charts:   birdeye,
		SolPrice: birdeye,
		Notifier: notifier,
	}

	a.Crisis = &crisis.Engine{
		Sources:  buildCrisisSources(secret),
		Broker:   a.Broker,
		SolPrice: birdeye,
		Notifier: notifier,
	}

	validator := signals.NewValidator(a.Broker, nil)
	a.Signals = &signals.Aggregator{
		StockTwits: signals.NewStockTwitsClient(),
		Reddit:     signals.NewRedditClient("sentinel-agent/1.0"),
		Crypto:     signals.NewCryptoSnapshotClient(getenv("CRYPTO_TICKER_BASE_URL", "https://api.binance.com")),
		Validator:  validator,
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)

	admin := &adminserver.Server{Actor: a, APIToken: cfg.APIToken, KillSwitchSecret: cfg.KillSwitchSecret}
	httpSrv := &http.Server{
		Addr:              *listenAddr,
		Handler:           admin.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("admin server listening on %s", *listenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("admin http server error: %v", err)
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	<-stopCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	cancel()
	a.Stop()
	logger.Info("agent stopped")
}

// lookupSecret prefers the encrypted store when one is open and holds key,
// falling back to the environment otherwise — so deployments that never
// set AGENT_SECRET_STORE_PATH behave exactly as before.
func lookupSecret(store *secretstore.Store, key string) string {
	if store != nil {
		if v, ok, err := store.GetString(key); err == nil && ok {
			return v
		}
	}
	return os.Getenv(key)
}

func startingCashFromEnv() float64 {
	v := getenv("AGENT_PAPER_STARTING_CASH", "100000")
	cash, err := strconv.ParseFloat(v, 64)
	if err != nil || cash <= 0 {
		return 100000
	}
	return cash
}

// buildCrisisSources wires every macro indicator named in spec.md 4.6 to a
// concrete data source: the Yahoo Finance chart endpoint for anything with
// a liquid public ticker, FRED for the three series the St. Louis Fed
// publishes directly, and the two composite ratio sources for indicators
// that are themselves derived from a pair of underlying instruments.
// StocksAbove200MA has no wired source — spec.md 9 notes it is permanently
// unsourced and every reader already tolerates a nil value.
func buildCrisisSources(secret func(string) string) crisis.Sources {
	fredKey := secret("FRED_API_KEY")
	return crisis.Sources{
		VIX:             crisis.NewYahooChartSource("^VIX", "5d"),
		HYSpreadProxy:   crisis.NewHYLQDRatioSource(),
		YieldCurve2Y10Y: crisis.NewFREDSource(fredKey, "T10Y2Y"),
		TED:             crisis.NewFREDSource(fredKey, "TEDRATE"),
		BTC:             crisis.NewYahooChartSource("BTC-USD", "5d"),
		USDTPeg:         crisis.NewYahooChartSource("USDT-USD", "1d"),
		DXY:             crisis.NewYahooChartSource("DX-Y.NYB", "1d"),
		USDJPY:          crisis.NewYahooChartSource("JPY=X", "1d"),
		KRE:             crisis.NewYahooChartSource("KRE", "5d"),
		GoldSilverRatio: crisis.NewGoldSilverRatioSource(),
		FedBalanceSheet: crisis.NewFREDSource(fredKey, "WALCL"),
	}
}

func notifierOrNil(webhookURL string) *notify.DiscordNotifier {
	if webhookURL == "" {
		return nil
	}
	return notify.NewDiscordNotifier(webhookURL)
}

func telegramOrNil(botToken, chatID string) *notify.TelegramNotifier {
	if botToken == "" || chatID == "" {
		return nil
	}
	return notify.NewTelegramNotifier(botToken, chatID)
}
