package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkanthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	wahisper "github.com/AdonayRH/wahisper-sub000"
	"github.com/AdonayRH/wahisper-sub000/classifier"
	anthropiccls "github.com/AdonayRH/wahisper-sub000/classifier/anthropic"
	openaicls "github.com/AdonayRH/wahisper-sub000/classifier/openai"
	"github.com/AdonayRH/wahisper-sub000/config"
	"github.com/AdonayRH/wahisper-sub000/httpapi"
	"github.com/AdonayRH/wahisper-sub000/logging"
	"github.com/AdonayRH/wahisper-sub000/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot behind the HTTP gateway",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			exitErr("configuration", err)
		}
		logCfg := logging.DefaultLoggerConfig()
		logCfg.Level = logging.ParseLevel(cfg.LogLevel)
		logger := logging.NewLogger(logCfg)

		db, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			exitErr("open store", err)
		}
		defer db.Close()
		for _, id := range cfg.AdminIDs {
			if err := db.GrantAdmin(cmd.Context(), id); err != nil {
				exitErr("grant admin", err)
			}
		}

		bot := wahisper.New(func(o *wahisper.Options) {
			o.Inventory = db
			o.Orders = db.Orders()
			o.Admins = db
			o.Classifier = buildClassifier(cfg.Classifier)
			o.Logger = logger
			o.SessionTTL = cfg.SessionTTL
			o.ReapEvery = cfg.ReapEvery
			o.SearchLimit = cfg.SearchLimit
		})
		bot.StartReaper()
		defer bot.Close()

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           httpapi.NewRouter(httpapi.NewHandler(bot.Engine(), bot.Carts())),
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.Info("listening", "addr", cfg.Addr, "classifier", cfg.Classifier.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitErr("serve", err)
		}
	},
}

func buildClassifier(cfg config.ClassifierConfig) classifier.Classifier {
	switch cfg.Provider {
	case "openai":
		return openaicls.New(func(o *openaicls.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Timeout = cfg.Timeout
		})
	case "anthropic":
		return anthropiccls.New(func(o *anthropiccls.Options) {
			if cfg.Model != "" {
				o.Model = sdkanthropic.Model(cfg.Model)
			}
			o.APIKey = cfg.APIKey
			o.Timeout = cfg.Timeout
		})
	default:
		return classifier.NewKeywordClassifier()
	}
}
