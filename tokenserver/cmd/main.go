package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/spf13/viper"

	"github.com/imtaco/rtc-token-server/internal/config"
	"github.com/imtaco/rtc-token-server/internal/httputil"
	"github.com/imtaco/rtc-token-server/internal/log"
	"github.com/imtaco/rtc-token-server/internal/otel"
	"github.com/imtaco/rtc-token-server/internal/ratelimit"
	"github.com/imtaco/rtc-token-server/internal/rtctoken"
	"github.com/imtaco/rtc-token-server/internal/workflow"
	"github.com/imtaco/rtc-token-server/tokenserver/issuer"
	"github.com/imtaco/rtc-token-server/tokenserver/transport"
)

type Config struct {
	App       config.App           `mapstructure:"app"`
	HTTP      httputil.Config      `mapstructure:"http"`
	Otel      otel.Config          `mapstructure:"otel"`
	RateLimit ratelimit.Config     `mapstructure:"rate_limit"`
	CORS      transport.CORSConfig `mapstructure:"cors"`
	Agora     issuer.Credentials   `mapstructure:"agora"`
	Port      int                  `mapstructure:"port"`
}

func loadConfig() (*Config, error) {
	cfg, err := config.Load(&Config{}, func(v *viper.Viper) {
		v.SetDefault("port", 3000)

		config.Setup(v, "app")
		otel.Setup(v, "otel")
		httputil.Setup(v, "http")
		ratelimit.Setup(v, "rate_limit")
		transport.SetupCORS(v, "cors")
		issuer.Setup(v, "agora")

		// PORT decides the listen address unless HTTP_ADDR is set
		v.SetDefault("http.addr", "")
	})
	if err != nil {
		return nil, err
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":" + strconv.Itoa(cfg.Port)
	}
	return cfg, nil
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", err)
	}

	logger, err := log.NewLogger(config.App.LogConfigFile)
	if err != nil {
		log.Fatal("Failed to create logger", err)
	}
	defer func() { _ = logger.Sync() }()

	// global background context
	ctx := context.Background()

	otelShutdown, err := otel.Init(ctx, &config.Otel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize OTEL provider", log.Error(err))
	}

	logger.Info("Starting RTC token server",
		log.String("addr", config.HTTP.Addr),
		log.String("appId", config.Agora.AppID),
		log.Bool("rateLimitEnabled", config.RateLimit.Enabled),
		log.Strings("corsAllowOrigins", config.CORS.AllowOrigins))

	if !config.Agora.Complete() {
		logger.Warn("AGORA_APP_ID or AGORA_APP_CERTIFICATE is not set, token requests will fail")
	}

	tokenIssuer := issuer.New(config.Agora, rtctoken.NewBuilder(), logger.Module("Issuer"))

	opts := transport.Options{CORS: config.CORS}
	if config.RateLimit.Enabled {
		if opts.Limiter, err = ratelimit.New(&config.RateLimit); err != nil {
			logger.Fatal("Failed to create rate limiter", log.Error(err))
		}
	}

	router := transport.NewRouter(tokenIssuer, opts, logger.Module("Router"))
	server := httputil.NewServer(&config.HTTP, router.Handler())

	go func() {
		logger.Info("Starting HTTP server", log.String("addr", config.HTTP.Addr))
		if err := server.Listen(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", log.Error(err))
		}
	}()

	logger.Info("RTC token server started")

	cleanup := func(ctx context.Context) {
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Failed to shutdown HTTP server", log.Error(err))
		}
		if err := otelShutdown(ctx); err != nil {
			logger.Error("Failed to shutdown OTEL", log.Error(err))
		}
	}
	workflow.WaitGracefulShutdown(ctx, logger.Module("CleanUp"), cleanup, config.App.ShutdownTimeout)
}
