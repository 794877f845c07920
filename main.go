package main

import (
	"crypto/tls"
	"strings"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"matrix-api/api"
	"matrix-api/assist"
	"matrix-api/config"
	"matrix-api/session"
	"matrix-api/storage"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.New()
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
		logger.SetLevel(log.DebugLevel)
	}

	var store api.Storage
	if cfg.StorageConnectionString != "" {
		ts, err := storage.NewTableStore(cfg.StorageConnectionString, cfg.DocumentsTable)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		store = ts
		logger.Infof("documents in table storage, table %s", cfg.DocumentsTable)
	} else {
		fs, err := storage.NewFileStore(cfg.DataFile, logger)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
		store = fs
		logger.Infof("documents in %s", cfg.DataFile)
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisConnectionString != "" {
		rc := redis.NewClient(redisOptions(cfg.RedisConnectionString))
		store = storage.NewCache(store, rc, cfg.CacheTTL)
		sessions = session.NewRedisStore(rc)
	}

	boot := session.NewService(store, sessions, cfg.BootstrapTimeout, logger)

	authOpts := api.AuthOptions{
		BotToken: cfg.TelegramBotToken,
		TestMode: cfg.AuthTestMode,
		Audience: cfg.JWTAudience,
		Issuer:   cfg.JWTIssuer,
	}
	switch {
	case strings.EqualFold(cfg.LocalAuthMode, "hs256"):
		if cfg.LocalAuthSecret == "" {
			log.Fatal("LOCAL_AUTH_SHARED_SECRET is required when LOCAL_AUTH_MODE=hs256")
		}
		authOpts.SharedSecret = []byte(cfg.LocalAuthSecret)
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{})
		if err != nil {
			log.Fatalf("jwks: %v", err)
		}
		authOpts.JWKS = jwks
	}
	if cfg.TelegramBotToken == "" && authOpts.JWKS == nil && len(authOpts.SharedSecret) == 0 && !cfg.AuthTestMode {
		logger.Warn("no auth backend configured, session endpoints will reject all callers")
	}
	auth := api.NewAuth(authOpts)

	var ai api.Assistant
	if cfg.AIAPIKey != "" {
		client, err := assist.New(cfg.AIAPIKey, cfg.AIAPIEndpoint, cfg.AIModel)
		if err != nil {
			log.Fatalf("assist: %v", err)
		}
		ai = client
	} else {
		logger.Info("AI_API_KEY not set, assist endpoints disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, store, auth, boot, ai, cfg.StaticDir, logger)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func redisOptions(connStr string) *redis.Options {
	opts, err := redis.ParseURL(connStr)
	if err == nil {
		return opts
	}
	parts := strings.Split(connStr, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
