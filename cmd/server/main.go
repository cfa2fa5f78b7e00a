package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mindscribe/journal-api/internal/config"
	"github.com/mindscribe/journal-api/internal/database"
	"github.com/mindscribe/journal-api/internal/handler"
	"github.com/mindscribe/journal-api/internal/queue"
	"github.com/mindscribe/journal-api/internal/reflection"
	"github.com/mindscribe/journal-api/internal/repository"
	"github.com/mindscribe/journal-api/internal/router"
	"github.com/mindscribe/journal-api/internal/session"
	"github.com/mindscribe/journal-api/internal/streak"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; sessions held in memory, auth rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	entries := repository.NewEntryRepo(db)
	streaks := repository.NewStreakRepo(db)
	tokens := repository.NewTokenRepo(db)

	generator := reflection.New(reflection.Config{
		APIURL:          cfg.GenAPIURL,
		Model:           cfg.GenModel,
		APIKey:          cfg.GenAPIKey,
		Temperature:     cfg.GenTemperature,
		MaxOutputTokens: cfg.GenMaxOutputTokens,
		MaxRetries:      cfg.GenMaxRetries,
		BackoffBase:     cfg.GenBackoffBase,
	})

	machine := session.NewMachine(users, entries, streak.NewTracker(streaks), generator, cfg.BcryptCost)
	sessions := session.NewStore(rdb, cfg.SessionTTL)

	authHandler := handler.NewAuthHandler(cfg, users, tokens, machine, sessions)
	sessionHandler := handler.NewSessionHandler(machine, sessions, entries)
	journalHandler := handler.NewJournalHandler(machine, sessions, entries, streaks)

	// Background consumer mirroring saved entries into logs/journal.log.
	go func() {
		if err := queue.StartEntrySavedConsumer(); err != nil {
			log.Printf("entry-consumer: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, rlCfg, rdb, cfg.JWTSecret)
	router.RegisterSession(e, sessionHandler, rlCfg, rdb, cfg.JWTSecret)
	router.RegisterJournal(e, journalHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
