package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/charms-backend/internal/config"     // Internal config loader
	"github.com/iliyamo/charms-backend/internal/database"   // MySQL connection pool
	"github.com/iliyamo/charms-backend/internal/federation" // WebFinger resolver and actor documents
	"github.com/iliyamo/charms-backend/internal/handler"    // HTTP handlers
	"github.com/iliyamo/charms-backend/internal/middleware" // Token auth and rate limiting
	"github.com/iliyamo/charms-backend/internal/queue"      // Broker consumer
	"github.com/iliyamo/charms-backend/internal/repository" // Data access layer
	"github.com/iliyamo/charms-backend/internal/router"     // Route registration
	"github.com/iliyamo/charms-backend/internal/visibility" // Visibility gate
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories share the single pool.
	actors := repository.NewActorRepo(db)
	tokens := repository.NewTokenRepo(db)
	rels := repository.NewRelationRepo(db)
	charms := repository.NewCharmRepo(db)
	files := repository.NewFileRepo(db)

	gate := visibility.NewGate(rels)
	resolver := federation.NewResolver(cfg.InstanceHost, actors)
	assembler := federation.NewAssembler(cfg.InstanceHost, actors, rels)

	authH := handler.NewAuthHandler(cfg, actors, tokens)
	relH := handler.NewRelationHandler(actors, rels)
	profH := handler.NewProfileHandler(actors, gate, charms, files, rels)
	fedH := handler.NewFederationHandler(resolver, assembler)

	e := echo.New()

	// Distributed rate limiting backed by Redis; when Redis is unreachable
	// the middleware degrades to a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, tokens)
	router.RegisterSocial(e, relH, tokens)
	router.RegisterProfiles(e, profH, tokens)
	router.RegisterFederation(e, fedH)

	// Consume account.created events in the background; the loop reconnects
	// on broker failures and never takes the server down.
	go func() {
		if err := queue.StartAccountConsumer(); err != nil {
			log.Printf("account consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, host=%s)", addr, cfg.Env, cfg.InstanceHost)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
