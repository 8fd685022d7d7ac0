package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/blog_api/internal/config"
	"github.com/Skotchmaster/blog_api/internal/dispatch"
	"github.com/Skotchmaster/blog_api/internal/es"
	"github.com/Skotchmaster/blog_api/internal/events"
	"github.com/Skotchmaster/blog_api/internal/importer"
	"github.com/Skotchmaster/blog_api/internal/logging"
	authmw "github.com/Skotchmaster/blog_api/internal/middleware/auth"
	"github.com/Skotchmaster/blog_api/internal/repo"
	authsvc "github.com/Skotchmaster/blog_api/internal/service/auth"
	"github.com/Skotchmaster/blog_api/internal/service/posts"
	"github.com/Skotchmaster/blog_api/internal/service/search"
	"github.com/Skotchmaster/blog_api/internal/tokens"
	httpserver "github.com/Skotchmaster/blog_api/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	codec := &tokens.Codec{
		Secret:   []byte(configuration.JWT_SECRET),
		Issuer:   configuration.JWT_ISSUER,
		Audience: configuration.JWT_AUDIENCE,
		TTL:      configuration.TokenTTL,
	}

	var brokers []string
	if configuration.KAFKA_ADDRESS != "" {
		brokers = []string{configuration.KAFKA_ADDRESS}
	}
	producer := events.NewProducer(brokers)

	repository := repo.New(db)
	d := dispatch.New()

	authsvc.NewService(repository, codec, producer).RegisterHandlers(d)

	var searchHandler *httpserver.SearchHandler
	if configuration.ES_URL != "" {
		client, err := es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
		posts.NewService(repository, client, configuration.ES_INDEX, producer).RegisterHandlers(d)
		search.NewService(client, configuration.ES_INDEX).RegisterHandlers(d)
		searchHandler = &httpserver.SearchHandler{Dispatcher: d}
	} else {
		posts.NewService(repository, nil, "", producer).RegisterHandlers(d)
	}

	gate := authmw.NewGate(codec, repository)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:   &httpserver.AuthHandler{Dispatcher: d},
		PostHandler:   &httpserver.PostHandler{Dispatcher: d},
		SearchHandler: searchHandler,
		Gate:          gate,
	})

	job := importer.New(d, configuration.IMPORT_CSV_URL, configuration.IMPORT_SCHEDULE, logger)
	if err := job.Start(); err != nil {
		log.Fatalf("import job error: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + configuration.SERVER_PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	job.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
