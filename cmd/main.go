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

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"technews/api"
	"technews/config"
	"technews/fetcher"
	"technews/ingest"
	"technews/metrics"
	"technews/store"
	"technews/worker"
)

const version = "1.0.0"

func main() {
	log.Println("Starting Tech News service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.Init("technews", version, cfg.Environment)

	mongoClient, db, err := store.Connect(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	articles := store.NewArticleStore(db)
	blog := store.NewBlogStore(db)
	if err := articles.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Failed to create article indexes:", err)
	}
	if err := blog.EnsureIndexes(context.Background()); err != nil {
		log.Fatal("Failed to create blog indexes:", err)
	}

	feedFetcher := fetcher.NewFetcher(articles,
		fetcher.WithTimeout(cfg.FeedTimeout),
		fetcher.WithMaxItems(cfg.FeedMaxItems),
		fetcher.WithUserAgent(cfg.FeedUserAgent),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// NATS is optional; without it ingestion runs on the local schedule only.
	var (
		nc         *nats.Conn
		ingestOpts []ingest.Option
	)
	if cfg.NATSUrl != "" {
		nc, err = nats.Connect(cfg.NATSUrl, nats.Name("technews"))
		if err != nil {
			log.Fatal("Failed to connect to NATS:", err)
		}
		defer nc.Close()
		log.Println("[INFO] Connected to NATS")

		js, err := nc.JetStream()
		if err != nil {
			log.Fatal("Failed to create JetStream context:", err)
		}
		ingestOpts = append(ingestOpts, ingest.WithNotifier(worker.NewEventPublisher(js, "technews")))
	}

	ingestor := ingest.New(cfg.Feeds, feedFetcher, articles, ingestOpts...)

	var natsWorker *worker.Worker
	if nc != nil {
		natsWorker, err = worker.NewWorker(nc, ingestor)
		if err != nil {
			log.Fatal("Failed to create NATS worker:", err)
		}
		if err := natsWorker.Start(ctx); err != nil {
			log.Fatal("Failed to start NATS worker:", err)
		}
	}

	scheduler := worker.NewScheduler(ingestor, cfg.FetchInterval, cfg.InitialFetchDelay)
	scheduler.Start(ctx)

	router := api.NewRouter(api.Deps{
		Articles:  articles,
		Blog:      blog,
		Ingestion: ingestor,
		DB: api.PingFunc(func(ctx context.Context) error {
			return mongoClient.Ping(ctx, readpref.Primary())
		}),
		AdminToken:  cfg.AdminToken,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Tech News API starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down Tech News service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] Server forced to shutdown: %v", err)
	}
	if natsWorker != nil {
		natsWorker.Stop()
	}
	cancel()
	scheduler.Stop()

	log.Println("Tech News service stopped")
}
