package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/oksasatya/taskhive/config"
	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

func main() {
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-indexer", cfg.Env)
	if !cfg.SearchEnabled || !cfg.EventsEnabled {
		logger.Info("SEARCH_ENABLED or EVENTS_ENABLED is false; indexer disabled")
		return
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("elasticsearch: %v", err)
	}
	search := application.NewSearchService(es, cfg.ESTasksIndex, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := search.EnsureIndex(ctx); err != nil {
		log.Fatalf("ensure index: %v", err)
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQActivityQueue, 16)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries(cfg.AppName + "-indexer")
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	idx := &indexer{Search: search, Logger: logger, Timeout: 15 * time.Second}
	logger.WithField("queue", cfg.RabbitMQActivityQueue).Info("indexer started")
	idx.Run(ctx, msgs)
	logger.Info("indexer stopped")
}
