package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/internal/metrics"
)

// eventApplier is satisfied by *application.SearchService.
type eventApplier interface {
	Apply(ctx context.Context, ev application.ActivityEvent) error
}

// acknowledger is the subset of amqp.Delivery the indexer settles.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type indexer struct {
	Search  eventApplier
	Logger  *logrus.Logger
	Timeout time.Duration
}

// Run consumes until ctx ends or the delivery channel closes.
func (x *indexer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				x.Logger.Warn("delivery channel closed")
				return
			}
			x.handle(ctx, msg.Body, msg)
		}
	}
}

// handle applies one message. Undecodable or malformed events are dropped;
// index failures are requeued.
func (x *indexer) handle(ctx context.Context, body []byte, d acknowledger) {
	var ev application.ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		x.Logger.WithError(err).Warn("bad activity message")
		metrics.IndexerEventsProcessed.WithLabelValues("unknown", "dropped").Inc()
		_ = d.Nack(false, false)
		return
	}
	log := x.Logger.WithFields(logrus.Fields{"type": ev.Type, "user_id": ev.UserID, "task_id": ev.TaskID})

	cctx, cancel := context.WithTimeout(ctx, x.Timeout)
	err := x.Search.Apply(cctx, ev)
	cancel()
	switch {
	case err == nil:
		metrics.IndexerEventsProcessed.WithLabelValues(string(ev.Type), "indexed").Inc()
		_ = d.Ack(false)
	case errors.Is(err, application.ErrMalformedEvent):
		log.WithError(err).Warn("dropping malformed event")
		metrics.IndexerEventsProcessed.WithLabelValues(string(ev.Type), "dropped").Inc()
		_ = d.Nack(false, false)
	default:
		log.WithError(err).Error("index failed; requeueing")
		metrics.IndexerEventsProcessed.WithLabelValues(string(ev.Type), "requeued").Inc()
		_ = d.Nack(false, true)
	}
}
