package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/internal/metrics"
)

type ActivityType string

const (
	TaskCreated ActivityType = "task.created"
	TaskUpdated ActivityType = "task.updated"
	TaskDeleted ActivityType = "task.deleted"
	TabCreated  ActivityType = "tab.created"
	TabDeleted  ActivityType = "tab.deleted"
)

// ActivityEvent describes one committed mutation of a user's data.
type ActivityEvent struct {
	Type       ActivityType `json:"type"`
	UserID     string       `json:"userId"`
	TabID      string       `json:"tabId"`
	TaskID     string       `json:"taskId,omitempty"`
	Task       *entity.Task `json:"task,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// ActivityPublisher hands events to whatever fans them out.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ActivityEvent) error { return nil }

// JSONQueue is satisfied by helpers.RabbitPublisher.
type JSONQueue interface {
	PublishJSON(ctx context.Context, body any) error
}

type queuePublisher struct {
	q JSONQueue
}

// NewQueuePublisher publishes events as JSON messages on q.
func NewQueuePublisher(q JSONQueue) ActivityPublisher {
	return &queuePublisher{q: q}
}

func (p *queuePublisher) Publish(ctx context.Context, ev ActivityEvent) error {
	return p.q.PublishJSON(ctx, ev)
}

// emit publishes ev and only logs a failure; the mutation has already committed.
func emit(ctx context.Context, pub ActivityPublisher, logger *logrus.Logger, ev ActivityEvent) {
	if pub == nil {
		return
	}
	err := pub.Publish(ctx, ev)
	metrics.ActivityEventsPublished.WithLabelValues(string(ev.Type), metrics.StatusLabel(err)).Inc()
	if err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"event":   ev.Type,
			"user_id": ev.UserID,
			"tab_id":  ev.TabID,
		}).Warn("publish activity event failed")
	}
}
