package application

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
)

// TabOrchestrator runs the multi-step tab create/delete flows across the
// profile and the task partition.
type TabOrchestrator struct {
	Profiles *ProfileService
	Tasks    *TaskService
	Events   ActivityPublisher
	Logger   *logrus.Logger
}

func NewTabOrchestrator(profiles *ProfileService, tasks *TaskService, events ActivityPublisher, logger *logrus.Logger) *TabOrchestrator {
	if events == nil {
		events = NopPublisher{}
	}
	return &TabOrchestrator{Profiles: profiles, Tasks: tasks, Events: events, Logger: orNopLogger(logger)}
}

func (o *TabOrchestrator) CreateTab(ctx context.Context, userID, rawName string) (entity.Tab, error) {
	tab, err := o.Profiles.AddTab(ctx, userID, rawName)
	if err != nil {
		return entity.Tab{}, err
	}
	emit(ctx, o.Events, o.Logger, ActivityEvent{Type: TabCreated, UserID: userID, TabID: tab.TabID, OccurredAt: utcNow(o.Profiles.Clock)})
	return tab, nil
}

// DeleteTab deletes the tab's tasks and then its profile entry. The steps are
// not transactional: a failure after the batch delete leaves an empty tab in
// the profile, and re-running the call completes it.
func (o *TabOrchestrator) DeleteTab(ctx context.Context, userID, tabID string) (bool, error) {
	if tabID == entity.MainTabID {
		return false, apperror.New(apperror.KindForbidden, "the main tab cannot be deleted")
	}
	if err := requireTabID(tabID); err != nil {
		return false, err
	}
	log := o.Logger.WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID})

	tasks, err := o.Tasks.ListByTab(ctx, userID, tabID)
	if err != nil {
		return false, err
	}
	keys := make([]entity.TaskKey, 0, len(tasks))
	for _, t := range tasks {
		keys = append(keys, t.Key())
	}
	if err := o.Tasks.DeleteBatch(ctx, userID, keys); err != nil {
		return false, err
	}
	log.WithField("tasks", len(keys)).Debug("tab tasks deleted")

	ok, err := o.Profiles.DeleteTabEntry(ctx, userID, tabID)
	if err != nil {
		log.WithError(err).Warn("tab tasks deleted but profile entry kept")
		return false, err
	}
	log.Info("tab deleted")
	emit(ctx, o.Events, o.Logger, ActivityEvent{Type: TabDeleted, UserID: userID, TabID: tabID, OccurredAt: utcNow(o.Profiles.Clock)})
	return ok, nil
}
