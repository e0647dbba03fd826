package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	repo "github.com/oksasatya/taskhive/internal/domain/repository"
	"github.com/oksasatya/taskhive/internal/infrastructure/memory"
)

var (
	t0         = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	errStoreIO = errors.New("connection reset")
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []ActivityType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ActivityType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	store    *memory.Store
	clock    *clockwork.FakeClock
	events   *recordingPublisher
	profiles *ProfileService
	tasks    *TaskService
	tabs     *TabOrchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clock := clockwork.NewFakeClockAt(t0)
	events := &recordingPublisher{}
	profiles := NewProfileService(store.Profiles(), clock, nil)
	tasks := NewTaskService(store.Tasks(), clock, nil, events)
	return &fixture{
		store:    store,
		clock:    clock,
		events:   events,
		profiles: profiles,
		tasks:    tasks,
		tabs:     NewTabOrchestrator(profiles, tasks, events, nil),
	}
}

// flakyProfiles overrides selected ProfileRepository calls.
type flakyProfiles struct {
	repo.ProfileRepository
	get         func(ctx context.Context, userID string) (*entity.Profile, error)
	create      func(ctx context.Context, p *entity.Profile) error
	appendTab   func(ctx context.Context, userID string, tab entity.Tab, now time.Time) error
	replaceTabs func(ctx context.Context, p *entity.Profile, expected time.Time) error
}

func (f *flakyProfiles) Get(ctx context.Context, userID string) (*entity.Profile, error) {
	if f.get != nil {
		return f.get(ctx, userID)
	}
	return f.ProfileRepository.Get(ctx, userID)
}

func (f *flakyProfiles) Create(ctx context.Context, p *entity.Profile) error {
	if f.create != nil {
		return f.create(ctx, p)
	}
	return f.ProfileRepository.Create(ctx, p)
}

func (f *flakyProfiles) AppendTab(ctx context.Context, userID string, tab entity.Tab, now time.Time) error {
	if f.appendTab != nil {
		return f.appendTab(ctx, userID, tab, now)
	}
	return f.ProfileRepository.AppendTab(ctx, userID, tab, now)
}

func (f *flakyProfiles) ReplaceTabs(ctx context.Context, p *entity.Profile, expected time.Time) error {
	if f.replaceTabs != nil {
		return f.replaceTabs(ctx, p, expected)
	}
	return f.ProfileRepository.ReplaceTabs(ctx, p, expected)
}

// flakyTasks overrides selected TaskRepository calls.
type flakyTasks struct {
	repo.TaskRepository
	list       func(ctx context.Context, userID, tabID string) ([]entity.Task, error)
	deleteMany func(ctx context.Context, userID string, keys []entity.TaskKey) error
	put        func(ctx context.Context, t *entity.Task) error
}

func (f *flakyTasks) ListByTab(ctx context.Context, userID, tabID string) ([]entity.Task, error) {
	if f.list != nil {
		return f.list(ctx, userID, tabID)
	}
	return f.TaskRepository.ListByTab(ctx, userID, tabID)
}

func (f *flakyTasks) DeleteMany(ctx context.Context, userID string, keys []entity.TaskKey) error {
	if f.deleteMany != nil {
		return f.deleteMany(ctx, userID, keys)
	}
	return f.TaskRepository.DeleteMany(ctx, userID, keys)
}

func (f *flakyTasks) Put(ctx context.Context, t *entity.Task) error {
	if f.put != nil {
		return f.put(ctx, t)
	}
	return f.TaskRepository.Put(ctx, t)
}

func tabIDs(tabs []entity.Tab) []string {
	out := make([]string, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, t.TabID)
	}
	return out
}
