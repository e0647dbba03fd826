// Package memory is an in-process implementation of the repositories with the
// same conditional-write semantics as the DynamoDB tables. It backs
// STORE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/internal/domain/repository"
)

// Store holds both tables behind one lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]entity.UserCredential
	profiles map[string]*entity.Profile
	tasks    map[string]map[string]entity.Task // userID -> sort key -> task
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]entity.UserCredential),
		profiles: make(map[string]*entity.Profile),
		tasks:    make(map[string]map[string]entity.Task),
	}
}

func (s *Store) Credentials() repository.CredentialRepository { return (*credentialRepo)(s) }
func (s *Store) Profiles() repository.ProfileRepository       { return (*profileRepo)(s) }
func (s *Store) Tasks() repository.TaskRepository             { return (*taskRepo)(s) }

func taskSortKey(k entity.TaskKey) string {
	return "TASK#" + k.TabID + "#" + k.TaskID
}

type credentialRepo Store

func (r *credentialRepo) Create(_ context.Context, cred *entity.UserCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[cred.Username]; ok {
		return repository.ErrConditionFailed
	}
	c := *cred
	c.PasswordHash = append([]byte(nil), cred.PasswordHash...)
	r.users[cred.Username] = c
	return nil
}

func (r *credentialRepo) GetByUsername(_ context.Context, username string) (*entity.UserCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.PasswordHash = append([]byte(nil), c.PasswordHash...)
	return &c, nil
}

type profileRepo Store

func (r *profileRepo) Get(_ context.Context, userID string) (*entity.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *profileRepo) Create(_ context.Context, p *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.UserID]; ok {
		return repository.ErrConditionFailed
	}
	r.profiles[p.UserID] = p.Clone()
	return nil
}

func (r *profileRepo) AppendTab(_ context.Context, userID string, tab entity.Tab, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repository.ErrConditionFailed
	}
	for _, id := range p.TabOrder {
		if id == tab.TabID {
			return repository.ErrConditionFailed
		}
	}
	p.Tabs = append(p.Tabs, tab)
	p.TabOrder = append(p.TabOrder, tab.TabID)
	p.UpdatedAt = now
	return nil
}

func (r *profileRepo) ReplaceTabs(_ context.Context, p *entity.Profile, expectedUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.profiles[p.UserID]
	if !ok || !cur.UpdatedAt.Equal(expectedUpdatedAt) {
		return repository.ErrConditionFailed
	}
	next := p.Clone()
	next.CreatedAt = cur.CreatedAt
	r.profiles[p.UserID] = next
	return nil
}

func (r *profileRepo) SetActiveTab(_ context.Context, userID, tabID string, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		p = entity.NewDefaultProfile(userID, now)
		r.profiles[userID] = p
	}
	p.ActiveTabID = tabID
	p.UpdatedAt = now
	return nil
}

type taskRepo Store

func (r *taskRepo) Put(_ context.Context, t *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	part, ok := r.tasks[t.UserID]
	if !ok {
		part = make(map[string]entity.Task)
		r.tasks[t.UserID] = part
	}
	part[taskSortKey(t.Key())] = *t
	return nil
}

func (r *taskRepo) Get(_ context.Context, userID string, key entity.TaskKey) (*entity.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[userID][taskSortKey(key)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// ListByTab returns tasks in sort-key order, like a DynamoDB query.
func (r *taskRepo) ListByTab(_ context.Context, userID, tabID string) ([]entity.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prefix := "TASK#" + tabID + "#"
	keys := make([]string, 0)
	for sk := range r.tasks[userID] {
		if strings.HasPrefix(sk, prefix) {
			keys = append(keys, sk)
		}
	}
	sort.Strings(keys)
	out := make([]entity.Task, 0, len(keys))
	for _, sk := range keys {
		out = append(out, r.tasks[userID][sk])
	}
	return out, nil
}

func (r *taskRepo) Update(_ context.Context, userID string, key entity.TaskKey, patch entity.TaskPatch, now time.Time) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sk := taskSortKey(key)
	t, ok := r.tasks[userID][sk]
	if !ok {
		return nil, repository.ErrNotFound
	}
	patch.Apply(&t)
	t.UpdatedAt = now
	r.tasks[userID][sk] = t
	return &t, nil
}

func (r *taskRepo) Delete(_ context.Context, userID string, key entity.TaskKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks[userID], taskSortKey(key))
	return nil
}

func (r *taskRepo) DeleteMany(_ context.Context, userID string, keys []entity.TaskKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range keys {
		delete(r.tasks[userID], taskSortKey(k))
	}
	return nil
}
