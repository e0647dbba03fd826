package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
	repo "github.com/oksasatya/taskhive/internal/domain/repository"
)

func TestProfileService_GetTabsCreatesMissingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tabs, err := f.profiles.GetTabs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []entity.Tab{entity.MainTab()}, tabs)

	p, err := f.store.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.MainTabID, p.ActiveTabID)
	assert.Equal(t, t0, p.CreatedAt)
}

func TestProfileService_GetTabsStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.profiles.Repo = &flakyProfiles{
		ProfileRepository: f.store.Profiles(),
		get: func(context.Context, string) (*entity.Profile, error) {
			return nil, errStoreIO
		},
	}
	_, err := f.profiles.GetTabs(context.Background(), "u1")
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
}

func TestProfileService_AddTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))

	tab, err := f.profiles.AddTab(ctx, "u1", "  Side Projects ")
	require.NoError(t, err)
	assert.Equal(t, entity.Tab{TabID: "side-projects", TabName: "Side Projects"}, tab)

	tabs, err := f.profiles.GetTabs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "side-projects"}, tabIDs(tabs))
}

func TestProfileService_AddTabIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))

	first, err := f.profiles.AddTab(ctx, "u1", "Work")
	require.NoError(t, err)
	// same id, different spelling; the stored name wins
	second, err := f.profiles.AddTab(ctx, "u1", "WORK")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	tabs, err := f.profiles.GetTabs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "work"}, tabIDs(tabs))
}

func TestProfileService_AddTabMainReturnsMain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))

	tab, err := f.profiles.AddTab(ctx, "u1", "Main")
	require.NoError(t, err)
	assert.Equal(t, entity.MainTab(), tab)
}

func TestProfileService_AddTabInvalidName(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.AddTab(context.Background(), "u1", "   ")
	assert.ErrorIs(t, err, apperror.ErrInvalidName)
}

func TestProfileService_AddTabHealsMissingProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tab, err := f.profiles.AddTab(ctx, "u1", "Work")
	require.NoError(t, err)
	assert.Equal(t, "work", tab.TabID)

	tabs, err := f.profiles.GetTabs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "work"}, tabIDs(tabs))
}

func TestProfileService_AddTabConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))
	f.profiles.Repo = &flakyProfiles{
		ProfileRepository: f.store.Profiles(),
		appendTab: func(context.Context, string, entity.Tab, time.Time) error {
			return repo.ErrConditionFailed
		},
	}
	_, err := f.profiles.AddTab(ctx, "u1", "Work")
	assert.ErrorIs(t, err, apperror.ErrTabConflict)
}

func TestProfileService_AddTabConcurrentSameID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))

	var wg sync.WaitGroup
	results := make([]entity.Tab, 8)
	errs := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.profiles.AddTab(ctx, "u1", "Work")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, "work", results[i].TabID)
	}
	p, err := f.store.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "work"}, p.TabOrder)
}

func TestProfileService_DeleteTabEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))
	_, err := f.profiles.AddTab(ctx, "u1", "Work")
	require.NoError(t, err)
	require.NoError(t, f.profiles.SetActiveTab(ctx, "u1", "work"))

	f.clock.Advance(time.Minute)
	ok, err := f.profiles.DeleteTabEntry(ctx, "u1", "work")
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := f.store.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, p.TabOrder)
	assert.Equal(t, entity.MainTabID, p.ActiveTabID)
	assert.Equal(t, t0.Add(time.Minute), p.UpdatedAt)
}

func TestProfileService_DeleteTabEntryMainForbidden(t *testing.T) {
	f := newFixture(t)
	_, err := f.profiles.DeleteTabEntry(context.Background(), "u1", entity.MainTabID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestProfileService_DeleteTabEntryMissingProfile(t *testing.T) {
	f := newFixture(t)
	ok, err := f.profiles.DeleteTabEntry(context.Background(), "nobody", "work")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProfileService_DeleteTabEntryRetriesOnConcurrentChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))
	_, err := f.profiles.AddTab(ctx, "u1", "Work")
	require.NoError(t, err)

	inner := f.store.Profiles()
	calls := 0
	f.profiles.Repo = &flakyProfiles{
		ProfileRepository: inner,
		replaceTabs: func(ctx context.Context, p *entity.Profile, expected time.Time) error {
			calls++
			if calls == 1 {
				// another writer lands between our read and write
				f.clock.Advance(time.Second)
				require.NoError(t, inner.AppendTab(ctx, "u1", entity.Tab{TabID: "home", TabName: "Home"}, f.clock.Now()))
			}
			return inner.ReplaceTabs(ctx, p, expected)
		},
	}

	ok, err := f.profiles.DeleteTabEntry(ctx, "u1", "work")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)

	p, err := inner.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main", "home"}, p.TabOrder)
}

func TestProfileService_DeleteTabEntryGivesUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.profiles.EnsureDefault(ctx, "u1"))
	_, err := f.profiles.AddTab(ctx, "u1", "Work")
	require.NoError(t, err)

	calls := 0
	f.profiles.Repo = &flakyProfiles{
		ProfileRepository: f.store.Profiles(),
		replaceTabs: func(context.Context, *entity.Profile, time.Time) error {
			calls++
			return repo.ErrConditionFailed
		},
	}
	_, err = f.profiles.DeleteTabEntry(ctx, "u1", "work")
	assert.ErrorIs(t, err, apperror.ErrTabConflict)
	assert.Equal(t, maxReplaceAttempts, calls)
}

func TestProfileService_ActiveTab(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.profiles.GetActiveTab(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.MainTabID, got)

	// no existence check, and the upsert seeds a default layout
	require.NoError(t, f.profiles.SetActiveTab(ctx, "u1", "ghost"))
	got, err = f.profiles.GetActiveTab(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ghost", got)

	tabs, err := f.profiles.GetTabs(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, tabIDs(tabs))

	assert.ErrorIs(t, f.profiles.SetActiveTab(ctx, "u1", ""), apperror.ErrInvalidInput)
}
