package repository

import (
	"context"
	"time"

	"github.com/oksasatya/taskhive/internal/domain/entity"
)

// ProfileRepository owns the PROFILE item of each user partition.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*entity.Profile, error)
	// Create writes p only if no profile exists yet.
	Create(ctx context.Context, p *entity.Profile) error
	// AppendTab appends tab to tabs and its id to tabOrder in one write,
	// guarded by: profile exists AND tabOrder does not contain tab.TabID.
	AppendTab(ctx context.Context, userID string, tab entity.Tab, now time.Time) error
	// ReplaceTabs overwrites tabs, tabOrder and activeTabId, guarded by the
	// stored updatedAt still equal to expectedUpdatedAt.
	ReplaceTabs(ctx context.Context, p *entity.Profile, expectedUpdatedAt time.Time) error
	// SetActiveTab upserts activeTabId, seeding default tabs when the profile is new.
	SetActiveTab(ctx context.Context, userID, tabID string, now time.Time) error
}
