package entity

import "time"

const (
	// MainTabID is the tab every profile carries; it cannot be removed.
	MainTabID   = "main"
	MainTabName = "Main"

	ProfileSortKey = "PROFILE"
)

// Tab is a named bucket of tasks inside a profile.
type Tab struct {
	TabID   string `json:"tabId" dynamodbav:"tabId"`
	TabName string `json:"tabName" dynamodbav:"tabName"`
}

// MainTab returns the tab synthesized for every profile.
func MainTab() Tab {
	return Tab{TabID: MainTabID, TabName: MainTabName}
}

// Profile is the single per-user document holding tab layout and preferences.
type Profile struct {
	UserID      string    `dynamodbav:"userId"`
	ActiveTabID string    `dynamodbav:"activeTabId"`
	TabOrder    []string  `dynamodbav:"tabOrder"`
	Tabs        []Tab     `dynamodbav:"tabs"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
	UpdatedAt   time.Time `dynamodbav:"updatedAt"`
}

// NewDefaultProfile builds the profile every user starts with.
func NewDefaultProfile(userID string, now time.Time) *Profile {
	return &Profile{
		UserID:      userID,
		ActiveTabID: MainTabID,
		TabOrder:    []string{MainTabID},
		Tabs:        []Tab{MainTab()},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns a deep copy so callers can mutate slices freely.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	c.TabOrder = append([]string(nil), p.TabOrder...)
	c.Tabs = append([]Tab(nil), p.Tabs...)
	return &c
}
