package application

import (
	"context"
	"errors"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
	repo "github.com/oksasatya/taskhive/internal/domain/repository"
)

// maxReplaceAttempts bounds the optimistic read-modify-write of DeleteTabEntry.
const maxReplaceAttempts = 3

// ProfileService manages the PROFILE document: tab list, tab order and the
// active-tab preference.
type ProfileService struct {
	Repo   repo.ProfileRepository
	Clock  clockwork.Clock
	Logger *logrus.Logger
}

func NewProfileService(r repo.ProfileRepository, clock clockwork.Clock, logger *logrus.Logger) *ProfileService {
	return &ProfileService{Repo: r, Clock: orRealClock(clock), Logger: orNopLogger(logger)}
}

// EnsureDefault creates the default profile unless one already exists.
func (s *ProfileService) EnsureDefault(ctx context.Context, userID string) error {
	err := s.Repo.Create(ctx, entity.NewDefaultProfile(userID, utcNow(s.Clock)))
	if err == nil || errors.Is(err, repo.ErrConditionFailed) {
		return nil
	}
	return apperror.StoreUnavailable("create profile", err)
}

// load returns the stored profile, creating the default one when missing.
func (s *ProfileService) load(ctx context.Context, userID string) (*entity.Profile, error) {
	p, err := s.Repo.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		s.Logger.WithError(err).WithField("user_id", userID).Error("get profile failed")
		return nil, apperror.StoreUnavailable("get profile", err)
	}

	def := entity.NewDefaultProfile(userID, utcNow(s.Clock))
	err = s.Repo.Create(ctx, def)
	switch {
	case err == nil:
		s.Logger.WithField("user_id", userID).Info("created missing default profile")
		return def, nil
	case errors.Is(err, repo.ErrConditionFailed):
		// created concurrently
		p, err = s.Repo.Get(ctx, userID)
		if err != nil {
			return nil, apperror.StoreUnavailable("get profile", err)
		}
		return p, nil
	default:
		s.Logger.WithError(err).WithField("user_id", userID).Error("create missing profile failed")
		return nil, apperror.StoreUnavailable("create profile", err)
	}
}

// GetTabs returns the user's tabs in display order.
func (s *ProfileService) GetTabs(ctx context.Context, userID string) ([]entity.Tab, error) {
	p, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	tabs := ReconcileTabs(p.Tabs, p.TabOrder)
	s.Logger.WithFields(logrus.Fields{"user_id": userID, "count": len(tabs)}).Debug("fetched tabs")
	return tabs, nil
}

// AddTab appends a tab derived from rawName. Adding a tab that already
// exists returns the stored tab.
func (s *ProfileService) AddTab(ctx context.Context, userID, rawName string) (entity.Tab, error) {
	tab, err := NewTab(rawName)
	if err != nil {
		return entity.Tab{}, err
	}
	log := s.Logger.WithFields(logrus.Fields{"user_id": userID, "tab_id": tab.TabID})

	for attempt := 0; attempt < 2; attempt++ {
		err := s.Repo.AppendTab(ctx, userID, tab, utcNow(s.Clock))
		if err == nil {
			log.Info("tab added")
			return tab, nil
		}
		if !errors.Is(err, repo.ErrConditionFailed) {
			log.WithError(err).Error("append tab failed")
			return entity.Tab{}, apperror.StoreUnavailable("add tab", err)
		}

		p, err := s.Repo.Get(ctx, userID)
		switch {
		case err == nil:
			if existing, ok := findTab(ReconcileTabs(p.Tabs, p.TabOrder), tab.TabID); ok {
				log.Debug("tab already exists")
				return existing, nil
			}
			log.Warn("tab add guard failed but tab not found")
			return entity.Tab{}, apperror.New(apperror.KindTabConflict, "tab creation conflict")
		case errors.Is(err, repo.ErrNotFound):
			log.Warn("profile missing while adding tab")
			if err := s.EnsureDefault(ctx, userID); err != nil {
				return entity.Tab{}, err
			}
		default:
			return entity.Tab{}, apperror.StoreUnavailable("get profile", err)
		}
	}
	return entity.Tab{}, apperror.New(apperror.KindTabConflict, "tab creation conflict")
}

// DeleteTabEntry removes tabID from the profile. Tasks are not touched.
func (s *ProfileService) DeleteTabEntry(ctx context.Context, userID, tabID string) (bool, error) {
	if tabID == entity.MainTabID {
		return false, apperror.New(apperror.KindForbidden, "the main tab cannot be deleted")
	}
	log := s.Logger.WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID})

	for attempt := 0; attempt < maxReplaceAttempts; attempt++ {
		p, err := s.Repo.Get(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn("no profile found during tab deletion")
			return true, nil
		}
		if err != nil {
			return false, apperror.StoreUnavailable("get profile", err)
		}

		next, changed := withoutTab(p, tabID)
		if !changed {
			return true, nil
		}
		next.UpdatedAt = utcNow(s.Clock)

		err = s.Repo.ReplaceTabs(ctx, next, p.UpdatedAt)
		if err == nil {
			log.Info("tab removed from profile")
			return true, nil
		}
		if !errors.Is(err, repo.ErrConditionFailed) {
			log.WithError(err).Error("replace tabs failed")
			return false, apperror.StoreUnavailable("delete tab", err)
		}
		log.WithField("attempt", attempt+1).Debug("profile changed concurrently, retrying")
	}
	return false, apperror.New(apperror.KindTabConflict, "profile changed concurrently")
}

func withoutTab(p *entity.Profile, tabID string) (*entity.Profile, bool) {
	next := p.Clone()
	changed := false

	next.Tabs = next.Tabs[:0]
	for _, t := range p.Tabs {
		if t.TabID == tabID {
			changed = true
			continue
		}
		next.Tabs = append(next.Tabs, t)
	}
	next.TabOrder = next.TabOrder[:0]
	for _, id := range p.TabOrder {
		if id == tabID {
			changed = true
			continue
		}
		next.TabOrder = append(next.TabOrder, id)
	}
	if next.ActiveTabID == tabID {
		next.ActiveTabID = entity.MainTabID
		changed = true
	}
	return next, changed
}

// GetActiveTab returns the preferred tab, "main" when none is stored.
func (s *ProfileService) GetActiveTab(ctx context.Context, userID string) (string, error) {
	p, err := s.Repo.Get(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return entity.MainTabID, nil
	}
	if err != nil {
		return "", apperror.StoreUnavailable("get profile", err)
	}
	if p.ActiveTabID == "" {
		return entity.MainTabID, nil
	}
	return p.ActiveTabID, nil
}

// SetActiveTab stores the preference; the tab id is not checked against the tab list.
func (s *ProfileService) SetActiveTab(ctx context.Context, userID, tabID string) error {
	if tabID == "" {
		return apperror.New(apperror.KindInvalidInput, "tabId is required")
	}
	if err := s.Repo.SetActiveTab(ctx, userID, tabID, utcNow(s.Clock)); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Error("set active tab failed")
		return apperror.StoreUnavailable("set active tab", err)
	}
	s.Logger.WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID}).Info("active tab set")
	return nil
}
