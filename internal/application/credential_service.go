package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
	repo "github.com/oksasatya/taskhive/internal/domain/repository"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

// CredentialService registers users and checks their passwords.
type CredentialService struct {
	Repo       repo.CredentialRepository
	Profiles   *ProfileService
	Clock      clockwork.Clock
	Logger     *logrus.Logger
	BcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewCredentialService(r repo.CredentialRepository, profiles *ProfileService, clock clockwork.Clock, logger *logrus.Logger, bcryptCost int) *CredentialService {
	return &CredentialService{
		Repo:       r,
		Profiles:   profiles,
		Clock:      orRealClock(clock),
		Logger:     orNopLogger(logger),
		BcryptCost: bcryptCost,
	}
}

// Register creates the credential record and the user's default profile. A
// failed profile write is logged; GetTabs recreates the profile later.
func (s *CredentialService) Register(ctx context.Context, username, password string) (*entity.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "username and password are required")
	}
	if len(password) > helpers.MaxPasswordBytes {
		return nil, apperror.New(apperror.KindInvalidInput, fmt.Sprintf("password must be at most %d bytes", helpers.MaxPasswordBytes))
	}
	log := s.Logger.WithField("username", username)

	_, err := s.Repo.GetByUsername(ctx, username)
	switch {
	case err == nil, errors.Is(err, repo.ErrMalformedRecord):
		log.Warn("registration for existing username")
		return nil, apperror.New(apperror.KindAlreadyExists, "username already exists")
	case errors.Is(err, repo.ErrNotFound):
	default:
		log.WithError(err).Error("lookup user failed")
		return nil, apperror.StoreUnavailable("lookup user", err)
	}

	hash, err := helpers.HashPassword(password, s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	cred := &entity.UserCredential{
		Username:     username,
		UserID:       uuid.NewString(),
		PasswordHash: hash,
		CreatedAt:    utcNow(s.Clock),
	}
	if err := s.Repo.Create(ctx, cred); err != nil {
		if errors.Is(err, repo.ErrConditionFailed) {
			log.Warn("username taken concurrently")
			return nil, apperror.New(apperror.KindAlreadyExists, "username already exists")
		}
		log.WithError(err).Error("create user failed")
		return nil, apperror.StoreUnavailable("create user", err)
	}

	if s.Profiles != nil {
		if err := s.Profiles.EnsureDefault(ctx, cred.UserID); err != nil {
			log.WithError(err).WithField("user_id", cred.UserID).Warn("default profile not created at registration")
		}
	}
	log.WithField("user_id", cred.UserID).Info("user registered")
	return &entity.Identity{UserID: cred.UserID, Username: cred.Username}, nil
}

// Authenticate verifies username and password. Unknown users and wrong
// passwords both yield InvalidCredentials.
func (s *CredentialService) Authenticate(ctx context.Context, username, password string) (*entity.Identity, error) {
	username = strings.TrimSpace(username)
	invalid := apperror.New(apperror.KindInvalidCredentials, "invalid username or password")
	if username == "" || password == "" {
		return nil, invalid
	}
	log := s.Logger.WithField("username", username)

	cred, err := s.Repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		s.burnCompare(password)
		log.Warn("login for unknown username")
		return nil, invalid
	case errors.Is(err, repo.ErrMalformedRecord):
		log.WithError(err).Error("stored credential has wrong format")
		return nil, apperror.New(apperror.KindCorruptCredential, "authentication data format error")
	case err != nil:
		log.WithError(err).Error("lookup user failed")
		return nil, apperror.StoreUnavailable("lookup user", err)
	}

	ok, err := helpers.ComparePassword(cred.PasswordHash, password)
	if err != nil {
		log.WithError(err).WithField("user_id", cred.UserID).Error("stored password hash unusable")
		return nil, apperror.New(apperror.KindCorruptCredential, "authentication data format error")
	}
	if !ok {
		log.Warn("wrong password")
		return nil, invalid
	}
	log.WithField("user_id", cred.UserID).Info("user authenticated")
	return &entity.Identity{UserID: cred.UserID, Username: cred.Username}, nil
}

// burnCompare spends one bcrypt comparison so unknown usernames take as long
// as wrong passwords.
func (s *CredentialService) burnCompare(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = helpers.HashPassword(uuid.NewString(), s.BcryptCost)
	})
	if len(s.dummyHash) > 0 {
		_, _ = helpers.ComparePassword(s.dummyHash, password)
	}
}
