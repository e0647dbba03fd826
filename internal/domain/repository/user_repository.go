package repository

import (
	"context"

	"github.com/oksasatya/taskhive/internal/domain/entity"
)

// CredentialRepository stores user identities keyed by username.
type CredentialRepository interface {
	// Create writes cred unless the username is taken (ErrConditionFailed).
	Create(ctx context.Context, cred *entity.UserCredential) error
	// GetByUsername returns ErrNotFound for unknown users and
	// ErrMalformedRecord when the stored hash is not a binary blob.
	GetByUsername(ctx context.Context, username string) (*entity.UserCredential, error)
}
