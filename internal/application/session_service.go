package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/pkg/helpers"
)

var ErrSessionInvalid = errors.New("session invalid or expired")

// rotate sid only if the session still carries the presented one
var rotateSessionScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], "sid") ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "sid", ARGV[2], "refreshed_at", ARGV[3])
redis.call("PEXPIRE", KEYS[1], ARGV[4])
return 1
`)

// TokenPair is the access/refresh token pair handed to the browser as cookies.
type TokenPair struct {
	AccessToken      string    `json:"-"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// SessionService binds JWTs to a server-side session hash in Redis so a
// logout invalidates outstanding tokens.
type SessionService struct {
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Clock  clockwork.Clock
	Logger *logrus.Logger
}

func NewSessionService(jwt *helpers.JWTManager, rdb *redis.Client, clock clockwork.Clock, logger *logrus.Logger) *SessionService {
	return &SessionService{JWT: jwt, Redis: rdb, Clock: orRealClock(clock), Logger: orNopLogger(logger)}
}

func (s *SessionService) issueTokens(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessExpiresAt: aexp, RefreshToken: refresh, RefreshExpiresAt: rexp}, nil
}

// Issue starts a new session for id, replacing any previous one.
func (s *SessionService) Issue(ctx context.Context, id entity.Identity) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.issueTokens(id.UserID, sid)
	if err != nil {
		return TokenPair{}, err
	}

	key := helpers.SessionKey(id.UserID)
	now := utcNow(s.Clock).Format(time.RFC3339)
	pipe := s.Redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    id.UserID,
		"username":   id.Username,
		"sid":        sid,
		"logged_in":  "true",
		"created_at": now,
	})
	pipe.Expire(ctx, key, s.JWT.RefreshTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		s.Logger.WithError(err).WithField("user_id", id.UserID).Error("store session failed")
		return TokenPair{}, err
	}
	s.Logger.WithField("user_id", id.UserID).Debug("session issued")
	return pair, nil
}

func (s *SessionService) lookup(ctx context.Context, claims *helpers.Claims) (*entity.Identity, error) {
	data, err := s.Redis.HGetAll(ctx, helpers.SessionKey(claims.UserID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data["sid"] != claims.SessionID {
		return nil, ErrSessionInvalid
	}
	return &entity.Identity{UserID: claims.UserID, Username: data["username"]}, nil
}

// Verify resolves an access token to the identity of its live session.
func (s *SessionService) Verify(ctx context.Context, accessToken string) (*entity.Identity, error) {
	claims, err := s.JWT.ParseAccessToken(accessToken)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	return s.lookup(ctx, claims)
}

// Refresh exchanges a refresh token for a new pair and rotates the session id,
// so the old pair stops working.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (TokenPair, *entity.Identity, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrSessionInvalid
	}
	id, err := s.lookup(ctx, claims)
	if err != nil {
		return TokenPair{}, nil, err
	}

	sid := uuid.NewString()
	pair, err := s.issueTokens(id.UserID, sid)
	if err != nil {
		return TokenPair{}, nil, err
	}
	key := helpers.SessionKey(id.UserID)
	rotated, err := rotateSessionScript.Run(ctx, s.Redis, []string{key},
		claims.SessionID, sid, utcNow(s.Clock).Format(time.RFC3339), s.JWT.RefreshTTL.Milliseconds(),
	).Int()
	if err != nil {
		return TokenPair{}, nil, err
	}
	if rotated == 0 {
		// revoked or rotated by someone else since lookup
		return TokenPair{}, nil, ErrSessionInvalid
	}
	return pair, id, nil
}

// Revoke ends the user's session. Revoking a missing session is not an error.
func (s *SessionService) Revoke(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, helpers.SessionKey(userID)).Err()
}
