package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/taskhive/internal/application"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// AuditRepository appends authentication events to auth_audit_logs.
type AuditRepository struct {
	db execer
}

var _ application.AuditLog = (*AuditRepository)(nil)

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: pool}
}

func (r *AuditRepository) Record(ctx context.Context, e application.AuditEntry) error {
	meta := e.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO auth_audit_logs (user_id, username, action, ip, user_agent, metadata)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6)
	`, e.UserID, e.Username, e.Action, e.IP, e.UserAgent, b)
	return err
}
