package application

import "context"

// Auth audit actions
const (
	AuditRegister         = "register"
	AuditRegisterConflict = "register_conflict"
	AuditLoginSuccess     = "login_success"
	AuditLoginFailure     = "login_failure"
	AuditLogout           = "logout"
)

type AuditEntry struct {
	UserID    string
	Username  string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

// AuditLog records authentication events.
type AuditLog interface {
	Record(ctx context.Context, e AuditEntry) error
}

type NopAuditLog struct{}

func (NopAuditLog) Record(context.Context, AuditEntry) error { return nil }
