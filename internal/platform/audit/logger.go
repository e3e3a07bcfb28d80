package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Entry describes one administrative mutation.
type Entry struct {
	ID             string                 `json:"id"`
	ActorID        string                 `json:"actor_id"`
	OrganizationID string                 `json:"organization_id"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	IPAddress      string                 `json:"ip_address,omitempty"`
	UserAgent      string                 `json:"user_agent,omitempty"`
	CreatedAt      int64                  `json:"created_at"`
}

const (
	ActionOrganizationCreated = "organization.created"
	ActionOrganizationUpdated = "organization.updated"
	ActionOrganizationBlocked = "organization.block_changed"
	ActionMemberJoined        = "membership.joined"
	ActionMemberAdded         = "membership.added"
	ActionMemberBlocked       = "membership.block_changed"
	ActionMemberRemoved       = "membership.removed"
	ActionProfileRenamed      = "profile.renamed"
)

type Logger struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLogger(db *sql.DB, logger zerolog.Logger) *Logger {
	return &Logger{db: db, logger: logger}
}

// Record writes e. A failed write is logged and never surfaces to the caller:
// the audited operation has already happened.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if e.ID == "" {
		e.ID = "audit_" + uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	if req, ok := RequestFrom(ctx); ok {
		e.IPAddress, e.UserAgent = req.IPAddress, req.UserAgent
		if e.Metadata == nil {
			e.Metadata = map[string]interface{}{}
		}
		e.Metadata["client"] = req.client().String()
	}

	metaJSON, _ := json.Marshal(e.Metadata)

	query := `
		INSERT INTO audit_logs (id, actor_id, organization_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := l.db.ExecContext(ctx, query, e.ID, e.ActorID, e.OrganizationID, e.Action, e.ResourceType, e.ResourceID,
		string(metaJSON), e.IPAddress, e.UserAgent, e.CreatedAt); err != nil {
		l.logger.Error().Err(err).Str("action", e.Action).Str("resource_id", e.ResourceID).Msg("failed to write audit entry")
	}
}

// List returns the newest entries, optionally restricted to one organization.
func (l *Logger) List(ctx context.Context, orgID string, limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, actor_id, organization_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at FROM audit_logs`
	args := []interface{}{}
	if orgID != "" {
		query += ` WHERE organization_id = ?`
		args = append(args, orgID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var metaStr string
		if err := rows.Scan(&e.ID, &e.ActorID, &e.OrganizationID, &e.Action, &e.ResourceType, &e.ResourceID, &metaStr, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		json.Unmarshal([]byte(metaStr), &e.Metadata)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
