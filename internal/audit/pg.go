package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PGSink appends audit entries to Postgres.
type PGSink struct {
	db *sql.DB
}

// NewPGSink returns a Sink over the given database handle.
func NewPGSink(db *sql.DB) *PGSink {
	return &PGSink{db: db}
}

// EnsureSchema creates the audit table when missing. The table is
// append-only; nothing in the console updates or deletes rows.
func (s *PGSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		create table if not exists audit_events (
			id bigserial primary key,
			occurred_at timestamptz not null,
			event text not null,
			request_id text not null default '',
			actor_id bigint not null default 0,
			actor_email text not null default '',
			fields jsonb not null default '{}'
		)`)
	if err != nil {
		return fmt.Errorf("audit: ensure schema: %w", err)
	}
	return nil
}

func (s *PGSink) Append(ctx context.Context, entry Entry) error {
	fields, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("audit: encode fields: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`insert into audit_events(occurred_at, event, request_id, actor_id, actor_email, fields)
		 values($1,$2,$3,$4,$5,$6)`,
		entry.OccurredAt, entry.Event, entry.RequestID, entry.ActorID, entry.ActorEmail, fields,
	)
	if err != nil {
		return fmt.Errorf("audit: append: %w", err)
	}
	return nil
}
