// Package audit records security-relevant console events: sign-ins,
// sign-outs and denied access. Events always go to the structured log; a
// Postgres sink can be attached for a durable trail.
package audit

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"clinicore.org/internal/obs"
	"clinicore.org/internal/session"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit
// logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Entry is one audit event.
type Entry struct {
	OccurredAt time.Time
	Event      string
	RequestID  string
	ActorID    int64
	ActorEmail string
	Fields     map[string]any
}

// Sink persists audit entries beyond the log stream.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

var (
	sinkMu sync.RWMutex
	sink   Sink
)

// SetSink attaches (or, with nil, detaches) the durable sink.
func SetSink(s Sink) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = s
}

// LogEvent writes an audit event enriched with request and actor context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	entry := Entry{
		OccurredAt: time.Now().UTC(),
		Event:      event,
		RequestID:  requestIDFromContext(ctx),
		Fields:     fields,
	}
	if identity, ok := session.IdentityFromContext(ctx); ok {
		entry.ActorID = identity.ID
		entry.ActorEmail = identity.Email
	}

	line := map[string]any{
		"ts":    entry.OccurredAt.Format(time.RFC3339Nano),
		"type":  "audit",
		"event": entry.Event,
	}
	if entry.RequestID != "" {
		line["request_id"] = entry.RequestID
	}
	if entry.ActorEmail != "" {
		line["actor"] = entry.ActorEmail
	}
	if len(entry.Fields) > 0 {
		line["fields"] = entry.Fields
	} else {
		line["fields"] = map[string]any{}
	}
	obs.Log(line)

	sinkMu.RLock()
	s := sink
	sinkMu.RUnlock()
	if s == nil {
		return nil
	}
	return s.Append(ctx, entry)
}
