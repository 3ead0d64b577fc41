// Package audit records who did what to which entity. Recording never fails the
// caller: storage errors are logged and dropped.
package audit

import (
	"context"
	"encoding/json"
	"sync"

	"contractbuilder/internal/model"
	"contractbuilder/internal/repository"
	"contractbuilder/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry is one audit record before it is persisted.
type Entry struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Details    map[string]interface{}
}

type Sink interface {
	Record(ctx context.Context, entry Entry)
}

type clientKey struct{}

// Client identifies the caller of a request for the audit trail.
type Client struct {
	IPAddress string
	UserAgent string
}

// WithClient stores the caller's address and user agent on ctx.
func WithClient(ctx context.Context, client Client) context.Context {
	return context.WithValue(ctx, clientKey{}, client)
}

func ClientFrom(ctx context.Context) Client {
	client, _ := ctx.Value(clientKey{}).(Client)
	return client
}

// StoreSink writes entries to the audit_logs table.
type StoreSink struct {
	repo repository.AuditRepository
}

func NewStoreSink(repo repository.AuditRepository) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Record(ctx context.Context, entry Entry) {
	log := toModel(ctx, entry)
	if err := s.repo.Log(ctx, log); err != nil {
		logger.Error(ctx, "failed to write audit log",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"entity_id", entry.EntityID,
			"error", err,
		)
	}
}

func toModel(ctx context.Context, entry Entry) *model.AuditLog {
	client := ClientFrom(ctx)
	log := &model.AuditLog{
		UserID:     entry.UserID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		IPAddress:  client.IPAddress,
		UserAgent:  client.UserAgent,
	}
	if len(entry.Details) > 0 {
		if raw, err := json.Marshal(entry.Details); err == nil {
			log.Details = datatypes.JSON(raw)
		} else {
			logger.Warn(ctx, "audit details not serialisable", "action", entry.Action, "error", err)
		}
	}
	return log
}

// MemorySink keeps entries in memory. It is safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) Record(_ context.Context, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *MemorySink) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Actions lists the recorded action names in order.
func (m *MemorySink) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}
