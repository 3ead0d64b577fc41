// Package notify fans contract lifecycle events out to live dashboards and the
// event stream. Publishing is best effort and never fails the operation that
// produced the event.
package notify

import (
	"context"
	"sync"
	"time"

	"contractbuilder/internal/model"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	EventContractCreated  = "contract.created"
	EventContractSent     = "contract.sent"
	EventContractSigned   = "contract.signed"
	EventContractRejected = "contract.rejected"
	EventContractDeleted  = "contract.deleted"
)

// Event describes a state change of one contract. contract.sent doubles as the
// hand-off to the mail sender downstream of the event stream.
type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	ContractID     string    `json:"contract_id"`
	ContractNumber string    `json:"contract_number"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	ProviderID     string    `json:"provider_id"`
	ProviderEmail  string    `json:"provider_email,omitempty"`
	ProviderName   string    `json:"provider_name,omitempty"`
	ActorID        string    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NewEvent snapshots the contract into an event with a sortable id.
func NewEvent(eventType string, contract *model.Contract, actorID uuid.UUID) Event {
	e := Event{
		ID:             ulid.Make().String(),
		Type:           eventType,
		ContractID:     contract.ID.String(),
		ContractNumber: contract.ContractNumber,
		Title:          contract.Title,
		Status:         contract.Status,
		ProviderID:     contract.ProviderID.String(),
		OccurredAt:     time.Now().UTC(),
	}
	if actorID != uuid.Nil {
		e.ActorID = actorID.String()
	}
	if contract.Provider != nil {
		e.ProviderEmail = contract.Provider.Email
		e.ProviderName = contract.Provider.Name
	}
	return e
}

// Multi publishes to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types lists the published event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
