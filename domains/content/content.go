package content

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is the lifecycle state of a content item.
//
// The dispatch path only ever moves an item forward:
// scheduled -> publishing -> published | failed. An item in publishing stays
// there across retries; reverting to scheduled would let the sweeper
// re-discover it and reset the retry chain.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusApproved   Status = "approved"
	StatusScheduled  Status = "scheduled"
	StatusPublishing Status = "publishing"
	StatusPublished  Status = "published"
	StatusFailed     Status = "failed"
)

// Item is a piece of generated content owned by one user.
type Item struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Prompt         string     `json:"prompt,omitempty"`
	Body           string     `json:"body"`
	ImageURL       string     `json:"image_url,omitempty"`
	Status         Status     `json:"status"`
	ScheduledAt    *time.Time `json:"scheduled_at,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	ExternalPostID string     `json:"external_post_id,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the item has reached a final dispatch state.
func (i Item) IsTerminal() bool {
	return i.Status == StatusPublished || i.Status == StatusFailed
}

// UpdateRequest is the PATCH payload for a content item.
type UpdateRequest struct {
	Body        *string    `json:"body,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

// ScheduleRequest sets the future publish time for an item.
type ScheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

func (r ScheduleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ScheduledAt, validation.Required),
	)
}

// GenerateRequest asks for a new post draft in the user's voice.
type GenerateRequest struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"provider,omitempty"`
}

func (r GenerateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, validation.Required, validation.Length(1, 2000)),
	)
}

// IContentUsecase is the application service over content items.
type IContentUsecase interface {
	List(ctx context.Context, userID string, status Status) ([]Item, error)
	Get(ctx context.Context, userID, id string) (Item, error)
	Update(ctx context.Context, userID, id string, req UpdateRequest) (Item, error)
	Delete(ctx context.Context, userID, id string) error
	Schedule(ctx context.Context, userID, id string, req ScheduleRequest) (Item, error)
	PublishNow(ctx context.Context, userID, id string) (Item, error)
	Reschedule(ctx context.Context, userID, id string, req ScheduleRequest) (Item, error)
}

// IContentRepository is the durable store for content items.
//
// ClaimScheduled is the single concurrency guard of the dispatch path: it must
// be one conditional UPDATE (id + expected status), never read-then-write.
type IContentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id string) (Item, error)
	ListByUser(ctx context.Context, userID string, status Status) ([]Item, error)
	Update(ctx context.Context, id string, req UpdateRequest) (Item, error)
	Delete(ctx context.Context, id string) error

	// Dispatch-path operations.
	ListDue(ctx context.Context, before time.Time) ([]Item, error)
	ListDueWithin(ctx context.Context, horizon time.Time) ([]Item, error)
	ListStalePublishing(ctx context.Context, olderThan time.Time) ([]Item, error)
	ClaimScheduled(ctx context.Context, id string) (bool, error)
	MarkScheduled(ctx context.Context, id string, at time.Time) error
	MarkPublished(ctx context.Context, id, externalPostID string) error
	MarkFailed(ctx context.Context, id string, lastErr string) error
}
