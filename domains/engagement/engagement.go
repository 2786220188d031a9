package engagement

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// CommentStatus tracks the lifecycle of a generated auto comment.
type CommentStatus string

const (
	CommentPending CommentStatus = "pending"
	CommentPosted  CommentStatus = "posted"
	CommentSkipped CommentStatus = "skipped"
	CommentFailed  CommentStatus = "failed"
)

// AutoComment is a generated comment targeting someone else's post.
type AutoComment struct {
	ID            string
	UserID        string
	TargetPostURL string
	TargetAuthor  string
	Body          string
	Status        CommentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreatorReport is a research digest about a followed creator, produced by a
// background job and kept for a limited retention window.
type CreatorReport struct {
	ID        string
	UserID    string
	Creator   string
	Body      string
	CreatedAt time.Time
}

type CommentRequest struct {
	UserID        string `json:"user_id"`
	TargetPostURL string `json:"target_post_url"`
	TargetAuthor  string `json:"target_author"`
	TargetHTML    string `json:"target_html"`
}

func (r CommentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.TargetPostURL, validation.Required, is.URL),
	)
}

// ResearchRequest asks for a digest about a followed creator. PostsHTML is
// the creator's recent post markup, scraped by the caller like CommentRequest
// supplies TargetHTML.
type ResearchRequest struct {
	UserID    string   `json:"user_id"`
	Creator   string   `json:"creator"`
	PostsHTML []string `json:"posts_html"`
	Provider  string   `json:"provider,omitempty"`
}

func (r ResearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required),
		validation.Field(&r.Creator, validation.Required),
		validation.Field(&r.PostsHTML, validation.Required),
	)
}

// IEngagementUsecase drafts comments in the user's voice and tracks their
// lifecycle.
type IEngagementUsecase interface {
	DraftComment(ctx context.Context, req CommentRequest) (AutoComment, error)
	ListComments(ctx context.Context, userID string) ([]AutoComment, error)
	SetCommentStatus(ctx context.Context, id string, status CommentStatus) error
	ResearchCreator(ctx context.Context, req ResearchRequest) (CreatorReport, error)
	ListReports(ctx context.Context, userID string) ([]CreatorReport, error)
}

type IEngagementRepository interface {
	Init(ctx context.Context) error
	CreateComment(ctx context.Context, c *AutoComment) error
	ListCommentsByUser(ctx context.Context, userID string) ([]AutoComment, error)
	UpdateCommentStatus(ctx context.Context, id string, status CommentStatus) error
	CreateReport(ctx context.Context, r *CreatorReport) error
	ListReportsByUser(ctx context.Context, userID string) ([]CreatorReport, error)
}
