package user

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// User is an account holder. UnipileAccountID links the user to their
// connected LinkedIn account; empty means not connected.
type User struct {
	ID               string     `json:"id"`
	LinkedinUsername string     `json:"linkedin_username,omitempty"`
	UnipileAccountID string     `json:"unipile_account_id,omitempty"`
	VoiceProfile     string     `json:"voice_profile,omitempty"` // JSON blob produced by the analyzer
	LastScrapedAt    *time.Time `json:"last_scraped_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Connected reports whether the user has a usable publishing credential.
func (u User) Connected() bool {
	return u.UnipileAccountID != ""
}

type IUserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (User, error)
	ListConnected(ctx context.Context) ([]User, error)
	SetUnipileAccount(ctx context.Context, id, accountID string) error
	SetVoiceProfile(ctx context.Context, id, profileJSON string) error
}

// ConnectionStatus is the REST view of a user's LinkedIn link state.
type ConnectionStatus struct {
	Connected bool   `json:"connected"`
	AccountID string `json:"account_id,omitempty"`
}

// CreateRequest provisions a new account. ID is optional; a blank one gets a
// generated UUID.
type CreateRequest struct {
	ID               string `json:"id"`
	LinkedinUsername string `json:"linkedin_username"`
}

func (r CreateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LinkedinUsername, validation.Required),
	)
}

// IUserUsecase provisions accounts and manages the persona voice profile.
type IUserUsecase interface {
	Create(ctx context.Context, req CreateRequest) (User, error)
	Get(ctx context.Context, id string) (User, error)
	SetVoiceProfile(ctx context.Context, id, profileJSON string) error
	AnalyzeVoice(ctx context.Context, id, provider string) (string, error)
}

// ILinkedinUsecase manages the hosted-auth connection flow.
type ILinkedinUsecase interface {
	ConnectURL(ctx context.Context, userID string) (string, error)
	HandleCallback(ctx context.Context, userID, accountID string) error
	Status(ctx context.Context, userID string) (ConnectionStatus, error)
}
