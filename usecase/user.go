package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/linkpilot-ai/linkpilot/generator"
	"github.com/linkpilot-ai/linkpilot/integrations/unipile"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/sirupsen/logrus"
)

const voiceSampleLimit = 20

type userService struct {
	users   user.IUserRepository
	unipile *unipile.Client
	writer  *generator.Ghostwriter
}

func NewUserService(users user.IUserRepository, up *unipile.Client, writer *generator.Ghostwriter) user.IUserUsecase {
	return &userService{users: users, unipile: up, writer: writer}
}

// Create provisions a new account. The user starts disconnected; the
// LinkedIn link is established later through the hosted-auth flow.
func (s *userService) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	if err := req.Validate(); err != nil {
		return user.User{}, pkgError.ValidationError(err.Error())
	}

	u := user.User{
		ID:               req.ID,
		LinkedinUsername: req.LinkedinUsername,
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return user.User{}, err
	}

	logrus.Infof("[USER] Created user %s (%s)", u.ID, u.LinkedinUsername)
	return u, nil
}

func (s *userService) Get(ctx context.Context, id string) (user.User, error) {
	if id == "" {
		return user.User{}, pkgError.ValidationError("id: cannot be blank.")
	}
	return s.users.GetByID(ctx, id)
}

// SetVoiceProfile stores a caller-supplied persona blob, e.g. one exported
// from a previous analysis run.
func (s *userService) SetVoiceProfile(ctx context.Context, id, profileJSON string) error {
	if strings.TrimSpace(profileJSON) == "" {
		return pkgError.ValidationError("voice_profile: cannot be blank.")
	}
	if !json.Valid([]byte(profileJSON)) {
		return pkgError.ValidationError("voice_profile: must be valid JSON.")
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.users.SetVoiceProfile(ctx, id, profileJSON); err != nil {
		return err
	}
	logrus.Infof("[USER] Voice profile set for user %s", id)
	return nil
}

// AnalyzeVoice builds the voice profile from the user's own LinkedIn posts
// and stores it, replacing any previous profile.
func (s *userService) AnalyzeVoice(ctx context.Context, id, provider string) (string, error) {
	owner, err := s.users.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !owner.Connected() {
		return "", pkgError.ValidationError("user has no connected LinkedIn account.")
	}

	posts, err := s.unipile.UserPosts(ctx, owner.UnipileAccountID, voiceSampleLimit)
	if err != nil {
		return "", fmt.Errorf("post fetch failed: %w", err)
	}
	samples := make([]string, 0, len(posts))
	for _, p := range posts {
		if strings.TrimSpace(p.Text) != "" {
			samples = append(samples, p.Text)
		}
	}
	if len(samples) == 0 {
		return "", pkgError.ValidationError("no posts available to analyze.")
	}

	profile, err := s.writer.AnalyzeVoice(ctx, id, samples, provider)
	if err != nil {
		return "", err
	}
	if err := s.users.SetVoiceProfile(ctx, id, profile); err != nil {
		return "", err
	}

	logrus.Infof("[USER] Voice profile analyzed from %d posts for user %s", len(samples), id)
	return profile, nil
}
