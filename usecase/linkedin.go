package usecase

import (
	"context"

	"github.com/linkpilot-ai/linkpilot/core/config"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/linkpilot-ai/linkpilot/integrations/unipile"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/sirupsen/logrus"
)

type linkedinService struct {
	users   user.IUserRepository
	unipile *unipile.Client
	baseURL string
}

func NewLinkedinService(users user.IUserRepository, up *unipile.Client, appCfg config.AppConfig) user.ILinkedinUsecase {
	return &linkedinService{users: users, unipile: up, baseURL: appCfg.BaseUrl}
}

// ConnectURL requests a hosted-auth link the user opens to connect LinkedIn.
func (s *linkedinService) ConnectURL(ctx context.Context, userID string) (string, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", err
	}
	return s.unipile.HostedAuthURL(ctx, s.baseURL+"/api/linkedin/callback")
}

// HandleCallback stores the provider account id delivered by the auth flow.
func (s *linkedinService) HandleCallback(ctx context.Context, userID, accountID string) error {
	if accountID == "" {
		return pkgError.ValidationError("account_id: cannot be blank.")
	}
	if err := s.users.SetUnipileAccount(ctx, userID, accountID); err != nil {
		return err
	}
	logrus.Infof("[LINKEDIN] User %s connected account %s", userID, accountID)
	return nil
}

func (s *linkedinService) Status(ctx context.Context, userID string) (user.ConnectionStatus, error) {
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return user.ConnectionStatus{}, err
	}
	return user.ConnectionStatus{
		Connected: owner.Connected(),
		AccountID: owner.UnipileAccountID,
	}, nil
}
