package usecase

import (
	"context"

	domainEngagement "github.com/linkpilot-ai/linkpilot/domains/engagement"
	"github.com/linkpilot-ai/linkpilot/generator"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/sirupsen/logrus"
)

type engagementService struct {
	repo   domainEngagement.IEngagementRepository
	writer *generator.Ghostwriter
}

func NewEngagementService(repo domainEngagement.IEngagementRepository, writer *generator.Ghostwriter) domainEngagement.IEngagementUsecase {
	return &engagementService{repo: repo, writer: writer}
}

// DraftComment generates an in-voice comment for the target post and stores
// it in `pending` for the user to approve.
func (s *engagementService) DraftComment(ctx context.Context, req domainEngagement.CommentRequest) (domainEngagement.AutoComment, error) {
	if err := req.Validate(); err != nil {
		return domainEngagement.AutoComment{}, pkgError.ValidationError(err.Error())
	}

	body, err := s.writer.GenerateComment(ctx, req.UserID, req.TargetAuthor, req.TargetHTML, "")
	if err != nil {
		return domainEngagement.AutoComment{}, err
	}

	comment := domainEngagement.AutoComment{
		UserID:        req.UserID,
		TargetPostURL: req.TargetPostURL,
		TargetAuthor:  req.TargetAuthor,
		Body:          body,
		Status:        domainEngagement.CommentPending,
	}
	if err := s.repo.CreateComment(ctx, &comment); err != nil {
		return domainEngagement.AutoComment{}, err
	}

	logrus.Infof("[ENGAGEMENT] Drafted comment %s for user %s", comment.ID, req.UserID)
	return comment, nil
}

func (s *engagementService) ListComments(ctx context.Context, userID string) ([]domainEngagement.AutoComment, error) {
	if userID == "" {
		return nil, pkgError.ValidationError("user id: cannot be blank.")
	}
	return s.repo.ListCommentsByUser(ctx, userID)
}

func (s *engagementService) SetCommentStatus(ctx context.Context, id string, status domainEngagement.CommentStatus) error {
	switch status {
	case domainEngagement.CommentPosted, domainEngagement.CommentSkipped, domainEngagement.CommentFailed:
	default:
		return pkgError.ValidationError("status: must be posted, skipped or failed.")
	}
	return s.repo.UpdateCommentStatus(ctx, id, status)
}

// ResearchCreator produces and stores a digest about a followed creator.
// Stored reports are purged by the retention job after their window expires.
func (s *engagementService) ResearchCreator(ctx context.Context, req domainEngagement.ResearchRequest) (domainEngagement.CreatorReport, error) {
	if err := req.Validate(); err != nil {
		return domainEngagement.CreatorReport{}, pkgError.ValidationError(err.Error())
	}

	body, err := s.writer.ResearchCreator(ctx, req.UserID, req.Creator, req.PostsHTML, req.Provider)
	if err != nil {
		return domainEngagement.CreatorReport{}, err
	}

	report := domainEngagement.CreatorReport{
		UserID:  req.UserID,
		Creator: req.Creator,
		Body:    body,
	}
	if err := s.repo.CreateReport(ctx, &report); err != nil {
		return domainEngagement.CreatorReport{}, err
	}

	logrus.Infof("[ENGAGEMENT] Research report %s on %s stored for user %s", report.ID, req.Creator, req.UserID)
	return report, nil
}

func (s *engagementService) ListReports(ctx context.Context, userID string) ([]domainEngagement.CreatorReport, error) {
	if userID == "" {
		return nil, pkgError.ValidationError("user id: cannot be blank.")
	}
	return s.repo.ListReportsByUser(ctx, userID)
}
