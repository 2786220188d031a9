package usecase

import (
	"context"
	"time"

	domainContent "github.com/linkpilot-ai/linkpilot/domains/content"
	pkgError "github.com/linkpilot-ai/linkpilot/pkg/error"
	"github.com/linkpilot-ai/linkpilot/scheduler"
	"github.com/sirupsen/logrus"
)

type contentService struct {
	repo      domainContent.IContentRepository
	scheduler *scheduler.Service
}

func NewContentService(repo domainContent.IContentRepository, sched *scheduler.Service) domainContent.IContentUsecase {
	return &contentService{repo: repo, scheduler: sched}
}

func (s *contentService) List(ctx context.Context, userID string, status domainContent.Status) ([]domainContent.Item, error) {
	if userID == "" {
		return nil, pkgError.ValidationError("user id: cannot be blank.")
	}
	return s.repo.ListByUser(ctx, userID, status)
}

func (s *contentService) Get(ctx context.Context, userID, id string) (domainContent.Item, error) {
	return s.owned(ctx, userID, id)
}

func (s *contentService) Update(ctx context.Context, userID, id string, req domainContent.UpdateRequest) (domainContent.Item, error) {
	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return domainContent.Item{}, err
	}
	switch item.Status {
	case domainContent.StatusPublished:
		return domainContent.Item{}, pkgError.ValidationError("published items cannot be edited.")
	case domainContent.StatusPublishing:
		return domainContent.Item{}, pkgError.ValidationError("item is currently publishing.")
	}
	if req.Status != nil && *req.Status == domainContent.StatusPublished {
		return domainContent.Item{}, pkgError.ValidationError("status: cannot be set to published directly.")
	}

	updated, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return domainContent.Item{}, err
	}

	// Editing the schedule re-enters the immediate path when the new time is
	// close enough.
	if req.ScheduledAt != nil {
		s.scheduler.EnqueueImmediate(ctx, updated)
	}
	return updated, nil
}

func (s *contentService) Delete(ctx context.Context, userID, id string) error {
	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	switch item.Status {
	case domainContent.StatusPublished:
		return pkgError.ValidationError("published items cannot be deleted.")
	case domainContent.StatusPublishing:
		return pkgError.ValidationError("item is currently publishing.")
	}
	return s.repo.Delete(ctx, id)
}

// Schedule marks the item for future publishing and, when the time is within
// the immediate horizon, eagerly enqueues the dispatch task.
func (s *contentService) Schedule(ctx context.Context, userID, id string, req domainContent.ScheduleRequest) (domainContent.Item, error) {
	if err := req.Validate(); err != nil {
		return domainContent.Item{}, pkgError.ValidationError(err.Error())
	}

	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return domainContent.Item{}, err
	}
	switch item.Status {
	case domainContent.StatusPublished:
		return domainContent.Item{}, pkgError.ValidationError("item is already published.")
	case domainContent.StatusPublishing:
		return domainContent.Item{}, pkgError.ValidationError("item is currently publishing.")
	}

	if err := s.repo.MarkScheduled(ctx, id, req.ScheduledAt); err != nil {
		return domainContent.Item{}, err
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainContent.Item{}, err
	}

	logrus.Infof("[CONTENT] Item %s scheduled for %s", id, req.ScheduledAt.UTC().Format(time.RFC3339))
	s.scheduler.EnqueueImmediate(ctx, updated)
	return updated, nil
}

// PublishNow schedules the item for the current instant and dispatches it
// without waiting for a sweep tick.
func (s *contentService) PublishNow(ctx context.Context, userID, id string) (domainContent.Item, error) {
	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return domainContent.Item{}, err
	}
	switch item.Status {
	case domainContent.StatusPublished:
		return domainContent.Item{}, pkgError.ValidationError("item is already published.")
	case domainContent.StatusPublishing:
		return domainContent.Item{}, pkgError.ValidationError("item is currently publishing.")
	}

	now := time.Now().UTC()
	if err := s.repo.MarkScheduled(ctx, id, now); err != nil {
		return domainContent.Item{}, err
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainContent.Item{}, err
	}

	if err := s.scheduler.DispatchNow(ctx, updated); err != nil {
		// The item is scheduled and due, so the sweep will still publish it.
		logrus.WithError(err).Warnf("[CONTENT] Immediate dispatch failed for item %s", id)
	}
	return updated, nil
}

// Reschedule re-enters a failed item into the dispatch path with a fresh
// attempt chain.
func (s *contentService) Reschedule(ctx context.Context, userID, id string, req domainContent.ScheduleRequest) (domainContent.Item, error) {
	if err := req.Validate(); err != nil {
		return domainContent.Item{}, pkgError.ValidationError(err.Error())
	}

	item, err := s.owned(ctx, userID, id)
	if err != nil {
		return domainContent.Item{}, err
	}
	if item.Status != domainContent.StatusFailed {
		return domainContent.Item{}, pkgError.ValidationError("only failed items can be rescheduled.")
	}

	if err := s.repo.MarkScheduled(ctx, id, req.ScheduledAt); err != nil {
		return domainContent.Item{}, err
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainContent.Item{}, err
	}

	logrus.Infof("[CONTENT] Failed item %s rescheduled for %s", id, req.ScheduledAt.UTC().Format(time.RFC3339))
	s.scheduler.EnqueueImmediate(ctx, updated)
	return updated, nil
}

func (s *contentService) owned(ctx context.Context, userID, id string) (domainContent.Item, error) {
	if id == "" {
		return domainContent.Item{}, pkgError.ValidationError("id: cannot be blank.")
	}
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainContent.Item{}, err
	}
	if userID != "" && item.UserID != userID {
		return domainContent.Item{}, pkgError.NotFoundError("content item not found")
	}
	return item, nil
}
