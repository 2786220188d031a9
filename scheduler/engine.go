package scheduler

import (
	"context"
	"time"

	"github.com/linkpilot-ai/linkpilot/domains/content"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/sirupsen/logrus"
)

// IPublisher performs one network publish attempt against the social API.
// Implementations must return a ConfigurationError for "account not usable"
// so the engine can distinguish it from transient delivery errors.
type IPublisher interface {
	Publish(ctx context.Context, accountID, text string, image []byte) (string, error)
}

// IImageResolver fetches an attached image to bytes. Failures are best-effort:
// the engine publishes text-only rather than failing the item.
type IImageResolver interface {
	Resolve(ctx context.Context, url string) ([]byte, error)
}

// Engine drives one content item through scheduled -> publishing ->
// published | failed. It is shared by the fallback poller and the distributed
// queue workers; the caller owns the retry scheduling, the engine only
// reports what should happen next.
type Engine struct {
	repo       content.IContentRepository
	users      user.IUserRepository
	publisher  IPublisher
	images     IImageResolver
	maxRetries int
	retryBase  time.Duration
}

func NewEngine(
	repo content.IContentRepository,
	users user.IUserRepository,
	publisher IPublisher,
	images IImageResolver,
	maxRetries int,
	retryBase time.Duration,
) *Engine {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryBase <= 0 {
		retryBase = time.Minute
	}
	return &Engine{
		repo:       repo,
		users:      users,
		publisher:  publisher,
		images:     images,
		maxRetries: maxRetries,
		retryBase:  retryBase,
	}
}

// Backoff returns the delay before re-running attempt n: base * 2^n.
func (e *Engine) Backoff(attempt int) time.Duration {
	return e.retryBase << attempt
}

// MaxRetries returns the configured retry budget (number of retries after the
// first attempt).
func (e *Engine) MaxRetries() int {
	return e.maxRetries
}

// Attempt runs one delivery attempt for a publish task.
//
// On the first attempt the item is claimed via a conditional update that only
// fires while it is still `scheduled`; losing that race means another
// execution owns the item (or it was cancelled) and this attempt aborts
// silently. Retries re-enter with attempt > 0 and skip the claim: the item is
// already `publishing` and owned by this chain. Resume tasks skip it for the
// same reason; they re-drive an item that is `publishing` already.
func (e *Engine) Attempt(ctx context.Context, task Task, attempt int) Result {
	if attempt == 0 && !task.Resume {
		claimed, err := e.repo.ClaimScheduled(ctx, task.ItemID)
		if err != nil {
			// Store hiccup before the claim: the item is still `scheduled`,
			// so the next sweep re-discovers it. Abort rather than retry a
			// chain that never claimed its item.
			logrus.WithError(err).Errorf("[ENGINE] Claim failed for item %s", task.ItemID)
			return Success()
		}
		if !claimed {
			logrus.Debugf("[ENGINE] Item %s already claimed or no longer scheduled, skipping", task.ItemID)
			return Success()
		}
	}

	owner, err := e.users.GetByID(ctx, task.UserID)
	if err != nil {
		logrus.WithError(err).Errorf("[ENGINE] User lookup failed for item %s", task.ItemID)
		return e.retryOrFail(ctx, task, attempt, err)
	}
	if !owner.Connected() {
		logrus.Errorf("[ENGINE] Item %s failed: user %s has no connected account", task.ItemID, task.UserID)
		_ = e.repo.MarkFailed(ctx, task.ItemID, ErrAccountNotConnected.Error())
		return Terminal(ErrAccountNotConnected)
	}

	var image []byte
	if task.ImageURL != "" && e.images != nil {
		image, err = e.images.Resolve(ctx, task.ImageURL)
		if err != nil {
			// Image is best-effort: publish text-only instead of failing the item.
			logrus.WithError(err).Warnf("[ENGINE] Image resolve failed for item %s, publishing text-only", task.ItemID)
			image = nil
		}
	}

	externalID, err := e.publisher.Publish(ctx, owner.UnipileAccountID, task.Body, image)
	if err != nil {
		if IsConfiguration(err) {
			logrus.WithError(err).Errorf("[ENGINE] Item %s failed permanently", task.ItemID)
			_ = e.repo.MarkFailed(ctx, task.ItemID, err.Error())
			return Terminal(err)
		}
		return e.retryOrFail(ctx, task, attempt, err)
	}

	if err := e.repo.MarkPublished(ctx, task.ItemID, externalID); err != nil {
		// The post is live; losing the status write must not trigger a
		// second publish. Log and report success.
		logrus.WithError(err).Errorf("[ENGINE] Item %s published (%s) but status write failed", task.ItemID, externalID)
		return Success()
	}

	logrus.Infof("[ENGINE] Published item %s -> %s", task.ItemID, externalID)
	return Success()
}

// retryOrFail keeps the item in `publishing` and schedules the next attempt,
// or marks it failed once the budget is spent. Reverting to `scheduled` here
// would let an overlapping sweep re-enqueue the item under a fresh attempt
// counter, so a failing item never leaves `publishing` until terminal.
func (e *Engine) retryOrFail(ctx context.Context, task Task, attempt int, cause error) Result {
	if attempt >= e.maxRetries {
		final := &ExhaustedRetriesError{Attempts: attempt + 1, Last: cause}
		logrus.WithError(cause).Errorf("[ENGINE] Item %s failed after %d attempts", task.ItemID, attempt+1)
		_ = e.repo.MarkFailed(ctx, task.ItemID, final.Error())
		return Terminal(final)
	}
	delay := e.Backoff(attempt)
	logrus.WithError(cause).Warnf("[ENGINE] Item %s attempt %d failed, retrying in %s", task.ItemID, attempt, delay)
	return Retry(delay, cause)
}
