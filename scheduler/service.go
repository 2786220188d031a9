package scheduler

import (
	"context"
	"time"

	"github.com/linkpilot-ai/linkpilot/core/config"
	"github.com/linkpilot-ai/linkpilot/domains/content"
	"github.com/linkpilot-ai/linkpilot/domains/user"
	"github.com/linkpilot-ai/linkpilot/infrastructure/valkey"
	"github.com/sirupsen/logrus"
)

// PublishQueueName is the queue carrying publish dispatch tasks.
const PublishQueueName = "publishing"

// Service wires the mode selection, the sweeper for that mode, the engine
// and the maintenance jobs into one startable unit. The mode is fixed for
// the life of the process.
type Service struct {
	mode        Mode
	engine      *Engine
	queue       IQueue // nil in fallback mode
	poller      *Poller
	producer    *Producer
	maintenance *Maintenance
	horizon     time.Duration
}

// NewService probes the queue transport and assembles the matching topology.
// vk may be nil (no transport configured), which forces fallback mode.
func NewService(
	cfg config.SchedulerConfig,
	repo content.IContentRepository,
	users user.IUserRepository,
	publisher IPublisher,
	images IImageResolver,
	snapshotter ISnapshotter,
	maintStore IMaintenanceStore,
	vk *valkey.Client,
) *Service {
	engine := NewEngine(repo, users, publisher, images, cfg.MaxRetries, time.Duration(cfg.RetryBaseSec)*time.Second)

	mode := SelectMode(func() bool {
		return vk != nil && vk.IsConnected()
	})

	s := &Service{
		mode:    mode,
		engine:  engine,
		horizon: time.Duration(cfg.ImmediateHorizonSec) * time.Second,
	}

	if mode == ModeDistributed {
		s.queue = NewValkeyQueue(vk, PublishQueueName, cfg.MaxRetries)
		s.producer = NewProducer(repo, s.queue,
			time.Duration(cfg.SweepIntervalSec)*time.Second,
			time.Duration(cfg.SweepWindowSec)*time.Second,
			time.Duration(cfg.StalePublishingMin)*time.Minute)
		logrus.Info("[SCHEDULER] Queue transport reachable, running in distributed mode")
	} else {
		s.poller = NewPoller(repo, engine,
			time.Duration(cfg.PollIntervalSec)*time.Second,
			time.Duration(cfg.StalePublishingMin)*time.Minute)
		logrus.Info("[SCHEDULER] Queue transport unavailable, running in fallback mode")
	}

	s.maintenance = NewMaintenance(users, snapshotter, maintStore, s.queue)
	return s
}

// Mode returns the backend chosen at startup.
func (s *Service) Mode() Mode {
	return s.mode
}

// Queue returns the dispatch queue, or nil in fallback mode.
func (s *Service) Queue() IQueue {
	return s.queue
}

// Start launches the sweeper for the selected mode plus the maintenance
// jobs. It does not start queue workers; see StartWorker.
func (s *Service) Start(ctx context.Context) {
	if s.mode == ModeDistributed {
		go s.producer.Start(ctx)
	} else {
		go s.poller.Start(ctx)
	}
	s.maintenance.Start(ctx)
}

// StartWorker runs the distributed queue consumer loop. Blocks until ctx is
// cancelled; no-op in fallback mode.
func (s *Service) StartWorker(ctx context.Context) {
	if s.queue == nil {
		logrus.Warn("[SCHEDULER] StartWorker called in fallback mode, nothing to consume")
		return
	}
	s.queue.Start(ctx, s.Handle)
}

// Handle routes a queue task to its handler.
func (s *Service) Handle(ctx context.Context, task Task, attempt int) Result {
	switch task.Kind {
	case TaskSnapshot:
		return s.maintenance.HandleSnapshot(ctx, task, attempt)
	default:
		return s.engine.Attempt(ctx, task, attempt)
	}
}

// EnqueueImmediate is the low-latency path used when a client explicitly
// schedules an item due within the horizon: the task is enqueued right away
// with its exact delay instead of waiting for the next sweep tick.
//
// Best-effort by contract: any failure is swallowed because the periodic
// sweep discovers the item anyway. Uses the same dedup key as the sweep so a
// later overlapping tick cannot double-enqueue.
func (s *Service) EnqueueImmediate(ctx context.Context, item content.Item) {
	if s.mode != ModeDistributed || item.ScheduledAt == nil {
		return
	}
	delay := time.Until(*item.ScheduledAt)
	if delay > s.horizon {
		return
	}
	if delay < 0 {
		delay = 0
	}
	if err := s.queue.Enqueue(ctx, PublishKey(item.ID), taskFor(item), delay); err != nil {
		logrus.WithError(err).Warnf("[SCHEDULER] Immediate enqueue failed for item %s, sweep will pick it up", item.ID)
	}
}

// DispatchNow drives a publish-now request: the item must already be in
// `scheduled` with a due timestamp. Distributed mode enqueues with zero
// delay; fallback mode starts the attempt chain in this process.
func (s *Service) DispatchNow(ctx context.Context, item content.Item) error {
	if s.mode == ModeDistributed {
		return s.queue.Enqueue(ctx, PublishKey(item.ID), taskFor(item), 0)
	}
	go s.poller.Dispatch(ctx, taskFor(item), 0)
	return nil
}
