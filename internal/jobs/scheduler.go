package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Job is a unit of scheduled maintenance work
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs registered jobs on cron schedules. It is a thin layer
// over gocron that adds logging and a shared cancellation context.
type Scheduler struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler with UTC cron evaluation
func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: scheduler,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Register schedules a job with a standard 5-field cron expression
func (s *Scheduler) Register(cronExpr string, job Job) error {
	_, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			log.Printf("▶️  [SCHEDULER] Running job: %s", job.Name())
			start := time.Now()
			if err := job.Run(s.ctx); err != nil {
				log.Printf("❌ [SCHEDULER] Job '%s' failed: %v", job.Name(), err)
				return
			}
			log.Printf("✅ [SCHEDULER] Job '%s' completed in %v", job.Name(), time.Since(start))
		}),
		gocron.WithName(job.Name()),
	)
	if err != nil {
		return fmt.Errorf("failed to register job %s: %w", job.Name(), err)
	}

	log.Printf("⏰ [SCHEDULER] Registered job '%s' with schedule %q", job.Name(), cronExpr)
	return nil
}

// Start begins running registered jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	log.Printf("🚀 [SCHEDULER] Started with %d jobs", len(s.scheduler.Jobs()))
}

// Stop cancels the job context and shuts the scheduler down
func (s *Scheduler) Stop() error {
	log.Println("🛑 [SCHEDULER] Stopping...")
	s.cancel()
	return s.scheduler.Shutdown()
}
