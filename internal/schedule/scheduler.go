package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Cron expressions for the built-in jobs, both in UTC.
const (
	// DailySpec fires every day at midnight.
	DailySpec = "0 0 * * *"

	// MonthlySpec fires on the first of every month at midnight.
	MonthlySpec = "0 0 1 * *"
)

// Scheduler runs registered jobs on cron schedules in UTC.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
	}
}

// OnTick registers a job to run on the given cron expression. The
// job's time argument is the tick it fires for.
func (s *Scheduler) OnTick(spec string, name string, job func(now time.Time)) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() {
		now := time.Now().UTC()
		log.Debug().Str("job", name).Time("tick", now).Msg("running scheduled job")
		job(now)
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
