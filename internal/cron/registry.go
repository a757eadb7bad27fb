package cron

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Job is one unit of work the cron worker runs while it holds the leader
// lock. Name doubles as the metrics label and the log field.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Periodic jobs run at most once per Every instead of on every cycle.
type Periodic interface {
	Every() time.Duration
}

type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry rejects blank and duplicate job names so lastRun bookkeeping
// and metric labels stay unambiguous.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{names: make(map[string]struct{}, len(jobs))}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("register job: nil job")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("register job: blank name")
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("register job: %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

// cadence is zero for jobs that run on every cycle.
func cadence(job Job) time.Duration {
	if p, ok := job.(Periodic); ok {
		return p.Every()
	}
	return 0
}
