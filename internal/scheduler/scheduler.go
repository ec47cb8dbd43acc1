package scheduler

import (
	"context"
	"time"
)

type JobKind string

const (
	// JobReassign runs the reassignment orchestrator for a cancelled
	// appointment.
	JobReassign JobKind = "reassign"
	// JobExpire fires when an offer's response window closes.
	JobExpire JobKind = "expire"
)

type Job struct {
	Kind          JobKind `json:"kind"`
	AppointmentID uint    `json:"appointment_id,omitempty"`
	LogID         uint    `json:"log_id,omitempty"`
}

// Scheduler enqueues a job to run at (or after) runAt. Implementations
// must be durable across process restarts.
type Scheduler interface {
	Schedule(ctx context.Context, job Job, runAt time.Time) error
}

// Handler consumes due jobs on the worker side.
type Handler func(ctx context.Context, job Job)
