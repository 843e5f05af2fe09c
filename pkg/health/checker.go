// Package health provides liveness and readiness probes for the KeshFlip
// services.
package health

import (
	"context"
	"time"
)

// DefaultTimeout bounds a full readiness run.
const DefaultTimeout = 5 * time.Second

type Status string

const (
	StatusUp   Status = "up"
	StatusDown Status = "down"
)

// Result is the outcome of a single check.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker probes one dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

func up() Result { return Result{Status: StatusUp} }

func down(err error) Result { return Result{Status: StatusDown, Message: err.Error()} }
