package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asteritime",
		Name:      "task_transitions_total",
		Help:      "Accepted task status transitions.",
	}, []string{"from", "to"})

	taskTransitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asteritime",
		Name:      "task_transitions_rejected_total",
		Help:      "Task status transitions refused by the lifecycle rules.",
	}, []string{"from", "to"})

	optimisticRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asteritime",
		Name:      "optimistic_retries_total",
		Help:      "Read-modify-write sequences restarted after a version mismatch.",
	}, []string{"entity"})

	optimisticConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asteritime",
		Name:      "optimistic_conflicts_total",
		Help:      "Version conflicts surfaced to callers after all attempts.",
	}, []string{"entity"})
)
