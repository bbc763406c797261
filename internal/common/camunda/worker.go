// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"translation-workers/internal/common/config"
	"translation-workers/internal/common/logger"
)

// JobWorkerFactory is the part of zbc.Client the registry needs.
type JobWorkerFactory interface {
	NewJobWorker() worker.JobWorkerBuilderStep1
}

// HandlerFunc is the Zeebe job handler signature every worker exposes.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// Registry opens job workers and closes them together on shutdown.
type Registry struct {
	factory    JobWorkerFactory
	workerName string
	logger     logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewRegistry(factory JobWorkerFactory, workerName string, log logger.Logger) *Registry {
	return &Registry{
		factory:    factory,
		workerName: workerName,
		logger:     log,
		workers:    make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType unless it is disabled in wcfg. It
// reports whether a worker was opened.
func (r *Registry) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.workers[taskType]; ok {
		r.logger.Warn("worker already started", map[string]interface{}{"taskType": taskType})
		return false
	}

	builder := r.factory.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		Name(r.workerName)
	if wcfg.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(wcfg.MaxJobsActive)
	}
	if wcfg.Timeout > 0 {
		builder = builder.Timeout(time.Duration(wcfg.Timeout) * time.Millisecond)
	}
	r.workers[taskType] = builder.Open()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the task types with an open worker.
func (r *Registry) TaskTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.workers))
	for t := range r.workers {
		out = append(out, t)
	}
	return out
}

// Close stops polling and waits for in-flight jobs of every worker.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for taskType, w := range r.workers {
		w.Close()
		w.AwaitClose()
		r.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	r.workers = make(map[string]worker.JobWorker)
}
