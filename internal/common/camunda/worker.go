// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"github.com/Hopenghu/hopenghucc-sub004/internal/common/config"
	"github.com/Hopenghu/hopenghucc-sub004/internal/common/logger"
)

// StartWorker opens a job worker for taskType. Zero settings fall back to
// the broker-level defaults in fallback.
func StartWorker(client zbc.Client, taskType string, cfg config.WorkerConfig, fallback config.CamundaConfig, handler worker.JobHandler, log logger.Logger) worker.JobWorker {
	maxJobs := cfg.MaxJobsActive
	if maxJobs <= 0 {
		maxJobs = fallback.MaxJobsActive
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = fallback.Timeout
	}

	w := client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(maxJobs).
		Timeout(time.Duration(timeout) * time.Millisecond).
		Open()

	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": maxJobs,
		"timeoutMs":     timeout,
	})
	return w
}
