package errors

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// JobErrorHandler reports a failed job back to the broker. Retryable codes
// fail the job with retries left; everything else fails it with none so an
// incident is raised.
type JobErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewJobErrorHandler(logger Logger) *JobErrorHandler {
	return &JobErrorHandler{logger: logger}
}

func (h *JobErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := Normalize(err)
	retries := RemainingRetries(stdErr, job.Retries)

	fields := ToErrorVariables(stdErr)
	fields["jobKey"] = job.Key
	fields["jobType"] = job.Type
	fields["retries"] = retries
	fields["workflowInstance"] = job.ProcessInstanceKey
	h.logger.Error("job failed", fields)

	_, sendErr := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(stdErr.Error()).
		Send(ctx)
	if sendErr != nil {
		h.logger.Error("failed to send fail job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

// RemainingRetries is the retry count to report for a failed job: zero for
// non-retryable codes, otherwise the policy count bounded by what the job
// has left.
func RemainingRetries(e *StandardError, jobRetries int32) int32 {
	if !e.Retryable {
		return 0
	}
	policy := int32(GetRetryCount(e.Code))
	if policy == 0 || jobRetries <= 0 {
		return 0
	}
	if jobRetries < policy {
		policy = jobRetries
	}
	return policy - 1
}

// Normalize converts any error into a StandardError.
func Normalize(err error) *StandardError {
	for e := err; e != nil; {
		if stdErr, ok := e.(*StandardError); ok {
			return stdErr
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func ToErrorVariables(e *StandardError) map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":     string(e.Code),
		"errorMessage":  e.Message,
		"errorDetails":  e.Details,
		"retryable":     e.Retryable,
		"errorCategory": GetErrorCategory(e.Code),
		"timestamp":     e.Timestamp.Format(time.RFC3339),
	}
	for k, v := range e.Metadata {
		vars[k] = v
	}
	return vars
}
