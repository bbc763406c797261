// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Resolution is what the handler does with a failed job.
type Resolution struct {
	Throw   bool
	Retries int
	Error   *BPMNError
}

// ErrorHandler turns worker errors into fail or throw-error commands.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Resolve decides between failing the job with retries and throwing a
// BPMN error, without talking to the engine.
func (h *ErrorHandler) Resolve(job entities.Job, err error) Resolution {
	stdErr := Normalize(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := bpmnErr.Retries
	if retries > 0 && job.Retries > 0 {
		if int(job.Retries) < retries {
			retries = int(job.Retries)
		}
		return Resolution{Throw: false, Retries: retries, Error: bpmnErr}
	}
	return Resolution{Throw: true, Error: bpmnErr}
}

func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.Resolve(job, err)
	h.logError(job, res)

	payload, marshalErr := json.Marshal(res.Error.ToErrorVariables())

	if !res.Throw {
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(int32(res.Retries)).
			ErrorMessage(res.Error.Message)
		if marshalErr == nil {
			if withVars, varErr := cmd.VariablesFromString(string(payload)); varErr == nil {
				_, _ = withVars.Send(ctx)
				return
			}
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(res.Error.Code).
		ErrorMessage(res.Error.Message)
	if marshalErr == nil {
		if withVars, varErr := cmd.VariablesFromString(string(payload)); varErr == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) logError(job entities.Job, res Resolution) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        res.Error.Code,
		"message":          res.Error.Message,
		"details":          res.Error.Details,
		"retryable":        res.Error.Retryable,
		"retries":          res.Retries,
		"thrown":           res.Throw,
		"errorCategory":    GetErrorCategory(ErrorCode(res.Error.Code)),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
