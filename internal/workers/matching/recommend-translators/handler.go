// internal/workers/matching/recommend-translators/handler.go
package recommendtranslators

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"translation-workers/internal/common/errors"
	"translation-workers/internal/common/logger"
	"translation-workers/internal/common/metrics"
	"translation-workers/internal/common/observability"
	"translation-workers/internal/common/validation"
	"translation-workers/internal/events"
	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

const (
	TaskType = "recommend-translators"
)

type Recommender interface {
	Recommend(ctx context.Context, order *models.Order, customerID string) (*recommendation.Result, error)
	Fallback(ctx context.Context, order *models.Order) ([]recommendation.Recommendation, error)
}

type EventEmitter interface {
	Emit(ctx context.Context, evt events.RecommendationsGenerated) error
}

type HandlerOptions struct {
	Config        *Config
	Recommender   Recommender
	Emitter       EventEmitter // nil disables events
	Observability *observability.Observability
	Logger        logger.Logger
}

type Handler struct {
	config       *Config
	recommender  Recommender
	emitter      EventEmitter
	obs          *observability.Observability
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Recommender == nil {
		return nil, fmt.Errorf("recommender is required")
	}

	validator, err := validation.NewValidator(cfg.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("input schema: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       cfg,
		recommender:  opts.Recommender,
		emitter:      opts.Emitter,
		obs:          opts.Observability,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.JobTimeout)
	defer cancel()

	input, stdErr := h.parseInput(job)
	if stdErr != nil {
		h.failJob(ctx, client, job, stdErr, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, h.toStandardError(err), start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

// Execute is the job logic without the engine round-trip.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, *errors.StandardError) {
	vars, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationFailedError([]string{fmt.Sprintf("parse variables: %v", err)})
	}

	result, err := h.validator.Validate(vars)
	if err != nil {
		return nil, errors.NewInputValidationFailedError([]string{err.Error()})
	}
	if !result.Valid {
		return nil, errors.NewInputValidationFailedError(result.Messages())
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputValidationFailedError([]string{fmt.Sprintf("parse input: %v", err)})
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", recommendation.ErrInvalidOrder)
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	order := input.ToOrder()

	recCtx, cancel := context.WithTimeout(ctx, h.config.RecommendTimeout)
	result, err := h.recommender.Recommend(recCtx, order, input.CustomerID)
	cancel()

	if err != nil {
		if stderrors.Is(err, recommendation.ErrInvalidOrder) {
			return nil, err
		}
		return h.fallback(ctx, input, order, err), nil
	}

	output := &Output{
		Recommendations:   toOutput(result.Recommendations, input.Limit),
		Fallback:          false,
		RequestID:         result.RequestID,
		FirstTimeCustomer: result.Diagnostics.FirstTimeCustomer,
	}

	h.logger.Info("recommendations generated", map[string]interface{}{
		"orderId":    input.OrderID,
		"requestId":  result.RequestID,
		"candidates": result.Diagnostics.CandidateCount,
		"returned":   len(output.Recommendations),
	})

	h.emit(ctx, input, result, false)
	return output, nil
}

// fallback completes the order with a content-only list so the process can
// proceed without collaborative evidence.
func (h *Handler) fallback(ctx context.Context, input *Input, order *models.Order, cause error) *Output {
	reason := fallbackReason(cause)
	metrics.RecommendationFallbacks.WithLabelValues(reason).Inc()

	h.logger.Warn("recommendation degraded to fallback", map[string]interface{}{
		"orderId": input.OrderID,
		"reason":  reason,
		"error":   cause.Error(),
	})

	var ranked []recommendation.Recommendation
	if reason != ReasonCatalogUnavailable {
		fbCtx, cancel := context.WithTimeout(ctx, h.config.FallbackTimeout)
		list, err := h.recommender.Fallback(fbCtx, order)
		cancel()
		if err != nil {
			h.logger.Warn("fallback catalog read failed, returning empty list", map[string]interface{}{
				"orderId": input.OrderID,
				"error":   err.Error(),
			})
		} else {
			ranked = list
		}
	}

	result := &recommendation.Result{
		RequestID:       uuid.NewString(),
		Recommendations: ranked,
	}
	h.emit(ctx, input, result, true)

	return &Output{
		Recommendations: toOutput(ranked, input.Limit),
		Fallback:        true,
		FallbackReason:  reason,
		RequestID:       result.RequestID,
	}
}

func fallbackReason(err error) string {
	switch {
	case stderrors.Is(err, recommendation.ErrRecommendationTimeout),
		stderrors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case stderrors.Is(err, recommendation.ErrCatalogUnavailable):
		return ReasonCatalogUnavailable
	case stderrors.Is(err, recommendation.ErrHistoryUnavailable):
		return ReasonHistoryUnavailable
	default:
		return ReasonUnexpected
	}
}

func (h *Handler) emit(ctx context.Context, input *Input, result *recommendation.Result, fallback bool) {
	if h.emitter == nil {
		return
	}

	pair := models.LanguagePair{Source: input.SourceLanguage, Target: input.TargetLanguage}
	evt := events.Snapshot(input.OrderID, input.CustomerID, pair.String(), result, fallback, h.config.EventTopN)

	emitCtx, cancel := context.WithTimeout(ctx, h.config.EventTimeout)
	defer cancel()

	if err := h.emitter.Emit(emitCtx, evt); err != nil {
		stdErr := errors.NewEventPublishFailedError(evt.EventType, err)
		h.logger.Warn("recommendation event not published", map[string]interface{}{
			"orderId":   input.OrderID,
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
	}
}

func (h *Handler) toStandardError(err error) *errors.StandardError {
	if stderrors.Is(err, recommendation.ErrInvalidOrder) {
		return errors.NewInvalidOrderError(err.Error())
	}
	return errors.Normalize(err)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	status := "success"
	if output.Fallback {
		status = "fallback"
	}
	h.record(ctx, status, start)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, stdErr *errors.StandardError, start time.Time) {
	h.record(ctx, "failed", start)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) record(ctx context.Context, status string, start time.Time) {
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, status)
	h.obs.RecordJobDuration(ctx, TaskType, elapsed, status)
}
