// internal/workers/matching/filter-translators/handler.go
package filtertranslators

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"translation-workers/internal/common/errors"
	"translation-workers/internal/common/logger"
	"translation-workers/internal/common/metrics"
	"translation-workers/internal/common/observability"
	"translation-workers/internal/common/validation"
	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

const (
	TaskType = "filter-translators"
)

type HandlerOptions struct {
	Config        *Config
	Catalog       recommendation.CatalogReader
	Observability *observability.Observability
	Logger        logger.Logger
}

// Handler serves the language-only match: catalog translators for the pair
// without any scoring.
type Handler struct {
	config       *Config
	catalog      recommendation.CatalogReader
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
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog reader is required")
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
		catalog:      opts.Catalog,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, stdErr := h.parseInput(job)
	if stdErr != nil {
		h.failJob(ctx, client, job, stdErr, start)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, h.toStandardError(input, err), start)
		return
	}

	h.record(ctx, "success", start)
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

	profiles, err := h.catalog.FindTranslators(ctx, input.SourceLanguage, input.TargetLanguage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", recommendation.ErrCatalogUnavailable, err)
	}

	translators := filterAndSort(profiles, input.IncludeUnavailable)
	h.logger.Info("translators filtered", map[string]interface{}{
		"sourceLanguage": input.SourceLanguage,
		"targetLanguage": input.TargetLanguage,
		"catalog":        len(profiles),
		"returned":       len(translators),
	})

	return &Output{Translators: translators, Count: len(translators)}, nil
}

func (h *Handler) toStandardError(input *Input, err error) *errors.StandardError {
	switch {
	case stderrors.Is(err, recommendation.ErrInvalidOrder):
		return errors.NewInvalidOrderError(err.Error())
	case stderrors.Is(err, recommendation.ErrCatalogUnavailable):
		pair := models.LanguagePair{Source: input.SourceLanguage, Target: input.TargetLanguage}
		return errors.NewCatalogReadFailedError(pair.String(), err)
	default:
		return errors.Normalize(err)
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
