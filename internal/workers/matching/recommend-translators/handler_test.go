package recommendtranslators

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"translation-workers/internal/common/errors"
	"translation-workers/internal/common/logger"
	"translation-workers/internal/events"
	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
	"translation-workers/pkg/registry"
)

// ==========================
// Mock Implementations
// ==========================

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Recommend(ctx context.Context, order *models.Order, customerID string) (*recommendation.Result, error) {
	args := m.Called(ctx, order, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recommendation.Result), args.Error(1)
}

func (m *MockRecommender) Fallback(ctx context.Context, order *models.Order) ([]recommendation.Recommendation, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recommendation.Recommendation), args.Error(1)
}

type MockEmitter struct {
	mock.Mock
}

func (m *MockEmitter) Emit(ctx context.Context, evt events.RecommendationsGenerated) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "translation-order",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_RecommendTranslators",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createValidInput() *Input {
	return &Input{
		OrderID:        "order-100",
		CustomerID:     "customer-1",
		SourceLanguage: "en",
		TargetLanguage: "de",
		Tags:           []string{"legal"},
	}
}

func createInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"orderId", "customerId", "sourceLanguage", "targetLanguage"},
		"properties": map[string]interface{}{
			"orderId":         map[string]interface{}{"type": "string", "minLength": 1},
			"customerId":      map[string]interface{}{"type": "string"},
			"sourceLanguage":  map[string]interface{}{"type": "string", "minLength": 1},
			"targetLanguage":  map[string]interface{}{"type": "string", "minLength": 1},
			"tags":            map[string]interface{}{"type": []interface{}{"array", "null"}, "items": map[string]interface{}{"type": "string"}},
			"complexityScore": map[string]interface{}{"type": []interface{}{"number", "null"}, "minimum": 0, "maximum": 1},
			"limit":           map[string]interface{}{"type": "integer", "minimum": 1},
		},
	}
}

func rankedList(ids ...string) []recommendation.Recommendation {
	out := make([]recommendation.Recommendation, 0, len(ids))
	for i, id := range ids {
		score := 1.0 - float64(i)*0.1
		out = append(out, recommendation.Recommendation{
			Translator: models.TranslatorProfile{ID: id, Name: "Translator " + id, Available: true},
			ScoreRecord: recommendation.ScoreRecord{
				ContentScore:       score,
				CollaborativeScore: score / 2,
				HybridScore:        0.6*score + 0.4*score/2,
			},
		})
	}
	return out
}

func newTestHandler(t *testing.T, rec Recommender, emitter EventEmitter) *Handler {
	t.Helper()
	cfg := DefaultConfig()
	cfg.InputSchema = createInputSchema()

	h, err := NewHandler(HandlerOptions{
		Config:      cfg,
		Recommender: rec,
		Emitter:     emitter,
		Logger:      logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid configuration",
			opts: HandlerOptions{
				Config:      DefaultConfig(),
				Recommender: &MockRecommender{},
				Logger:      logger.NewNoOpLogger(),
			},
		},
		{
			name: "default config and logger",
			opts: HandlerOptions{
				Recommender: &MockRecommender{},
			},
		},
		{
			name: "missing recommender",
			opts: HandlerOptions{
				Config: DefaultConfig(),
			},
			wantErr: true,
			errMsg:  "recommender is required",
		},
		{
			name: "invalid job timeout",
			opts: HandlerOptions{
				Config: &Config{
					MaxJobsActive:    5,
					JobTimeout:       0,
					RecommendTimeout: time.Second,
					FallbackTimeout:  time.Second,
				},
				Recommender: &MockRecommender{},
			},
			wantErr: true,
			errMsg:  "timeout must be positive",
		},
		{
			name: "recommend timeout exceeds job timeout",
			opts: HandlerOptions{
				Config: &Config{
					MaxJobsActive:    5,
					JobTimeout:       time.Second,
					RecommendTimeout: 2 * time.Second,
					FallbackTimeout:  time.Second,
				},
				Recommender: &MockRecommender{},
			},
			wantErr: true,
			errMsg:  "recommend_timeout must not exceed the job timeout",
		},
		{
			name: "invalid fallback timeout",
			opts: HandlerOptions{
				Config: &Config{
					MaxJobsActive:    5,
					JobTimeout:       time.Second,
					RecommendTimeout: time.Second,
				},
				Recommender: &MockRecommender{},
			},
			wantErr: true,
			errMsg:  "fallback_timeout must be positive",
		},
		{
			name: "invalid max jobs active",
			opts: HandlerOptions{
				Config: &Config{
					JobTimeout:       time.Second,
					RecommendTimeout: time.Second,
					FallbackTimeout:  time.Second,
				},
				Recommender: &MockRecommender{},
			},
			wantErr: true,
			errMsg:  "max_jobs_active must be positive",
		},
		{
			name: "broken input schema",
			opts: HandlerOptions{
				Config: func() *Config {
					cfg := DefaultConfig()
					cfg.InputSchema = map[string]interface{}{"type": 12}
					return cfg
				}(),
				Recommender: &MockRecommender{},
			},
			wantErr: true,
			errMsg:  "input schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, handler)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, handler)
				assert.NotNil(t, handler.config)
				assert.NotNil(t, handler.logger)
				assert.NotNil(t, handler.validator)
			}
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	handler := newTestHandler(t, &MockRecommender{}, nil)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
		validate  func(*testing.T, *Input)
	}{
		{
			name: "valid input with all fields",
			variables: map[string]interface{}{
				"orderId":         "order-1",
				"customerId":      "customer-1",
				"sourceLanguage":  "en",
				"targetLanguage":  "fr",
				"tags":            []string{"legal", "contracts"},
				"complexityScore": 0.4,
				"limit":           3,
			},
			validate: func(t *testing.T, input *Input) {
				assert.Equal(t, "order-1", input.OrderID)
				assert.Equal(t, "customer-1", input.CustomerID)
				assert.Equal(t, "en", input.SourceLanguage)
				assert.Equal(t, "fr", input.TargetLanguage)
				assert.Equal(t, []string{"legal", "contracts"}, input.Tags)
				require.NotNil(t, input.ComplexityScore)
				assert.InDelta(t, 0.4, *input.ComplexityScore, 1e-9)
				assert.Equal(t, 3, input.Limit)
			},
		},
		{
			name: "valid input minimal fields",
			variables: map[string]interface{}{
				"orderId":        "order-2",
				"customerId":     "",
				"sourceLanguage": "en",
				"targetLanguage": "fr",
			},
			validate: func(t *testing.T, input *Input) {
				assert.Nil(t, input.Tags)
				assert.Nil(t, input.ComplexityScore)
				assert.Zero(t, input.Limit)
			},
		},
		{
			name: "missing target language",
			variables: map[string]interface{}{
				"orderId":        "order-3",
				"customerId":     "customer-1",
				"sourceLanguage": "en",
			},
			wantErr: true,
		},
		{
			name: "complexity out of range",
			variables: map[string]interface{}{
				"orderId":         "order-4",
				"customerId":      "customer-1",
				"sourceLanguage":  "en",
				"targetLanguage":  "fr",
				"complexityScore": 1.5,
			},
			wantErr: true,
		},
		{
			name: "zero limit",
			variables: map[string]interface{}{
				"orderId":        "order-5",
				"customerId":     "customer-1",
				"sourceLanguage": "en",
				"targetLanguage": "fr",
				"limit":          0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := createMockJob(1, tt.variables)
			input, stdErr := handler.parseInput(job)

			if tt.wantErr {
				require.NotNil(t, stdErr)
				assert.Equal(t, errors.ErrCodeInputValidationFailed, stdErr.Code)
				assert.Nil(t, input)
				return
			}
			require.Nil(t, stdErr)
			require.NotNil(t, input)
			if tt.validate != nil {
				tt.validate(t, input)
			}
		})
	}
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	rec := &MockRecommender{}
	emitter := &MockEmitter{}
	handler := newTestHandler(t, rec, emitter)

	input := createValidInput()
	input.Limit = 2

	rec.On("Recommend", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.ID == "order-100" && o.Status == models.OrderStatusPending
	}), "customer-1").Return(&recommendation.Result{
		RequestID:       "req-1",
		Recommendations: rankedList("t-1", "t-2", "t-3"),
		Diagnostics:     recommendation.Diagnostics{CandidateCount: 3, FirstTimeCustomer: true},
	}, nil)
	emitter.On("Emit", mock.Anything, mock.MatchedBy(func(evt events.RecommendationsGenerated) bool {
		return evt.OrderID == "order-100" && !evt.Fallback
	})).Return(nil)

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.False(t, output.Fallback)
	assert.Empty(t, output.FallbackReason)
	assert.Equal(t, "req-1", output.RequestID)
	assert.True(t, output.FirstTimeCustomer)
	require.Len(t, output.Recommendations, 2)
	assert.Equal(t, "t-1", output.Recommendations[0].TranslatorID)
	assert.Equal(t, "t-2", output.Recommendations[1].TranslatorID)
	rec.AssertNotCalled(t, "Fallback", mock.Anything, mock.Anything)
	rec.AssertExpectations(t)
	emitter.AssertExpectations(t)
}

func TestHandler_Execute_NullOrderFields(t *testing.T) {
	reg, err := registry.LoadRegistry(filepath.Join("..", "..", "..", "..", "configs", "activity-registry.json"))
	require.NoError(t, err)
	activity, err := reg.Find(TaskType)
	require.NoError(t, err)

	rec := &MockRecommender{}
	cfg := DefaultConfig()
	cfg.InputSchema = activity.InputSchema
	handler, err := NewHandler(HandlerOptions{Config: cfg, Recommender: rec, Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	input, stdErr := handler.parseInput(createMockJob(9, map[string]interface{}{
		"orderId":         "order-9",
		"customerId":      "customer-1",
		"sourceLanguage":  "en",
		"targetLanguage":  "fr",
		"tags":            nil,
		"complexityScore": nil,
	}))
	require.Nil(t, stdErr)
	require.NotNil(t, input)
	assert.Nil(t, input.Tags)
	assert.Nil(t, input.ComplexityScore)

	rec.On("Recommend", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.Tags != nil && len(o.Tags) == 0 && o.ComplexityScore == nil
	}), "customer-1").Return(&recommendation.Result{
		RequestID:       "req-9",
		Recommendations: rankedList("t-1"),
	}, nil)

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.False(t, output.Fallback)
	require.Len(t, output.Recommendations, 1)
	rec.AssertExpectations(t)
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	rec := &MockRecommender{}
	handler := newTestHandler(t, rec, nil)

	tests := []struct {
		name  string
		input *Input
	}{
		{name: "nil input", input: nil},
		{name: "missing order id", input: &Input{SourceLanguage: "en", TargetLanguage: "de"}},
		{name: "missing source language", input: &Input{OrderID: "o", TargetLanguage: "de"}},
		{name: "negative limit", input: &Input{OrderID: "o", SourceLanguage: "en", TargetLanguage: "de", Limit: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, recommendation.ErrInvalidOrder))
			assert.Equal(t, errors.ErrCodeInvalidOrder, handler.toStandardError(err).Code)
		})
	}
	rec.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_InvalidOrderFromRecommender(t *testing.T) {
	rec := &MockRecommender{}
	handler := newTestHandler(t, rec, nil)

	rec.On("Recommend", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: complexity out of range", recommendation.ErrInvalidOrder))

	output, err := handler.Execute(context.Background(), createValidInput())

	assert.Nil(t, output)
	assert.True(t, stderrors.Is(err, recommendation.ErrInvalidOrder))
	rec.AssertNotCalled(t, "Fallback", mock.Anything, mock.Anything)
}

func TestHandler_Execute_Fallback(t *testing.T) {
	tests := []struct {
		name           string
		cause          error
		wantReason     string
		fallbackCalled bool
		fallbackList   []recommendation.Recommendation
		fallbackErr    error
		wantIDs        []string
	}{
		{
			name:           "timeout degrades to content-only list",
			cause:          fmt.Errorf("%w: 5s", recommendation.ErrRecommendationTimeout),
			wantReason:     ReasonTimeout,
			fallbackCalled: true,
			fallbackList:   rankedList("t-9", "t-4"),
			wantIDs:        []string{"t-9", "t-4"},
		},
		{
			name:           "history failure degrades to content-only list",
			cause:          fmt.Errorf("%w: connection refused", recommendation.ErrHistoryUnavailable),
			wantReason:     ReasonHistoryUnavailable,
			fallbackCalled: true,
			fallbackList:   rankedList("t-2"),
			wantIDs:        []string{"t-2"},
		},
		{
			name:       "catalog failure returns empty list",
			cause:      fmt.Errorf("%w: breaker open", recommendation.ErrCatalogUnavailable),
			wantReason: ReasonCatalogUnavailable,
			wantIDs:    []string{},
		},
		{
			name:           "fallback read failure returns empty list",
			cause:          stderrors.New("boom"),
			wantReason:     ReasonUnexpected,
			fallbackCalled: true,
			fallbackErr:    recommendation.ErrCatalogUnavailable,
			wantIDs:        []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &MockRecommender{}
			emitter := &MockEmitter{}
			handler := newTestHandler(t, rec, emitter)

			rec.On("Recommend", mock.Anything, mock.Anything, "customer-1").Return(nil, tt.cause)
			if tt.fallbackCalled {
				if tt.fallbackErr != nil {
					rec.On("Fallback", mock.Anything, mock.Anything).Return(nil, tt.fallbackErr)
				} else {
					rec.On("Fallback", mock.Anything, mock.Anything).Return(tt.fallbackList, nil)
				}
			}
			emitter.On("Emit", mock.Anything, mock.MatchedBy(func(evt events.RecommendationsGenerated) bool {
				return evt.Fallback
			})).Return(nil)

			output, err := handler.Execute(context.Background(), createValidInput())

			require.NoError(t, err)
			require.NotNil(t, output)
			assert.True(t, output.Fallback)
			assert.Equal(t, tt.wantReason, output.FallbackReason)
			assert.NotEmpty(t, output.RequestID)

			ids := make([]string, 0, len(output.Recommendations))
			for _, r := range output.Recommendations {
				ids = append(ids, r.TranslatorID)
			}
			assert.Equal(t, tt.wantIDs, ids)

			if !tt.fallbackCalled {
				rec.AssertNotCalled(t, "Fallback", mock.Anything, mock.Anything)
			}
			rec.AssertExpectations(t)
			emitter.AssertExpectations(t)
		})
	}
}

func TestHandler_Execute_EmitFailureIsNotFatal(t *testing.T) {
	rec := &MockRecommender{}
	emitter := &MockEmitter{}
	handler := newTestHandler(t, rec, emitter)

	rec.On("Recommend", mock.Anything, mock.Anything, mock.Anything).Return(&recommendation.Result{
		RequestID:       "req-2",
		Recommendations: rankedList("t-1"),
	}, nil)
	emitter.On("Emit", mock.Anything, mock.Anything).Return(stderrors.New("sns throttled"))

	output, err := handler.Execute(context.Background(), createValidInput())

	require.NoError(t, err)
	require.Len(t, output.Recommendations, 1)
	assert.False(t, output.Fallback)
	emitter.AssertNumberOfCalls(t, "Emit", 1)
}

func TestFallbackReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{recommendation.ErrRecommendationTimeout, ReasonTimeout},
		{context.DeadlineExceeded, ReasonTimeout},
		{fmt.Errorf("wrapped: %w", recommendation.ErrCatalogUnavailable), ReasonCatalogUnavailable},
		{recommendation.ErrHistoryUnavailable, ReasonHistoryUnavailable},
		{stderrors.New("other"), ReasonUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackReason(tt.err))
		})
	}
}
