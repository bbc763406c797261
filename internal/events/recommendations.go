// internal/events/recommendations.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"translation-workers/internal/common/metrics"
	"translation-workers/internal/recommendation"
)

const EventRecommendationsGenerated = "translator.recommendations.generated"

type ScoredTranslator struct {
	TranslatorID string  `json:"translatorId"`
	HybridScore  float64 `json:"hybridScore"`
}

type RecommendationsGenerated struct {
	EventType         string             `json:"eventType"`
	RequestID         string             `json:"requestId"`
	OrderID           string             `json:"orderId"`
	CustomerID        string             `json:"customerId"`
	LanguagePair      string             `json:"languagePair"`
	Fallback          bool               `json:"fallback"`
	FirstTimeCustomer bool               `json:"firstTimeCustomer"`
	Top               []ScoredTranslator `json:"top"`
	OccurredAt        time.Time          `json:"occurredAt"`
}

// Snapshot builds the event for a ranked result, keeping the first topN entries.
func Snapshot(orderID, customerID, pair string, result *recommendation.Result, fallback bool, topN int) RecommendationsGenerated {
	evt := RecommendationsGenerated{
		EventType:    EventRecommendationsGenerated,
		OrderID:      orderID,
		CustomerID:   customerID,
		LanguagePair: pair,
		Fallback:     fallback,
		Top:          []ScoredTranslator{},
		OccurredAt:   time.Now().UTC(),
	}
	if result == nil {
		return evt
	}

	evt.RequestID = result.RequestID
	evt.FirstTimeCustomer = result.Diagnostics.FirstTimeCustomer
	for i, rec := range result.Recommendations {
		if topN > 0 && i >= topN {
			break
		}
		evt.Top = append(evt.Top, ScoredTranslator{TranslatorID: rec.Translator.ID, HybridScore: rec.HybridScore})
	}
	return evt
}

// Publisher is satisfied by aws.SNSClient.
type Publisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SNSEmitter publishes recommendation events to one topic.
type SNSEmitter struct {
	publisher Publisher
	topicARN  string
}

func NewSNSEmitter(publisher Publisher, topicARN string) *SNSEmitter {
	return &SNSEmitter{publisher: publisher, topicARN: topicARN}
}

func (e *SNSEmitter) Emit(ctx context.Context, evt RecommendationsGenerated) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = e.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(e.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(evt.EventType)},
		},
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(metrics.ResultFailure).Inc()
		return fmt.Errorf("publish %s: %w", evt.EventType, err)
	}
	metrics.EventsPublished.WithLabelValues(metrics.ResultSuccess).Inc()
	return nil
}
