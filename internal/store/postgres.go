// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"translation-workers/internal/models"
)

const (
	queryTranslatorsByPair = `
		SELECT id, name, languages, expertise, custom_tags, rating, available
		FROM translators
		WHERE $1 = ANY(languages) AND $2 = ANY(languages)
		ORDER BY id`

	queryOrdersByCustomer = `
		SELECT id, customer_id, source_language, target_language, tags,
		       complexity_score, status, created_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id`

	queryCompletedOrdersByPair = `
		SELECT id, customer_id, source_language, target_language, tags,
		       complexity_score, status, created_at
		FROM orders
		WHERE source_language = $1 AND target_language = $2 AND status = 'completed'
		ORDER BY created_at DESC, id`

	queryAssignmentsByOrders = `
		SELECT id, order_id, translator_id, assigned_at
		FROM order_assignments
		WHERE order_id = ANY($1)
		ORDER BY assigned_at, id`
)

// PostgresStore reads the catalog and order history from PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindTranslators(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.TranslatorProfile, error) {
	rows, err := s.db.QueryContext(ctx, queryTranslatorsByPair, sourceLanguage, targetLanguage)
	if err != nil {
		return nil, fmt.Errorf("query translators: %w", err)
	}
	defer rows.Close()

	var translators []models.TranslatorProfile
	for rows.Next() {
		var (
			t                                models.TranslatorProfile
			languages, expertise, customTags pq.StringArray
			rating                           sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Name, &languages, &expertise, &customTags, &rating, &t.Available); err != nil {
			return nil, fmt.Errorf("scan translator: %w", err)
		}
		t.Languages = nonNil(languages)
		t.Expertise = nonNil(expertise)
		t.CustomTags = nonNil(customTags)
		t.Rating = clampRating(rating.Float64)
		translators = append(translators, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate translators: %w", err)
	}
	return translators, nil
}

func (s *PostgresStore) FindCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, queryOrdersByCustomer, customerID)
	if err != nil {
		return nil, fmt.Errorf("query customer orders: %w", err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// FindCompletedOrders loads completed orders of the pair and attaches their
// assignments with a single batched query.
func (s *PostgresStore) FindCompletedOrders(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, queryCompletedOrdersByPair, sourceLanguage, targetLanguage)
	if err != nil {
		return nil, fmt.Errorf("query completed orders: %w", err)
	}
	orders, err := scanOrders(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	arows, err := s.db.QueryContext(ctx, queryAssignmentsByOrders, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query assignments: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var (
			a            models.Assignment
			translatorID sql.NullString
		)
		if err := arows.Scan(&a.ID, &a.OrderID, &translatorID, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		// NULL translator ids stay empty and are skipped by the scorer.
		a.TranslatorID = translatorID.String

		if i, ok := index[a.OrderID]; ok {
			orders[i].Assignments = append(orders[i].Assignments, a)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return orders, nil
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var (
			o          models.Order
			tags       pq.StringArray
			complexity sql.NullFloat64
			status     string
			createdAt  time.Time
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.SourceLanguage, &o.TargetLanguage,
			&tags, &complexity, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}

		parsed, err := models.ParseOrderStatus(status)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		o.Status = parsed
		o.Tags = nonNil(tags)
		o.CreatedAt = createdAt
		if complexity.Valid && complexity.Float64 >= 0 && complexity.Float64 <= 1 {
			score := complexity.Float64
			o.ComplexityScore = &score
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func nonNil(values pq.StringArray) []string {
	if values == nil {
		return []string{}
	}
	return []string(values)
}

func clampRating(rating float64) float64 {
	switch {
	case rating < 0:
		return 0
	case rating > models.StoredRatingScale:
		return models.StoredRatingScale
	default:
		return rating
	}
}
