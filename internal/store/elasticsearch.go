// internal/store/elasticsearch.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"translation-workers/internal/models"
	"translation-workers/internal/recommendation"
)

// DefaultSearchSize is the page size of one catalog search request.
const DefaultSearchSize = 500

// ElasticsearchCatalog reads translator profiles from a search index whose
// documents mirror the translators table.
type ElasticsearchCatalog struct {
	client *elasticsearch.Client
	index  string
	size   int
}

var _ recommendation.CatalogReader = (*ElasticsearchCatalog)(nil)

func NewElasticsearchCatalog(client *elasticsearch.Client, index string) *ElasticsearchCatalog {
	return &ElasticsearchCatalog{client: client, index: index, size: DefaultSearchSize}
}

type translatorDocument struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Languages  []string `json:"languages"`
	Expertise  []string `json:"expertise"`
	CustomTags []string `json:"customTags"`
	Rating     float64  `json:"rating"`
	Available  bool     `json:"available"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []struct {
			ID     string             `json:"_id"`
			Source translatorDocument `json:"_source"`
			Sort   []interface{}      `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// buildPairQuery matches documents listing both languages. Pages after the
// first continue from the previous page's last sort values.
func buildPairQuery(sourceLanguage, targetLanguage string, searchAfter []interface{}) map[string]interface{} {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"languages": sourceLanguage}},
					map[string]interface{}{"term": map[string]interface{}{"languages": targetLanguage}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": "asc"},
		},
		"track_total_hits": true,
	}
	if len(searchAfter) > 0 {
		query["search_after"] = searchAfter
	}
	return query
}

// FindTranslators pages through every matching document. A result shorter
// than the reported total is an error, never a partial candidate pool.
func (c *ElasticsearchCatalog) FindTranslators(ctx context.Context, sourceLanguage, targetLanguage string) ([]models.TranslatorProfile, error) {
	translators := make([]models.TranslatorProfile, 0)
	total := 0
	var searchAfter []interface{}

	for {
		page, err := c.search(ctx, buildPairQuery(sourceLanguage, targetLanguage, searchAfter))
		if err != nil {
			return nil, err
		}
		if page.Hits.Total.Value > total {
			total = page.Hits.Total.Value
		}

		for _, hit := range page.Hits.Hits {
			doc := hit.Source
			id := doc.ID
			if id == "" {
				id = hit.ID
			}
			translators = append(translators, models.TranslatorProfile{
				ID:         id,
				Name:       doc.Name,
				Languages:  nonNil(doc.Languages),
				Expertise:  nonNil(doc.Expertise),
				CustomTags: nonNil(doc.CustomTags),
				Rating:     clampRating(doc.Rating),
				Available:  doc.Available,
			})
		}

		hits := page.Hits.Hits
		if len(hits) < c.size || len(hits[len(hits)-1].Sort) == 0 || (total > 0 && len(translators) >= total) {
			break
		}
		searchAfter = hits[len(hits)-1].Sort
	}

	if total > len(translators) {
		return nil, fmt.Errorf("catalog search incomplete: %d of %d translators read", len(translators), total)
	}
	return translators, nil
}

func (c *ElasticsearchCatalog) search(ctx context.Context, query map[string]interface{}) (*searchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode catalog query: %w", err)
	}

	res, err := c.client.Search(
		c.client.Search.WithContext(ctx),
		c.client.Search.WithIndex(c.index),
		c.client.Search.WithBody(bytes.NewReader(body)),
		c.client.Search.WithSize(c.size),
	)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("catalog search error: %s: %s", res.Status(), bytes.TrimSpace(raw))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog search: %w", err)
	}
	return &parsed, nil
}
