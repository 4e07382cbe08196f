// Package chroma implements the vector-store provider contract against a
// Chroma server's HTTP API.
package chroma

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/chronos-hq/chronos-agent/config"
	"github.com/chronos-hq/chronos-agent/index"
)

// Client talks to one Chroma collection. It implements index.VectorStore.
type Client struct {
	http         *resty.Client
	tenant       string
	database     string
	collection   string
	collectionID string
	logger       *zap.Logger
}

type collectionResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type getResponse struct {
	IDs []string `json:"ids"`
}

type queryResponse struct {
	IDs       [][]string         `json:"ids"`
	Documents [][]string         `json:"documents"`
	Distances [][]float64        `json:"distances"`
	Metadatas [][]map[string]any `json:"metadatas"`
}

// NewClient creates a Chroma client for the configured tenant, database,
// and collection
func NewClient(cfg config.ChromaConfig, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetHeader("x-chroma-token", cfg.APIKey)
	}

	return &Client{
		http:       httpClient,
		tenant:     cfg.Tenant,
		database:   cfg.Database,
		collection: cfg.Collection,
		logger:     logger,
	}
}

// Connect gets or creates the collection and caches its id for subsequent
// calls
func (c *Client) Connect(ctx context.Context) error {
	var collection collectionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"name":          c.collection,
			"get_or_create": true,
			"metadata":      map[string]any{"hnsw:space": "l2"},
		}).
		SetResult(&collection).
		Post(fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections", c.tenant, c.database))
	if err != nil {
		return fmt.Errorf("failed to reach chroma: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma get_or_create collection returned %s: %s", resp.Status(), resp.String())
	}
	if collection.ID == "" {
		return fmt.Errorf("chroma returned no collection id for %q", c.collection)
	}

	c.collectionID = collection.ID
	c.logger.Info("connected to chroma collection",
		zap.String("component", "chroma-client"),
		zap.String("collection", c.collection),
		zap.String("collectionID", c.collectionID))
	return nil
}

// ListIDs returns the ids of every record in the collection
func (c *Client) ListIDs(ctx context.Context) ([]string, error) {
	var result getResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{}).
		SetResult(&result).
		Post(c.collectionPath("get"))
	if err != nil {
		return nil, fmt.Errorf("failed to get chroma records: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chroma get returned %s: %s", resp.Status(), resp.String())
	}
	return result.IDs, nil
}

// Delete removes the given records from the collection
func (c *Client) Delete(ctx context.Context, ids []string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"ids": ids}).
		Post(c.collectionPath("delete"))
	if err != nil {
		return fmt.Errorf("failed to delete chroma records: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma delete returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}

// Add inserts records as a single batch
func (c *Client) Add(ctx context.Context, ids []string, documents []string, metadatas []map[string]any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"ids":       ids,
			"documents": documents,
			"metadatas": metadatas,
		}).
		Post(c.collectionPath("add"))
	if err != nil {
		return fmt.Errorf("failed to add chroma records: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chroma add returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}

// Query performs nearest-neighbor retrieval for one query text. Chroma
// returns one result row per query text; the single row is flattened.
func (c *Client) Query(ctx context.Context, queryText string, n int) (*index.Matches, error) {
	var result queryResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"query_texts": []string{queryText},
			"n_results":   n,
			"include":     []string{"documents", "distances", "metadatas"},
		}).
		SetResult(&result).
		Post(c.collectionPath("query"))
	if err != nil {
		return nil, fmt.Errorf("failed to query chroma: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chroma query returned %s: %s", resp.Status(), resp.String())
	}

	matches := &index.Matches{}
	if len(result.IDs) > 0 {
		matches.IDs = result.IDs[0]
	}
	if len(result.Documents) > 0 {
		matches.Documents = result.Documents[0]
	}
	if len(result.Distances) > 0 {
		matches.Distances = result.Distances[0]
	}
	if len(result.Metadatas) > 0 {
		matches.Metadatas = result.Metadatas[0]
	}
	return matches, nil
}

func (c *Client) collectionPath(op string) string {
	return fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/%s",
		c.tenant, c.database, c.collectionID, op)
}
