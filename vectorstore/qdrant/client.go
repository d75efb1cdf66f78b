package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/creastat/foodagent/vectorstore"
)

// DefaultCollection holds one point per known food name.
const DefaultCollection = "food_catalog"

// Config holds Qdrant connection configuration.
type Config struct {
	// URL is the Qdrant gRPC address (e.g., "https://example.qdrant.io:6334").
	URL string

	// CollectionName is the catalog collection. Default: food_catalog.
	CollectionName string

	// APIKey is optional API key for authentication.
	APIKey string
}

// Client implements vectorstore.VectorStore for Qdrant.
type Client struct {
	client         *qdrant.Client
	collectionName string
}

// New creates a new Qdrant client.
func New(cfg Config) (*Client, error) {
	qcfg, err := parseConfig(cfg)
	if err != nil {
		return nil, err
	}

	qdrantClient, err := qdrant.NewClient(qcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	collection := cfg.CollectionName
	if collection == "" {
		collection = DefaultCollection
	}
	return &Client{
		client:         qdrantClient,
		collectionName: collection,
	}, nil
}

// parseConfig splits the URL into host, port and TLS settings.
func parseConfig(cfg Config) (*qdrant.Config, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	raw := cfg.URL
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse qdrant url: %w", err)
	}

	port := 6334 // default gRPC port
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	return &qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: u.Scheme == "https",
	}, nil
}

// Search implements vectorstore.VectorStore.
func (c *Client) Search(ctx context.Context, vector []float32, filter vectorstore.SearchFilter, limit int) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = 1
	}
	query := &qdrant.QueryPoints{
		CollectionName: c.collectionName,
		Query:          qdrant.NewQueryDense(vector),
		Limit:          qdrant.PtrOf(uint64(limit)),
		Filter:         buildQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filter.MinScore > 0 {
		query.ScoreThreshold = qdrant.PtrOf(filter.MinScore)
	}

	points, err := c.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("catalog search in %s: %w", c.collectionName, err)
	}

	hits := make([]vectorstore.SearchResult, len(points))
	for i, p := range points {
		hits[i] = toResult(p.GetId(), p.GetScore(), p.GetPayload())
	}
	return hits, nil
}

// Upsert implements vectorstore.Indexer. Point IDs are derived from the
// name, so re-indexing a name replaces its point.
func (c *Client) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(PointID(e.Name)),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"name":      e.Name,
				"food_type": e.FoodType,
			}),
		})
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: c.collectionName,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("catalog upsert into %s: %w", c.collectionName, err)
	}
	return nil
}

// PointID is the deterministic point UUID for a food name.
func PointID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(name))).String()
}

// Close implements vectorstore.VectorStore.
func (c *Client) Close() error {
	return c.client.Close()
}

// toResult maps a scored point onto a catalog hit. Numeric IDs are kept for
// points written by other tools.
func toResult(id *qdrant.PointId, score float32, payload map[string]*qdrant.Value) vectorstore.SearchResult {
	r := vectorstore.SearchResult{
		ID:       id.GetUuid(),
		Score:    score,
		Name:     payload["name"].GetStringValue(),
		FoodType: payload["food_type"].GetStringValue(),
		Metadata: make(map[string]any, len(payload)),
	}
	if r.ID == "" && id != nil {
		r.ID = strconv.FormatUint(id.GetNum(), 10)
	}
	for k, v := range payload {
		if k == "name" || k == "food_type" {
			continue
		}
		if val := payloadValue(v); val != nil {
			r.Metadata[k] = val
		}
	}
	return r
}

// buildQdrantFilter turns a SearchFilter into must-match conditions; nil
// when nothing is filtered.
func buildQdrantFilter(filter vectorstore.SearchFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	if filter.FoodType != "" {
		must = append(must, qdrant.NewMatchKeyword("food_type", filter.FoodType))
	}
	for key, value := range filter.Metadata {
		must = append(must, matchPayload(key, value))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

func matchPayload(key string, value any) *qdrant.Condition {
	switch v := value.(type) {
	case bool:
		return qdrant.NewMatchBool(key, v)
	case int:
		return qdrant.NewMatchInt(key, int64(v))
	case int64:
		return qdrant.NewMatchInt(key, v)
	case string:
		return qdrant.NewMatchKeyword(key, v)
	default:
		return qdrant.NewMatchKeyword(key, fmt.Sprint(v))
	}
}

// payloadValue unwraps scalar payload values; lists and structs are dropped.
func payloadValue(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	}
	return nil
}

// Compile-time checks.
var (
	_ vectorstore.VectorStore = (*Client)(nil)
	_ vectorstore.Indexer     = (*Client)(nil)
)
