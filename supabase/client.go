package supabase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/creastat/foodagent/inventory"
)

// DefaultTable is the table items are written to.
const DefaultTable = "food_stock"

// Config holds Supabase connection configuration
type Config struct {
	URL      string
	APIKey   string
	Table    string        // Default: food_stock
	CacheTTL time.Duration // Default: 5 minutes
	Logger   *zap.Logger
	Now      func() time.Time
}

// Client implements the Store interface using Supabase
type Client struct {
	client   *supabase.Client
	table    string
	cache    *cache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// cache provides thread-safe caching of items read or written by ID
type cache struct {
	mu   sync.RWMutex
	byID map[string]*cacheEntry[*inventory.Record]
}

type cacheEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a new Supabase client
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		client:   client,
		table:    cfg.Table,
		cacheTTL: cfg.CacheTTL,
		logger:   cfg.Logger,
		now:      cfg.Now,
		cache: &cache{
			byID: make(map[string]*cacheEntry[*inventory.Record]),
		},
	}, nil
}

// Commit implements inventory.Committer by inserting one food_stock row.
func (c *Client) Commit(ctx context.Context, item inventory.Item) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &inventory.StorageError{Op: "commit", Err: err}
	}

	rec, err := inventory.NewRecord(item, c.now())
	if err != nil {
		return "", &inventory.StorageError{Op: "commit", Err: err}
	}

	var rows []FoodStock
	_, err = c.client.From(c.table).
		Insert(fromRecord(rec), false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return "", &inventory.StorageError{Op: "commit", Err: fmt.Errorf("failed to insert food item: %w", err)}
	}

	if len(rows) > 0 {
		stored := rows[0].record()
		c.addToCache(&stored)
		rec.ID = stored.ID
	}

	c.logger.Info("food item stored in supabase",
		zap.String("id", rec.ID),
		zap.String("name", rec.Name))
	return rec.Describe(), nil
}

// GetItem retrieves an item by ID
func (c *Client) GetItem(ctx context.Context, id string) (*inventory.Record, error) {
	// Check cache first
	if cached := c.getFromCache(id); cached != nil {
		return cached, nil
	}

	var row FoodStock
	_, err := c.client.From(c.table).
		Select("*", "", false).
		Eq("id", id).
		Single().
		ExecuteTo(&row)
	if err != nil {
		return nil, &inventory.StorageError{Op: "get", Err: fmt.Errorf("failed to get food item: %w", err)}
	}

	rec := row.record()
	c.addToCache(&rec)
	return &rec, nil
}

// List implements inventory.Lister, newest first.
func (c *Client) List(ctx context.Context, p inventory.ListParams) ([]inventory.Record, error) {
	q := c.client.From(c.table).Select("*", "", false)
	if p.FoodType != "" {
		q = q.Eq("food_type", p.FoodType)
	}
	if p.StorageType != "" {
		q = q.Eq("storage_type", p.StorageType)
	}
	if !p.ExpiresBefore.IsZero() {
		q = q.Lte("expiry_date", p.ExpiresBefore.Format(time.DateOnly))
	}
	q = q.Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if p.Limit > 0 {
		q = q.Limit(p.Limit, "")
	}

	var rows []FoodStock
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, &inventory.StorageError{Op: "list", Err: fmt.Errorf("failed to list food items: %w", err)}
	}

	out := make([]inventory.Record, 0, len(rows))
	for _, row := range rows {
		rec := row.record()
		c.addToCache(&rec)
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the Supabase client
func (c *Client) Close() error {
	// Supabase client doesn't require explicit close
	return nil
}

// getFromCache retrieves an item from cache by ID
func (c *Client) getFromCache(id string) *inventory.Record {
	c.cache.mu.RLock()
	defer c.cache.mu.RUnlock()

	if e, ok := c.cache.byID[id]; ok {
		if c.now().Before(e.expiresAt) {
			return e.value
		}
	}
	return nil
}

// addToCache adds an item to cache
func (c *Client) addToCache(rec *inventory.Record) {
	if rec.ID == "" {
		return
	}
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()

	c.cache.byID[rec.ID] = &cacheEntry[*inventory.Record]{
		value:     rec,
		expiresAt: c.now().Add(c.cacheTTL),
	}
}

// Compile-time check that Client implements Store
var _ Store = (*Client)(nil)
