// Package catalog decides whether a name is a known food by looking it up in
// a vector index of food names.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/creastat/foodagent/fields"
	"github.com/creastat/foodagent/vectorstore"
)

// DefaultMinScore is the similarity a catalog hit needs to count as a match.
const DefaultMinScore = 0.82

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Checker implements fields.NameChecker against a vector catalog.
type Checker struct {
	embedder Embedder
	store    vectorstore.VectorStore
	minScore float32
	logger   *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithMinScore sets the acceptance threshold.
func WithMinScore(s float32) Option {
	return func(c *Checker) { c.minScore = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// NewChecker returns a Checker.
func NewChecker(e Embedder, store vectorstore.VectorStore, opts ...Option) *Checker {
	c := &Checker{
		embedder: e,
		store:    store,
		minScore: DefaultMinScore,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsFood implements fields.NameChecker.
func (c *Checker) IsFood(ctx context.Context, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}

	vec, err := c.embedder.Embed(ctx, name)
	if err != nil {
		return false, fmt.Errorf("embed %q: %w", name, err)
	}

	hits, err := c.store.Search(ctx, vec, vectorstore.SearchFilter{MinScore: c.minScore}, 1)
	if err != nil {
		return false, fmt.Errorf("catalog search: %w", err)
	}
	if len(hits) == 0 || hits[0].Score < c.minScore {
		c.logger.Debug("catalog miss", zap.String("name", name))
		return false, nil
	}

	c.logger.Debug("catalog hit",
		zap.String("name", name),
		zap.String("match", hits[0].Name),
		zap.Float32("score", hits[0].Score))
	return true, nil
}

// Chain accepts a name when any checker accepts it. Checkers run in order and
// the first acceptance wins. Errors are skipped; if no checker accepts and at
// least one failed, the joined errors are returned.
type Chain []fields.NameChecker

// IsFood implements fields.NameChecker.
func (ch Chain) IsFood(ctx context.Context, name string) (bool, error) {
	var errs []error
	for _, c := range ch {
		ok, err := c.IsFood(ctx, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return true, nil
		}
	}
	if len(errs) == len(ch) && len(errs) > 0 {
		return false, errors.Join(errs...)
	}
	return false, nil
}

// Item is a catalog entry to index.
type Item struct {
	Name     string `yaml:"name"`
	FoodType string `yaml:"food_type"`
}

// Seed embeds items and writes them into the index.
func Seed(ctx context.Context, e Embedder, idx vectorstore.Indexer, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = strings.ToLower(strings.TrimSpace(it.Name))
	}

	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalog: %w", err)
	}
	if len(vecs) != len(items) {
		return fmt.Errorf("embed catalog: got %d vectors for %d items", len(vecs), len(items))
	}

	entries := make([]vectorstore.Entry, len(items))
	for i, it := range items {
		entries[i] = vectorstore.Entry{Name: texts[i], FoodType: it.FoodType, Vector: vecs[i]}
	}
	return idx.Upsert(ctx, entries)
}

var (
	_ fields.NameChecker = (*Checker)(nil)
	_ fields.NameChecker = Chain(nil)
)
