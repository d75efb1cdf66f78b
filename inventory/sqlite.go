package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Committer and Lister on a local SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex // guards entropy
	entropy *rand.Rand
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithSQLiteLogger sets the logger.
func WithSQLiteLogger(l *zap.Logger) SQLiteOption {
	return func(s *SQLiteStore) { s.logger = l }
}

// WithSQLiteClock overrides time.Now.
func WithSQLiteClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) { s.now = now }
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, opts ...SQLiteOption) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		logger:  zap.NewNop(),
		now:     time.Now,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS food_stock (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		food_type        TEXT NOT NULL,
		nutrient         TEXT NOT NULL,
		storage_type     TEXT NOT NULL,
		stock_date       TEXT NOT NULL,
		expiry_date      TEXT NOT NULL,
		expiry_estimated INTEGER NOT NULL DEFAULT 0,
		quantity_value   REAL NOT NULL,
		quantity_unit    TEXT NOT NULL,
		caller           TEXT,
		created_at       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_food_stock_type ON food_stock(food_type);
	CREATE INDEX IF NOT EXISTS idx_food_stock_expiry ON food_stock(expiry_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Commit implements Committer.
func (s *SQLiteStore) Commit(ctx context.Context, item Item) (string, error) {
	now := s.now()
	rec, err := NewRecord(item, now)
	if err != nil {
		return "", &StorageError{Op: "commit", Err: err}
	}
	rec.ID = s.newID(now)

	var caller sql.NullString
	if len(rec.Caller) > 0 {
		b, err := json.Marshal(rec.Caller)
		if err != nil {
			return "", &StorageError{Op: "commit", Err: err}
		}
		caller = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO food_stock (id, name, food_type, nutrient, storage_type, stock_date, expiry_date,
			expiry_estimated, quantity_value, quantity_unit, caller, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.FoodType, rec.Nutrient, rec.StorageType,
		rec.StockDate.Format(dateKey), rec.ExpiryDate.Format(dateKey),
		rec.ExpiryEstimated, rec.QuantityValue, rec.QuantityUnit, caller,
		rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", &StorageError{Op: "commit", Err: err}
	}

	s.logger.Info("food item stored",
		zap.String("id", rec.ID),
		zap.String("name", rec.Name),
		zap.String("food_type", rec.FoodType))
	return rec.Describe(), nil
}

// List implements Lister.
func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if p.FoodType != "" {
		where = append(where, "food_type = ?")
		args = append(args, p.FoodType)
	}
	if p.StorageType != "" {
		where = append(where, "storage_type = ?")
		args = append(args, p.StorageType)
	}
	if !p.ExpiresBefore.IsZero() {
		where = append(where, "expiry_date <= ?")
		args = append(args, p.ExpiresBefore.Format(dateKey))
	}

	q := `SELECT id, name, food_type, nutrient, storage_type, stock_date, expiry_date,
		expiry_estimated, quantity_value, quantity_unit, caller, created_at FROM food_stock`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC"
	if p.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, p.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r                        Record
			stock, expiry, createdAt string
			caller                   sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.FoodType, &r.Nutrient, &r.StorageType,
			&stock, &expiry, &r.ExpiryEstimated, &r.QuantityValue, &r.QuantityUnit,
			&caller, &createdAt); err != nil {
			return nil, &StorageError{Op: "list", Err: err}
		}
		r.StockDate, _ = time.Parse(dateKey, stock)
		r.ExpiryDate, _ = time.Parse(dateKey, expiry)
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		if caller.Valid {
			_ = json.Unmarshal([]byte(caller.String), &r.Caller)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Compile-time checks.
var (
	_ Committer = (*SQLiteStore)(nil)
	_ Lister    = (*SQLiteStore)(nil)
)
