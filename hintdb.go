// Package hintdb implements a persistent secondary index between opaque
// hint byte strings and 32-byte item identifiers, backed by SQLite.
//
// One hint may map to many items and one item may carry many hints; the
// (item_id, hint) pair is unique and re-inserting an existing pair is a
// silent no-op. Records are append-only, there is no update or delete.
// Multi-key reads are transparently chunked to fit the bound-parameter
// ceiling of the backing database.
package hintdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/RichardKnop/hintdb/internal/pkg/logging"
	"github.com/RichardKnop/hintdb/internal/sqldb"
)

// SchemaVersion is the database schema version this package was built
// against. Create refuses files declaring any other version.
const SchemaVersion = 2

// DefaultMaxItems caps single-hint lookups unless the caller asks for a
// different bound.
const DefaultMaxItems = 50000

// ErrIncompatibleSchema is returned by Create when the database file
// declares a schema version this package does not support.
var ErrIncompatibleSchema = errors.New("incompatible database schema version")

// HintRecord associates one item identifier with one hint.
type HintRecord struct {
	ItemID ItemID
	Hint   []byte
}

// HintStore serves forward (hint to item ids) and reverse (item id to
// hint) lookups over the hints table. All methods are safe for
// concurrent use; reads run on the reader pool outside transactions,
// writes serialise on the single writer lane.
type HintStore struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// Create verifies the schema version and idempotently ensures the hints
// table and its forward-lookup index exist. Repeated calls are safe.
func Create(ctx context.Context, db *sqldb.DB, logger *zap.Logger) (*HintStore, error) {
	if db.Version() != SchemaVersion {
		return nil, fmt.Errorf("%w: v%d", ErrIncompatibleSchema, db.Version())
	}

	s := &HintStore{db: db, logger: logger}

	if err := db.Write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		logger.Info("creating hint store table and indexes")
		if _, err := tx.ExecContext(ctx,
			"CREATE TABLE IF NOT EXISTS hints(item_id blob, hint blob, UNIQUE (item_id, hint))",
		); err != nil {
			return fmt.Errorf("create hints table: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"CREATE INDEX IF NOT EXISTS hint_index ON hints(hint)",
		); err != nil {
			return fmt.Errorf("create hint index: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s, nil
}

// Open is a convenience constructor: it parses a connection string (see
// ParseConnectionString), builds a logger at the configured level,
// opens the database file and creates the store.
func Open(ctx context.Context, connStr string) (*HintStore, error) {
	config, err := ParseConnectionString(connStr)
	if err != nil {
		return nil, err
	}

	logConf := logging.DefaultConfig()
	logConf.Level = config.GetZapLevel()
	logger, err := logConf.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	db, err := sqldb.Open(config.FilePath,
		sqldb.WithMaxVariables(config.MaxVariables),
		sqldb.WithReaders(config.Readers),
	)
	if err != nil {
		return nil, err
	}

	store, err := Create(ctx, db, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database handles.
func (s *HintStore) Close() error {
	return s.db.Close()
}

// Insert stores the given records, silently skipping pairs that already
// exist. The whole batch is committed in one transaction. Empty input
// is a no-op and does not touch the store.
func (s *HintStore) Insert(ctx context.Context, records []HintRecord) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.Write(ctx, func(ctx context.Context, tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO hints VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, record := range records {
			if _, err := stmt.ExecContext(ctx, record.ItemID.Bytes(), record.Hint); err != nil {
				return fmt.Errorf("insert hint record: %w", err)
			}
		}
		return nil
	})
}

// Lookup returns up to maxItems item identifiers stored for hint.
// Matches beyond maxItems are silently truncated; callers that need
// totals must use Page. An empty hint returns an empty result without
// querying the store.
func (s *HintStore) Lookup(ctx context.Context, hint []byte, maxItems int) ([]ItemID, error) {
	if len(hint) == 0 {
		return nil, nil
	}

	var ids []ItemID
	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx,
			"SELECT item_id FROM hints WHERE hint = ? LIMIT ?", hint, maxItems)
		if err != nil {
			return fmt.Errorf("lookup by hint: %w", err)
		}
		defer rows.Close()

		ids, err = scanItemIDs(rows, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LookupAny returns the union of item identifiers matching any of the
// given hints, chunking the hint set to fit the bound-parameter
// ceiling. The aggregate is unbounded: a large hint set can return an
// arbitrarily large result.
func (s *HintStore) LookupAny(ctx context.Context, hints [][]byte) ([]ItemID, error) {
	if len(hints) == 0 {
		return nil, nil
	}

	var ids []ItemID
	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		for _, chunk := range batches(hints, s.db.MaxVariables()) {
			query := "SELECT item_id FROM hints INDEXED BY hint_index WHERE hint IN (" +
				inPlaceholders(len(chunk)) + ")"

			rows, err := conn.QueryContext(ctx, query, hintArgs(chunk)...)
			if err != nil {
				return fmt.Errorf("lookup by hints: %w", err)
			}
			ids, err = scanItemIDs(rows, ids)
			rows.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dedupeSorted(ids), nil
}

// LookupAnyCapped is LookupAny with maxItems applied as a per-chunk
// limit, not a global one: when the hint set spans several chunks the
// aggregate can exceed maxItems by up to one limit's worth per extra
// chunk. Trading that slack for a single pass is intentional.
func (s *HintStore) LookupAnyCapped(ctx context.Context, hints [][]byte, maxItems int) ([]ItemID, error) {
	if len(hints) == 0 {
		return nil, nil
	}

	var ids []ItemID
	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		// One parameter slot is reserved for the limit bind.
		for _, chunk := range batches(hints, s.db.MaxVariables()-1) {
			query := "SELECT item_id FROM hints INDEXED BY hint_index WHERE hint IN (" +
				inPlaceholders(len(chunk)) + ") LIMIT ?"

			rows, err := conn.QueryContext(ctx, query, append(hintArgs(chunk), maxItems)...)
			if err != nil {
				return fmt.Errorf("capped lookup by hints: %w", err)
			}
			ids, err = scanItemIDs(rows, ids)
			rows.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dedupeSorted(ids), nil
}

// HintsFor returns the hints stored for the given item identifiers,
// chunked by the bound-parameter ceiling. Stored hints whose length is
// not exactly 32 bytes are dropped without error: this accessor assumes
// fixed-width hints and the filter is lossy by design.
func (s *HintStore) HintsFor(ctx context.Context, itemIDs []ItemID) ([][]byte, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	var hints [][]byte
	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		for _, chunk := range batches(itemIDs, s.db.MaxVariables()) {
			query := "SELECT hint FROM hints WHERE item_id IN (" +
				inPlaceholders(len(chunk)) + ")"

			rows, err := conn.QueryContext(ctx, query, idArgs(chunk)...)
			if err != nil {
				return fmt.Errorf("lookup hints by item ids: %w", err)
			}
			hints, err = scanValidHints(rows, hints)
			rows.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hints, nil
}

// HintMapFor returns one hint per item identifier, applying the same
// 32-byte length filter as HintsFor. When an item carries several valid
// hints the last row scanned wins, so this view keeps exactly one hint
// per id and is deliberately lossy.
func (s *HintStore) HintMapFor(ctx context.Context, itemIDs []ItemID) (map[ItemID][]byte, error) {
	out := make(map[ItemID][]byte, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		for _, chunk := range batches(itemIDs, s.db.MaxVariables()) {
			// The UNIQUE(item_id, hint) autoindex doubles as the
			// reverse-lookup index.
			query := "SELECT item_id, hint FROM hints INDEXED BY sqlite_autoindex_hints_1 WHERE item_id IN (" +
				inPlaceholders(len(chunk)) + ")"

			rows, err := conn.QueryContext(ctx, query, idArgs(chunk)...)
			if err != nil {
				return fmt.Errorf("map hints by item ids: %w", err)
			}
			err = scanHintMap(rows, out)
			rows.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of stored records, counting every
// (item_id, hint) row rather than distinct ids or hints.
func (s *HintStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		if err := conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM hints").Scan(&count); err != nil {
			return fmt.Errorf("count hints: %w", err)
		}
		return nil
	})
	return count, err
}

// isValidHintLength reports whether a stored hint is representable as a
// fixed-width 32-byte value. Reverse lookups drop anything else.
func isValidHintLength(hint []byte) bool {
	return len(hint) == ItemIDSize
}

// inPlaceholders renders n bound-parameter placeholders for an IN list.
func inPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func hintArgs(hints [][]byte) []any {
	args := make([]any, 0, len(hints))
	for _, hint := range hints {
		args = append(args, hint)
	}
	return args
}

func idArgs(ids []ItemID) []any {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id.Bytes())
	}
	return args
}

func scanItemIDs(rows *sql.Rows, into []ItemID) ([]ItemID, error) {
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return into, fmt.Errorf("scan item id: %w", err)
		}
		id, err := ItemIDFromBytes(raw)
		if err != nil {
			return into, err
		}
		into = append(into, id)
	}
	return into, rows.Err()
}

func scanValidHints(rows *sql.Rows, into [][]byte) ([][]byte, error) {
	for rows.Next() {
		var hint []byte
		if err := rows.Scan(&hint); err != nil {
			return into, fmt.Errorf("scan hint: %w", err)
		}
		if isValidHintLength(hint) {
			into = append(into, hint)
		}
	}
	return into, rows.Err()
}

func scanHintMap(rows *sql.Rows, into map[ItemID][]byte) error {
	for rows.Next() {
		var rawID, hint []byte
		if err := rows.Scan(&rawID, &hint); err != nil {
			return fmt.Errorf("scan hint record: %w", err)
		}
		id, err := ItemIDFromBytes(rawID)
		if err != nil {
			return err
		}
		if isValidHintLength(hint) {
			into[id] = hint
		}
	}
	return rows.Err()
}

// dedupeSorted sorts ids ascending and removes adjacent duplicates in
// place.
func dedupeSorted(ids []ItemID) []ItemID {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
	j := 0
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			ids[j] = id
			j++
		}
	}
	return ids[:j]
}
