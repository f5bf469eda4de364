package hintdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PageResult is one page of a keyset-paginated forward lookup.
type PageResult struct {
	// ItemIDs holds the page contents in strictly ascending order.
	ItemIDs []ItemID
	// NextCursor resumes the scan after the last returned id. It echoes
	// the request cursor when the page is empty, and is nil on an empty
	// first page.
	NextCursor *ItemID
	// TotalCount is the number of matching rows, computed on the first
	// page only and nil afterwards. It is a snapshot that can go stale
	// as records are inserted concurrently.
	TotalCount *int64
}

// Page runs one step of an ascending keyset scan over the item
// identifiers matching any of the given hints. A nil cursor requests
// the first page; subsequent calls pass the previous NextCursor and
// receive only ids strictly greater than it. Iteration ends when a page
// comes back with fewer than pageSize entries. Hint sets larger than
// the bound-parameter ceiling are chunked and the per-chunk scans
// merged. An empty hint set returns an empty page without querying the
// store.
func (s *HintStore) Page(ctx context.Context, hints [][]byte, pageSize int, cursor *ItemID) (PageResult, error) {
	page := PageResult{NextCursor: cursor}
	if len(hints) == 0 {
		return page, nil
	}

	err := s.db.Read(ctx, func(ctx context.Context, conn *sql.Conn) error {
		// Two parameter slots are reserved for the cursor and limit binds.
		chunks := batches(hints, s.db.MaxVariables()-2)

		if cursor == nil {
			total, err := countMatching(ctx, conn, chunks)
			if err != nil {
				return err
			}
			page.TotalCount = &total
		}

		var merged []ItemID
		for _, chunk := range chunks {
			// Distinct ids, not raw rows: an id matching several of
			// the chunk's hints must consume one page slot, not many.
			var query strings.Builder
			query.WriteString("SELECT DISTINCT item_id FROM hints WHERE hint IN (")
			query.WriteString(inPlaceholders(len(chunk)))
			query.WriteString(")")

			args := hintArgs(chunk)
			if cursor != nil {
				query.WriteString(" AND item_id > ?")
				args = append(args, cursor.Bytes())
			}
			query.WriteString(" ORDER BY item_id LIMIT ?")
			args = append(args, pageSize)

			rows, err := conn.QueryContext(ctx, query.String(), args...)
			if err != nil {
				return fmt.Errorf("page query: %w", err)
			}
			merged, err = scanItemIDs(rows, merged)
			rows.Close()
			if err != nil {
				return err
			}
		}

		// Each chunk contributed its pageSize smallest distinct ids
		// past the cursor, so the smallest pageSize of the merged
		// union form a complete page.
		merged = dedupeSorted(merged)
		if len(merged) > pageSize {
			merged = merged[:pageSize]
		}
		page.ItemIDs = merged
		if len(merged) > 0 {
			last := merged[len(merged)-1]
			page.NextCursor = &last
		}
		return nil
	})
	if err != nil {
		return PageResult{}, err
	}
	return page, nil
}

// countMatching sums per-chunk row counts for the first-page total.
func countMatching(ctx context.Context, conn *sql.Conn, chunks [][][]byte) (int64, error) {
	var total int64
	for _, chunk := range chunks {
		query := "SELECT COUNT(*) FROM hints WHERE hint IN (" +
			inPlaceholders(len(chunk)) + ")"

		var n int64
		if err := conn.QueryRowContext(ctx, query, hintArgs(chunk)...).Scan(&n); err != nil {
			return 0, fmt.Errorf("count matching rows: %w", err)
		}
		total += n
	}
	return total, nil
}
