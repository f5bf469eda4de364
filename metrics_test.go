package hintdb

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCollector(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := newTestStore(t)
	require.NoError(t, store.Insert(ctx, []HintRecord{
		{ItemID: testItemID(1), Hint: []byte("a")},
		{ItemID: testItemID(2), Hint: []byte("b")},
	}))

	collector := NewStoreCollector(store)

	// One record gauge plus three gauges per pool.
	assert.Equal(t, 7, testutil.CollectAndCount(collector))

	expected := strings.NewReader(`
# HELP hintdb_records_total Total number of stored hint records
# TYPE hintdb_records_total gauge
hintdb_records_total 2
`)
	require.NoError(t, testutil.CollectAndCompare(collector, expected, "hintdb_records_total"))
}
