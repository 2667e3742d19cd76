package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order-confirm/order-confirmation/types"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for _, rec := range sampleRecords() {
		_, err := s.Insert(context.Background(), rec)
		require.NoError(t, err)
	}
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	err := UpdateOrder(ctx, s, "1002", types.OrderUpdate{
		Status:       types.StatusChanged,
		CallMarker:   "CA123",
		UpdatedOrder: "1 wrap",
	})
	require.NoError(t, err)

	rec, err := Lookup(ctx, s, "1002")
	require.NoError(t, err)
	assert.Equal(t, types.StatusChanged, rec.Status)
	assert.Equal(t, "CA123", rec.CallMarker)
	assert.Equal(t, "1 wrap", rec.UpdatedOrder)
	assert.Equal(t, "Sara", rec.Name)
}

func TestSQLiteReadAllRows(t *testing.T) {
	s := newTestSQLite(t)

	rows, err := s.ReadAllRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1001", rows[0].OrderID)
	assert.Equal(t, types.StatusRetry, rows[1].Status)
	assert.Less(t, rows[0].Row, rows[1].Row)
}

func TestSQLiteErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	_, err := s.FindRow(ctx, "missing")
	var nf *types.NotFoundError
	assert.ErrorAs(t, err, &nf)

	err = s.WriteField(ctx, 999, ColStatus, "Failed")
	var vErr *types.ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = s.ReadField(ctx, 1, Column("Bogus"))
	assert.ErrorAs(t, err, &vErr)

	_, err = s.Insert(ctx, types.OrderRecord{OrderID: "1001"})
	assert.Error(t, err, "order ids are unique")
}
