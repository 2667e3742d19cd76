package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order-confirm/order-confirmation/types"
)

func sampleRecords() []types.OrderRecord {
	return []types.OrderRecord{
		{OrderID: "1001", Name: "Ali", Phone: "+923001234567", OriginalOrder: "1 Zinger burger, 1 fries", Status: types.StatusNew, CallMarker: "yes"},
		{OrderID: "1002", Name: "Sara", Phone: "+923007654321", OriginalOrder: "2 wraps", Status: types.StatusRetry, CallMarker: "yes"},
	}
}

func TestMemoryFindAndLookup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sampleRecords()...)

	row, err := m.FindRow(ctx, " 1002 ")
	require.NoError(t, err)
	assert.Equal(t, Row(3), row)

	rec, err := Lookup(ctx, m, "1001")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Row)
	assert.Equal(t, "Ali", rec.Name)
	assert.Equal(t, types.StatusNew, rec.Status)

	_, err = m.FindRow(ctx, "9999")
	var nf *types.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestMemoryUpdateOrder(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sampleRecords()...)

	err := UpdateOrder(ctx, m, "1001", types.OrderUpdate{
		Status:       types.StatusChanged,
		UpdatedOrder: "1 Zinger burger",
	})
	require.NoError(t, err)

	rec, err := Lookup(ctx, m, "1001")
	require.NoError(t, err)
	assert.Equal(t, types.StatusChanged, rec.Status)
	assert.Equal(t, "1 Zinger burger", rec.UpdatedOrder)
	assert.Equal(t, "yes", rec.CallMarker, "unset fields are left alone")
}

func TestMemoryWriteFieldsIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sampleRecords()...)

	err := m.WriteFields(ctx, 2, []Field{
		{Column: ColStatus, Value: string(types.StatusFailed)},
		{Column: Column("Bogus"), Value: "x"},
	})
	var vErr *types.ValidationError
	require.ErrorAs(t, err, &vErr)

	v, err := m.ReadField(ctx, 2, ColStatus)
	require.NoError(t, err)
	assert.Equal(t, string(types.StatusNew), v)
}

func TestMemoryRowOutOfRange(t *testing.T) {
	m := NewMemory()
	_, err := m.ReadField(context.Background(), 2, ColName)
	assert.Error(t, err)
}

func TestMemoryReadAllRowsIsACopy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(sampleRecords()...)

	rows, err := m.ReadAllRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	rows[0].Name = "changed"

	again, err := m.ReadAllRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ali", again[0].Name)
}
