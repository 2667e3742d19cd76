package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"voice-order-confirm/order-confirmation/types"
)

// Memory is an in-process order table. Rows are numbered from 2 like a sheet
// with a header row.
type Memory struct {
	mu      sync.Mutex
	records []types.OrderRecord
}

// NewMemory creates a table holding records in order
func NewMemory(records ...types.OrderRecord) *Memory {
	m := &Memory{}
	for _, r := range records {
		m.Append(r)
	}
	return m
}

// Append adds a record at the end of the table
func (m *Memory) Append(rec types.OrderRecord) Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.Row = len(m.records) + 2
	m.records = append(m.records, rec)
	return Row(rec.Row)
}

func (m *Memory) FindRow(_ context.Context, orderID string) (Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := strings.TrimSpace(orderID)
	for _, rec := range m.records {
		if rec.OrderID == id {
			return Row(rec.Row), nil
		}
	}
	return 0, &types.NotFoundError{OrderID: orderID}
}

func (m *Memory) ReadField(_ context.Context, row Row, col Column) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.at(row)
	if err != nil {
		return "", err
	}
	v, ok := getField(*rec, col)
	if !ok {
		return "", unknownColumn(col)
	}
	return v, nil
}

func (m *Memory) WriteField(_ context.Context, row Row, col Column, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.at(row)
	if err != nil {
		return err
	}
	if _, ok := getField(*rec, col); !ok {
		return unknownColumn(col)
	}
	setField(rec, col, value)
	return nil
}

func (m *Memory) WriteFields(_ context.Context, row Row, fields []Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.at(row)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if _, ok := getField(*rec, f.Column); !ok {
			return unknownColumn(f.Column)
		}
	}
	for _, f := range fields {
		setField(rec, f.Column, f.Value)
	}
	return nil
}

func (m *Memory) ReadAllRows(_ context.Context) ([]types.OrderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]types.OrderRecord(nil), m.records...), nil
}

func (m *Memory) at(row Row) (*types.OrderRecord, error) {
	i := int(row) - 2
	if i < 0 || i >= len(m.records) {
		return nil, &types.ValidationError{Msg: fmt.Sprintf("row %d out of range", row)}
	}
	return &m.records[i], nil
}
