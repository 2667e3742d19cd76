// Package store adapts tabular order backends to a row-and-column interface
// keyed by order id.
package store

import (
	"context"
	"fmt"

	"voice-order-confirm/order-confirmation/types"
)

// Column names one fixed field of an order row
type Column string

const (
	ColOrderID       Column = "Order ID"
	ColName          Column = "Name"
	ColPhone         Column = "Phone"
	ColOriginalOrder Column = "Original Order"
	ColStatus        Column = "Status"
	ColCall          Column = "Call"
	ColUpdatedOrder  Column = "Updated Order"
)

// Columns lists every column in sheet order
var Columns = []Column{
	ColOrderID, ColName, ColPhone, ColOriginalOrder, ColStatus, ColCall, ColUpdatedOrder,
}

// Row is an opaque handle to one stored row
type Row int

// Field is one column/value pair of an update
type Field struct {
	Column Column
	Value  string
}

// Store is the order table
type Store interface {
	// FindRow returns the row holding orderID or a *types.NotFoundError
	FindRow(ctx context.Context, orderID string) (Row, error)
	ReadField(ctx context.Context, row Row, col Column) (string, error)
	WriteField(ctx context.Context, row Row, col Column, value string) error
	ReadAllRows(ctx context.Context) ([]types.OrderRecord, error)
}

// BatchWriter is implemented by backends that can write several fields at once
type BatchWriter interface {
	WriteFields(ctx context.Context, row Row, fields []Field) error
}

// Update writes fields to row as one logical update
func Update(ctx context.Context, s Store, row Row, fields ...Field) error {
	if len(fields) == 0 {
		return nil
	}
	if bw, ok := s.(BatchWriter); ok {
		return bw.WriteFields(ctx, row, fields)
	}
	for _, f := range fields {
		if err := s.WriteField(ctx, row, f.Column, f.Value); err != nil {
			return fmt.Errorf("write %s: %w", f.Column, err)
		}
	}
	return nil
}

// Fields turns an OrderUpdate into the fields it sets
func Fields(u types.OrderUpdate) []Field {
	var fields []Field
	if u.Status != "" {
		fields = append(fields, Field{Column: ColStatus, Value: string(u.Status)})
	}
	if u.CallMarker != "" {
		fields = append(fields, Field{Column: ColCall, Value: u.CallMarker})
	}
	if u.UpdatedOrder != "" {
		fields = append(fields, Field{Column: ColUpdatedOrder, Value: u.UpdatedOrder})
	}
	return fields
}

// UpdateOrder finds orderID and applies u to it
func UpdateOrder(ctx context.Context, s Store, orderID string, u types.OrderUpdate) error {
	row, err := s.FindRow(ctx, orderID)
	if err != nil {
		return err
	}
	return Update(ctx, s, row, Fields(u)...)
}

// Lookup reads the full record for orderID
func Lookup(ctx context.Context, s Store, orderID string) (types.OrderRecord, error) {
	row, err := s.FindRow(ctx, orderID)
	if err != nil {
		return types.OrderRecord{}, err
	}
	rec := types.OrderRecord{Row: int(row)}
	for _, col := range Columns {
		v, err := s.ReadField(ctx, row, col)
		if err != nil {
			return types.OrderRecord{}, fmt.Errorf("read %s: %w", col, err)
		}
		setField(&rec, col, v)
	}
	return rec, nil
}

func setField(rec *types.OrderRecord, col Column, v string) {
	switch col {
	case ColOrderID:
		rec.OrderID = v
	case ColName:
		rec.Name = v
	case ColPhone:
		rec.Phone = v
	case ColOriginalOrder:
		rec.OriginalOrder = v
	case ColStatus:
		rec.Status = types.Status(v)
	case ColCall:
		rec.CallMarker = v
	case ColUpdatedOrder:
		rec.UpdatedOrder = v
	}
}

func getField(rec types.OrderRecord, col Column) (string, bool) {
	switch col {
	case ColOrderID:
		return rec.OrderID, true
	case ColName:
		return rec.Name, true
	case ColPhone:
		return rec.Phone, true
	case ColOriginalOrder:
		return rec.OriginalOrder, true
	case ColStatus:
		return string(rec.Status), true
	case ColCall:
		return rec.CallMarker, true
	case ColUpdatedOrder:
		return rec.UpdatedOrder, true
	}
	return "", false
}

func unknownColumn(col Column) error {
	return &types.ValidationError{Msg: fmt.Sprintf("unknown column %q", col)}
}
