package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"voice-order-confirm/order-confirmation/types"

	_ "modernc.org/sqlite"
)

var sqlColumns = map[Column]string{
	ColOrderID:       "order_id",
	ColName:          "name",
	ColPhone:         "phone",
	ColOriginalOrder: "original_order",
	ColStatus:        "status",
	ColCall:          "call_marker",
	ColUpdatedOrder:  "updated_order",
}

// SQLite keeps the order table in a SQLite database
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	s, err := NewSQLite(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLite wraps an open database and creates the orders table
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	query := `
    CREATE TABLE IF NOT EXISTS orders (
        row_id INTEGER PRIMARY KEY AUTOINCREMENT,
        order_id TEXT NOT NULL UNIQUE,
        name TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT '',
        original_order TEXT NOT NULL DEFAULT '',
        status TEXT NOT NULL DEFAULT '',
        call_marker TEXT NOT NULL DEFAULT '',
        updated_order TEXT NOT NULL DEFAULT ''
    );`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Insert adds a new order row
func (s *SQLite) Insert(ctx context.Context, rec types.OrderRecord) (Row, error) {
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO orders (order_id, name, phone, original_order, status, call_marker, updated_order)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.OrderID, rec.Name, rec.Phone, rec.OriginalOrder, string(rec.Status), rec.CallMarker, rec.UpdatedOrder)
	if err != nil {
		return 0, fmt.Errorf("insert order %s: %w", rec.OrderID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return Row(id), nil
}

func (s *SQLite) FindRow(ctx context.Context, orderID string) (Row, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT row_id FROM orders WHERE order_id = ?`, strings.TrimSpace(orderID)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &types.NotFoundError{OrderID: orderID}
	}
	if err != nil {
		return 0, err
	}
	return Row(id), nil
}

func (s *SQLite) ReadField(ctx context.Context, row Row, col Column) (string, error) {
	name, ok := sqlColumns[col]
	if !ok {
		return "", unknownColumn(col)
	}
	var v string
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM orders WHERE row_id = ?`, name), int64(row)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &types.ValidationError{Msg: fmt.Sprintf("row %d not found", row)}
	}
	return v, err
}

func (s *SQLite) WriteField(ctx context.Context, row Row, col Column, value string) error {
	return s.WriteFields(ctx, row, []Field{{Column: col, Value: value}})
}

func (s *SQLite) WriteFields(ctx context.Context, row Row, fields []Field) error {
	if len(fields) == 0 {
		return nil
	}
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		name, ok := sqlColumns[f.Column]
		if !ok {
			return unknownColumn(f.Column)
		}
		sets = append(sets, name+" = ?")
		args = append(args, f.Value)
	}
	args = append(args, int64(row))

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`UPDATE orders SET %s WHERE row_id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &types.ValidationError{Msg: fmt.Sprintf("row %d not found", row)}
	}
	return nil
}

func (s *SQLite) ReadAllRows(ctx context.Context) ([]types.OrderRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT row_id, order_id, name, phone, original_order, status, call_marker, updated_order
        FROM orders
        ORDER BY row_id
    `)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []types.OrderRecord
	for rows.Next() {
		var rec types.OrderRecord
		var status string
		if err := rows.Scan(&rec.Row, &rec.OrderID, &rec.Name, &rec.Phone, &rec.OriginalOrder, &status, &rec.CallMarker, &rec.UpdatedOrder); err != nil {
			return nil, err
		}
		rec.Status = types.Status(status)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
