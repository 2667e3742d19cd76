package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voice-order-confirm/order-confirmation/calls"
	"voice-order-confirm/order-confirmation/classify"
	"voice-order-confirm/order-confirmation/orders"
	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/types"
)

type intentExtractor interface {
	ExtractIntent(ctx context.Context, transcript string) (types.Intent, error)
}

func newListCmd(a *app) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List order rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.store.ReadAllRows(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%-4s %-10s %-16s %-11s %s\n", "ROW", "ORDER", "NAME", "STATUS", "ORDER LINE")
			for _, r := range records {
				if status != "" && !strings.EqualFold(string(types.ParseStatus(string(r.Status))), status) {
					continue
				}
				line := r.OriginalOrder
				if r.UpdatedOrder != "" {
					line = r.UpdatedOrder
				}
				fmt.Fprintf(a.out, "%-4d %-10s %-16s %-11s %s\n", r.Row, r.OrderID, r.Name, r.Status, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only rows with this status")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := store.Lookup(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Row:            %d\n", rec.Row)
			fmt.Fprintf(a.out, "Order ID:       %s\n", rec.OrderID)
			fmt.Fprintf(a.out, "Name:           %s\n", rec.Name)
			fmt.Fprintf(a.out, "Phone:          %s\n", rec.Phone)
			fmt.Fprintf(a.out, "Original Order: %s\n", rec.OriginalOrder)
			fmt.Fprintf(a.out, "Status:         %s\n", rec.Status)
			fmt.Fprintf(a.out, "Call:           %s\n", rec.CallMarker)
			fmt.Fprintf(a.out, "Updated Order:  %s\n", rec.UpdatedOrder)
			return nil
		},
	}
}

func newRequeueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue <order-id>",
		Short: "Set an order back to Retry so the next dial batch calls it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := store.UpdateOrder(cmd.Context(), a.store, args[0], types.OrderUpdate{
				Status:     types.StatusRetry,
				CallMarker: calls.CallFlag,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s requeued\n", args[0])
			return nil
		},
	}
}

func newApplyCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "apply <order-id> <intent.json>",
		Short: "Apply a JSON intent (actions + response) to an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			intent, err := classify.ParseIntent(string(raw))
			if err != nil {
				return err
			}
			return a.applyIntent(cmd.Context(), args[0], intent, write)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "store the result as the updated order")
	return cmd
}

func newIntentCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "intent <order-id> <transcript...>",
		Short: "Extract actions from a transcript with the language model and apply them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.intentSource == nil {
				c, err := a.cfg.NewClassifier(a.logger)
				if err != nil {
					return err
				}
				a.intentSource = c
			}
			intent, err := a.intentSource.ExtractIntent(cmd.Context(), strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return a.applyIntent(cmd.Context(), args[0], intent, write)
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "store the result as the updated order")
	return cmd
}

func (a *app) applyIntent(ctx context.Context, orderID string, intent types.Intent, write bool) error {
	rec, err := store.Lookup(ctx, a.store, orderID)
	if err != nil {
		return err
	}
	line, err := orders.ApplyToLine(rec.OriginalOrder, intent.Actions)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Original: %s\n", rec.OriginalOrder)
	fmt.Fprintf(a.out, "Updated:  %s\n", line)
	fmt.Fprintf(a.out, "Response: %s\n", orders.Summarize(intent))

	if !write {
		return nil
	}
	return store.UpdateOrder(ctx, a.store, orderID, types.OrderUpdate{
		Status:       types.StatusChanged,
		UpdatedOrder: line,
	})
}

type inserter interface {
	Insert(ctx context.Context, rec types.OrderRecord) (store.Row, error)
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <orders.csv>",
		Short: "Load orders from a CSV export into the SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, ok := a.store.(inserter)
			if !ok {
				return errors.New("import needs ORDER_STORE=sqlite")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			records, err := readCSV(f)
			if err != nil {
				return err
			}
			for _, rec := range records {
				if _, err := ins.Insert(cmd.Context(), rec); err != nil {
					return err
				}
			}
			fmt.Fprintf(a.out, "Imported %d orders\n", len(records))
			return nil
		},
	}
}

// readCSV reads rows with a header naming the order table columns. Columns
// may appear in any order; unknown ones are ignored.
func readCSV(r io.Reader) ([]types.OrderRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	idx := make(map[store.Column]int)
	for i, h := range rows[0] {
		idx[store.Column(strings.TrimSpace(h))] = i
	}
	if _, ok := idx[store.ColOrderID]; !ok {
		return nil, &types.ValidationError{Msg: "csv header has no Order ID column"}
	}

	get := func(row []string, col store.Column) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []types.OrderRecord
	for _, row := range rows[1:] {
		rec := types.OrderRecord{
			OrderID:       get(row, store.ColOrderID),
			Name:          get(row, store.ColName),
			Phone:         get(row, store.ColPhone),
			OriginalOrder: get(row, store.ColOriginalOrder),
			Status:        types.Status(get(row, store.ColStatus)),
			CallMarker:    get(row, store.ColCall),
			UpdatedOrder:  get(row, store.ColUpdatedOrder),
		}
		if rec.OrderID == "" {
			continue
		}
		if rec.Status == "" {
			rec.Status = types.StatusNew
		}
		records = append(records, rec)
	}
	return records, nil
}
