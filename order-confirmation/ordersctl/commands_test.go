package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order-confirm/order-confirmation/store"
	"voice-order-confirm/order-confirmation/telemetry"
	"voice-order-confirm/order-confirmation/types"
)

type stubIntent struct {
	intent types.Intent
	got    string
}

func (s *stubIntent) ExtractIntent(_ context.Context, transcript string) (types.Intent, error) {
	s.got = transcript
	return s.intent, nil
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a.out = &out
	a.logger = telemetry.NopLogger()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func testApp() (*app, *store.Memory) {
	mem := store.NewMemory(
		types.OrderRecord{OrderID: "1001", Name: "Ali", Phone: "+923001234567", OriginalOrder: "1 Zinger burger, 1 medium fries, 1 Coke", Status: types.StatusFailed, CallMarker: "DIAL_FAILED"},
		types.OrderRecord{OrderID: "1002", Name: "Sara", OriginalOrder: "2 wraps", Status: types.StatusConfirmed, UpdatedOrder: "2 wraps"},
	)
	return &app{store: mem}, mem
}

func TestListCmd(t *testing.T) {
	a, _ := testApp()
	out, err := run(t, a, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1001")
	assert.Contains(t, out, "1002")

	out, err = run(t, a, "list", "--status", "confirmed")
	require.NoError(t, err)
	assert.NotContains(t, out, "1001")
	assert.Contains(t, out, "1002")
}

func TestShowCmd(t *testing.T) {
	a, _ := testApp()
	out, err := run(t, a, "show", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:           Ali")
	assert.Contains(t, out, "Call:           DIAL_FAILED")

	_, err = run(t, a, "show", "nope")
	assert.Error(t, err)
}

func TestRequeueCmd(t *testing.T) {
	a, mem := testApp()
	_, err := run(t, a, "requeue", "1001")
	require.NoError(t, err)

	rec, err := store.Lookup(context.Background(), mem, "1001")
	require.NoError(t, err)
	assert.Equal(t, types.StatusRetry, rec.Status)
	assert.Equal(t, "yes", rec.CallMarker)
}

func TestApplyCmd(t *testing.T) {
	a, mem := testApp()
	path := filepath.Join(t.TempDir(), "intent.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "actions": [{"type": "cancel", "item": "coke"}, {"type": "change", "item": "fries", "modification": "large"}],
	  "response": {"message": "Done."}
	}`), 0o600))

	out, err := run(t, a, "apply", "1001", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated:  1 Zinger burger, 1 large fries")
	assert.Contains(t, out, "Response: Done.")

	rec, _ := store.Lookup(context.Background(), mem, "1001")
	assert.Empty(t, rec.UpdatedOrder, "dry run by default")

	_, err = run(t, a, "apply", "1001", path, "--write")
	require.NoError(t, err)
	rec, _ = store.Lookup(context.Background(), mem, "1001")
	assert.Equal(t, "1 Zinger burger, 1 large fries", rec.UpdatedOrder)
	assert.Equal(t, types.StatusChanged, rec.Status)
}

func TestIntentCmd(t *testing.T) {
	a, _ := testApp()
	stub := &stubIntent{intent: types.Intent{
		Actions:  []types.Action{{Type: types.ActionAdd, Item: "ketchup"}},
		Response: types.IntentResponse{Message: "Added ketchup."},
	}}
	a.intentSource = stub

	out, err := run(t, a, "intent", "1002", "add", "some", "ketchup")
	require.NoError(t, err)
	assert.Equal(t, "add some ketchup", stub.got)
	assert.Contains(t, out, "Updated:  2 wraps, 1 ketchup")
}

func TestImportNeedsSQLite(t *testing.T) {
	a, _ := testApp()
	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("Order ID\n1\n"), 0o600))

	_, err := run(t, a, "import", path)
	assert.ErrorContains(t, err, "sqlite")
}

func TestImportCmd(t *testing.T) {
	s, err := store.OpenSQLite(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"Name,Order ID,Phone,Original Order,Call\n"+
			"Ali,1001,3001234567,\"1 Zinger burger, 1 fries\",yes\n"+
			",,,\n"+
			"Sara,1002\n"), 0o600))

	out, err := run(t, &app{store: s}, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 orders")

	rows, err := s.ReadAllRows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1 Zinger burger, 1 fries", rows[0].OriginalOrder)
	assert.Equal(t, types.StatusNew, rows[0].Status)
	assert.Equal(t, "yes", rows[0].CallMarker)
	assert.Equal(t, "Sara", rows[1].Name)
}

func TestReadCSVRequiresOrderID(t *testing.T) {
	_, err := readCSV(strings.NewReader("Name,Phone\nAli,1\n"))
	assert.Error(t, err)
}
