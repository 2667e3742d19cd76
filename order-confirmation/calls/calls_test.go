package calls

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-order-confirm/order-confirmation/types"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"3001234567", "+923001234567"},
		{"03001234567", "+923001234567"},
		{"0300-123 4567", "+923001234567"},
		{"+1 (415) 555.0100", "+14155550100"},
		{" +923001234567 ", "+923001234567"},
	}
	for _, tt := range tests {
		got, err := NormalizePhone(tt.raw, "92")
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestNormalizePhoneRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "abc", "+12", "12345678901234567", "+92 300 CALL ME"} {
		_, err := NormalizePhone(raw, "92")
		var vErr *types.ValidationError
		assert.ErrorAs(t, err, &vErr, "%q", raw)
	}
}

func TestNormalizePhoneDefaultCountry(t *testing.T) {
	got, err := NormalizePhone("3001234567", "")
	require.NoError(t, err)
	assert.Equal(t, "+923001234567", got)

	got, err = NormalizePhone("4155550100", "+1")
	require.NoError(t, err)
	assert.Equal(t, "+14155550100", got)
}

func TestEligible(t *testing.T) {
	base := types.OrderRecord{OrderID: "1001", Phone: "3001234567", CallMarker: "yes", Status: types.StatusNew}
	assert.True(t, Eligible(base))

	retry := base
	retry.Status = types.Status("retry")
	retry.CallMarker = " YES "
	assert.True(t, Eligible(retry))

	noID := base
	noID.OrderID = " "
	assert.False(t, Eligible(noID))

	notFlagged := base
	notFlagged.CallMarker = "CA0123"
	assert.False(t, Eligible(notFlagged))

	for _, s := range []types.Status{types.StatusCalled, types.StatusProcessing, types.StatusConfirmed, types.StatusChanged, types.StatusFailed, ""} {
		rec := base
		rec.Status = s
		assert.False(t, Eligible(rec), s)
	}
}

func TestCallbackURL(t *testing.T) {
	assert.Equal(t, "https://example.ngrok.app/voice?order_id=1001", CallbackURL("https://example.ngrok.app/", "1001"))
	assert.Equal(t, "https://h/voice?order_id=A+7%2F1", CallbackURL("https://h", "A 7/1"))
}

func TestFailureMarker(t *testing.T) {
	assert.Equal(t, MarkerUnverified, FailureMarker(&types.UnverifiedNumberError{Msg: "nope"}))
	assert.Equal(t, MarkerUnverified, FailureMarker(fmt.Errorf("dial: %w", &types.UnverifiedNumberError{Msg: "nope"})))
	assert.Equal(t, MarkerUnverified, FailureMarker(errors.New("HTTP 400: code 21219")))
	assert.Equal(t, MarkerUnverified, FailureMarker(errors.New("The number is Unverified")))
	assert.Equal(t, MarkerDialFailed, FailureMarker(errors.New("connection reset")))

	u := FailedUpdate(errors.New("boom"))
	assert.Equal(t, types.StatusFailed, u.Status)
	assert.Equal(t, MarkerDialFailed, u.CallMarker)
}
