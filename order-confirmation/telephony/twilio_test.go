package telephony

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"voice-order-confirm/order-confirmation/types"
)

type mockCallAPI struct {
	mock.Mock
}

func (m *mockCallAPI) CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error) {
	args := m.Called(params)
	call, _ := args.Get(0).(*twilioapi.ApiV2010Call)
	return call, args.Error(1)
}

func (m *mockCallAPI) FetchCall(sid string, params *twilioapi.FetchCallParams) (*twilioapi.ApiV2010Call, error) {
	args := m.Called(sid)
	call, _ := args.Get(0).(*twilioapi.ApiV2010Call)
	return call, args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestPlaceCall(t *testing.T) {
	api := &mockCallAPI{}
	api.On("CreateCall", mock.MatchedBy(func(p *twilioapi.CreateCallParams) bool {
		return *p.To == "+923001234567" && *p.From == "+15550001111" &&
			*p.Url == "https://h/voice?order_id=1001" && *p.Method == "POST"
	})).Return(&twilioapi.ApiV2010Call{Sid: strPtr("CA42")}, nil)

	c := &Client{api: api, from: "+15550001111"}
	sid, err := c.PlaceCall(context.Background(), "+923001234567", "https://h/voice?order_id=1001")
	require.NoError(t, err)
	assert.Equal(t, "CA42", sid)
	api.AssertExpectations(t)
}

func TestPlaceCallUnverified(t *testing.T) {
	api := &mockCallAPI{}
	api.On("CreateCall", mock.Anything).Return(nil, &client.TwilioRestError{
		Code:    21219,
		Message: "The number is unverified",
		Status:  400,
	})

	c := &Client{api: api, from: "+15550001111"}
	_, err := c.PlaceCall(context.Background(), "+923001234567", "https://h/voice")

	var unverified *types.UnverifiedNumberError
	assert.ErrorAs(t, err, &unverified)
}

func TestPlaceCallTransportError(t *testing.T) {
	api := &mockCallAPI{}
	api.On("CreateCall", mock.Anything).Return(nil, &client.TwilioRestError{Code: 20003, Message: "auth", Status: 401})

	c := &Client{api: api, from: "+15550001111"}
	_, err := c.PlaceCall(context.Background(), "+923001234567", "https://h/voice")

	var tErr *types.TransportError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, 401, tErr.StatusCode)

	api2 := &mockCallAPI{}
	api2.On("CreateCall", mock.Anything).Return(nil, errors.New("dial tcp: refused"))
	_, err = (&Client{api: api2, from: "x"}).PlaceCall(context.Background(), "+923001234567", "u")
	assert.ErrorAs(t, err, &tErr)
}

func TestCallStatus(t *testing.T) {
	api := &mockCallAPI{}
	api.On("FetchCall", "CA1").Return(&twilioapi.ApiV2010Call{Status: strPtr("no-answer")}, nil)
	api.On("FetchCall", "CA2").Return(&twilioapi.ApiV2010Call{}, nil)

	c := &Client{api: api, from: "x"}
	state, err := c.CallStatus(context.Background(), "CA1")
	require.NoError(t, err)
	assert.Equal(t, types.CallNoAnswer, state)
	assert.True(t, state.Terminal())

	state, err = c.CallStatus(context.Background(), "CA2")
	require.NoError(t, err)
	assert.Equal(t, types.CallQueued, state)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "tok", "+1555")
	assert.Error(t, err)
	_, err = NewClient("AC1", "tok", "")
	assert.Error(t, err)

	c, err := NewClient("AC1", "tok", "+1555")
	require.NoError(t, err)
	assert.NotNil(t, c.api)
}
