// Package telephony places outbound calls, reads call status and downloads
// call recordings through Twilio.
package telephony

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"voice-order-confirm/order-confirmation/types"
)

// codeUnverifiedNumber is Twilio's error for a trial account dialing an unverified number
const codeUnverifiedNumber = 21219

// callAPI is the part of the Twilio REST API used here
type callAPI interface {
	CreateCall(params *twilioapi.CreateCallParams) (*twilioapi.ApiV2010Call, error)
	FetchCall(sid string, params *twilioapi.FetchCallParams) (*twilioapi.ApiV2010Call, error)
}

// Client places calls from a single caller id
type Client struct {
	api  callAPI
	from string
}

// NewClient creates a Twilio client for accountSID calling from fromNumber
func NewClient(accountSID, authToken, fromNumber string) (*Client, error) {
	if accountSID == "" || authToken == "" {
		return nil, &types.ValidationError{Msg: "twilio account sid and auth token are required"}
	}
	if fromNumber == "" {
		return nil, &types.ValidationError{Msg: "set TWILIO_FROM_NUMBER or TWILIO_PHONE_NUMBER"}
	}
	rc := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Client{api: rc.Api, from: fromNumber}, nil
}

// PlaceCall dials to and asks Twilio to fetch instructions from callbackURL.
// It returns the call SID.
func (c *Client) PlaceCall(ctx context.Context, to, callbackURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	params := &twilioapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetUrl(callbackURL)
	params.SetMethod("POST")

	call, err := c.api.CreateCall(params)
	if err != nil {
		return "", classifyError("create call", err)
	}
	if call == nil || call.Sid == nil {
		return "", &types.TransportError{Op: "create call", Err: errors.New("response has no call sid")}
	}
	return *call.Sid, nil
}

// CallStatus returns the current state of the call identified by sid
func (c *Client) CallStatus(ctx context.Context, sid string) (types.CallState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	call, err := c.api.FetchCall(sid, &twilioapi.FetchCallParams{})
	if err != nil {
		return "", classifyError("fetch call "+sid, err)
	}
	if call == nil || call.Status == nil {
		return types.CallQueued, nil
	}
	return types.CallState(strings.ToLower(*call.Status)), nil
}

func classifyError(op string, err error) error {
	var restErr *client.TwilioRestError
	if errors.As(err, &restErr) {
		if restErr.Code == codeUnverifiedNumber {
			return &types.UnverifiedNumberError{Msg: fmt.Sprintf("%s: %d: %s", op, restErr.Code, restErr.Message)}
		}
		return &types.TransportError{Op: op, StatusCode: restErr.Status, Err: err}
	}
	return &types.TransportError{Op: op, Err: err}
}
