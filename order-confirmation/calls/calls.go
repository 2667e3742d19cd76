// Package calls holds the rules the dial batch applies to each order row:
// who gets called, how numbers are normalized and how failures are marked.
package calls

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"voice-order-confirm/order-confirmation/types"
)

const (
	// CallFlag in the call marker column flags a row for dialing
	CallFlag = "yes"

	MarkerUnverified = "TWILIO_21219"
	MarkerDialFailed = "DIAL_FAILED"

	DefaultCountryCode = "92"
)

var phoneReplacer = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// Eligible reports whether rec should be considered for a call. A row passing
// this check may still fail phone normalization.
func Eligible(rec types.OrderRecord) bool {
	if strings.TrimSpace(rec.OrderID) == "" {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(rec.CallMarker), CallFlag) {
		return false
	}
	return types.ParseStatus(string(rec.Status)).Dialable()
}

// NormalizePhone turns raw into E.164 form, prefixing countryCode when the
// number has no leading "+".
func NormalizePhone(raw, countryCode string) (string, error) {
	p := phoneReplacer.Replace(strings.TrimSpace(raw))
	if p == "" {
		return "", &types.ValidationError{Msg: "phone number is empty"}
	}

	digits := strings.TrimPrefix(p, "+")
	if !strings.HasPrefix(p, "+") {
		if countryCode == "" {
			countryCode = DefaultCountryCode
		}
		digits = strings.TrimPrefix(countryCode, "+") + strings.TrimLeft(p, "0")
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", &types.ValidationError{Msg: fmt.Sprintf("phone number %q has invalid characters", raw)}
		}
	}
	if len(digits) < 8 || len(digits) > 15 {
		return "", &types.ValidationError{Msg: fmt.Sprintf("phone number %q has %d digits", raw, len(digits))}
	}
	return "+" + digits, nil
}

// CallbackURL is the voice webhook Twilio fetches once the callee answers
func CallbackURL(base, orderID string) string {
	return strings.TrimRight(base, "/") + "/voice?order_id=" + url.QueryEscape(orderID)
}

// FailureMarker picks the call marker to store after a failed dial
func FailureMarker(err error) string {
	var unverified *types.UnverifiedNumberError
	if errors.As(err, &unverified) {
		return MarkerUnverified
	}
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "21219") || strings.Contains(msg, "unverified") {
			return MarkerUnverified
		}
	}
	return MarkerDialFailed
}

// FailedUpdate is the row update written when a dial attempt fails
func FailedUpdate(err error) types.OrderUpdate {
	return types.OrderUpdate{Status: types.StatusFailed, CallMarker: FailureMarker(err)}
}
