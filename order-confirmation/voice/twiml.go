// Package voice serves the Twilio voice webhooks: the prompt played when the
// customer answers and the callback that receives their recorded reply.
package voice

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/twilio/twilio-go/twiml"
)

const (
	sayVoice = "alice"

	MsgMissingOrder = "Missing order information. Please try again later."
	MsgMissingInfo  = "Sorry, missing information. Please try again later."
	MsgIntro        = "This is your order confirmation call."
	MsgInstructions = "After the beep, say 'correct' to confirm, or say your changes."
	MsgAck          = "Thanks! I'm updating your order now."
)

func say(msg string) twiml.Element {
	return &twiml.VoiceSay{Message: msg, Voice: sayVoice}
}

// Greeting returns a time-of-day greeting, addressed to name when known
func Greeting(name string, now time.Time) string {
	hour := now.Hour()

	var greeting string
	if hour < 12 {
		greeting = "Good morning"
	} else if hour < 18 {
		greeting = "Good afternoon"
	} else {
		greeting = "Good evening"
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return greeting + "!"
	}
	return fmt.Sprintf("%s, %s!", greeting, name)
}

// PromptTwiML greets the customer and records up to 30 seconds of reply,
// posting the recording to /process-recording for orderID.
func PromptTwiML(orderID, greeting string) (string, error) {
	elements := []twiml.Element{}
	if greeting != "" {
		elements = append(elements, say(greeting))
	}
	elements = append(elements,
		say(MsgIntro),
		say(MsgInstructions),
		&twiml.VoiceRecord{
			Action:     "/process-recording?order_id=" + url.QueryEscape(orderID),
			Method:     "POST",
			Timeout:    "2",
			MaxLength:  "30",
			Transcribe: "false",
		},
	)
	return twiml.Voice(elements)
}

// SayTwiML speaks a single message and ends the call
func SayTwiML(msg string) (string, error) {
	return twiml.Voice([]twiml.Element{say(msg)})
}
