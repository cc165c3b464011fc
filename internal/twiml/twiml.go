// Package twiml renders the call-control markup consumed by the
// telephony provider's voice webhooks. The verb and attribute names are
// the provider's contract; this package only owns their serialization.
package twiml

import (
	"encoding/xml"
	"fmt"
)

// Verb is one call-control instruction. Every implementation carries its
// own XMLName so a Response can hold an ordered mix of verbs.
type Verb interface {
	verb()
}

// Response is the root document returned to a voice webhook.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []Verb
}

// Add appends verbs to the response in order.
func (r *Response) Add(verbs ...Verb) {
	r.Verbs = append(r.Verbs, verbs...)
}

// Render serializes the response as an XML document.
func (r *Response) Render() (string, error) {
	data, err := xml.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering twiml: %w", err)
	}
	return xml.Header + string(data) + "\n", nil
}

// Say speaks text, optionally through a prosody rate wrapper.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
	Prosody *Prosody `xml:"prosody,omitempty"`
}

// Prosody wraps spoken text with a qualitative speech rate.
type Prosody struct {
	Rate string `xml:"rate,attr"`
	Text string `xml:",chardata"`
}

// Gather collects DTMF digits and posts them to the action URL.
type Gather struct {
	XMLName   xml.Name `xml:"Gather"`
	Action    string   `xml:"action,attr,omitempty"`
	Method    string   `xml:"method,attr,omitempty"`
	NumDigits int      `xml:"numDigits,attr,omitempty"`
	Timeout   int      `xml:"timeout,attr,omitempty"`
	Verbs     []Verb
}

// Dial rings one or more destination numbers.
type Dial struct {
	XMLName  xml.Name `xml:"Dial"`
	Timeout  int      `xml:"timeout,attr,omitempty"`
	CallerID string   `xml:"callerId,attr,omitempty"`
	Numbers  []Number
}

// Number is one dial destination nested in a Dial.
type Number struct {
	XMLName xml.Name `xml:"Number"`
	Value   string   `xml:",chardata"`
}

// Record captures caller audio.
type Record struct {
	XMLName            xml.Name `xml:"Record"`
	MaxLength          int      `xml:"maxLength,attr,omitempty"`
	FinishOnKey        string   `xml:"finishOnKey,attr,omitempty"`
	PlayBeep           bool     `xml:"playBeep,attr,omitempty"`
	Transcribe         bool     `xml:"transcribe,attr,omitempty"`
	TranscribeCallback string   `xml:"transcribeCallback,attr,omitempty"`
}

// Play streams audio from a URL, optionally looped.
type Play struct {
	XMLName xml.Name `xml:"Play"`
	Loop    int      `xml:"loop,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Pause waits silently.
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

// Redirect transfers control to another webhook URL.
type Redirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

// Sms sends a text reply to the caller.
type Sms struct {
	XMLName xml.Name `xml:"Sms"`
	To      string   `xml:"to,attr,omitempty"`
	Body    string   `xml:",chardata"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Reject declines the call without answering.
type Reject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

func (Say) verb()      {}
func (Gather) verb()   {}
func (Dial) verb()     {}
func (Record) verb()   {}
func (Play) verb()     {}
func (Pause) verb()    {}
func (Redirect) verb() {}
func (Sms) verb()      {}
func (Hangup) verb()   {}
func (Reject) verb()   {}

// SpeechRate maps a numeric speed multiplier onto the provider's
// qualitative prosody rates.
func SpeechRate(speed float64) string {
	switch {
	case speed <= 0.6:
		return "x-slow"
	case speed <= 0.8:
		return "slow"
	case speed <= 1.2:
		return "medium"
	case speed <= 1.5:
		return "fast"
	default:
		return "x-fast"
	}
}

// Speak builds a Say for the given voice, wrapping the text in a prosody
// rate when the speed is meaningful.
func Speak(voice, text string, speed float64) Say {
	s := Say{Voice: voice}
	if speed > 0 && speed != 1.0 {
		s.Prosody = &Prosody{Rate: SpeechRate(speed), Text: text}
	} else {
		s.Text = text
	}
	return s
}
