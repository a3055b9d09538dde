package telephony

import (
	"bytes"
	"encoding/xml"
	"errors"
	"strings"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlPlay struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoiceResponse accumulates verbs for a call-answer webhook reply.
type VoiceResponse struct {
	verbs []any
}

func (v *VoiceResponse) Say(text string) *VoiceResponse {
	v.verbs = append(v.verbs, twimlSay{Text: text})
	return v
}

func (v *VoiceResponse) Play(audioURL string) *VoiceResponse {
	v.verbs = append(v.verbs, twimlPlay{URL: audioURL})
	return v
}

func (v *VoiceResponse) Pause(seconds int) *VoiceResponse {
	v.verbs = append(v.verbs, twimlPause{Length: seconds})
	return v
}

func (v *VoiceResponse) Hangup() *VoiceResponse {
	v.verbs = append(v.verbs, twimlHangup{})
	return v
}

// Render serializes the accumulated verbs to a TwiML document.
func (v *VoiceResponse) Render() (string, error) {
	if len(v.verbs) == 0 {
		return "", errors.New("telephony: empty twiml response")
	}
	for _, verb := range v.verbs {
		if say, ok := verb.(twimlSay); ok && strings.TrimSpace(say.Text) == "" {
			return "", errors.New("telephony: say verb requires text")
		}
		if play, ok := verb.(twimlPlay); ok && strings.TrimSpace(play.URL) == "" {
			return "", errors.New("telephony: play verb requires a url")
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(twimlResponse{Verbs: v.verbs}); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
