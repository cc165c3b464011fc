package compiler

import (
	"github.com/ringflowhq/ringflow/internal/flow"
	"github.com/ringflowhq/ringflow/internal/twiml"
)

// priorityGraceSeconds extends the primary number's ring window under
// the priority strategy.
const priorityGraceSeconds = 10

const tryingAnotherMessage = "Please hold while we try another number."

// emitMultiForward emits the dial sequence for a multi_forward block.
// All three strategies converge on the same voicemail tail; none of them
// fall through to a successor block.
func (c *Compiler) emitMultiForward(resp *twiml.Response, voice string, cfg *flow.MultiForwardConfig) {
	if len(cfg.Numbers) == 0 {
		resp.Add(twiml.Speak(voice, configErrorMessage, 0), twiml.Hangup{})
		return
	}

	timeout := timeoutOrDefault(cfg.RingTimeout)

	switch cfg.ForwardStrategy {
	case flow.StrategySequential:
		// One number at a time; an unanswered Dial falls through to the
		// next attempt.
		for i, n := range cfg.Numbers {
			if i > 0 {
				resp.Add(twiml.Speak(voice, tryingAnotherMessage, 0))
			}
			resp.Add(twiml.Dial{Timeout: timeout, Numbers: []twiml.Number{{Value: n}}})
		}

	case flow.StrategyPriority:
		// The primary rings alone with a grace extension, then the rest
		// ring together at the base timeout.
		resp.Add(twiml.Dial{
			Timeout: timeout + priorityGraceSeconds,
			Numbers: []twiml.Number{{Value: cfg.Numbers[0]}},
		})
		if rest := cfg.Numbers[1:]; len(rest) > 0 {
			resp.Add(twiml.Speak(voice, tryingAnotherMessage, 0))
			resp.Add(twiml.Dial{Timeout: timeout, Numbers: dialNumbers(rest)})
		}

	default:
		// Simultaneous: everything rings at once, first answer wins.
		resp.Add(twiml.Dial{Timeout: timeout, Numbers: dialNumbers(cfg.Numbers)})
	}

	c.emitVoicemailTail(resp, voice)
}

// emitVoicemailTail is the shared full-failure fragment: apology,
// bounded recording with an async transcription request, goodbye, hangup.
func (c *Compiler) emitVoicemailTail(resp *twiml.Response, voice string) {
	resp.Add(
		twiml.Speak(voice, voicemailApology, 0),
		twiml.Record{
			MaxLength:          voicemailMaxLength,
			FinishOnKey:        "#",
			PlayBeep:           true,
			Transcribe:         true,
			TranscribeCallback: c.transcriptionCallback(),
		},
		twiml.Speak(voice, closeOutMessage, 0),
		twiml.Hangup{},
	)
}

func dialNumbers(numbers []string) []twiml.Number {
	out := make([]twiml.Number, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, twiml.Number{Value: n})
	}
	return out
}
