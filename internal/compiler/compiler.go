// Package compiler translates a flow's block graph into call-control
// markup. One invocation handles one webhook request: it walks the graph
// from an entry block and emits a complete document whose every path
// ends in an explicit next action.
package compiler

import (
	"fmt"

	"github.com/ringflowhq/ringflow/internal/flow"
	"github.com/ringflowhq/ringflow/internal/twiml"
)

const (
	// DefaultVoice is used when a flow does not name one.
	DefaultVoice = "alice"

	// defaultRingTimeout applies when a forward block has no timeout.
	defaultRingTimeout = 20

	// gatherDigitTimeout is how long the provider waits for a keypress.
	gatherDigitTimeout = 5

	// defaultMaxRetries bounds menu re-prompts when unconfigured.
	defaultMaxRetries = 3

	// voicemailMaxLength bounds the fallback voicemail recording.
	voicemailMaxLength = 120
)

const (
	closeOutMessage    = "Thank you for calling. Goodbye."
	configErrorMessage = "We're sorry, this service is temporarily unavailable. Please contact support."
	acknowledgeMessage = "Thank you for your selection. Goodbye."
	voicemailApology   = "We're sorry, no one is available to take your call. Please leave a message after the tone."
	retryFallbackMsg   = "Sorry, I didn't get that. Please try again."
)

// Compiler emits markup for one flow graph per inbound webhook. It holds
// no per-call state; every compile reads one immutable flow document.
type Compiler struct {
	// BaseURL prefixes generated callback URLs, e.g. "https://api.example.com".
	BaseURL string
}

// New creates a compiler generating callbacks under the given base URL.
func New(baseURL string) *Compiler {
	return &Compiler{BaseURL: baseURL}
}

// Compile emits the document for an inbound call: the walk starts at the
// flow's entry block.
func (c *Compiler) Compile(f *flow.Flow) (string, error) {
	entry := f.EntryBlock()
	if entry == nil {
		return c.Unavailable()
	}
	return c.CompileFrom(f, entry.ID, 1)
}

// CompileFrom emits the document for a walk starting at the given block.
// attempt carries the menu re-prompt counter for gather blocks.
func (c *Compiler) CompileFrom(f *flow.Flow, blockID string, attempt int) (string, error) {
	resp := &twiml.Response{}
	b := f.Config.BlockByID(blockID)
	if b == nil {
		c.closeOut(resp, voiceOf(f))
	} else {
		c.walk(f, b, attempt, map[string]bool{}, resp)
	}
	return resp.Render()
}

// CompileGatherResult resolves a digit pressed at a gather block and
// emits the branch document. An unmatched digit re-prompts within the
// retry budget; an option whose target does not resolve degrades to a
// default acknowledgement, never a broken jump.
func (c *Compiler) CompileGatherResult(f *flow.Flow, blockID, digits string, attempt int) (string, error) {
	resp := &twiml.Response{}
	voice := voiceOf(f)

	b := f.Config.BlockByID(blockID)
	if b == nil {
		c.closeOut(resp, voice)
		return resp.Render()
	}
	cfg, ok := b.Config.(*flow.GatherConfig)
	if !ok {
		c.closeOut(resp, voice)
		return resp.Render()
	}

	if opt := matchOption(cfg, digits); opt != nil {
		target := f.Config.BlockByID(opt.BlockID)
		if opt.BlockID == "" || target == nil {
			resp.Add(twiml.Speak(voice, acknowledgeMessage, 0), twiml.Hangup{})
			return resp.Render()
		}
		c.walk(f, target, 1, map[string]bool{}, resp)
		return resp.Render()
	}

	// Invalid digit: burn one retry.
	maxRetries := retriesOf(cfg)
	if attempt < maxRetries {
		resp.Add(twiml.Speak(voice, retryMessageOf(cfg), 0))
		c.emitGatherChain(resp, f, b, cfg, attempt+1)
	} else {
		resp.Add(twiml.Speak(voice, goodbyeOf(cfg), 0), twiml.Hangup{})
	}
	return resp.Render()
}

// Unavailable is the safe terminal for configuration errors: an apology
// and an explicit hangup, never an empty dial or a silent line.
func (c *Compiler) Unavailable() (string, error) {
	resp := &twiml.Response{}
	resp.Add(twiml.Speak(DefaultVoice, configErrorMessage, 0), twiml.Hangup{})
	return resp.Render()
}

// NoFlowResponse answers calls to a number with no active flow.
func (c *Compiler) NoFlowResponse() (string, error) {
	resp := &twiml.Response{}
	resp.Add(twiml.Reject{Reason: "rejected"})
	return resp.Render()
}

// walk emits markup for a block and follows its unconditional successor.
// A revisit of an already-emitted block means the graph has a cycle; the
// walk breaks it into the default close-out rather than looping.
func (c *Compiler) walk(f *flow.Flow, b *flow.Block, attempt int, visited map[string]bool, resp *twiml.Response) {
	if b == nil || visited[b.ID] {
		c.closeOut(resp, voiceOf(f))
		return
	}
	visited[b.ID] = true
	voice := voiceOf(f)

	switch cfg := b.Config.(type) {
	case *flow.SayConfig:
		resp.Add(twiml.Speak(voice, cfg.Text, cfg.Speed))
		c.next(f, b, visited, resp)

	case *flow.GatherConfig:
		c.emitGatherChain(resp, f, b, cfg, attempt)

	case *flow.ForwardConfig:
		if cfg.Number == "" {
			resp.Add(twiml.Speak(voice, configErrorMessage, 0), twiml.Hangup{})
			return
		}
		if cfg.HoldMusicURL != "" {
			resp.Add(twiml.Play{URL: cfg.HoldMusicURL, Loop: cfg.HoldMusicLoop})
		}
		resp.Add(twiml.Dial{
			Timeout: timeoutOrDefault(cfg.Timeout),
			Numbers: []twiml.Number{{Value: cfg.Number}},
		})
		// No answer falls through to the successor.
		c.next(f, b, visited, resp)

	case *flow.MultiForwardConfig:
		c.emitMultiForward(resp, voice, cfg)

	case *flow.RecordConfig:
		if cfg.Prompt != "" {
			resp.Add(twiml.Speak(voice, cfg.Prompt, 0))
		}
		resp.Add(twiml.Record{
			MaxLength:   cfg.MaxLength,
			FinishOnKey: cfg.FinishOnKey,
			PlayBeep:    true,
		})
		c.next(f, b, visited, resp)

	case *flow.PauseConfig:
		resp.Add(twiml.Pause{Length: cfg.Duration})
		c.next(f, b, visited, resp)

	case *flow.PlayConfig:
		resp.Add(twiml.Play{URL: cfg.URL})
		c.next(f, b, visited, resp)

	case *flow.HoldConfig:
		if cfg.Message != "" {
			resp.Add(twiml.Speak(voice, cfg.Message, 0))
		}
		if url := holdMusicURL(cfg); url != "" {
			resp.Add(twiml.Play{URL: url, Loop: cfg.HoldMusicLoop})
		}
		c.next(f, b, visited, resp)

	case *flow.SmsConfig:
		resp.Add(twiml.Sms{Body: cfg.Message})
		c.next(f, b, visited, resp)

	case *flow.HangupConfig:
		resp.Add(twiml.Hangup{})

	default:
		c.closeOut(resp, voice)
	}
}

// next follows a block's first unconditional connection, or ends the
// path safely when there is none or it dangles.
func (c *Compiler) next(f *flow.Flow, b *flow.Block, visited map[string]bool, resp *twiml.Response) {
	for _, id := range b.Connections {
		if target := f.Config.BlockByID(id); target != nil {
			c.walk(f, target, 1, visited, resp)
			return
		}
	}
	c.closeOut(resp, voiceOf(f))
}

// closeOut is the system-default path terminal: a call is never left
// connected to nothing.
func (c *Compiler) closeOut(resp *twiml.Response, voice string) {
	resp.Add(twiml.Speak(voice, closeOutMessage, 0), twiml.Hangup{})
}

// emitGatherChain emits the menu prompt and its declarative retry tail:
// one Gather per remaining attempt, separated by the retry message, and
// a goodbye plus hangup once the budget is spent. Every path through the
// document therefore terminates.
func (c *Compiler) emitGatherChain(resp *twiml.Response, f *flow.Flow, b *flow.Block, cfg *flow.GatherConfig, attempt int) {
	voice := voiceOf(f)
	maxRetries := retriesOf(cfg)
	if attempt < 1 {
		attempt = 1
	}

	for a := attempt; a <= maxRetries; a++ {
		resp.Add(twiml.Gather{
			Action:    c.gatherAction(f.NumberID, b.ID, a),
			Method:    "POST",
			NumDigits: 1,
			Timeout:   gatherDigitTimeout,
			Verbs:     []twiml.Verb{twiml.Speak(voice, cfg.Prompt, 0)},
		})
		if a < maxRetries {
			resp.Add(twiml.Speak(voice, retryMessageOf(cfg), 0))
		}
	}
	resp.Add(twiml.Speak(voice, goodbyeOf(cfg), 0), twiml.Hangup{})
}

func (c *Compiler) gatherAction(numberID, blockID string, attempt int) string {
	return fmt.Sprintf("%s/voice/%s/gather/%s?attempt=%d", c.BaseURL, numberID, blockID, attempt)
}

func (c *Compiler) transcriptionCallback() string {
	return c.BaseURL + "/voice/transcription"
}

func matchOption(cfg *flow.GatherConfig, digits string) *flow.MenuOption {
	for i := range cfg.Options {
		if cfg.Options[i].Digit == digits {
			return &cfg.Options[i]
		}
	}
	return nil
}

// holdMusicURL resolves a hold block's music source: the preset catalog
// wins unless the block carries an explicit URL.
func holdMusicURL(cfg *flow.HoldConfig) string {
	if cfg.MusicType == "custom" && cfg.MusicURL != "" {
		return cfg.MusicURL
	}
	if url, ok := presetMusic[cfg.PresetMusic]; ok {
		return url
	}
	return cfg.MusicURL
}

// presetMusic is the built-in hold music catalog.
var presetMusic = map[string]string{
	"classical": "http://com.twilio.music.classical.s3.amazonaws.com/BusyStrings.mp3",
	"ambient":   "http://com.twilio.music.ambient.s3.amazonaws.com/gurdonark_-_Exurb.mp3",
	"electro":   "http://com.twilio.music.electronica.s3.amazonaws.com/teru_-_110_Downtempo_Electronic_4.mp3",
	"jazz":      "http://com.twilio.music.guitars.s3.amazonaws.com/Pitx_-_Long_Winter.mp3",
}

func voiceOf(f *flow.Flow) string {
	if f.Config.Voice != "" {
		return f.Config.Voice
	}
	return DefaultVoice
}

func timeoutOrDefault(t int) int {
	if t <= 0 {
		return defaultRingTimeout
	}
	return t
}

func retriesOf(cfg *flow.GatherConfig) int {
	if cfg.MaxRetries <= 0 {
		return defaultMaxRetries
	}
	return cfg.MaxRetries
}

func retryMessageOf(cfg *flow.GatherConfig) string {
	if cfg.RetryMessage != "" {
		return cfg.RetryMessage
	}
	return retryFallbackMsg
}

func goodbyeOf(cfg *flow.GatherConfig) string {
	if cfg.GoodbyeMessage != "" {
		return cfg.GoodbyeMessage
	}
	return closeOutMessage
}
