package flow

import (
	"encoding/json"
	"fmt"
)

// Serialize produces the durable document for a graph in the current
// format.
func Serialize(voice string, blocks []Block) FlowConfig {
	if blocks == nil {
		blocks = []Block{}
	}
	return FlowConfig{
		Voice:   voice,
		Blocks:  blocks,
		Version: ConfigVersion,
	}
}

// EncodeConfig marshals a flow config for storage.
func EncodeConfig(cfg FlowConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling flow config: %w", err)
	}
	return string(data), nil
}

// DecodeConfig parses a stored flow document, upgrading legacy
// (pre-graph) documents to the current block format. The version tag is
// checked up front; anything without one is treated as legacy.
func DecodeConfig(data []byte) (FlowConfig, error) {
	var probe struct {
		Version string          `json:"version"`
		Voice   string          `json:"voice"`
		Blocks  json.RawMessage `json:"blocks"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return FlowConfig{}, fmt.Errorf("parsing flow config: %w", err)
	}

	if probe.Version == ConfigVersion || len(probe.Blocks) > 0 {
		var cfg FlowConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return FlowConfig{}, fmt.Errorf("parsing flow config: %w", err)
		}
		if cfg.Blocks == nil {
			cfg.Blocks = []Block{}
		}
		cfg.Version = ConfigVersion
		return cfg, nil
	}

	var legacy legacyConfig
	if err := json.Unmarshal(data, &legacy); err != nil {
		return FlowConfig{}, fmt.Errorf("parsing legacy flow config: %w", err)
	}
	return FlowConfig{
		Voice:   probe.Voice,
		Blocks:  legacy.upgrade(),
		Version: ConfigVersion,
	}, nil
}

// Deserialize returns the block graph of a flow config.
func Deserialize(cfg FlowConfig) []Block {
	if cfg.Blocks == nil {
		return []Block{}
	}
	return cfg.Blocks
}

// legacyConfig is the pre-graph document shape: at most one greeting,
// menu, forward and voicemail section with an implicit linear order.
type legacyConfig struct {
	Greeting  string           `json:"greeting"`
	Menu      *legacyMenu      `json:"menu"`
	Forward   *legacyForward   `json:"forward"`
	Voicemail *legacyVoicemail `json:"voicemail"`
}

type legacyMenu struct {
	Prompt  string       `json:"prompt"`
	Options []MenuOption `json:"options"`
}

type legacyForward struct {
	Number string `json:"number"`
}

type legacyVoicemail struct {
	Prompt string `json:"prompt"`
}

// Legacy upgrade layout: blocks stack vertically from this origin.
const (
	legacyColumnX  = 250
	legacyOriginY  = 100
	legacySpacingY = 150
)

// upgrade synthesizes an equivalent block chain from a legacy document.
// Each section keeps a fixed slot ID ("1".."4") and blocks are stacked
// vertically with no connections; the legacy format only ever had an
// implicit linear order.
func (l *legacyConfig) upgrade() []Block {
	blocks := []Block{}

	place := func(slot int, typ BlockType, cfg BlockConfig) {
		blocks = append(blocks, Block{
			ID:     fmt.Sprintf("%d", slot),
			Type:   typ,
			Config: cfg,
			Position: Position{
				X: legacyColumnX,
				Y: legacyOriginY + float64(slot-1)*legacySpacingY,
			},
			Connections: []string{},
		})
	}

	if l.Greeting != "" {
		place(1, BlockSay, &SayConfig{Text: l.Greeting, Speed: 1.0})
	}
	if l.Menu != nil {
		opts := l.Menu.Options
		if opts == nil {
			opts = []MenuOption{}
		}
		place(2, BlockGather, &GatherConfig{
			Prompt:         l.Menu.Prompt,
			MaxRetries:     3,
			RetryMessage:   "Sorry, I didn't get that. Please try again.",
			GoodbyeMessage: "Thank you for calling. Goodbye.",
			Options:        opts,
		})
	}
	if l.Forward != nil {
		place(3, BlockForward, &ForwardConfig{Number: l.Forward.Number, Timeout: 20})
	}
	if l.Voicemail != nil {
		place(4, BlockRecord, &RecordConfig{
			Prompt:      l.Voicemail.Prompt,
			MaxLength:   120,
			FinishOnKey: "#",
		})
	}

	return blocks
}
