package flow

import (
	"encoding/json"
	"fmt"
	"time"
)

// BlockType identifies one kind of call-handling block.
type BlockType string

const (
	BlockSay          BlockType = "say"
	BlockGather       BlockType = "gather"
	BlockForward      BlockType = "forward"
	BlockMultiForward BlockType = "multi_forward"
	BlockRecord       BlockType = "record"
	BlockPause        BlockType = "pause"
	BlockPlay         BlockType = "play"
	BlockHangup       BlockType = "hangup"
	BlockSms          BlockType = "sms"
	BlockHold         BlockType = "hold"
)

// ForwardStrategy selects how a multi_forward block dials its numbers.
type ForwardStrategy string

const (
	StrategySimultaneous ForwardStrategy = "simultaneous"
	StrategySequential   ForwardStrategy = "sequential"
	StrategyPriority     ForwardStrategy = "priority"
)

// Position is the block's location on the editor canvas. It has no
// meaning at call time.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Block is one node of a call flow graph.
//
// Connections holds the IDs of blocks reachable by unconditional
// fall-through. Gather blocks branch per digit through their menu
// options instead.
type Block struct {
	ID          string      `json:"id"`
	Type        BlockType   `json:"type"`
	Config      BlockConfig `json:"config"`
	Position    Position    `json:"position"`
	Connections []string    `json:"connections"`
}

// BlockConfig is the type-specific attribute set of a block. Exactly one
// variant exists per BlockType.
type BlockConfig interface {
	blockType() BlockType
}

// MenuOption maps one DTMF digit of a gather block to a target block.
// An empty BlockID means the option has no connection yet.
type MenuOption struct {
	Digit   string `json:"digit"`
	Text    string `json:"text"`
	Action  string `json:"action"`
	BlockID string `json:"blockId"`
}

// SayConfig speaks text at a given speed.
type SayConfig struct {
	Text  string  `json:"text"`
	Speed float64 `json:"speed"`
}

// GatherConfig prompts for a single digit and branches on it.
type GatherConfig struct {
	Prompt         string       `json:"prompt"`
	MaxRetries     int          `json:"maxRetries"`
	RetryMessage   string       `json:"retryMessage"`
	GoodbyeMessage string       `json:"goodbyeMessage"`
	Options        []MenuOption `json:"options"`
}

// ForwardConfig dials a single destination number.
type ForwardConfig struct {
	Number        string `json:"number"`
	Timeout       int    `json:"timeout"`
	HoldMusicURL  string `json:"holdMusicUrl"`
	HoldMusicLoop int    `json:"holdMusicLoop"`
}

// MultiForwardConfig dials several destination numbers according to a
// forwarding strategy.
type MultiForwardConfig struct {
	Numbers         []string        `json:"numbers"`
	ForwardStrategy ForwardStrategy `json:"forwardStrategy"`
	RingTimeout     int             `json:"ringTimeout"`
}

// RecordConfig records the caller after a prompt.
type RecordConfig struct {
	Prompt      string `json:"prompt"`
	MaxLength   int    `json:"maxLength"`
	FinishOnKey string `json:"finishOnKey"`
}

// PauseConfig waits silently.
type PauseConfig struct {
	Duration int `json:"duration"`
}

// PlayConfig streams audio from a URL.
type PlayConfig struct {
	URL string `json:"url"`
}

// HoldConfig parks the caller on music, either from the preset catalog
// or from an explicit URL.
type HoldConfig struct {
	Message       string `json:"message"`
	MusicType     string `json:"musicType"`
	PresetMusic   string `json:"presetMusic"`
	MusicURL      string `json:"musicUrl"`
	HoldMusicLoop int    `json:"holdMusicLoop"`
}

// HangupConfig terminates the call.
type HangupConfig struct{}

// SmsConfig sends a text reply to the caller.
type SmsConfig struct {
	Message string `json:"message"`
}

func (*SayConfig) blockType() BlockType          { return BlockSay }
func (*GatherConfig) blockType() BlockType       { return BlockGather }
func (*ForwardConfig) blockType() BlockType      { return BlockForward }
func (*MultiForwardConfig) blockType() BlockType { return BlockMultiForward }
func (*RecordConfig) blockType() BlockType       { return BlockRecord }
func (*PauseConfig) blockType() BlockType        { return BlockPause }
func (*PlayConfig) blockType() BlockType         { return BlockPlay }
func (*HoldConfig) blockType() BlockType         { return BlockHold }
func (*HangupConfig) blockType() BlockType       { return BlockHangup }
func (*SmsConfig) blockType() BlockType          { return BlockSms }

// NewConfig returns a zero-valued config variant for the given block type.
func NewConfig(t BlockType) (BlockConfig, error) {
	switch t {
	case BlockSay:
		return &SayConfig{}, nil
	case BlockGather:
		return &GatherConfig{}, nil
	case BlockForward:
		return &ForwardConfig{}, nil
	case BlockMultiForward:
		return &MultiForwardConfig{}, nil
	case BlockRecord:
		return &RecordConfig{}, nil
	case BlockPause:
		return &PauseConfig{}, nil
	case BlockPlay:
		return &PlayConfig{}, nil
	case BlockHold:
		return &HoldConfig{}, nil
	case BlockHangup:
		return &HangupConfig{}, nil
	case BlockSms:
		return &SmsConfig{}, nil
	default:
		return nil, fmt.Errorf("unknown block type %q", t)
	}
}

// blockEnvelope is the raw JSON shape of a Block. Config is decoded in a
// second pass once the type tag is known.
type blockEnvelope struct {
	ID          string          `json:"id"`
	Type        BlockType       `json:"type"`
	Config      json.RawMessage `json:"config"`
	Position    Position        `json:"position"`
	Connections []string        `json:"connections"`
}

// UnmarshalJSON decodes a block, selecting the config variant by the
// type tag.
func (b *Block) UnmarshalJSON(data []byte) error {
	var env blockEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	cfg, err := NewConfig(env.Type)
	if err != nil {
		return err
	}
	if len(env.Config) > 0 {
		if err := json.Unmarshal(env.Config, cfg); err != nil {
			return fmt.Errorf("decoding %s config: %w", env.Type, err)
		}
	}

	b.ID = env.ID
	b.Type = env.Type
	b.Config = cfg
	b.Position = env.Position
	b.Connections = env.Connections
	if b.Connections == nil {
		b.Connections = []string{}
	}
	return nil
}

// MarshalJSON encodes a block with its config inline.
func (b Block) MarshalJSON() ([]byte, error) {
	conns := b.Connections
	if conns == nil {
		conns = []string{}
	}
	cfg := b.Config
	if cfg == nil {
		var err error
		if cfg, err = NewConfig(b.Type); err != nil {
			return nil, err
		}
	}
	return json.Marshal(struct {
		ID          string      `json:"id"`
		Type        BlockType   `json:"type"`
		Config      BlockConfig `json:"config"`
		Position    Position    `json:"position"`
		Connections []string    `json:"connections"`
	}{b.ID, b.Type, cfg, b.Position, conns})
}

// FlowConfig is the persisted shape of a flow's graph.
type FlowConfig struct {
	Voice   string  `json:"voice"`
	Blocks  []Block `json:"blocks"`
	Version string  `json:"version"`
}

// ConfigVersion is the current flow document version.
const ConfigVersion = "2.0"

// Flow is a named, persisted call flow bound to one phone number.
type Flow struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	FlowName  string     `json:"flow_name"`
	Config    FlowConfig `json:"flow_config"`
	NumberID  string     `json:"number_id"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// EntryBlock returns the block call execution starts from: the first
// block of the document.
func (f *Flow) EntryBlock() *Block {
	if len(f.Config.Blocks) == 0 {
		return nil
	}
	return &f.Config.Blocks[0]
}

// BlockByID returns the block with the given ID, or nil.
func (f *FlowConfig) BlockByID(id string) *Block {
	for i := range f.Blocks {
		if f.Blocks[i].ID == id {
			return &f.Blocks[i]
		}
	}
	return nil
}
