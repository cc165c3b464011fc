package flow

import (
	"reflect"
	"testing"
)

func sampleBlocks() []Block {
	return []Block{
		{
			ID:          "b-1",
			Type:        BlockSay,
			Config:      &SayConfig{Text: "Hello", Speed: 1.2},
			Position:    Position{X: 100, Y: 100},
			Connections: []string{"b-2"},
		},
		{
			ID:   "b-2",
			Type: BlockGather,
			Config: &GatherConfig{
				Prompt:         "Press 1 for sales",
				MaxRetries:     3,
				RetryMessage:   "Try again",
				GoodbyeMessage: "Goodbye",
				Options: []MenuOption{
					{Digit: "1", Text: "Sales", Action: "forward", BlockID: "b-3"},
					{Digit: "*", Text: "Repeat", Action: "", BlockID: ""},
				},
			},
			Position:    Position{X: 360, Y: 100},
			Connections: []string{},
		},
		{
			ID:          "b-3",
			Type:        BlockMultiForward,
			Config:      &MultiForwardConfig{Numbers: []string{"+15550001", "+15550002"}, ForwardStrategy: StrategyPriority, RingTimeout: 20},
			Position:    Position{X: 620, Y: 100},
			Connections: []string{},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	blocks := sampleBlocks()

	cfg := Serialize("alice", blocks)
	if cfg.Version != ConfigVersion {
		t.Fatalf("Version = %q, want %q", cfg.Version, ConfigVersion)
	}

	encoded, err := EncodeConfig(cfg)
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	decoded, err := DecodeConfig([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}

	got := Deserialize(decoded)
	if !reflect.DeepEqual(got, blocks) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, blocks)
	}
	if decoded.Voice != "alice" {
		t.Errorf("Voice = %q, want alice", decoded.Voice)
	}
}

func TestRoundTripEmptyGraph(t *testing.T) {
	cfg := Serialize("alice", nil)
	encoded, err := EncodeConfig(cfg)
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	decoded, err := DecodeConfig([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if got := Deserialize(decoded); len(got) != 0 {
		t.Errorf("expected empty graph, got %+v", got)
	}
}

func TestLegacyUpgradeFull(t *testing.T) {
	doc := `{
		"greeting": "Welcome",
		"menu": {"prompt": "Press 1", "options": [{"digit": "1", "text": "Sales", "action": "forward", "blockId": ""}]},
		"forward": {"number": "+15551234"},
		"voicemail": {"prompt": "Leave a message"}
	}`

	cfg, err := DecodeConfig([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	blocks := Deserialize(cfg)
	if len(blocks) != 4 {
		t.Fatalf("block count = %d, want 4", len(blocks))
	}

	wantTypes := []BlockType{BlockSay, BlockGather, BlockForward, BlockRecord}
	wantIDs := []string{"1", "2", "3", "4"}
	for i, b := range blocks {
		if b.Type != wantTypes[i] {
			t.Errorf("block %d type = %s, want %s", i, b.Type, wantTypes[i])
		}
		if b.ID != wantIDs[i] {
			t.Errorf("block %d id = %s, want %s", i, b.ID, wantIDs[i])
		}
		if len(b.Connections) != 0 {
			t.Errorf("legacy block %d has connections %v, want none", i, b.Connections)
		}
		if i > 0 && blocks[i].Position.Y <= blocks[i-1].Position.Y {
			t.Errorf("legacy blocks not stacked vertically: %v then %v", blocks[i-1].Position, blocks[i].Position)
		}
	}

	say := blocks[0].Config.(*SayConfig)
	if say.Text != "Welcome" {
		t.Errorf("greeting text = %q", say.Text)
	}
	gather := blocks[1].Config.(*GatherConfig)
	if gather.Prompt != "Press 1" || len(gather.Options) != 1 {
		t.Errorf("menu not carried: %+v", gather)
	}
	fwd := blocks[2].Config.(*ForwardConfig)
	if fwd.Number != "+15551234" {
		t.Errorf("forward number = %q", fwd.Number)
	}
	rec := blocks[3].Config.(*RecordConfig)
	if rec.Prompt != "Leave a message" {
		t.Errorf("voicemail prompt = %q", rec.Prompt)
	}
}

func TestLegacyUpgradePartial(t *testing.T) {
	doc := `{"greeting": "Hi", "forward": {"number": "+15551234"}}`

	cfg, err := DecodeConfig([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	blocks := Deserialize(cfg)
	if len(blocks) != 2 {
		t.Fatalf("block count = %d, want 2", len(blocks))
	}
	if blocks[0].Type != BlockSay || blocks[1].Type != BlockForward {
		t.Fatalf("types = %s,%s, want say,forward", blocks[0].Type, blocks[1].Type)
	}
	if blocks[0].Config.(*SayConfig).Text != "Hi" {
		t.Errorf("greeting = %q", blocks[0].Config.(*SayConfig).Text)
	}
	if blocks[1].Config.(*ForwardConfig).Number != "+15551234" {
		t.Errorf("number = %q", blocks[1].Config.(*ForwardConfig).Number)
	}
	if len(blocks[0].Connections)+len(blocks[1].Connections) != 0 {
		t.Error("legacy upgrade must not invent connections")
	}
}

func TestLegacyUpgradeIdempotent(t *testing.T) {
	doc := `{"greeting": "Hi", "voicemail": {"prompt": "Speak"}}`

	once, err := DecodeConfig([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	encoded, err := EncodeConfig(once)
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	twice, err := DecodeConfig([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeConfig (second): %v", err)
	}

	if !reflect.DeepEqual(Deserialize(once), Deserialize(twice)) {
		t.Errorf("upgrade is not idempotent:\nonce %+v\ntwice %+v", Deserialize(once), Deserialize(twice))
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeConfig([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestUnmarshalBlockUnknownType(t *testing.T) {
	var b Block
	err := b.UnmarshalJSON([]byte(`{"id":"x","type":"warp","config":{}}`))
	if err == nil {
		t.Fatal("expected error for unknown block type")
	}
}
