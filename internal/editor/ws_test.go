package editor

import (
	"encoding/json"
	"testing"

	"github.com/ringflowhq/ringflow/internal/flow"
)

func TestApplyOps(t *testing.T) {
	s := NewSession("f-1")

	if err := apply(s, editorRequest{Op: "add_block", Type: flow.BlockSay}); err != nil {
		t.Fatalf("add_block: %v", err)
	}
	if err := apply(s, editorRequest{Op: "add_block", Type: flow.BlockForward}); err != nil {
		t.Fatalf("add_block: %v", err)
	}
	blocks := s.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("block count = %d, want 2", len(blocks))
	}
	a, b := blocks[0].ID, blocks[1].ID

	if err := apply(s, editorRequest{Op: "connect", From: a, To: b}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := s.Block(a); len(got.Connections) != 1 {
		t.Errorf("connect op did not wire the edge: %v", got.Connections)
	}

	cfg := json.RawMessage(`{"text":"Hello","speed":1.0}`)
	if err := apply(s, editorRequest{Op: "update_block", BlockID: a, Config: cfg}); err != nil {
		t.Fatalf("update_block: %v", err)
	}
	if got := s.Block(a).Config.(*flow.SayConfig); got.Text != "Hello" {
		t.Errorf("update_block did not apply: %+v", got)
	}

	pos := flow.Position{X: 700, Y: 400}
	if err := apply(s, editorRequest{Op: "move_block", BlockID: b, Position: &pos}); err != nil {
		t.Fatalf("move_block: %v", err)
	}
	if got := s.Block(b); got.Position != pos {
		t.Errorf("move_block Position = %+v, want %+v", got.Position, pos)
	}

	if err := apply(s, editorRequest{Op: "delete_block", BlockID: b}); err != nil {
		t.Fatalf("delete_block: %v", err)
	}
	if got := s.Block(a); len(got.Connections) != 0 {
		t.Errorf("delete_block left a dangling edge: %v", got.Connections)
	}

	if err := apply(s, editorRequest{Op: "reset"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(s.Blocks()) != 0 {
		t.Error("reset op left blocks behind")
	}
}

func TestApplyUnknownOp(t *testing.T) {
	s := NewSession("f-1")
	if err := apply(s, editorRequest{Op: "warp"}); err == nil {
		t.Fatal("expected error for unknown op")
	}
}

func TestApplyAddBlockBadType(t *testing.T) {
	s := NewSession("f-1")
	if err := apply(s, editorRequest{Op: "add_block", Type: "teleport"}); err == nil {
		t.Fatal("expected error for unknown block type")
	}
}
