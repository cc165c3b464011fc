// Package editor owns the in-memory block graph of one flow while it is
// being edited. Every mutation leaves the graph referentially intact: no
// connection or menu option ever points at a block that is gone.
package editor

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/ringflowhq/ringflow/internal/flow"
)

// connectMode is the editor's pending-connection state machine.
type connectMode int

const (
	modeIdle connectMode = iota
	modeConnecting
)

// Block canvas footprint used for overlap tests when auto-placing.
const (
	blockWidth  = 220
	blockHeight = 120
	gridStepX   = 260
	gridStepY   = 150
	gridOriginX = 100
	gridOriginY = 100
	gridMaxX    = 1400
)

// Session is the authoritative editing state for one flow. The REST and
// WebSocket surfaces share a session, so mutations are serialized by an
// internal mutex; there is still exactly one logical mutator.
type Session struct {
	mu sync.Mutex

	FlowID string
	Voice  string

	blocks map[string]*flow.Block
	order  []string

	// Explicit adjacency: edge sets for membership, per-source order for
	// display.
	edges     map[string]map[string]struct{}
	edgeOrder map[string][]string

	mode           connectMode
	connectingFrom string
	selected       string
}

// NewSession creates an empty session for a flow.
func NewSession(flowID string) *Session {
	s := &Session{FlowID: flowID}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.blocks = map[string]*flow.Block{}
	s.order = nil
	s.edges = map[string]map[string]struct{}{}
	s.edgeOrder = map[string][]string{}
	s.mode = modeIdle
	s.connectingFrom = ""
	s.selected = ""
}

// Reset clears blocks, selection and pending connection state for a
// fresh or newly loaded flow.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Load replaces the session contents with a stored graph.
func (s *Session) Load(voice string, blocks []flow.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.Voice = voice
	for i := range blocks {
		b := blocks[i]
		conns := b.Connections
		b.Connections = nil
		s.blocks[b.ID] = &b
		s.order = append(s.order, b.ID)
		for _, to := range conns {
			s.addEdge(b.ID, to)
		}
	}
}

// AddBlock inserts a new block of the given type. When a pending
// connection is active the new block is wired from its source and the
// pending state clears. With no explicit position the block lands on the
// first free grid cell (or just right of the connecting source).
func (s *Session) AddBlock(t flow.BlockType, at *flow.Position) (*flow.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := flow.NewConfig(t)
	if err != nil {
		return nil, err
	}

	b := &flow.Block{
		ID:     uuid.NewString(),
		Type:   t,
		Config: cfg,
	}

	switch {
	case at != nil:
		b.Position = *at
	case s.mode == modeConnecting:
		b.Position = s.positionRightOf(s.connectingFrom)
	default:
		b.Position = s.freePosition()
	}

	s.blocks[b.ID] = b
	s.order = append(s.order, b.ID)

	if s.mode == modeConnecting {
		s.addEdge(s.connectingFrom, b.ID)
		s.mode = modeIdle
		s.connectingFrom = ""
	}

	out := s.materialize(b.ID)
	return &out, nil
}

// UpdateBlock merges a JSON attribute patch into a block's config.
// Unknown IDs are a silent no-op.
func (s *Session) UpdateBlock(id string, patch json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blocks[id]
	if !ok {
		return nil
	}
	if len(patch) == 0 {
		return nil
	}
	return json.Unmarshal(patch, b.Config)
}

// MoveBlock updates a block's canvas position. Unknown IDs are a no-op.
func (s *Session) MoveBlock(id string, pos flow.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.blocks[id]; ok {
		b.Position = pos
	}
}

// DeleteBlock removes a block and scrubs every reference to it: inbound
// edges and any gather option targeting it. No dangling references
// survive a delete.
func (s *Session) DeleteBlock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocks[id]; !ok {
		return
	}

	delete(s.blocks, id)
	s.order = removeString(s.order, id)

	delete(s.edges, id)
	delete(s.edgeOrder, id)
	for from := range s.edges {
		if _, ok := s.edges[from][id]; ok {
			delete(s.edges[from], id)
			s.edgeOrder[from] = removeString(s.edgeOrder[from], id)
		}
	}

	for _, b := range s.blocks {
		gather, ok := b.Config.(*flow.GatherConfig)
		if !ok {
			continue
		}
		for i := range gather.Options {
			if gather.Options[i].BlockID == id {
				gather.Options[i].BlockID = ""
			}
		}
	}

	if s.selected == id {
		s.selected = ""
	}
	if s.connectingFrom == id {
		s.mode = modeIdle
		s.connectingFrom = ""
	}
}

// ConnectBlocks adds an edge. Duplicate edges collapse (set semantics)
// and unknown endpoints or self-edges are silent no-ops.
func (s *Session) ConnectBlocks(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connect(from, to)
}

func (s *Session) connect(from, to string) {
	if from == to {
		return
	}
	if _, ok := s.blocks[from]; !ok {
		return
	}
	if _, ok := s.blocks[to]; !ok {
		return
	}
	s.addEdge(from, to)
}

// addEdge records an edge if absent. Callers hold the lock.
func (s *Session) addEdge(from, to string) {
	if s.edges[from] == nil {
		s.edges[from] = map[string]struct{}{}
	}
	if _, dup := s.edges[from][to]; dup {
		return
	}
	s.edges[from][to] = struct{}{}
	s.edgeOrder[from] = append(s.edgeOrder[from], to)
}

// DisconnectBlocks removes an edge; absent edges are a no-op.
func (s *Session) DisconnectBlocks(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[from][to]; !ok {
		return
	}
	delete(s.edges[from], to)
	s.edgeOrder[from] = removeString(s.edgeOrder[from], to)
}

// SetConnectingFrom toggles pending-connection mode. An empty ID or an
// unknown block returns the editor to idle.
func (s *Session) SetConnectingFrom(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		s.mode = modeIdle
		s.connectingFrom = ""
		return
	}
	if _, ok := s.blocks[id]; !ok {
		return
	}
	s.mode = modeConnecting
	s.connectingFrom = id
}

// ConnectingFrom reports the pending connection source, if any.
func (s *Session) ConnectingFrom() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connectingFrom, s.mode == modeConnecting
}

// ClickBlock is the canvas click interaction: with a pending connection
// it wires source to the clicked block, otherwise it selects it.
func (s *Session) ClickBlock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[id]; !ok {
		return
	}
	if s.mode == modeConnecting {
		s.connect(s.connectingFrom, id)
		s.mode = modeIdle
		s.connectingFrom = ""
		return
	}
	s.selected = id
}

// Selected reports the currently selected block ID.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Blocks returns the graph in insertion order with connections
// materialized, ready for serialization.
func (s *Session) Blocks() []flow.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]flow.Block, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.materialize(id))
	}
	return out
}

// Block returns one block by ID, or nil.
func (s *Session) Block(id string) *flow.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocks[id]; !ok {
		return nil
	}
	b := s.materialize(id)
	return &b
}

// materialize copies a block with its connection list attached. Callers
// hold the lock.
func (s *Session) materialize(id string) flow.Block {
	b := *s.blocks[id]
	b.Connections = append([]string{}, s.edgeOrder[id]...)
	return b
}

// freePosition scans the placement grid for the first cell whose
// bounding box overlaps no existing block.
func (s *Session) freePosition() flow.Position {
	for y := float64(gridOriginY); ; y += gridStepY {
		for x := float64(gridOriginX); x <= gridMaxX; x += gridStepX {
			p := flow.Position{X: x, Y: y}
			if !s.overlapsAny(p) {
				return p
			}
		}
	}
}

// positionRightOf places a block beside the connection source, falling
// back to the grid when that spot is taken.
func (s *Session) positionRightOf(sourceID string) flow.Position {
	src, ok := s.blocks[sourceID]
	if !ok {
		return s.freePosition()
	}
	p := flow.Position{X: src.Position.X + gridStepX, Y: src.Position.Y}
	if s.overlapsAny(p) {
		return s.freePosition()
	}
	return p
}

func (s *Session) overlapsAny(p flow.Position) bool {
	for _, b := range s.blocks {
		if overlaps(p, b.Position) {
			return true
		}
	}
	return false
}

// overlaps tests two block bounding boxes for intersection.
func overlaps(a, b flow.Position) bool {
	return a.X < b.X+blockWidth && b.X < a.X+blockWidth &&
		a.Y < b.Y+blockHeight && b.Y < a.Y+blockHeight
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
