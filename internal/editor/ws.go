package editor

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ringflowhq/ringflow/internal/flow"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// editorRequest is the incoming WebSocket message format. Op selects the
// mutation; unused fields are ignored per op.
type editorRequest struct {
	Op       string          `json:"op"` // add_block, update_block, move_block, delete_block, connect, disconnect, set_connecting, click, reset, state
	Type     flow.BlockType  `json:"type,omitempty"`
	BlockID  string          `json:"block_id,omitempty"`
	From     string          `json:"from,omitempty"`
	To       string          `json:"to,omitempty"`
	Position *flow.Position  `json:"position,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// editorResponse is the outgoing WebSocket message format.
type editorResponse struct {
	Type  string `json:"type"` // "state" or "error"
	State *State `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

func wsHandler(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := mgr.Get(chi.URLParam(r, "flowID"))
		if s == nil {
			http.Error(w, "editor session not open", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("editor: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("editor: websocket read: %v", err)
				}
				return
			}

			var req editorRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendError(conn, "invalid message format")
				continue
			}

			if err := apply(s, req); err != nil {
				sendError(conn, err.Error())
				continue
			}

			state := snapshot(s)
			sendState(conn, &state)
		}
	}
}

// apply dispatches one mutation op onto the session.
func apply(s *Session, req editorRequest) error {
	switch req.Op {
	case "add_block":
		_, err := s.AddBlock(req.Type, req.Position)
		return err
	case "update_block":
		return s.UpdateBlock(req.BlockID, req.Config)
	case "move_block":
		if req.Position != nil {
			s.MoveBlock(req.BlockID, *req.Position)
		}
		return nil
	case "delete_block":
		s.DeleteBlock(req.BlockID)
		return nil
	case "connect":
		s.ConnectBlocks(req.From, req.To)
		return nil
	case "disconnect":
		s.DisconnectBlocks(req.From, req.To)
		return nil
	case "set_connecting":
		s.SetConnectingFrom(req.BlockID)
		return nil
	case "click":
		s.ClickBlock(req.BlockID)
		return nil
	case "reset":
		s.Reset()
		return nil
	case "state":
		return nil
	default:
		return errUnknownOp(req.Op)
	}
}

type unknownOpError string

func (e unknownOpError) Error() string { return "unknown op: " + string(e) }

func errUnknownOp(op string) error { return unknownOpError(op) }

func sendState(conn *websocket.Conn, state *State) {
	if err := conn.WriteJSON(editorResponse{Type: "state", State: state}); err != nil {
		log.Printf("editor: websocket write: %v", err)
	}
}

func sendError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(editorResponse{Type: "error", Error: message}); err != nil {
		log.Printf("editor: websocket write error: %v", err)
	}
}
