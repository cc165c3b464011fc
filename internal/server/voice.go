package server

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// registerVoiceRoutes mounts the webhook endpoints the telephony
// provider calls during a live call. These answer markup, never JSON.
func (s *Server) registerVoiceRoutes(r chi.Router) {
	r.Post("/voice/{numberID}", s.inboundCallHandler)
	r.Post("/voice/{numberID}/gather/{blockID}", s.gatherHandler)
	r.Post("/voice/transcription", s.transcriptionHandler)
}

// inboundCallHandler answers an inbound call with the compiled flow of
// the dialed number. An optional block query parameter resumes the walk
// mid-graph (used by re-prompt redirects).
func (s *Server) inboundCallHandler(w http.ResponseWriter, r *http.Request) {
	numberID := chi.URLParam(r, "numberID")

	f, err := s.flows.GetActiveFlowForNumber(r.Context(), numberID)
	if err != nil {
		markup, rerr := s.compiler.NoFlowResponse()
		writeMarkup(w, markup, rerr)
		return
	}

	var markup string
	if blockID := r.URL.Query().Get("block"); blockID != "" {
		markup, err = s.compiler.CompileFrom(f, blockID, attemptParam(r))
	} else {
		markup, err = s.compiler.Compile(f)
	}
	if err != nil {
		markup, err = s.compiler.Unavailable()
	}
	writeMarkup(w, markup, err)
}

// gatherHandler resolves the digit a caller pressed at a menu block.
func (s *Server) gatherHandler(w http.ResponseWriter, r *http.Request) {
	numberID := chi.URLParam(r, "numberID")
	blockID := chi.URLParam(r, "blockID")

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	digits := r.PostFormValue("Digits")

	f, err := s.flows.GetActiveFlowForNumber(r.Context(), numberID)
	if err != nil {
		markup, rerr := s.compiler.NoFlowResponse()
		writeMarkup(w, markup, rerr)
		return
	}

	markup, err := s.compiler.CompileGatherResult(f, blockID, digits, attemptParam(r))
	if err != nil {
		markup, err = s.compiler.Unavailable()
	}
	writeMarkup(w, markup, err)
}

// transcriptionHandler receives async voicemail transcriptions. The
// provider expects a 2xx; the text is only logged for now.
// TODO: persist transcriptions alongside the recording URL once the
// voicemail inbox API lands.
func (s *Server) transcriptionHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		log.Printf("voice: transcription for call %s: %s",
			r.PostFormValue("CallSid"), r.PostFormValue("TranscriptionText"))
	}
	w.WriteHeader(http.StatusOK)
}

func attemptParam(r *http.Request) int {
	attempt, err := strconv.Atoi(r.URL.Query().Get("attempt"))
	if err != nil || attempt < 1 {
		return 1
	}
	return attempt
}

func writeMarkup(w http.ResponseWriter, markup string, err error) {
	if err != nil {
		http.Error(w, "markup generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(markup))
}
