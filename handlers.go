package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"nostr-render/internal/content"
	"nostr-render/internal/nips"
	"nostr-render/internal/nostr"
	"nostr-render/internal/relay"
	"nostr-render/internal/types"
)

var errBadEventRef = errors.New("not an event reference")

// RenderResponse is the JSON form of POST /render.
type RenderResponse struct {
	ID        string `json:"id,omitempty"`
	Kind      int    `json:"kind"`
	CreatedAt int64  `json:"created_at"`
	Date      string `json:"date"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	Image     string `json:"image,omitempty"`
	Root      bool   `json:"root"`
	HTML      string `json:"html"`
}

// renderHandler renders a posted event. The response is the sanitized HTML
// fragment, or a RenderResponse when the client asks for JSON. With
// ?verify=1 the event id and signature must check out.
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Vary", "Accept")
	log := LoggerFromContext(r.Context())
	st := s.current()

	var evt types.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid event JSON", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("verify") == "1" && !nostr.ValidateEvent(&evt) {
		http.Error(w, "event id or signature does not verify", http.StatusUnprocessableEntity)
		return
	}

	body, err := s.render(r.Context(), st, &evt)
	if err != nil {
		log.Error("render failed", "event_id", nostr.ShortID(evt.ID), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		data := st.renderer.Metadata(&evt)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(RenderResponse{
			ID:        data.ID,
			Kind:      data.Kind,
			CreatedAt: data.CreatedAt,
			Date:      st.renderer.Dates().Format(data.CreatedAt, true),
			Title:     data.Title,
			Summary:   data.Summary,
			Image:     data.Image,
			Root:      content.IsRootNote(&evt),
			HTML:      body,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

// eventPageHandler fetches an event by hex id, note1 or nevent1 and renders
// it as a standalone page. H-Request: true gets only the content fragment.
func (s *Server) eventPageHandler(w http.ResponseWriter, r *http.Request) {
	log := LoggerFromContext(r.Context())
	st := s.current()

	ref := r.PathValue("ref")
	id, hints, err := parseEventRef(ref)
	if err != nil {
		log.Debug("bad event reference", "ref", ref, "error", err)
		http.Error(w, "invalid event reference", http.StatusBadRequest)
		return
	}

	evt, err := st.client.FetchEvent(r.Context(), hints, id)
	switch {
	case errors.Is(err, relay.ErrEventNotFound):
		http.Error(w, "event not found", http.StatusNotFound)
		return
	case err != nil:
		log.Warn("event fetch failed", "event_id", nostr.ShortID(id), "error", err)
		http.Error(w, "relays unavailable", http.StatusBadGateway)
		return
	}

	body, err := s.render(r.Context(), st, evt)
	if err != nil {
		log.Error("render failed", "event_id", nostr.ShortID(id), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	page := newEventPage(st, evt, body)
	name := "base"
	if r.Header.Get("H-Request") == "true" {
		name = "fragment"
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, name, page); err != nil {
		log.Error("failed to render event page", "error", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// render runs the pipeline with the request logger and sanitizes the result.
func (s *Server) render(ctx context.Context, st *serverState, evt *types.Event) (string, error) {
	html, err := st.renderer.WithLogger(LoggerFromContext(ctx)).Render(ctx, evt)
	if err != nil {
		return "", err
	}
	return s.policy.Sanitize(html), nil
}

// parseEventRef accepts a 64-char hex id, note1 or nevent1, with or without
// the nostr: scheme. nevent relay hints are returned for the fetch.
func parseEventRef(ref string) (string, []string, error) {
	ref = strings.TrimPrefix(ref, nips.URIScheme)

	if len(ref) == 64 {
		if _, err := hex.DecodeString(ref); err == nil {
			return strings.ToLower(ref), nil, nil
		}
	}

	if strings.HasPrefix(ref, nips.PrefixNote+"1") {
		id, err := nips.DecodeNote(ref)
		return id, nil, err
	}

	entity, err := nips.Decode(ref)
	if err != nil {
		return "", nil, err
	}
	switch entity.Type {
	case nips.TypeNevent:
		return entity.EventID, entity.RelayHints, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", errBadEventRef, entity.Type)
	}
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

// eventPage is the data handed to the page templates.
type eventPage struct {
	Title       string
	Summary     string
	ShowSummary bool
	Image       string
	Kind        int
	Date        string
	ISODate     string
	Body        template.HTML
	Ref         string
	ViewerURL   string
}

func newEventPage(st *serverState, evt *types.Event, body string) eventPage {
	data := st.renderer.Metadata(evt)

	ref, err := nips.EncodeNEvent(evt.ID, evt.PubKey, nil)
	if err != nil {
		ref = evt.ID
	}
	viewer := st.cfg.Render.ViewerURL
	if viewer == "" {
		viewer = content.DefaultViewerURL
	}

	return eventPage{
		Title:       data.Title,
		Summary:     data.Summary,
		ShowSummary: evt.IsArticle() && data.Summary != "",
		Image:       data.Image,
		Kind:        data.Kind,
		Date:        st.renderer.Dates().Format(data.CreatedAt, true),
		ISODate:     time.Unix(data.CreatedAt, 0).UTC().Format(time.RFC3339),
		// sanitized by the content policy in render
		Body:      template.HTML(body),
		Ref:       ref,
		ViewerURL: viewer + ref,
	}
}
