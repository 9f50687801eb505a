package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"nostr-render/internal/config"
	"nostr-render/internal/nips"
	"nostr-render/internal/relay"
	"nostr-render/internal/types"
)

const (
	alicePubkey = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"
	testEventID = "a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e5f60718293a4b5c6d7e8f90"
)

type fakeClient struct {
	profiles map[string]*types.Profile
	events   map[string]*types.Event
	fetchErr error

	mu        sync.Mutex
	lastHints []string
}

func (f *fakeClient) LoadProfile(_ context.Context, pubkey string, _ []string) (*types.Profile, error) {
	if p, ok := f.profiles[pubkey]; ok {
		return p, nil
	}
	return nil, relay.ErrProfileNotFound
}

func (f *fakeClient) FetchEvent(_ context.Context, hints []string, id string) (*types.Event, error) {
	f.mu.Lock()
	f.lastHints = hints
	f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if evt, ok := f.events[id]; ok {
		return evt, nil
	}
	return nil, relay.ErrEventNotFound
}

func newTestServer(t *testing.T, client *fakeClient, mutate func(*config.Config)) (*Server, *httptest.Server) {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := NewServer(cfg, func(*config.Config) relayClient { return client })
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func aliceClient() *fakeClient {
	return &fakeClient{profiles: map[string]*types.Profile{
		alicePubkey: {PubKey: alicePubkey, Name: "alice"},
	}}
}

func postEvent(t *testing.T, url string, evt types.Event, accept string) *http.Response {
	t.Helper()

	body, _ := json.Marshal(evt)
	req, _ := http.NewRequest(http.MethodPost, url, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

func TestRenderEndpoint(t *testing.T) {
	_, ts := newTestServer(t, aliceClient(), nil)
	npub, _ := nips.EncodePubkey(alicePubkey)

	resp := postEvent(t, ts.URL+"/render", types.Event{
		Kind:    types.KindNote,
		Content: "gm nostr:" + npub + "\nhttps://x.com/a.png\n<script>alert(1)</script>",
	}, "")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}

	for _, want := range []string{
		`href="https://njump.me/` + npub + `"`,
		">alice</a>",
		`src="https://x.com/a.png"`,
		"<br",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "<script") {
		t.Errorf("script survived sanitization:\n%s", body)
	}
}

func TestRenderEndpointMedia(t *testing.T) {
	_, ts := newTestServer(t, aliceClient(), nil)

	resp := postEvent(t, ts.URL+"/render", types.Event{
		Kind:    types.KindNote,
		Content: "clip https://x.com/v.webm and https://x.com/s.mp3",
	}, "")
	body := readBody(t, resp)

	for _, want := range []string{"<video", `src="https://x.com/v.webm"`, `type="video/webm"`, "<audio", `type="audio/mpeg"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestRenderEndpointJSON(t *testing.T) {
	_, ts := newTestServer(t, aliceClient(), nil)

	resp := postEvent(t, ts.URL+"/render", types.Event{
		ID:        testEventID,
		Kind:      types.KindLongForm,
		CreatedAt: 1700000000,
		Tags:      [][]string{{"title", "My Post"}, {"summary", "About things"}},
		Content:   "# My Post\n\nBody **bold**",
	}, "application/json")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got RenderResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Title != "My Post" || got.Summary != "About things" || got.ID != testEventID {
		t.Errorf("metadata = %+v", got)
	}
	if !got.Root {
		t.Error("event without e tags should be a root")
	}
	if got.Date != "14 November 2023 - 22:13" {
		t.Errorf("Date = %q", got.Date)
	}
	if strings.Contains(got.HTML, "<h1>") || !strings.Contains(got.HTML, "<strong>bold</strong>") {
		t.Errorf("HTML = %q", got.HTML)
	}
}

func TestRenderEndpointErrors(t *testing.T) {
	_, ts := newTestServer(t, aliceClient(), func(c *config.Config) { c.Server.MaxBodyBytes = 256 })

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad json", "/render", "{not json", http.StatusBadRequest},
		{"too large", "/render", `{"content":"` + strings.Repeat("x", 1024) + `"}`, http.StatusRequestEntityTooLarge},
		{"unsigned with verify", "/render?verify=1", `{"kind":1,"content":"hi"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+tt.path, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}

	resp, err := http.Get(ts.URL + "/render")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /render status = %d, want 405", resp.StatusCode)
	}
}

func TestEventPage(t *testing.T) {
	client := aliceClient()
	client.events = map[string]*types.Event{
		testEventID: {
			ID:        testEventID,
			PubKey:    alicePubkey,
			Kind:      types.KindLongForm,
			CreatedAt: 1700000000,
			Tags: [][]string{
				{"title", "My Post"},
				{"summary", "About things"},
				{"image", "https://x.com/cover.jpg"},
			},
			Content: "# My Post\n\nHello <b>there</b>",
		},
	}
	_, ts := newTestServer(t, client, nil)

	nevent, err := nips.EncodeNEvent(testEventID, "", []string{"wss://hint.example.com"})
	if err != nil {
		t.Fatalf("EncodeNEvent: %v", err)
	}

	resp, err := http.Get(ts.URL + "/html/event/" + nevent)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>My Post</title>",
		"<h1>My Post</h1>",
		"14 November 2023 - 22:13",
		`<img class="event-image" src="https://x.com/cover.jpg"`,
		"About things",
		"<b>there</b>",
		`href="https://njump.me/nevent1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}
	if n := strings.Count(body, "<h1>"); n != 1 {
		t.Errorf("found %d <h1> elements, want the repeated heading stripped", n)
	}

	client.mu.Lock()
	hints := client.lastHints
	client.mu.Unlock()
	if len(hints) != 1 || hints[0] != "wss://hint.example.com" {
		t.Errorf("nevent hints = %v", hints)
	}
}

func TestEventPageFragment(t *testing.T) {
	client := aliceClient()
	client.events = map[string]*types.Event{
		testEventID: {ID: testEventID, Kind: types.KindNote, Content: "hello"},
	}
	_, ts := newTestServer(t, client, nil)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/html/event/"+testEventID, nil)
	req.Header.Set("H-Request", "true")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body := readBody(t, resp)

	if strings.Contains(body, "<!DOCTYPE") {
		t.Errorf("fragment carried the document shell:\n%s", body)
	}
	if !strings.Contains(body, "<p>hello</p>") {
		t.Errorf("fragment missing content:\n%s", body)
	}
}

func TestEventPageErrors(t *testing.T) {
	npub, _ := nips.EncodePubkey(alicePubkey)
	note, _ := nips.EncodeEventID(testEventID)

	tests := []struct {
		name     string
		ref      string
		fetchErr error
		want     int
	}{
		{"garbage", "hello", nil, http.StatusBadRequest},
		{"profile reference", npub, nil, http.StatusBadRequest},
		{"not found", note, nil, http.StatusNotFound},
		{"relays down", testEventID, relay.ErrNoRelays, http.StatusBadGateway},
		{"other failure", testEventID, errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := aliceClient()
			client.fetchErr = tt.fetchErr
			_, ts := newTestServer(t, client, nil)

			resp, err := http.Get(ts.URL + "/html/event/" + tt.ref)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestApplySwapsRenderer(t *testing.T) {
	s, ts := newTestServer(t, aliceClient(), nil)
	npub, _ := nips.EncodePubkey(alicePubkey)

	next := config.Default()
	next.Render.ViewerURL = "https://viewer.example.com/"
	if err := s.Apply(next); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	resp := postEvent(t, ts.URL+"/render", types.Event{Kind: types.KindNote, Content: "nostr:" + npub}, "")
	body := readBody(t, resp)
	if !strings.Contains(body, `href="https://viewer.example.com/`+npub+`"`) {
		t.Errorf("new viewer URL not used:\n%s", body)
	}

	bad := config.Default()
	bad.Render.Timezone = "Nowhere/Special"
	if err := s.Apply(bad); err == nil {
		t.Error("Apply accepted an invalid timezone")
	}
	if s.current().cfg != next {
		t.Error("failed Apply replaced the running state")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, aliceClient(), nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body := readBody(t, resp)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"ok"`) {
		t.Errorf("/health = %d %s", resp.StatusCode, body)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body = readBody(t, resp)
	resp.Body.Close()
	if !strings.Contains(body, "nostr_render_render_duration_ms_bucket") {
		t.Errorf("/metrics missing render histogram")
	}
	if !strings.Contains(body, `nostr_render_http_requests_total{class="2xx"}`) {
		t.Errorf("/metrics missing request counter")
	}
}

func TestParseEventRef(t *testing.T) {
	t.Parallel()

	note, _ := nips.EncodeEventID(testEventID)
	nevent, _ := nips.EncodeNEvent(testEventID, alicePubkey, []string{"wss://a.example.com"})
	naddr, _ := nips.EncodeNAddr(30023, alicePubkey, "slug")

	tests := []struct {
		name    string
		ref     string
		wantID  string
		hints   int
		wantErr bool
	}{
		{"hex", testEventID, testEventID, 0, false},
		{"uppercase hex", strings.ToUpper(testEventID), testEventID, 0, false},
		{"note", note, testEventID, 0, false},
		{"scheme", "nostr:" + note, testEventID, 0, false},
		{"nevent", nevent, testEventID, 1, false},
		{"naddr", naddr, "", 0, true},
		{"short hex", "abcd", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, hints, err := parseEventRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID || len(hints) != tt.hints {
				t.Errorf("parseEventRef(%q) = %q, %v", tt.ref, id, hints)
			}
		})
	}
}
