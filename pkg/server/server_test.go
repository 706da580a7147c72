package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/vizgrid/pkg/comm"
	"github.com/matzehuels/vizgrid/pkg/layout"
	"github.com/matzehuels/vizgrid/pkg/session"
	"github.com/matzehuels/vizgrid/pkg/store"
)

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	reg := session.NewRegistry(comm.NewMemoryBus(), nil, session.WithTokens(layout.SequentialTokens("t")))
	t.Cleanup(func() { reg.Close() })
	return New(reg, opts...)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func createSession(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/sessions", nil)
	expectStatus(t, rec, http.StatusCreated)
	return decode[session.Info](t, rec).ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	createSession(t, s)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	expectStatus(t, rec, http.StatusOK)
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["sessions"] != float64(1) {
		t.Errorf("health = %v", body)
	}
}

func TestPlacementFlow(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)
	base := "/api/sessions/" + sid

	rec := do(t, s, http.MethodPost, base+"/layouts", map[string]any{"matrix": [][]int{{1, 1}, {2, 3}}})
	expectStatus(t, rec, http.StatusCreated)
	lay := decode[session.WidgetState](t, rec)
	if lay.Kind != layout.Kind || lay.Ready == nil || *lay.Ready {
		t.Fatalf("layout = %+v", lay)
	}
	if got := lay.State[layout.AttrGridTemplateAreas]; got != "\"t1 t1\"\n\"t2 t3\"" {
		t.Errorf("template = %q", got)
	}

	rec = do(t, s, http.MethodPost, base+"/widgets", map[string]string{"kind": "chart"})
	expectStatus(t, rec, http.StatusCreated)
	chart := decode[session.WidgetState](t, rec)

	rec = do(t, s, http.MethodPost, base+"/layouts/"+lay.ID+"/children", map[string]any{"widget": chart.ID, "region": 3})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodPost, base+"/widgets/"+lay.ID+"/messages", `{"event":"dom_ready"}`)
	expectStatus(t, rec, http.StatusOK)
	lay = decode[session.WidgetState](t, rec)
	if lay.Ready == nil || !*lay.Ready {
		t.Errorf("layout not ready after dom_ready: %+v", lay)
	}

	rec = do(t, s, http.MethodGet, base+"/widgets/"+chart.ID, nil)
	expectStatus(t, rec, http.StatusOK)
	chart = decode[session.WidgetState](t, rec)
	if chart.State["elementId"] != "t3" {
		t.Errorf("elementId = %v, want t3", chart.State["elementId"])
	}

	rec = do(t, s, http.MethodGet, base+"/events?after=0", nil)
	expectStatus(t, rec, http.StatusOK)
	events := decode[struct {
		Events []comm.Envelope `json:"events"`
		Last   uint64          `json:"last"`
	}](t, rec)
	if len(events.Events) == 0 || events.Last != events.Events[len(events.Events)-1].Seq {
		t.Errorf("events = %+v", events)
	}

	rec = do(t, s, http.MethodGet, base+"/events?after="+itoa(events.Last), nil)
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"events": []`) {
		t.Errorf("expected no newer events: %s", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, base, nil)
	expectStatus(t, rec, http.StatusOK)
	if info := decode[map[string]any](t, rec); info["widgets"] != float64(2) {
		t.Errorf("session = %v", info)
	}
}

func itoa(n uint64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestPlaceInvalidRegion(t *testing.T) {
	s := newTestServer(t)
	base := "/api/sessions/" + createSession(t, s)

	lay := decode[session.WidgetState](t, do(t, s, http.MethodPost, base+"/layouts", map[string]any{"matrix": [][]int{{1, 2}}}))
	chart := decode[session.WidgetState](t, do(t, s, http.MethodPost, base+"/widgets", map[string]string{"kind": "chart"}))

	rec := do(t, s, http.MethodPost, base+"/layouts/"+lay.ID+"/children", map[string]any{"widget": chart.ID, "region": 5})
	expectStatus(t, rec, http.StatusUnprocessableEntity)
	body := decode[errorBody](t, rec)
	if body.Code != "INVALID_REGION" || len(body.Available) != 2 {
		t.Errorf("error = %+v", body)
	}
	if !strings.Contains(body.Message, "available regions") {
		t.Errorf("message = %q", body.Message)
	}
}

func TestErrors(t *testing.T) {
	s := newTestServer(t)
	base := "/api/sessions/" + createSession(t, s)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", nil, 404, "SESSION_NOT_FOUND"},
		{"unknown widget", http.MethodGet, base + "/widgets/nope", nil, 404, "WIDGET_NOT_FOUND"},
		{"non-rectangular", http.MethodPost, base + "/layouts", map[string]any{"matrix": [][]int{{1, 2}, {2, 1}}}, 422, "NON_RECTANGULAR_REGION"},
		{"gap", http.MethodPost, base + "/layouts", map[string]any{"matrix": [][]int{{1, 3}}}, 422, "NON_SEQUENTIAL_IDS"},
		{"malformed", http.MethodPost, base + "/layouts", `{"matrix": [1, 2]}`, 422, "MALFORMED_MATRIX"},
		{"no matrix", http.MethodPost, base + "/layouts", `{}`, 422, "INVALID_INPUT"},
		{"bad style", http.MethodPost, base + "/layouts", map[string]any{"matrix": [][]int{{1}}, "style": "neon"}, 422, "INVALID_INPUT"},
		{"bad json", http.MethodPost, base + "/widgets", `{`, 422, "INVALID_INPUT"},
		{"no kind", http.MethodPost, base + "/widgets", `{}`, 422, "INVALID_INPUT"},
		{"bad message", http.MethodPost, base + "/widgets/x/messages", `{}`, 422, "INVALID_MESSAGE"},
		{"bad after", http.MethodGet, base + "/events?after=-1", nil, 422, "INVALID_INPUT"},
		{"no store", http.MethodGet, "/api/layouts", nil, 501, "UNSUPPORTED"},
		{"creator too large", http.MethodPost, base + "/creators", map[string]int{"rows": 100}, 422, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.body)
			expectStatus(t, rec, tt.status)
			if body := decode[errorBody](t, rec); string(body.Code) != tt.code {
				t.Errorf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t)
	sid := createSession(t, s)

	expectStatus(t, do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil), http.StatusNoContent)
	expectStatus(t, do(t, s, http.MethodDelete, "/api/sessions/"+sid, nil), http.StatusNotFound)
}

func TestCreatorGenerate(t *testing.T) {
	s := newTestServer(t)
	base := "/api/sessions/" + createSession(t, s)

	rec := do(t, s, http.MethodPost, base+"/creators", map[string]int{"rows": 2, "columns": 2})
	expectStatus(t, rec, http.StatusCreated)
	c := decode[session.WidgetState](t, rec)

	// A fresh creator has no matrix to take missing dimensions from.
	rec = do(t, s, http.MethodPost, base+"/creators/"+c.ID+"/generate", nil)
	expectStatus(t, rec, http.StatusOK)
	c = decode[session.WidgetState](t, rec)
	if got, _ := json.Marshal(c.State["matrix"]); string(got) != "[]" {
		t.Errorf("matrix = %s, want []", got)
	}

	rec = do(t, s, http.MethodPost, base+"/creators/"+c.ID+"/generate", map[string]int{"rows": 2, "columns": 2})
	expectStatus(t, rec, http.StatusOK)
	c = decode[session.WidgetState](t, rec)
	if got, _ := json.Marshal(c.State["matrix"]); string(got) != "[[1,2],[3,4]]" {
		t.Errorf("matrix = %s", got)
	}

	rec = do(t, s, http.MethodPost, base+"/widgets/"+c.ID+"/messages", `{"event":"matrix_generated","matrix":[[1,1],[2,2]]}`)
	expectStatus(t, rec, http.StatusOK)
	c = decode[session.WidgetState](t, rec)
	if got, _ := json.Marshal(c.State["matrix"]); string(got) != "[[1,1],[2,2]]" {
		t.Errorf("matrix after message = %s", got)
	}
}

func TestStoredLayouts(t *testing.T) {
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, WithStore(st))

	rec := do(t, s, http.MethodPut, "/api/layouts/overview", map[string]any{"matrix": [][]int{{1, 2}}, "style": "dark"})
	expectStatus(t, rec, http.StatusOK)

	rec = do(t, s, http.MethodGet, "/api/layouts", nil)
	expectStatus(t, rec, http.StatusOK)
	if recs := decode[[]store.Record](t, rec); len(recs) != 1 || recs[0].Regions != 2 {
		t.Errorf("list = %+v", recs)
	}

	base := "/api/sessions/" + createSession(t, s)
	rec = do(t, s, http.MethodPost, base+"/layouts", map[string]string{"layout": "overview"})
	expectStatus(t, rec, http.StatusCreated)
	if lay := decode[session.WidgetState](t, rec); lay.State[layout.AttrStyle] != "dark" {
		t.Errorf("style = %v", lay.State[layout.AttrStyle])
	}

	expectStatus(t, do(t, s, http.MethodPost, base+"/layouts", map[string]string{"layout": "missing"}), http.StatusNotFound)
	expectStatus(t, do(t, s, http.MethodPut, "/api/layouts/bad", map[string]any{"matrix": [][]int{{2}}}), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, s, http.MethodDelete, "/api/layouts/overview", nil), http.StatusNoContent)
	expectStatus(t, do(t, s, http.MethodGet, "/api/layouts/overview", nil), http.StatusNotFound)
}

func TestRender(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/render?format=html&style=dark", `{"matrix": [[1, 1], [2, 3]]}`)
	expectStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if rec.Header().Get("X-Vizgrid-Regions") != "3" {
		t.Errorf("regions header = %q", rec.Header().Get("X-Vizgrid-Regions"))
	}
	if !strings.Contains(rec.Body.String(), "area3") {
		t.Error("html missing area3")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/render?format=dot", strings.NewReader("matrix:\n  - [1, 2]\n"))
	req.Header.Set("Content-Type", "application/yaml")
	yrec := httptest.NewRecorder()
	s.ServeHTTP(yrec, req)
	expectStatus(t, yrec, http.StatusOK)
	if !strings.Contains(yrec.Body.String(), `"area1" -- "area2"`) {
		t.Errorf("dot = %s", yrec.Body.String())
	}

	expectStatus(t, do(t, s, http.MethodPost, "/api/render?format=bmp", `[[1]]`), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, s, http.MethodPost, "/api/render", ""), http.StatusUnprocessableEntity)
	expectStatus(t, do(t, s, http.MethodPost, "/api/render?row_height=x", `[[1]]`), http.StatusUnprocessableEntity)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
