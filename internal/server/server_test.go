package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"plate-go/internal/config"
	"plate-go/internal/plate"
	"plate-go/internal/testutil"
)

type testServer struct {
	srv *Server
	est *testutil.ScriptedEstimator
	cam plate.Camera
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cam := testutil.NewTestCamera()
	est := testutil.NewScriptedEstimator()
	tr, deps := testutil.NewTestTracker(t, testutil.NewTestState(t), cam, est)
	reports := plate.NewReportService(testutil.NewTestJournal(t), testutil.NewTestArchive(), nil,
		plate.NewNopLogger(), deps.Clock, testutil.NewPrefixedIDGenerator("export"))
	srv := New(config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}}, tr, reports, plate.NewNopLogger())
	return &testServer{srv: srv, est: est, cam: cam}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeSnapshot(t *testing.T, rec *httptest.ResponseRecorder) snapshot {
	t.Helper()
	var s snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decoding snapshot: %v\n%s", err, rec.Body.String())
	}
	return s
}

// decodeEntryResponse reads a confirm or delete body: the snapshot fields at
// the top level plus the affected entry.
func decodeEntryResponse(t *testing.T, rec *httptest.ResponseRecorder) entryResponse {
	t.Helper()
	var top map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &top); err != nil {
		t.Fatalf("decoding body: %v\n%s", err, rec.Body.String())
	}
	for _, key := range []string{"state", "summary", "entry"} {
		if _, ok := top[key]; !ok {
			t.Errorf("body lacks %q: %s", key, rec.Body.String())
		}
	}
	var r entryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatal(err)
	}
	return r
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func TestServer_SearchConfirmFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.est.Push(testutil.Returns("Oatmeal", 150, 5, 27, 3))

	rec := ts.do(t, http.MethodPost, "/api/search", searchRequest{Query: "bowl of oatmeal"})
	expectStatus(t, rec, http.StatusOK)
	s := decodeSnapshot(t, rec)
	if s.State.Phase != plate.PhaseDraftPending || s.State.Draft == nil || s.State.Draft.Name != "Oatmeal" {
		t.Fatalf("state after search = %+v", s.State)
	}

	rec = ts.do(t, http.MethodPut, "/api/draft/servings", map[string]float64{"servings": 2})
	expectStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodPost, "/api/draft/confirm", confirmRequest{MealType: "breakfast"})
	expectStatus(t, rec, http.StatusOK)
	confirmed := decodeEntryResponse(t, rec)
	if confirmed.Entry.Calories != 300 || confirmed.Entry.MealType != plate.Breakfast {
		t.Errorf("confirmed entry = %+v", confirmed.Entry)
	}
	if confirmed.Summary.TotalCalories != 300 {
		t.Errorf("TotalCalories = %d, want 300", confirmed.Summary.TotalCalories)
	}
	if confirmed.State.Phase != plate.PhaseIdle || len(confirmed.State.Entries) != 1 {
		t.Errorf("state = %+v, want idle with one entry", confirmed.State)
	}
}

func TestServer_EditAndDelete(t *testing.T) {
	ts := newTestServer(t)
	ts.est.Push(testutil.Returns("Apple", 95, 0, 25, 0))
	expectStatus(t, ts.do(t, http.MethodPost, "/api/search", searchRequest{Query: "apple"}), http.StatusOK)
	rec := ts.do(t, http.MethodPost, "/api/draft/confirm", confirmRequest{MealType: "Snack"})
	expectStatus(t, rec, http.StatusOK)
	confirmed := decodeEntryResponse(t, rec)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/entries/missing/edit", nil), http.StatusNotFound)

	rec = ts.do(t, http.MethodPost, fmt.Sprintf("/api/entries/%s/edit", confirmed.Entry.ID), nil)
	expectStatus(t, rec, http.StatusOK)
	if d := decodeSnapshot(t, rec).State.Draft; d == nil || d.EditingID != confirmed.Entry.ID {
		t.Fatalf("edit draft = %+v", d)
	}

	name := "Green apple"
	expectStatus(t, ts.do(t, http.MethodPatch, "/api/draft", plate.DraftRevision{Name: &name}), http.StatusOK)

	rec = ts.do(t, http.MethodDelete, "/api/draft", nil)
	expectStatus(t, rec, http.StatusOK)
	deleted := decodeEntryResponse(t, rec)
	if deleted.Entry.ID != confirmed.Entry.ID {
		t.Errorf("deleted id = %q, want %q", deleted.Entry.ID, confirmed.Entry.ID)
	}
	if n := len(deleted.State.Entries); n != 0 {
		t.Errorf("entries after delete = %d, want 0", n)
	}
}

func TestServer_CaptureFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.est.Push(testutil.Returns("Salad", 200, 4, 10, 15))

	expectStatus(t, ts.do(t, http.MethodPost, "/api/capture/start", nil), http.StatusOK)
	rec := ts.do(t, http.MethodPost, "/api/capture/frame", nil)
	expectStatus(t, rec, http.StatusOK)
	if d := decodeSnapshot(t, rec).State.Draft; d == nil || d.Source != plate.SourceCamera {
		t.Fatalf("draft = %+v", d)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/capture/start", nil), http.StatusConflict)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/draft/discard", nil), http.StatusOK)
	expectStatus(t, ts.do(t, http.MethodPost, "/api/draft/discard", nil), http.StatusConflict)
}

func TestServer_SubmitImage(t *testing.T) {
	ts := newTestServer(t)
	ts.est.Push(testutil.Returns("Pizza", 285, 12, 36, 10))

	req := httptest.NewRequest(http.MethodPost, "/api/capture/image", bytes.NewReader([]byte{0xff, 0xd8, 0xff}))
	req.Header.Set("Content-Type", "image/jpeg")
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	frames := ts.est.Frames()
	if len(frames) != 1 || frames[0].MIMEType != "image/jpeg" || len(frames[0].Data) != 3 {
		t.Errorf("estimator frames = %+v", frames)
	}

	expectStatus(t, ts.do(t, http.MethodPost, "/api/draft/discard", nil), http.StatusOK)
	req = httptest.NewRequest(http.MethodPost, "/api/capture/image", http.NoBody)
	rec = httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestServer_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   any
		setup  func(*testServer)
		want   int
	}{
		{name: "estimation failure", method: http.MethodPost, path: "/api/search", body: searchRequest{Query: "mystery"},
			setup: func(ts *testServer) { ts.est.Push(testutil.NoResult()) }, want: http.StatusUnprocessableEntity},
		{name: "empty search", method: http.MethodPost, path: "/api/search", body: searchRequest{}, want: http.StatusBadRequest},
		{name: "servings without draft", method: http.MethodPut, path: "/api/draft/servings", body: map[string]float64{"servings": 1}, want: http.StatusConflict},
		{name: "missing servings", method: http.MethodPut, path: "/api/draft/servings", body: map[string]any{}, want: http.StatusBadRequest},
		{name: "confirm without draft", method: http.MethodPost, path: "/api/draft/confirm", body: confirmRequest{MealType: "Lunch"}, want: http.StatusConflict},
		{name: "unknown meal type", method: http.MethodPost, path: "/api/draft/confirm", body: confirmRequest{MealType: "Brunch"}, want: http.StatusBadRequest},
		{name: "delete without draft", method: http.MethodDelete, path: "/api/draft", want: http.StatusConflict},
		{name: "frame without capture", method: http.MethodPost, path: "/api/capture/frame", want: http.StatusConflict},
		{name: "camera denied", method: http.MethodPost, path: "/api/capture/start",
			setup: func(ts *testServer) {
				ts.cam.(interface{ Deny(error) }).Deny(errors.New("permission denied"))
			}, want: http.StatusServiceUnavailable},
		{name: "unknown capture mode", method: http.MethodPost, path: "/api/capture/start", body: map[string]string{"mode": "xray"}, want: http.StatusBadRequest},
		{name: "unknown preset", method: http.MethodPost, path: "/api/water", body: waterRequest{Amount: 333}, want: http.StatusBadRequest},
		{name: "negative steps", method: http.MethodPut, path: "/api/steps", body: map[string]int{"steps": -5}, want: http.StatusBadRequest},
		{name: "bad limit", method: http.MethodGet, path: "/api/exports?limit=many", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tt.setup != nil {
				tt.setup(ts)
			}
			expectStatus(t, ts.do(t, tt.method, tt.path, tt.body), tt.want)
		})
	}
}

func TestServer_WaterAndSteps(t *testing.T) {
	ts := newTestServer(t)

	expectStatus(t, ts.do(t, http.MethodPost, "/api/water", waterRequest{Amount: 500}), http.StatusOK)
	rec := ts.do(t, http.MethodPost, "/api/water", waterRequest{Amount: 250})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeSnapshot(t, rec).Summary.Water; got != 750 {
		t.Errorf("Water = %d, want 750", got)
	}

	rec = ts.do(t, http.MethodDelete, "/api/water", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := decodeSnapshot(t, rec).State.Hydration.Current; got != 0 {
		t.Errorf("Current after reset = %d, want 0", got)
	}

	rec = ts.do(t, http.MethodPut, "/api/steps", map[string]int{"steps": 5000})
	expectStatus(t, rec, http.StatusOK)
	if got := decodeSnapshot(t, rec).Summary.StepProgress; got != 0.5 {
		t.Errorf("StepProgress = %v, want 0.5", got)
	}
}

func TestServer_ExportAndList(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/exports", nil)
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Body.String(); got != `{"exports":[]}` {
		t.Errorf("empty exports body = %s", got)
	}

	rec = ts.do(t, http.MethodPost, "/api/export", nil)
	expectStatus(t, rec, http.StatusCreated)
	var exported plate.ExportRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &exported); err != nil {
		t.Fatal(err)
	}
	if exported.Date != "2024-01-15" || exported.Encrypted {
		t.Errorf("export = %+v", exported)
	}

	rec = ts.do(t, http.MethodGet, "/api/exports?limit=5", nil)
	expectStatus(t, rec, http.StatusOK)
	var list struct {
		Exports []plate.ExportRecord `json:"exports"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Exports) != 1 || list.Exports[0].ID != exported.ID {
		t.Errorf("exports = %+v", list.Exports)
	}
}

func TestServer_CORS(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/state", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("start capture: %w", plate.ErrDraftPending), http.StatusConflict},
		{fmt.Errorf("fetch: %w", plate.ErrReportNotFound), http.StatusNotFound},
		{plate.ErrWrongPassphrase, http.StatusUnauthorized},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}
