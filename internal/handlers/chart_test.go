package handlers

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	sc "signal_chart"
	"signal_chart/internal/service"
)

func TestHealth(t *testing.T) {
	r := newTestRouter(&service.Service{}, Options{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(statusOK)) {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestChartHandlers_Update(t *testing.T) {
	ch := &mockChart{updateRes: service.UpdateResult{EntityID: 1, Seq: 4, Start: "a", End: "b"}}
	r := newTestRouter(&service.Service{Chart: ch}, Options{})

	// no body → default entity (zero passed through)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/chart/update", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("update status=%d body=%s", w.Code, w.Body.String())
	}
	if ch.lastUpdate.EntityID != 0 {
		t.Fatalf("expected default entity request, got %+v", ch.lastUpdate)
	}
	var resp struct {
		Status string               `json:"status"`
		Update service.UpdateResult `json:"update"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != statusStarted || resp.Update.Seq != 4 {
		t.Fatalf("unexpected response %+v", resp)
	}

	// explicit mid
	w = httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/v1/chart/update", `{"mid":7}`))
	if w.Code != http.StatusAccepted || ch.lastUpdate.EntityID != 7 {
		t.Fatalf("update mid=7: code=%d last=%+v", w.Code, ch.lastUpdate)
	}

	// malformed body
	w = httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/v1/chart/update", `{"mid":"x"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", w.Code)
	}
	if ch.updateCalls != 2 {
		t.Fatalf("expected 2 Update calls, got %d", ch.updateCalls)
	}
}

func TestChartHandlers_UpdateInvalidEntity(t *testing.T) {
	ch := &mockChart{updateErr: service.ErrInvalidEntity}
	r := newTestRouter(&service.Service{Chart: ch}, Options{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, postJSON("/api/v1/chart/update", `{"mid":-1}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestChartHandlers_ToggleAndState(t *testing.T) {
	ch := &mockChart{
		toggleRes: service.ToggleResult{Visible: true, Seq: 2},
		state:     sc.ChartState{EntityID: 1, Visible: true, Fills: [4]float64{0.25, 0.5, 0.75, 1}},
	}
	r := newTestRouter(&service.Service{Chart: ch}, Options{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/chart/toggle", nil))
	var tog struct {
		Status  string `json:"status"`
		Visible bool   `json:"visible"`
		Seq     uint64 `json:"seq"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &tog)
	if w.Code != http.StatusOK || tog.Status != statusStarted || !tog.Visible || tog.Seq != 2 {
		t.Fatalf("toggle: code=%d resp=%+v", w.Code, tog)
	}

	ch.toggleRes = service.ToggleResult{}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/chart/toggle", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &tog)
	if tog.Status != statusIdle || tog.Visible {
		t.Fatalf("hide: resp=%+v", tog)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart/state", nil))
	var st sc.ChartState
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	if st.Fills != ch.state.Fills || st.EntityID != 1 {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestChartHandlers_Image(t *testing.T) {
	ch := &mockChart{}
	r := newTestRouter(&service.Service{Chart: ch}, Options{ImageWidth: 120, ImageHeight: 120})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart/image.png", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty chart: expected 404, got %d", w.Code)
	}

	ch.state.Fills = [4]float64{0.4, 0.6, 0.9, 1}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart/image.png?w=64&h=5000", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("image status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 120 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
}
