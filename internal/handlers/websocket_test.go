package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	sc "signal_chart"
	"signal_chart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// --- parseInterval unit tests ---

func TestParseInterval(t *testing.T) {
	h := NewHandler(&service.Service{}, nil, Options{})

	cases := []struct {
		name string
		u    string
		want time.Duration
	}{
		{"default_when_missing", "/ws", 1 * time.Second},
		{"interval_string_valid", "/ws?interval=200ms", 200 * time.Millisecond},
		{"interval_ms_valid", "/ws?interval_ms=150", 150 * time.Millisecond},
		{"interval_too_large", "/ws?interval=20s", 1 * time.Second},
		{"interval_ms_too_large", "/ws?interval_ms=20000", 1 * time.Second},
		{"interval_invalid_string", "/ws?interval=bogus", 1 * time.Second},
		{"interval_ms_invalid", "/ws?interval_ms=NaN", 1 * time.Second},
		{"both_present_interval_wins", "/ws?interval=2s&interval_ms=150", 2 * time.Second},
		{"both_present_invalid_interval_ms_used", "/ws?interval=bogus&interval_ms=250", 250 * time.Millisecond},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tc.u, nil)
			got := h.parseInterval(c)
			if got != tc.want {
				t.Fatalf("got %v, want %v for %s", got, tc.want, tc.u)
			}
		})
	}
}

// --- websocket integration tests ---

func dialWS(t *testing.T, ch *mockChart, query url.Values) (*websocket.Conn, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(&service.Service{Chart: ch}, nil, Options{})
	r.GET("/ws", h.wsConnect)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws"
	u.RawQuery = query.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn, h
}

type envelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func readState(t *testing.T, conn *websocket.Conn) sc.ChartState {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env envelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != wsTypeChart || len(env.Data) == 0 {
		t.Fatalf("bad envelope: %+v", env)
	}
	var st sc.ChartState
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return st
}

func TestWebSocket_StateStream_InitialAndPeriodic(t *testing.T) {
	ch := &mockChart{state: sc.ChartState{EntityID: 2, Visible: true, Fills: [4]float64{0.5, 0.5, 1, 1}}}
	conn, _ := dialWS(t, ch, url.Values{"interval_ms": {"20"}})

	st := readState(t, conn)
	if st.EntityID != 2 || st.Fills != ch.state.Fills {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	if st = readState(t, conn); st.EntityID != 2 {
		t.Fatalf("unexpected tick state: %+v", st)
	}
}

func TestWebSocket_PushesOnChange(t *testing.T) {
	ch := &mockChart{}
	conn, h := dialWS(t, ch, url.Values{"interval": {"10s"}})

	_ = readState(t, conn) // initial
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.size() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ch.push(sc.ChartState{EntityID: 9, Seq: 3, Fills: [4]float64{1, 1, 1, 1}})
	st := readState(t, conn)
	if st.EntityID != 9 || st.Seq != 3 {
		t.Fatalf("expected pushed state, got %+v", st)
	}
}

func TestWebSocket_Msgpack(t *testing.T) {
	ch := &mockChart{state: sc.ChartState{EntityID: 5, Visible: true, Fills: [4]float64{0.1, 0.2, 0.3, 1}}}
	conn, _ := dialWS(t, ch, url.Values{"format": {"msgpack"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Fatalf("expected binary frame, got %d", kind)
	}
	var env struct {
		Type string        `msgpack:"type"`
		Data sc.ChartState `msgpack:"data"`
	}
	if err := msgpack.Unmarshal(data, &env); err != nil {
		t.Fatalf("msgpack decode: %v", err)
	}
	if env.Type != wsTypeChart || env.Data.EntityID != 5 || env.Data.Fills != ch.state.Fills {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestWebSocket_UnsubscribesOnClose(t *testing.T) {
	ch := &mockChart{}
	conn, h := dialWS(t, ch, url.Values{})
	_ = readState(t, conn)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.hub.size() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_KeepsLatestPending(t *testing.T) {
	b := newHub()
	ch := b.subscribe()
	b.ChartUpdated(sc.ChartState{Seq: 1})
	b.ChartUpdated(sc.ChartState{Seq: 2})
	if got := <-ch; got.Seq != 2 {
		t.Fatalf("expected latest state, got seq %d", got.Seq)
	}
	b.unsubscribe(ch)
	b.ChartUpdated(sc.ChartState{Seq: 3})
	if b.size() != 0 {
		t.Fatalf("expected no subscribers")
	}
}
