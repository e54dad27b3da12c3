package handlers

import (
	"context"
	"net/http"
	"sync"

	sc "signal_chart"
	"signal_chart/internal/chart"
	"signal_chart/internal/rangeselect"
	"signal_chart/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	genTokenToken string
	genTokenErr   error
	parseSubject  string
	parseErr      error

	lastGenUsername string
	lastGenPassword string
	lastParseToken  string
}

func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseSubject, m.parseErr
}

type mockRange struct {
	selection sc.DateRangeSelection
	bounds    rangeselect.Bounds
	setErr    error
	lastSet   service.SliderParams
	setCalls  int
}

func (m *mockRange) Selection() sc.DateRangeSelection { return m.selection }
func (m *mockRange) Bounds() rangeselect.Bounds       { return m.bounds }
func (m *mockRange) SetSlider(p service.SliderParams) (sc.DateRangeSelection, error) {
	m.setCalls++
	m.lastSet = p
	return m.selection, m.setErr
}

type mockChart struct {
	mu        sync.Mutex
	state     sc.ChartState
	updateRes service.UpdateResult
	updateErr error
	toggleRes service.ToggleResult
	listeners []chart.Listener

	lastUpdate  service.UpdateParams
	updateCalls int
	toggleCalls int
}

func (m *mockChart) Update(ctx context.Context, p service.UpdateParams) (service.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.lastUpdate = p
	return m.updateRes, m.updateErr
}
func (m *mockChart) Toggle(ctx context.Context) (service.ToggleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggleCalls++
	return m.toggleRes, nil
}
func (m *mockChart) State() sc.ChartState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
func (m *mockChart) Subscribe(l chart.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// push sets the state and notifies listeners like the controller would.
func (m *mockChart) push(st sc.ChartState) {
	m.mu.Lock()
	m.state = st
	ls := append([]chart.Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range ls {
		l.ChartUpdated(st)
	}
}

type mockEventLog struct {
	resp       []sc.FetchEvent
	summary    service.LogSummary
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]sc.FetchEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

func (m *mockEventLog) Summary(ctx context.Context, f service.LogFilter) (service.LogSummary, error) {
	m.lastFilter = f
	return m.summary, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, opts)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeaders(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
