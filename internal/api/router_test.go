package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/timmy/drawmatch/internal/api/middleware"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/metrics"
	"github.com/timmy/drawmatch/internal/presence"
	"github.com/timmy/drawmatch/internal/service"
)

type stubPrompts struct {
	prompt *domain.Prompt
}

func (s *stubPrompts) RandomPrompt(context.Context) (*domain.Prompt, error) {
	if s.prompt == nil {
		return nil, domain.ErrNotFound
	}
	return s.prompt, nil
}

type stubEvaluator struct {
	result *domain.EvaluationResult
	err    error
	calls  int
}

func (s *stubEvaluator) Evaluate(context.Context, *service.EvaluationRequest) (*domain.EvaluationResult, error) {
	s.calls++
	return s.result, s.err
}

type stubLeaderboard struct {
	lastGame    string
	lastResult  *service.GameResultSubmission
	err         error
	statsErr    error
	removeCalls [][2]string
	best        map[string]float64
}

func (s *stubLeaderboard) RecordScore(_ context.Context, sub *service.ScoreSubmission) (*domain.LeaderboardEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.best == nil {
		s.best = make(map[string]float64)
	}
	key := sub.PlayerName + "/" + sub.Game
	if sub.Score > s.best[key] {
		s.best[key] = sub.Score
	}
	return &domain.LeaderboardEntry{PlayerName: sub.PlayerName, Game: sub.Game, HighScore: s.best[key]}, nil
}

func (s *stubLeaderboard) RecordGameResult(_ context.Context, sub *service.GameResultSubmission) (string, error) {
	s.lastResult = sub
	return "result-42", s.err
}

func (s *stubLeaderboard) TopScores(_ context.Context, game string, _ int) ([]domain.LeaderboardEntry, error) {
	s.lastGame = game
	return []domain.LeaderboardEntry{{PlayerName: "ana", Game: game, HighScore: 90}}, nil
}

func (s *stubLeaderboard) RemoveEntry(_ context.Context, game, player string) error {
	s.removeCalls = append(s.removeCalls, [2]string{game, player})
	return s.err
}

func (s *stubLeaderboard) UserStats(_ context.Context, player string) (*domain.UserStats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return &domain.UserStats{PlayerName: player, TotalScore: 25, GamesPlayed: 2, HighScore: 15}, nil
}

type testServer struct {
	prompts   *stubPrompts
	evaluator *stubEvaluator
	board     *stubLeaderboard
	tracker   *presence.Tracker
	metrics   *metrics.Manager
	handler   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry := prometheus.NewRegistry()
	ts := &testServer{
		prompts:   &stubPrompts{},
		evaluator: &stubEvaluator{},
		board:     &stubLeaderboard{},
		tracker:   presence.NewTracker(presence.WithTTL(time.Minute)),
		metrics:   metrics.NewManager(metrics.WithPrometheusRegistry(registry)),
	}
	ts.handler = SetupRouter(&Services{
		Prompts:     ts.prompts,
		Evaluator:   ts.evaluator,
		Leaderboard: ts.board,
		Presence:    ts.tracker,
	}, &RouterConfig{
		Mode:           "test",
		CORS:           middleware.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		BodyLimitBytes: 1024,
		Metrics:        ts.metrics,
		Registry:       registry,
	})
	return ts
}

func (ts *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestGetRandomPrompt(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/getRandomPrompt", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty store status = %d, want 404", w.Code)
	}

	ts.prompts.prompt = &domain.Prompt{ID: "p1", Name: "Cat", Description: "A small mammal"}
	w = ts.do(http.MethodGet, "/api/getRandomPrompt", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["promptId"] != "p1" || body["text"] != "Cat" || body["description"] != "A small mammal" {
		t.Errorf("body = %v", body)
	}
}

func TestCheckDrawing(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "missing drawing", body: `{"promptId":"p1"}`, wantStatus: http.StatusBadRequest, wantMsg: "No drawing data provided"},
		{name: "empty body", body: "", wantStatus: http.StatusBadRequest, wantMsg: "No drawing data provided"},
		{name: "malformed json", body: `{"drawing":`, wantStatus: http.StatusBadRequest, wantMsg: "Invalid request body"},
		{name: "unknown prompt", body: `{"promptId":"p1","drawing":"x"}`, err: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantMsg: "Prompt not found"},
		{name: "inappropriate", body: `{"promptId":"p1","drawing":"x"}`, err: domain.ErrInappropriateContent, wantStatus: http.StatusBadRequest, wantMsg: "Inappropriate content detected"},
		{name: "upstream", body: `{"promptId":"p1","drawing":"x"}`, err: domain.ErrUpstreamUnavailable, wantStatus: http.StatusInternalServerError, wantMsg: "Service temporarily unavailable"},
		{name: "too large", body: `{"promptId":"p1","drawing":"` + strings.Repeat("A", 2048) + `"}`, wantStatus: http.StatusRequestEntityTooLarge, wantMsg: "Request body too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.evaluator.err = tt.err
			w := ts.do(http.MethodPost, "/api/checkDrawing", tt.body, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if msg := decodeBody(t, w)["message"]; msg != tt.wantMsg {
				t.Errorf("message = %v, want %q", msg, tt.wantMsg)
			}
		})
	}
}

func TestCheckDrawingSuccess(t *testing.T) {
	ts := newTestServer(t)
	ts.evaluator.result = &domain.EvaluationResult{EvaluationID: "e1", Score: 87, Explanation: "Drawing labels: Cat"}
	w := ts.do(http.MethodPost, "/api/checkDrawing", `{"promptId":"p1","drawing":"data:image/png;base64,AAAA"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["score"] != float64(87) || body["evaluationId"] != "e1" {
		t.Errorf("body = %v", body)
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestLeaderboardRoutes(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodPost, "/api/saveScore", `{"playerName":"ana","game":"draw","score":80,"maxScore":100}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("saveScore status = %d", w.Code)
	}

	w = ts.do(http.MethodPost, "/api/saveScore", `{"playerName":"ana","game":"draw","score":60,"maxScore":100}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second saveScore status = %d", w.Code)
	}
	entry, _ := decodeBody(t, w)["entry"].(map[string]interface{})
	if entry["highScore"] != float64(80) {
		t.Errorf("saveScore entry = %v, want stored highScore 80", entry)
	}

	w = ts.do(http.MethodPost, "/api/saveScore", `{"playerName":"ana","game":"draw"}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("saveScore without score status = %d", w.Code)
	}

	w = ts.do(http.MethodPost, "/api/saveGameResult", `{"playerName":"ana","game":"draw","score":15,"rounds":3}`, nil)
	if w.Code != http.StatusOK || decodeBody(t, w)["id"] != "result-42" {
		t.Fatalf("saveGameResult = %d %s", w.Code, w.Body.String())
	}
	if ts.board.lastResult.Details["rounds"] != float64(3) || ts.board.lastResult.Details["score"] != nil {
		t.Errorf("details = %v", ts.board.lastResult.Details)
	}

	w = ts.do(http.MethodGet, "/api/leaderboard/draw", "", nil)
	if w.Code != http.StatusOK || ts.board.lastGame != "draw" {
		t.Errorf("leaderboard by path = %d, game %q", w.Code, ts.board.lastGame)
	}
	w = ts.do(http.MethodGet, "/api/leaderboard?game=guess", "", nil)
	if w.Code != http.StatusOK || ts.board.lastGame != "guess" {
		t.Errorf("leaderboard by query = %d, game %q", w.Code, ts.board.lastGame)
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil || len(entries) != 1 {
		t.Errorf("entries = %s", w.Body.String())
	}
	w = ts.do(http.MethodGet, "/api/leaderboard?limit=abc", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", w.Code)
	}

	w = ts.do(http.MethodGet, "/api/userStats/ana", "", nil)
	if w.Code != http.StatusOK || decodeBody(t, w)["totalScore"] != float64(25) {
		t.Errorf("userStats = %d %s", w.Code, w.Body.String())
	}
	ts.board.statsErr = domain.ErrNotFound
	if w = ts.do(http.MethodGet, "/api/userStats/bob", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d", w.Code)
	}

	if w = ts.do(http.MethodDelete, "/api/leaderboard/draw/ana", "", nil); w.Code != http.StatusOK {
		t.Errorf("delete status = %d", w.Code)
	}
	ts.board.err = domain.ErrNotFound
	if w = ts.do(http.MethodDelete, "/api/leaderboard/draw/ana", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}
}

func TestSaveScoreRejectedName(t *testing.T) {
	ts := newTestServer(t)
	ts.board.err = domain.ErrRejectedName
	w := ts.do(http.MethodPost, "/api/saveScore", `{"playerName":"x","game":"draw","score":1}`, nil)
	if w.Code != http.StatusBadRequest || decodeBody(t, w)["message"] != "Player name is not allowed" {
		t.Errorf("rejected name = %d %s", w.Code, w.Body.String())
	}
}

func TestActiveUsers(t *testing.T) {
	ts := newTestServer(t)
	ts.do(http.MethodGet, "/api/leaderboard", "", map[string]string{middleware.SessionIDHeader: "s1"})
	ts.do(http.MethodGet, "/api/leaderboard", "", map[string]string{middleware.SessionIDHeader: "s2"})
	ts.do(http.MethodGet, "/api/leaderboard?sessionId=s1", "", nil)

	w := ts.do(http.MethodGet, "/api/activeUsers", "", map[string]string{middleware.SessionIDHeader: "s2"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decodeBody(t, w)["activeUsers"]; got != float64(2) {
		t.Errorf("activeUsers = %v, want 2", got)
	}

	ts.do(http.MethodGet, "/health", "", map[string]string{middleware.SessionIDHeader: "s3"})
	ts.do(http.MethodGet, "/metrics", "", map[string]string{middleware.SessionIDHeader: "s4"})
	w = ts.do(http.MethodGet, "/api/activeUsers", "", map[string]string{middleware.SessionIDHeader: "s1"})
	if got := decodeBody(t, w)["activeUsers"]; got != float64(4) {
		t.Errorf("activeUsers after operational requests = %v, want 4", got)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/leaderboard", "", map[string]string{"Origin": "http://evil.example"})
	if w.Code != http.StatusForbidden {
		t.Errorf("disallowed origin status = %d, want 403", w.Code)
	}

	w = ts.do(http.MethodGet, "/api/leaderboard", "", map[string]string{"Origin": "http://localhost:3000"})
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("allowed origin = %d, header %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	w = ts.do(http.MethodOptions, "/api/checkDrawing", "", map[string]string{"Origin": "http://localhost:3000"})
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
	ts.do(http.MethodGet, "/api/getRandomPrompt", "", nil)

	w := ts.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `route="/api/getRandomPrompt"`) {
		t.Errorf("http metrics missing route label:\n%s", w.Body.String())
	}
}
