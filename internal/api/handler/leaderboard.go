package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/service"
)

// Leaderboard is the leaderboard aggregator used by the handlers.
type Leaderboard interface {
	RecordScore(ctx context.Context, sub *service.ScoreSubmission) (*domain.LeaderboardEntry, error)
	RecordGameResult(ctx context.Context, sub *service.GameResultSubmission) (string, error)
	TopScores(ctx context.Context, game string, limit int) ([]domain.LeaderboardEntry, error)
	RemoveEntry(ctx context.Context, game, playerID string) error
	UserStats(ctx context.Context, playerName string) (*domain.UserStats, error)
}

// LeaderboardHandler handles score, result and stats endpoints.
type LeaderboardHandler struct {
	board Leaderboard
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(board Leaderboard) *LeaderboardHandler {
	return &LeaderboardHandler{board: board}
}

// SaveScoreRequest is the body of POST /api/saveScore.
type SaveScoreRequest struct {
	PlayerName string   `json:"playerName"`
	Game       string   `json:"game"`
	Score      *float64 `json:"score"`
	MaxScore   float64  `json:"maxScore"`
}

// SaveGameResultRequest holds the known fields of POST /api/saveGameResult.
// Any other fields are kept as result details.
type SaveGameResultRequest struct {
	PlayerName string   `json:"playerName"`
	Game       string   `json:"game"`
	Score      *float64 `json:"score"`
	MaxScore   float64  `json:"maxScore"`
}

var gameResultFields = map[string]struct{}{
	"playerName": {}, "game": {}, "score": {}, "maxScore": {},
}

// SaveScore handles POST /api/saveScore.
func (h *LeaderboardHandler) SaveScore(c *gin.Context) {
	var req SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "score is required"})
		return
	}

	entry, err := h.board.RecordScore(c.Request.Context(), &service.ScoreSubmission{
		PlayerName: req.PlayerName,
		Game:       req.Game,
		Score:      *req.Score,
		MaxScore:   req.MaxScore,
	})
	if err != nil {
		respondError(c, err, "Leaderboard entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Score saved", "entry": entry})
}

// SaveGameResult handles POST /api/saveGameResult.
func (h *LeaderboardHandler) SaveGameResult(c *gin.Context) {
	var req SaveGameResultRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}
	var raw map[string]interface{}
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Score == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "score is required"})
		return
	}

	details := make(map[string]interface{})
	for k, v := range raw {
		if _, known := gameResultFields[k]; !known {
			details[k] = v
		}
	}

	id, err := h.board.RecordGameResult(c.Request.Context(), &service.GameResultSubmission{
		PlayerName: req.PlayerName,
		Game:       req.Game,
		Score:      *req.Score,
		MaxScore:   req.MaxScore,
		Details:    details,
	})
	if err != nil {
		respondError(c, err, "Player not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// GetLeaderboard handles GET /api/leaderboard?game= and GET /api/leaderboard/:gameId.
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	game := c.Param("gameId")
	if game == "" {
		game = c.Query("game")
	}
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be an integer"})
			return
		}
		limit = n
	}

	entries, err := h.board.TopScores(c.Request.Context(), game, limit)
	if err != nil {
		respondError(c, err, "Leaderboard not found")
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetUserStats handles GET /api/userStats/:playerName.
func (h *LeaderboardHandler) GetUserStats(c *gin.Context) {
	stats, err := h.board.UserStats(c.Request.Context(), c.Param("playerName"))
	if err != nil {
		respondError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DeleteEntry handles DELETE /api/leaderboard/:gameId/:playerId.
func (h *LeaderboardHandler) DeleteEntry(c *gin.Context) {
	if err := h.board.RemoveEntry(c.Request.Context(), c.Param("gameId"), c.Param("playerId")); err != nil {
		respondError(c, err, "Leaderboard entry not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Leaderboard entry removed"})
}
