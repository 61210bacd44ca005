package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/timmy/drawmatch/internal/domain"
	"github.com/timmy/drawmatch/internal/logger"
	"github.com/timmy/drawmatch/internal/metrics"
	"gorm.io/datatypes"
)

const (
	defaultLeaderboardLimit = 10
	maxPlayerNameLength     = 64
	maxGameLength           = 64
)

// LeaderboardStore is the persistence side of the leaderboard.
type LeaderboardStore interface {
	UpsertScore(ctx context.Context, entry *domain.LeaderboardEntry) error
	RecordResult(ctx context.Context, result *domain.GameResult) error
	Top(ctx context.Context, game string, limit int) ([]domain.LeaderboardEntry, error)
	DeleteEntry(ctx context.Context, game, playerName string) error
	GetUserStats(ctx context.Context, playerName string) (*domain.UserStats, error)
}

// LeaderboardConfig holds limits and the clock of the leaderboard service.
type LeaderboardConfig struct {
	DefaultLimit int
	MaxLimit     int
	Now          func() time.Time
	Metrics      *metrics.Manager
}

// LeaderboardService validates submissions and applies them to the store.
type LeaderboardService struct {
	store        LeaderboardStore
	names        *NameFilter
	defaultLimit int
	maxLimit     int
	now          func() time.Time
	metrics      *metrics.Manager
}

// NewLeaderboardService creates a new leaderboard service.
func NewLeaderboardService(store LeaderboardStore, names *NameFilter, cfg *LeaderboardConfig) *LeaderboardService {
	s := &LeaderboardService{
		store:        store,
		names:        names,
		defaultLimit: defaultLeaderboardLimit,
		maxLimit:     100,
		now:          time.Now,
		metrics:      metrics.Default(),
	}
	if cfg != nil {
		if cfg.DefaultLimit > 0 {
			s.defaultLimit = cfg.DefaultLimit
		}
		if cfg.MaxLimit > 0 {
			s.maxLimit = cfg.MaxLimit
		}
		if cfg.Now != nil {
			s.now = cfg.Now
		}
		if cfg.Metrics != nil {
			s.metrics = cfg.Metrics
		}
	}
	if s.names == nil {
		s.names = NewNameFilter(nil)
	}
	return s
}

// ScoreSubmission is a saveScore request.
type ScoreSubmission struct {
	PlayerName string
	Game       string
	Score      float64
	MaxScore   float64
}

// GameResultSubmission is a saveGameResult request. Details holds any extra
// fields the client sent and is stored verbatim.
type GameResultSubmission struct {
	PlayerName string
	Game       string
	Score      float64
	MaxScore   float64
	Details    map[string]interface{}
}

// RecordScore raises the player's high score for the game if score exceeds it
// and always refreshes maxScore and lastUpdated. The returned entry is the
// stored row, so its HighScore may be higher than the submitted score.
func (s *LeaderboardService) RecordScore(ctx context.Context, sub *ScoreSubmission) (*domain.LeaderboardEntry, error) {
	player, game, err := s.validateIdentity(sub.PlayerName, sub.Game)
	if err != nil {
		return nil, err
	}
	if err := validateScore(sub.Score); err != nil {
		return nil, err
	}
	if err := validateFinite("maxScore", sub.MaxScore); err != nil {
		return nil, err
	}

	entry := &domain.LeaderboardEntry{
		PlayerName:  player,
		Game:        game,
		HighScore:   sub.Score,
		MaxScore:    sub.MaxScore,
		LastUpdated: s.now().UTC(),
	}
	if err := s.store.UpsertScore(ctx, entry); err != nil {
		return nil, err
	}
	s.metrics.RecordLeaderboardUpdate("score")
	logger.With(logger.Fields{
		logger.FieldPlayerName: player,
		logger.FieldGame:       game,
		logger.FieldScore:      sub.Score,
	}).Info(ctx, "Score recorded")
	return entry, nil
}

// RecordGameResult appends the result and folds it into the player's stats.
// Returns the new result ID.
func (s *LeaderboardService) RecordGameResult(ctx context.Context, sub *GameResultSubmission) (string, error) {
	player, game, err := s.validateIdentity(sub.PlayerName, sub.Game)
	if err != nil {
		return "", err
	}
	if err := validateScore(sub.Score); err != nil {
		return "", err
	}
	if err := validateFinite("maxScore", sub.MaxScore); err != nil {
		return "", err
	}

	result := &domain.GameResult{
		PlayerName: player,
		Game:       game,
		Score:      sub.Score,
		MaxScore:   sub.MaxScore,
		CreatedAt:  s.now().UTC(),
	}
	if len(sub.Details) > 0 {
		raw, err := json.Marshal(sub.Details)
		if err != nil {
			return "", fmt.Errorf("%w: details: %w", domain.ErrInvalidInput, err)
		}
		result.Details = datatypes.JSON(raw)
	}
	if err := s.store.RecordResult(ctx, result); err != nil {
		return "", err
	}
	s.metrics.RecordLeaderboardUpdate("game_result")
	logger.With(logger.Fields{
		logger.FieldPlayerName: player,
		logger.FieldGame:       game,
		logger.FieldScore:      sub.Score,
	}).Info(ctx, "Game result recorded: id=%s", result.ID)
	return result.ID, nil
}

// TopScores returns the best entries, optionally for one game.
// A non-positive limit uses the default; limits are capped at the maximum.
func (s *LeaderboardService) TopScores(ctx context.Context, game string, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.store.Top(ctx, strings.TrimSpace(game), limit)
}

// RemoveEntry deletes the player's row for game.
func (s *LeaderboardService) RemoveEntry(ctx context.Context, game, playerID string) error {
	game, playerID = strings.TrimSpace(game), strings.TrimSpace(playerID)
	if game == "" || playerID == "" {
		return fmt.Errorf("%w: game and player are required", domain.ErrInvalidInput)
	}
	if err := s.store.DeleteEntry(ctx, game, playerID); err != nil {
		return err
	}
	s.metrics.RecordLeaderboardUpdate("remove")
	logger.With(logger.Fields{
		logger.FieldPlayerName: playerID,
		logger.FieldGame:       game,
	}).Info(ctx, "Leaderboard entry removed")
	return nil
}

// UserStats returns cumulative stats for a player.
func (s *LeaderboardService) UserStats(ctx context.Context, playerName string) (*domain.UserStats, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, fmt.Errorf("%w: playerName is required", domain.ErrInvalidInput)
	}
	return s.store.GetUserStats(ctx, playerName)
}

func (s *LeaderboardService) validateIdentity(playerName, game string) (string, string, error) {
	playerName, game = strings.TrimSpace(playerName), strings.TrimSpace(game)
	switch {
	case playerName == "":
		return "", "", fmt.Errorf("%w: playerName is required", domain.ErrInvalidInput)
	case game == "":
		return "", "", fmt.Errorf("%w: game is required", domain.ErrInvalidInput)
	case len(playerName) > maxPlayerNameLength:
		return "", "", fmt.Errorf("%w: playerName longer than %d characters", domain.ErrInvalidInput, maxPlayerNameLength)
	case len(game) > maxGameLength:
		return "", "", fmt.Errorf("%w: game longer than %d characters", domain.ErrInvalidInput, maxGameLength)
	case !s.names.IsAllowed(playerName):
		return "", "", fmt.Errorf("%w: %q", domain.ErrRejectedName, playerName)
	}
	return playerName, game, nil
}

// validateScore keeps totals monotonic: negative scores are rejected.
func validateScore(v float64) error {
	if err := validateFinite("score", v); err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("%w: score must not be negative", domain.ErrInvalidInput)
	}
	return nil
}

func validateFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", domain.ErrInvalidInput, field)
	}
	return nil
}
