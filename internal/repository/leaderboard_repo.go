package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/timmy/drawmatch/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Upsert assignments are evaluated by the database inside one statement, so
// concurrent submissions never lose a higher score.
var (
	leaderboardConflictUpdates = clause.Assignments(map[string]interface{}{
		"high_score":   gorm.Expr("CASE WHEN excluded.high_score > leaderboard_entries.high_score THEN excluded.high_score ELSE leaderboard_entries.high_score END"),
		"max_score":    gorm.Expr("excluded.max_score"),
		"last_updated": gorm.Expr("excluded.last_updated"),
	})

	userStatsConflictUpdates = clause.Assignments(map[string]interface{}{
		"total_score":  gorm.Expr("user_stats.total_score + excluded.total_score"),
		"games_played": gorm.Expr("user_stats.games_played + excluded.games_played"),
		"high_score":   gorm.Expr("CASE WHEN excluded.high_score > user_stats.high_score THEN excluded.high_score ELSE user_stats.high_score END"),
		"last_played":  gorm.Expr("excluded.last_played"),
	})
)

// LeaderboardRepository handles leaderboard, user stats and game result records.
type LeaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *LeaderboardRepository: repository instance bound to db.
func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// UpsertScore inserts the entry or merges it into the existing (player, game) row:
// high_score keeps the maximum, max_score and last_updated take the new values.
// On success entry holds the stored row after the merge.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - entry: submitted score; HighScore carries the new score.
//
// Returns:
//   - error: non-nil if the score is negative or the upsert fails.
func (r *LeaderboardRepository) UpsertScore(ctx context.Context, entry *domain.LeaderboardEntry) error {
	if entry.HighScore < 0 {
		return fmt.Errorf("%w: score must not be negative", domain.ErrInvalidInput)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_name"}, {Name: "game"}},
			DoUpdates: leaderboardConflictUpdates,
		}).Create(entry).Error; err != nil {
			return fmt.Errorf("upsert leaderboard entry: %w", err)
		}
		stored, err := findEntry(tx, entry.PlayerName, entry.Game)
		if err != nil {
			return err
		}
		*entry = *stored
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// RecordResult appends result and folds it into the player's cumulative stats.
// Both writes share one transaction: if the stats upsert fails the result row
// is rolled back too.
func (r *LeaderboardRepository) RecordResult(ctx context.Context, result *domain.GameResult) error {
	if result.Score < 0 {
		return fmt.Errorf("%w: score must not be negative", domain.ErrInvalidInput)
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("insert game result: %w", err)
		}

		stats := &domain.UserStats{
			PlayerName:  result.PlayerName,
			TotalScore:  result.Score,
			GamesPlayed: 1,
			HighScore:   result.Score,
			LastPlayed:  result.CreatedAt,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_name"}},
			DoUpdates: userStatsConflictUpdates,
		}).Create(stats).Error; err != nil {
			return fmt.Errorf("upsert user stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Top returns entries ordered by high score, optionally filtered by game.
// Ties are broken by who reached the score first.
func (r *LeaderboardRepository) Top(ctx context.Context, game string, limit int) ([]domain.LeaderboardEntry, error) {
	entries := make([]domain.LeaderboardEntry, 0, limit)
	query := r.db.WithContext(ctx)
	if game != "" {
		query = query.Where("game = ?", game)
	}
	if err := query.
		Order("high_score DESC").
		Order("last_updated ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list leaderboard: %w", domain.ErrPersistence, err)
	}
	return entries, nil
}

func findEntry(db *gorm.DB, playerName, game string) (*domain.LeaderboardEntry, error) {
	var entry domain.LeaderboardEntry
	if err := db.Where("player_name = ? AND game = ?", playerName, game).First(&entry).Error; err != nil {
		return nil, fmt.Errorf("reload leaderboard entry %s/%s: %w", game, playerName, err)
	}
	return &entry, nil
}

// DeleteEntry removes the row for (playerName, game).
// Returns an error wrapping domain.ErrNotFound if nothing was deleted.
func (r *LeaderboardRepository) DeleteEntry(ctx context.Context, game, playerName string) error {
	result := r.db.WithContext(ctx).
		Where("game = ? AND player_name = ?", game, playerName).
		Delete(&domain.LeaderboardEntry{})
	if result.Error != nil {
		return fmt.Errorf("%w: delete leaderboard entry: %w", domain.ErrPersistence, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("leaderboard entry %s/%s: %w", game, playerName, domain.ErrNotFound)
	}
	return nil
}

// GetUserStats retrieves cumulative stats for playerName.
func (r *LeaderboardRepository) GetUserStats(ctx context.Context, playerName string) (*domain.UserStats, error) {
	var stats domain.UserStats
	if err := r.db.WithContext(ctx).First(&stats, "player_name = ?", playerName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user stats %s: %w", playerName, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: get user stats: %w", domain.ErrPersistence, err)
	}
	return &stats, nil
}
