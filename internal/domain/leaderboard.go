package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LeaderboardEntry is one player's standing in one game.
// HighScore only ever increases; MaxScore and LastUpdated are last-write.
type LeaderboardEntry struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PlayerName  string    `gorm:"type:text;not null;uniqueIndex:idx_leaderboard_player_game" json:"playerName"`
	Game        string    `gorm:"type:text;not null;uniqueIndex:idx_leaderboard_player_game;index:idx_leaderboard_game" json:"game"`
	HighScore   float64   `gorm:"not null;index:idx_leaderboard_score" json:"highScore"`
	MaxScore    float64   `gorm:"not null" json:"maxScore"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// TableName returns the database table name for LeaderboardEntry.
func (LeaderboardEntry) TableName() string {
	return "leaderboard_entries"
}

// UserStats accumulates a player's results across all games.
type UserStats struct {
	PlayerName  string    `gorm:"type:text;primaryKey" json:"playerName"`
	TotalScore  float64   `gorm:"not null" json:"totalScore"`
	GamesPlayed int64     `gorm:"not null" json:"gamesPlayed"`
	HighScore   float64   `gorm:"not null" json:"highScore"`
	LastPlayed  time.Time `json:"lastPlayed"`
}

// TableName returns the database table name for UserStats.
func (UserStats) TableName() string {
	return "user_stats"
}

// GameResult is an immutable record of one finished game.
type GameResult struct {
	ID         string         `gorm:"type:text;primaryKey" json:"id"`
	PlayerName string         `gorm:"type:text;not null;index:idx_game_results_player" json:"playerName"`
	Game       string         `gorm:"type:text;not null" json:"game"`
	Score      float64        `gorm:"not null" json:"score"`
	MaxScore   float64        `json:"maxScore"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// TableName returns the database table name for GameResult.
func (GameResult) TableName() string {
	return "game_results"
}

// BeforeCreate assigns a UUID when the caller did not.
func (g *GameResult) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
