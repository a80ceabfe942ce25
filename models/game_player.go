package models

import (
	"time"

	"gorm.io/gorm"
)

// GamePlayer is one player's membership in one game. A player has at most one
// row per game; leaving flips IsActive off and rejoining flips it back on.
type GamePlayer struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	GameID   uint `json:"game_id" gorm:"not null;uniqueIndex:idx_game_players_game_player"`
	PlayerID uint `json:"player_id" gorm:"not null;uniqueIndex:idx_game_players_game_player"`

	Score    int       `json:"score" gorm:"not null;default:0"`
	IsActive bool      `json:"is_active" gorm:"not null;default:true"`
	IsCoHost bool      `json:"is_co_host" gorm:"not null;default:false"`
	JoinedAt time.Time `json:"joined_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Game   Game   `json:"game,omitempty"`
	Player Player `json:"player,omitempty"`
}
