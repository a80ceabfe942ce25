package models

import (
	"time"

	"gorm.io/gorm"
)

// GameResult is the final standings snapshot written once when a game ends.
// Rank 0 is the winner. Rows are never mutated afterwards.
type GameResult struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	GameID   uint   `json:"game_id" gorm:"not null;index"`
	PlayerID uint   `json:"player_id" gorm:"not null"`
	Nickname string `json:"nickname" gorm:"size:32;not null"`
	Rank     int    `json:"rank" gorm:"not null"`
	Score    int    `json:"score" gorm:"not null"`
	IsWinner bool   `json:"is_winner" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
