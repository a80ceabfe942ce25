package models

import (
	"time"

	"gorm.io/gorm"
)

// Answer is one player's submission for a round. The (round, player) unique
// index makes resubmission an update, never a duplicate.
type Answer struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	RoundID  uint   `json:"round_id" gorm:"not null;uniqueIndex:idx_answers_round_player"`
	PlayerID uint   `json:"player_id" gorm:"not null;uniqueIndex:idx_answers_round_player"`
	Text     string `json:"text" gorm:"size:280;not null"`

	// Denormalized tally, maintained on every vote insert.
	VotesCount int `json:"votes_count" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Round  Round  `json:"round,omitempty"`
	Player Player `json:"player,omitempty"`
	Votes  []Vote `json:"votes,omitempty" gorm:"foreignKey:AnswerID"`
}
