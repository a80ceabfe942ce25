package models

import (
	"time"

	"gorm.io/gorm"
)

// Vote is one player's choice among a round's answers. The (round, voter)
// unique index rejects duplicate votes at the storage layer as well.
type Vote struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	RoundID  uint `json:"round_id" gorm:"not null;uniqueIndex:idx_votes_round_voter"`
	AnswerID uint `json:"answer_id" gorm:"not null"`
	VoterID  uint `json:"voter_id" gorm:"not null;uniqueIndex:idx_votes_round_voter"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Answer Answer `json:"answer,omitempty"`
	Voter  Player `json:"voter,omitempty" gorm:"foreignKey:VoterID"`
}
