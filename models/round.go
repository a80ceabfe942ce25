package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoundStatusAnswering = "answering"
	RoundStatusVoting    = "voting"
	RoundStatusCompleted = "completed"
)

// MaxGraceExtensions caps how many times an answering deadline is extended
// before the game is abandoned.
const MaxGraceExtensions = 2

type Round struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	GameID      uint   `json:"game_id" gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	RoundNumber int    `json:"round_number" gorm:"not null;uniqueIndex:idx_rounds_game_number"`
	Acronym     string `json:"acronym" gorm:"size:12;not null"`
	Status      string `json:"status" gorm:"size:16;not null;default:'answering'"` // answering, voting, completed

	AnswerDeadline *time.Time `json:"answer_deadline"`
	VoteDeadline   *time.Time `json:"vote_deadline"`

	// Number of automatic deadline extensions granted because nobody answered.
	GraceCount int `json:"grace_count" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Game    Game     `json:"game,omitempty"`
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:RoundID"`
}

func (r *Round) IsAnswering() bool {
	return r.Status == RoundStatusAnswering
}

func (r *Round) IsVoting() bool {
	return r.Status == RoundStatusVoting
}

func (r *Round) IsCompleted() bool {
	return r.Status == RoundStatusCompleted
}
