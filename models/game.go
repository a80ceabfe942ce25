package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	GameStatusLobby    = "lobby"
	GameStatusPlaying  = "playing"
	GameStatusFinished = "finished"
)

type Game struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Code         string `json:"code" gorm:"size:12;index;not null"`
	HostPlayerID uint   `json:"host_player_id" gorm:"not null"`
	Status       string `json:"status" gorm:"size:16;not null;default:'lobby'"` // lobby, playing, finished

	// The single round currently in answering or voting, if any. Maintained
	// transactionally by every round lifecycle transition so that "at most one
	// active round per game" holds by construction.
	ActiveRoundID *uint `json:"active_round_id"`

	CurrentRound int                                `json:"current_round" gorm:"not null;default:0"`
	TotalRounds  int                                `json:"total_rounds" gorm:"not null"`
	Settings     datatypes.JSONType[GameSettings]   `json:"settings"`
	PasswordHash *string                            `json:"-" gorm:"size:128"`
	IsPublic     bool                               `json:"is_public" gorm:"not null;default:false"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Host        Player       `json:"host,omitempty" gorm:"foreignKey:HostPlayerID"`
	GamePlayers []GamePlayer `json:"game_players,omitempty" gorm:"foreignKey:GameID"`
	Rounds      []Round      `json:"rounds,omitempty" gorm:"foreignKey:GameID"`
	Results     []GameResult `json:"results,omitempty" gorm:"foreignKey:GameID"`
}

type GameSettings struct {
	MinPlayers        int    `json:"min_players"`
	MaxPlayers        int    `json:"max_players"`
	Rounds            int    `json:"rounds"`
	AnswerTime        int    `json:"answer_time"` // seconds
	VoteTime          int    `json:"vote_time"`   // seconds
	AcronymLengthMin  int    `json:"acronym_length_min"`
	AcronymLengthMax  int    `json:"acronym_length_max"`
	TimeBetweenRounds int    `json:"time_between_rounds"` // seconds
	ExcludedLetters   string `json:"excluded_letters"`
}

func DefaultSettings() GameSettings {
	return GameSettings{
		MinPlayers:        2,
		MaxPlayers:        8,
		Rounds:            5,
		AnswerTime:        60,
		VoteTime:          30,
		AcronymLengthMin:  3,
		AcronymLengthMax:  6,
		TimeBetweenRounds: 5,
	}
}

func (g *Game) GetSettings() GameSettings {
	return g.Settings.Data()
}

func (g *Game) IsInLobby() bool {
	return g.Status == GameStatusLobby
}

func (g *Game) IsPlaying() bool {
	return g.Status == GameStatusPlaying
}

func (g *Game) IsFinished() bool {
	return g.Status == GameStatusFinished
}

func (g *Game) HasPassword() bool {
	return g.PasswordHash != nil && *g.PasswordHash != ""
}
