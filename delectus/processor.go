// Package delectus is the game orchestrator. Named after the IRC bot that ran
// acronym games on EFnet, it watches every in-progress game and advances its
// round lifecycle purely from elapsed time: answering to voting when the
// answer deadline passes, voting to completed when the vote deadline passes,
// then the next round or the end of the game.
//
// Deadlines are data, not live timers. Every decision is recomputed from
// persisted state on each tick, so a restarted process resumes correct
// behavior immediately and a failed transition is simply retried next tick.
package delectus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"acroparty/models"
	"acroparty/services"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionStartRound
	ActionStartVoting
	ActionCompleteRound
	ActionCompleteWithoutVoting
	ActionExtendGrace
	ActionAbandonGame
	ActionEndGame
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionStartRound:
		return "start_round"
	case ActionStartVoting:
		return "start_voting"
	case ActionCompleteRound:
		return "complete_round"
	case ActionCompleteWithoutVoting:
		return "complete_without_voting"
	case ActionExtendGrace:
		return "extend_grace"
	case ActionAbandonGame:
		return "abandon_game"
	case ActionEndGame:
		return "end_game"
	}
	return "unknown"
}

// RoundSnapshot is what Decide needs to know about the active round.
type RoundSnapshot struct {
	Status         string
	AnswerDeadline *time.Time
	VoteDeadline   *time.Time
	GraceCount     int
	AnswerCount    int
}

// Input is the full persisted state a decision is derived from.
type Input struct {
	ActiveRound          *RoundSnapshot
	CompletedRounds      int
	TotalRounds          int
	LastCompletedAt      time.Time // zero when no round has completed yet
	LastCompletedAnswers int
	ActivePlayers        int
	TimeBetweenRounds    int // seconds
}

type Decision struct {
	Action      ActionKind
	RoundNumber int // set for ActionStartRound
}

// Decide is the per-game state machine: given a game's persisted state and the
// current time, it picks the single transition (if any) the game needs. It is
// pure so the whole state machine is testable without storage.
func Decide(in Input, now time.Time) Decision {
	if in.ActiveRound == nil {
		return decideRoundBoundary(in, now)
	}

	round := in.ActiveRound
	switch round.Status {
	case models.RoundStatusAnswering:
		if !deadlineReached(round.AnswerDeadline, now) {
			return Decision{Action: ActionNone}
		}
		switch {
		case round.AnswerCount == 0 && round.GraceCount < models.MaxGraceExtensions:
			return Decision{Action: ActionExtendGrace}
		case round.AnswerCount == 0:
			// Nobody engaged with two full answer windows: the game is dead.
			return Decision{Action: ActionAbandonGame}
		case round.AnswerCount == 1:
			// A lone author cannot vote for their own answer, so voting is
			// impossible; the round completes with zero votes.
			return Decision{Action: ActionCompleteWithoutVoting}
		default:
			return Decision{Action: ActionStartVoting}
		}

	case models.RoundStatusVoting:
		if !deadlineReached(round.VoteDeadline, now) {
			return Decision{Action: ActionNone}
		}
		return Decision{Action: ActionCompleteRound}
	}

	return Decision{Action: ActionNone}
}

// decideRoundBoundary covers the gap between rounds: end the game, wait out
// the inter-round delay, or start the next round.
func decideRoundBoundary(in Input, now time.Time) Decision {
	if in.CompletedRounds >= in.TotalRounds {
		// Abandoned endings skip the results-display wait.
		if in.LastCompletedAnswers == 0 {
			return Decision{Action: ActionEndGame}
		}
		if withinDelay(in.LastCompletedAt, in.TimeBetweenRounds, now) {
			return Decision{Action: ActionNone}
		}
		return Decision{Action: ActionEndGame}
	}

	// A single remaining player cannot play on.
	if in.ActivePlayers <= 1 {
		return Decision{Action: ActionEndGame}
	}

	if in.CompletedRounds > 0 {
		if in.LastCompletedAnswers == 0 {
			return Decision{Action: ActionEndGame}
		}
		// The delay is skipped before round 1 since nothing completed yet.
		if withinDelay(in.LastCompletedAt, in.TimeBetweenRounds, now) {
			return Decision{Action: ActionNone}
		}
	}

	return Decision{Action: ActionStartRound, RoundNumber: in.CompletedRounds + 1}
}

func deadlineReached(deadline *time.Time, now time.Time) bool {
	return deadline != nil && !now.Before(*deadline)
}

func withinDelay(completedAt time.Time, delaySeconds int, now time.Time) bool {
	if completedAt.IsZero() || delaySeconds <= 0 {
		return false
	}
	return now.Sub(completedAt) < time.Duration(delaySeconds)*time.Second
}

// Processor loads a game's persisted state, runs Decide, and applies the
// resulting transition through the round and game services.
type Processor struct {
	db     *gorm.DB
	games  *services.GameService
	rounds *services.RoundService
	logger *zap.SugaredLogger
}

func NewProcessor(db *gorm.DB, games *services.GameService, rounds *services.RoundService, logger *zap.SugaredLogger) *Processor {
	return &Processor{db: db, games: games, rounds: rounds, logger: logger}
}

func (p *Processor) Process(ctx context.Context, game *models.Game) error {
	input, activeRound, err := p.gather(game)
	if err != nil {
		return err
	}

	decision := Decide(input, time.Now().UTC())
	if decision.Action == ActionNone {
		return nil
	}

	p.logger.Infow("transition", "game", game.Code, "action", decision.Action.String(), "round", decision.RoundNumber)
	return p.apply(ctx, game, activeRound, decision)
}

// gather reads everything Decide needs in one pass over the game's rounds,
// and verifies the at-most-one-active-round invariant while doing so.
func (p *Processor) gather(game *models.Game) (Input, *models.Round, error) {
	var rounds []models.Round
	if err := p.db.Where("game_id = ?", game.ID).Order("round_number ASC").Find(&rounds).Error; err != nil {
		return Input{}, nil, err
	}

	var active *models.Round
	completed := 0
	var lastCompleted *models.Round
	for i := range rounds {
		round := &rounds[i]
		switch round.Status {
		case models.RoundStatusAnswering, models.RoundStatusVoting:
			if active != nil {
				return Input{}, nil, fmt.Errorf("invariant violation: rounds %d and %d both active", active.RoundNumber, round.RoundNumber)
			}
			active = round
		case models.RoundStatusCompleted:
			completed++
			if lastCompleted == nil || round.UpdatedAt.After(lastCompleted.UpdatedAt) {
				lastCompleted = round
			}
		}
	}

	// A failed count must error out here, not read as zero: ActivePlayers 0
	// at a round boundary would end a healthy game.
	players, err := p.activeMemberCount(game.ID)
	if err != nil {
		return Input{}, nil, err
	}

	input := Input{
		CompletedRounds:   completed,
		TotalRounds:       game.TotalRounds,
		ActivePlayers:     players,
		TimeBetweenRounds: game.GetSettings().TimeBetweenRounds,
	}

	if active != nil {
		count, err := p.answerCount(active.ID)
		if err != nil {
			return Input{}, nil, err
		}
		input.ActiveRound = &RoundSnapshot{
			Status:         active.Status,
			AnswerDeadline: active.AnswerDeadline,
			VoteDeadline:   active.VoteDeadline,
			GraceCount:     active.GraceCount,
			AnswerCount:    count,
		}
	}

	if lastCompleted != nil {
		input.LastCompletedAt = lastCompleted.UpdatedAt
		count, err := p.answerCount(lastCompleted.ID)
		if err != nil {
			return Input{}, nil, err
		}
		input.LastCompletedAnswers = count
	}

	return input, active, nil
}

// apply executes one decision. Races with manual host actions surface as
// precondition rejections from the services; those mean someone else already
// performed the transition, so they are absorbed here rather than reported.
func (p *Processor) apply(ctx context.Context, game *models.Game, round *models.Round, decision Decision) error {
	switch decision.Action {
	case ActionStartRound:
		_, err := p.rounds.StartRound(ctx, game, decision.RoundNumber)
		return ignoreRaces(err, services.ErrActiveRoundExists, services.ErrGameNotPlaying)

	case ActionStartVoting:
		_, _, err := p.rounds.StartVoting(ctx, round)
		return ignoreRaces(err, services.ErrRoundNotAnswering)

	case ActionCompleteRound:
		_, err := p.rounds.CompleteRound(ctx, round)
		return ignoreRaces(err, services.ErrRoundNotVoting)

	case ActionCompleteWithoutVoting:
		p.logger.Infow("single answer, skipping voting", "game", game.Code, "round", round.RoundNumber)
		_, err := p.rounds.CompleteWithoutVoting(ctx, round)
		return ignoreRaces(err, services.ErrRoundNotAnswering)

	case ActionExtendGrace:
		err := p.rounds.ExtendGraceDeadline(ctx, game, round)
		return ignoreRaces(err, services.ErrRoundNotAnswering)

	case ActionAbandonGame:
		p.logger.Infow("no answers after grace periods, abandoning game", "game", game.Code, "round", round.RoundNumber)
		if err := p.rounds.AbandonRound(ctx, round); err != nil {
			return err
		}
		_, err := p.games.EndGame(ctx, game)
		return ignoreRaces(err, services.ErrGameNotPlaying)

	case ActionEndGame:
		_, err := p.games.EndGame(ctx, game)
		return ignoreRaces(err, services.ErrGameNotPlaying)
	}

	return nil
}

func (p *Processor) activeMemberCount(gameID uint) (int, error) {
	var count int64
	err := p.db.Model(&models.GamePlayer{}).
		Where("game_id = ? AND is_active = ?", gameID, true).
		Count(&count).Error
	return int(count), err
}

func (p *Processor) answerCount(roundID uint) (int, error) {
	var count int64
	err := p.db.Model(&models.Answer{}).Where("round_id = ?", roundID).Count(&count).Error
	return int(count), err
}

func ignoreRaces(err error, races ...error) error {
	for _, race := range races {
		if errors.Is(err, race) {
			return nil
		}
	}
	return err
}
