package services

import "errors"

// Rejection errors surfaced synchronously to callers. Handlers map these to
// 4xx responses; they are never retried automatically.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameFinished       = errors.New("game is finished")
	ErrGameAlreadyStarted = errors.New("game has already started")
	ErrGameFull           = errors.New("game is full")
	ErrWrongPassword      = errors.New("incorrect game password")
	ErrAlreadyInGame      = errors.New("player already in game")
	ErrNotInGame          = errors.New("player is not in this game")
	ErrNotHost            = errors.New("only the host can do that")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrGameNotPlaying     = errors.New("game is not in progress")

	ErrRoundNotFound     = errors.New("round not found")
	ErrRoundNotAnswering = errors.New("round is not accepting answers")
	ErrRoundNotVoting    = errors.New("round is not in voting phase")
	ErrActiveRoundExists = errors.New("another round is still active")
	ErrDeadlinePassed    = errors.New("deadline has passed")
	ErrNotEnoughAnswers  = errors.New("voting needs at least two answers")

	ErrAnswerNotFound = errors.New("answer not found")
	ErrOwnAnswerVote  = errors.New("cannot vote for your own answer")
	ErrAlreadyVoted   = errors.New("already voted this round")
)
