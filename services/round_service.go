package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"acroparty/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnswerView is the answer shape shown during voting: authored but untallied.
type AnswerView struct {
	ID         uint   `json:"id"`
	PlayerID   uint   `json:"player_id"`
	PlayerName string `json:"player_name"`
	Text       string `json:"text"`
}

// RoundService implements the round lifecycle actions. Every transition locks
// the game row, re-reads the round inside the transaction, and re-checks its
// status, so a manual host action racing the orchestrator resolves to exactly
// one winner; the loser gets a rejection, not a silent success.
type RoundService struct {
	db       *gorm.DB
	scoring  *ScoringService
	acronyms *AcronymService
	notifier *Notifier
	logger   *zap.SugaredLogger
}

func NewRoundService(db *gorm.DB, scoring *ScoringService, acronyms *AcronymService, notifier *Notifier, logger *zap.SugaredLogger) *RoundService {
	return &RoundService{
		db:       db,
		scoring:  scoring,
		acronyms: acronyms,
		notifier: notifier,
		logger:   logger,
	}
}

// StartRound creates round `number` in answering state with a fresh acronym
// and deadline, and points the game's active_round_id at it.
func (s *RoundService) StartRound(ctx context.Context, game *models.Game, number int) (*models.Round, error) {
	var round models.Round

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}
		if !locked.IsPlaying() {
			return ErrGameNotPlaying
		}
		if locked.ActiveRoundID != nil {
			return ErrActiveRoundExists
		}

		settings := locked.GetSettings()
		deadline := time.Now().UTC().Add(time.Duration(settings.AnswerTime) * time.Second)

		round = models.Round{
			GameID:         locked.ID,
			RoundNumber:    number,
			Acronym:        s.acronyms.Generate(settings),
			Status:         models.RoundStatusAnswering,
			AnswerDeadline: &deadline,
		}
		if err := tx.Create(&round).Error; err != nil {
			return err
		}

		return tx.Model(&locked).Updates(map[string]interface{}{
			"current_round":   number,
			"active_round_id": round.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("round started", "game", game.Code, "round", number, "acronym", round.Acronym)
	s.notifier.Publish(ctx, game.Code, EventRoundStarted, map[string]interface{}{
		"round_id":     round.ID,
		"round_number": round.RoundNumber,
		"acronym":      round.Acronym,
		"deadline":     round.AnswerDeadline,
	})
	return &round, nil
}

// StartVoting moves an answering round into voting. Invoked by the
// orchestrator at the answer deadline, or early by the host. A second call on
// an already-voting round is rejected, never silently accepted.
func (s *RoundService) StartVoting(ctx context.Context, round *models.Round) (*models.Round, []AnswerView, error) {
	var fresh models.Round

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, round.GameID).Error; err != nil {
			return err
		}

		if err := tx.First(&fresh, round.ID).Error; err != nil {
			return err
		}
		if !fresh.IsAnswering() {
			return ErrRoundNotAnswering
		}

		// Voting over fewer than two answers is meaningless: a lone author
		// cannot vote for themselves and zero answers is the grace policy's
		// territory. The host's early trigger gets rejected here.
		var answers int64
		if err := tx.Model(&models.Answer{}).Where("round_id = ?", fresh.ID).Count(&answers).Error; err != nil {
			return err
		}
		if answers < 2 {
			return ErrNotEnoughAnswers
		}

		deadline := time.Now().UTC().Add(time.Duration(game.GetSettings().VoteTime) * time.Second)
		return tx.Model(&fresh).Updates(map[string]interface{}{
			"status":        models.RoundStatusVoting,
			"vote_deadline": deadline,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.db.First(&fresh, round.ID).Error; err != nil {
		return nil, nil, err
	}

	answers, err := s.answerViews(fresh.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Infow("voting started", "game", round.GameID, "round", fresh.RoundNumber, "answers", len(answers))
	s.notifier.Publish(ctx, s.gameCode(round.GameID), EventVotingStarted, map[string]interface{}{
		"round_id": fresh.ID,
		"answers":  answers,
		"deadline": fresh.VoteDeadline,
	})
	return &fresh, answers, nil
}

// CompleteRound scores a voting round, persists the awards, marks it
// completed, and resets the game so the next tick can pick a round boundary.
// Returns the ranked results for direct response use.
func (s *RoundService) CompleteRound(ctx context.Context, round *models.Round) ([]RoundResult, error) {
	var results []RoundResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, round.GameID).Error; err != nil {
			return err
		}

		var fresh models.Round
		if err := tx.First(&fresh, round.ID).Error; err != nil {
			return err
		}
		if !fresh.IsVoting() {
			return ErrRoundNotVoting
		}

		var err error
		results, err = s.scoring.CalculateRoundScores(tx, &fresh)
		if err != nil {
			return err
		}

		if err := tx.Model(&fresh).Update("status", models.RoundStatusCompleted).Error; err != nil {
			return err
		}
		return tx.Model(&game).Updates(map[string]interface{}{
			"status":          models.GameStatusPlaying,
			"active_round_id": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publishRoundCompleted(ctx, round.GameID, results)
	return results, nil
}

// CompleteWithoutVoting resolves an answering round that got exactly one
// answer: voting is impossible, so the round completes with zero votes.
func (s *RoundService) CompleteWithoutVoting(ctx context.Context, round *models.Round) ([]RoundResult, error) {
	var results []RoundResult

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, round.GameID).Error; err != nil {
			return err
		}

		var fresh models.Round
		if err := tx.First(&fresh, round.ID).Error; err != nil {
			return err
		}
		if !fresh.IsAnswering() {
			return ErrRoundNotAnswering
		}

		var err error
		results, err = s.scoring.ScoresWithoutVoting(tx, &fresh)
		if err != nil {
			return err
		}

		if err := tx.Model(&fresh).Update("status", models.RoundStatusCompleted).Error; err != nil {
			return err
		}
		return tx.Model(&game).Updates(map[string]interface{}{
			"status":          models.GameStatusPlaying,
			"active_round_id": nil,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.publishRoundCompleted(ctx, round.GameID, results)
	return results, nil
}

// ExtendGraceDeadline pushes the answer deadline out by half the configured
// answer time and counts the extension. The wording escalates on the second
// warning.
func (s *RoundService) ExtendGraceDeadline(ctx context.Context, game *models.Game, round *models.Round) error {
	var graceCount int

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}

		var fresh models.Round
		if err := tx.First(&fresh, round.ID).Error; err != nil {
			return err
		}
		if !fresh.IsAnswering() {
			return ErrRoundNotAnswering
		}

		deadline := time.Now().UTC().Add(graceExtension(locked.GetSettings().AnswerTime))
		graceCount = fresh.GraceCount + 1

		return tx.Model(&fresh).Updates(map[string]interface{}{
			"answer_deadline": deadline,
			"grace_count":     graceCount,
		}).Error
	})
	if err != nil {
		return err
	}

	s.logger.Infow("no answers, extending deadline", "game", game.Code, "round", round.RoundNumber, "grace_count", graceCount)
	message := "No answers yet! Adding a little extra time..."
	if graceCount >= models.MaxGraceExtensions {
		message = "Still no answers... last chance!"
	}
	s.notifier.SystemMessage(ctx, game.Code, message)
	return nil
}

// AbandonRound marks a round completed without scores after the grace budget
// runs out. The caller ends the game right after.
func (s *RoundService) AbandonRound(ctx context.Context, round *models.Round) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&game, round.GameID).Error; err != nil {
			return err
		}

		var fresh models.Round
		if err := tx.First(&fresh, round.ID).Error; err != nil {
			return err
		}
		if fresh.IsCompleted() {
			return nil
		}

		if err := tx.Model(&fresh).Update("status", models.RoundStatusCompleted).Error; err != nil {
			return err
		}
		return tx.Model(&game).Update("active_round_id", nil).Error
	})
}

// SubmitAnswer validates and stores a player's sentence for the round. A
// resubmission before the deadline overwrites the earlier text.
func (s *RoundService) SubmitAnswer(ctx context.Context, round *models.Round, player *models.Player, text string) (*models.Answer, error) {
	var fresh models.Round
	if err := s.db.First(&fresh, round.ID).Error; err != nil {
		return nil, err
	}
	if !fresh.IsAnswering() {
		return nil, ErrRoundNotAnswering
	}
	if deadlinePassed(fresh.AnswerDeadline) {
		return nil, ErrDeadlinePassed
	}

	if !s.isActiveMember(fresh.GameID, player.ID) {
		return nil, ErrNotInGame
	}

	if err := s.acronyms.Validate(text, fresh.Acronym); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(text)

	var answer models.Answer
	err := s.db.Where("round_id = ? AND player_id = ?", fresh.ID, player.ID).First(&answer).Error
	switch {
	case err == nil:
		if err := s.db.Model(&answer).Update("text", trimmed).Error; err != nil {
			return nil, err
		}
		answer.Text = trimmed
	case errors.Is(err, gorm.ErrRecordNotFound):
		answer = models.Answer{RoundID: fresh.ID, PlayerID: player.ID, Text: trimmed}
		if err := s.db.Create(&answer).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	// Count only, never content: answers stay hidden until voting starts.
	s.notifier.Publish(ctx, s.gameCode(fresh.GameID), EventAnswerSubmitted, map[string]interface{}{
		"answers_count": s.answerCount(fresh.ID),
		"total_players": s.activeMemberCount(fresh.GameID),
	})
	return &answer, nil
}

// SubmitVote records a vote. Duplicate votes and self-votes are rejected, not
// overwritten.
func (s *RoundService) SubmitVote(ctx context.Context, round *models.Round, voter *models.Player, answerID uint) (*models.Vote, error) {
	var fresh models.Round
	if err := s.db.First(&fresh, round.ID).Error; err != nil {
		return nil, err
	}
	if !fresh.IsVoting() {
		return nil, ErrRoundNotVoting
	}
	if deadlinePassed(fresh.VoteDeadline) {
		return nil, ErrDeadlinePassed
	}

	if !s.isActiveMember(fresh.GameID, voter.ID) {
		return nil, ErrNotInGame
	}

	var answer models.Answer
	err := s.db.Where("id = ? AND round_id = ?", answerID, fresh.ID).First(&answer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, err
	}
	if answer.PlayerID == voter.ID {
		return nil, ErrOwnAnswerVote
	}

	vote := models.Vote{RoundID: fresh.ID, AnswerID: answer.ID, VoterID: voter.ID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Vote{}).
			Where("round_id = ? AND voter_id = ?", fresh.ID, voter.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyVoted
		}

		if err := tx.Create(&vote).Error; err != nil {
			return err
		}
		return tx.Model(&answer).Update("votes_count", gorm.Expr("votes_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, s.gameCode(fresh.GameID), EventVoteSubmitted, map[string]interface{}{
		"votes_count":  s.voteCount(fresh.ID),
		"total_voters": s.activeMemberCount(fresh.GameID),
	})
	return &vote, nil
}

func (s *RoundService) GetRoundByID(roundID uint) (*models.Round, error) {
	var round models.Round
	err := s.db.Preload("Game").First(&round, roundID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// CurrentRound returns the round the game is on: the active one if any,
// otherwise the round matching current_round (possibly completed).
func (s *RoundService) CurrentRound(game *models.Game) (*models.Round, error) {
	var round models.Round
	var err error
	if game.ActiveRoundID != nil {
		err = s.db.First(&round, *game.ActiveRoundID).Error
	} else {
		err = s.db.Where("game_id = ? AND round_number = ?", game.ID, game.CurrentRound).First(&round).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &round, nil
}

// AnswersForRound lists a round's answers in submission order.
func (s *RoundService) AnswersForRound(roundID uint) ([]models.Answer, error) {
	var answers []models.Answer
	err := s.db.Where("round_id = ?", roundID).
		Preload("Player").
		Order("created_at ASC").
		Find(&answers).Error
	return answers, err
}

func (s *RoundService) answerViews(roundID uint) ([]AnswerView, error) {
	answers, err := s.AnswersForRound(roundID)
	if err != nil {
		return nil, err
	}
	views := make([]AnswerView, 0, len(answers))
	for _, answer := range answers {
		views = append(views, AnswerView{
			ID:         answer.ID,
			PlayerID:   answer.PlayerID,
			PlayerName: answer.Player.Nickname,
			Text:       answer.Text,
		})
	}
	return views, nil
}

func (s *RoundService) publishRoundCompleted(ctx context.Context, gameID uint, results []RoundResult) {
	code := s.gameCode(gameID)
	scores, err := s.scoring.Leaderboard(s.db, gameID)
	if err != nil {
		s.logger.Errorw("leaderboard load failed", "game", code, "error", err)
		scores = []LeaderboardEntry{}
	}
	s.notifier.Publish(ctx, code, EventRoundCompleted, map[string]interface{}{
		"results": results,
		"scores":  scores,
	})
}

func (s *RoundService) gameCode(gameID uint) string {
	var game models.Game
	if err := s.db.Select("code").First(&game, gameID).Error; err != nil {
		return ""
	}
	return game.Code
}

func (s *RoundService) isActiveMember(gameID, playerID uint) bool {
	var count int64
	s.db.Model(&models.GamePlayer{}).
		Where("game_id = ? AND player_id = ? AND is_active = ?", gameID, playerID, true).
		Count(&count)
	return count > 0
}

func (s *RoundService) activeMemberCount(gameID uint) int {
	var count int64
	s.db.Model(&models.GamePlayer{}).
		Where("game_id = ? AND is_active = ?", gameID, true).
		Count(&count)
	return int(count)
}

func (s *RoundService) answerCount(roundID uint) int {
	var count int64
	s.db.Model(&models.Answer{}).Where("round_id = ?", roundID).Count(&count)
	return int(count)
}

func (s *RoundService) voteCount(roundID uint) int {
	var count int64
	s.db.Model(&models.Vote{}).Where("round_id = ?", roundID).Count(&count)
	return int(count)
}

func deadlinePassed(deadline *time.Time) bool {
	return deadline != nil && time.Now().UTC().After(*deadline)
}

// graceExtension is half the answer window, rounded up to a whole second.
func graceExtension(answerTimeSeconds int) time.Duration {
	return time.Duration((answerTimeSeconds+1)/2) * time.Second
}
