package services

import (
	"sort"

	"acroparty/models"

	"gorm.io/gorm"
)

// Point formula: every submitted answer earns a participation floor, plus a
// fixed award per vote received. Monotonic in votes by construction.
const (
	participationPoints = 10
	pointsPerVote       = 100
)

type VoterRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// RoundResult is one answer's outcome in a completed round, ranked by votes.
type RoundResult struct {
	PlayerID     uint       `json:"player_id"`
	PlayerName   string     `json:"player_name"`
	Answer       string     `json:"answer"`
	Votes        int        `json:"votes"`
	PointsEarned int        `json:"points_earned"`
	Voters       []VoterRef `json:"voters"`
}

// FinalScore is one row of the end-of-game standings.
type FinalScore struct {
	Rank       int    `json:"rank"`
	PlayerID   uint   `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
	IsWinner   bool   `json:"is_winner"`
}

type LeaderboardEntry struct {
	PlayerID   uint   `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

// ScoringService computes per-round awards from vote tallies, keeps cumulative
// membership scores, and persists lifetime statistics at game end. Methods take
// the caller's transaction handle so awards commit atomically with the round
// transition that triggered them.
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// CalculateRoundScores tallies votes for every answer in the round, persists
// the denormalized counts and membership score increments, and returns the
// ranked results.
func (s *ScoringService) CalculateRoundScores(tx *gorm.DB, round *models.Round) ([]RoundResult, error) {
	var answers []models.Answer
	if err := tx.Where("round_id = ?", round.ID).
		Preload("Player").
		Preload("Votes").
		Preload("Votes.Voter").
		Order("created_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	results := make([]RoundResult, 0, len(answers))
	for _, answer := range answers {
		votes := len(answer.Votes)
		points := pointsFor(votes)

		voters := make([]VoterRef, 0, votes)
		for _, vote := range answer.Votes {
			voters = append(voters, VoterRef{ID: vote.VoterID, Name: vote.Voter.Nickname})
		}

		if answer.VotesCount != votes {
			if err := tx.Model(&models.Answer{}).Where("id = ?", answer.ID).
				Update("votes_count", votes).Error; err != nil {
				return nil, err
			}
		}

		if err := tx.Model(&models.GamePlayer{}).
			Where("game_id = ? AND player_id = ?", round.GameID, answer.PlayerID).
			Update("score", gorm.Expr("score + ?", points)).Error; err != nil {
			return nil, err
		}

		results = append(results, RoundResult{
			PlayerID:     answer.PlayerID,
			PlayerName:   answer.Player.Nickname,
			Answer:       answer.Text,
			Votes:        votes,
			PointsEarned: points,
			Voters:       voters,
		})
	}

	rankRoundResults(results)
	return results, nil
}

// ScoresWithoutVoting awards the participation floor only. Used when a round
// resolves with a single answer and voting is impossible.
func (s *ScoringService) ScoresWithoutVoting(tx *gorm.DB, round *models.Round) ([]RoundResult, error) {
	var answers []models.Answer
	if err := tx.Where("round_id = ?", round.ID).
		Preload("Player").
		Order("created_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	results := make([]RoundResult, 0, len(answers))
	for _, answer := range answers {
		points := pointsFor(0)

		if err := tx.Model(&models.GamePlayer{}).
			Where("game_id = ? AND player_id = ?", round.GameID, answer.PlayerID).
			Update("score", gorm.Expr("score + ?", points)).Error; err != nil {
			return nil, err
		}

		results = append(results, RoundResult{
			PlayerID:     answer.PlayerID,
			PlayerName:   answer.Player.Nickname,
			Answer:       answer.Text,
			Votes:        0,
			PointsEarned: points,
			Voters:       []VoterRef{},
		})
	}

	return results, nil
}

// UpdatePlayerStats applies lifetime statistics when a game ends: one game
// played per member, the game score added to the lifetime total, and one win
// for the player finishing at rank 0.
func (s *ScoringService) UpdatePlayerStats(tx *gorm.DB, standings []FinalScore) error {
	for _, standing := range standings {
		updates := map[string]interface{}{
			"games_played": gorm.Expr("games_played + 1"),
			"total_score":  gorm.Expr("total_score + ?", standing.Score),
		}
		if standing.IsWinner {
			updates["games_won"] = gorm.Expr("games_won + 1")
		}
		if err := tx.Model(&models.Player{}).Where("id = ?", standing.PlayerID).
			Updates(updates).Error; err != nil {
			return err
		}
	}

	return nil
}

// FinalStandings ranks every member of the game: highest score first, ties
// broken by earliest join time. Rank 0 is flagged as the winner.
func (s *ScoringService) FinalStandings(tx *gorm.DB, game *models.Game) ([]FinalScore, error) {
	var members []models.GamePlayer
	if err := tx.Where("game_id = ?", game.ID).
		Preload("Player").
		Find(&members).Error; err != nil {
		return nil, err
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score > members[j].Score
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})

	standings := make([]FinalScore, 0, len(members))
	for rank, member := range members {
		standings = append(standings, FinalScore{
			Rank:       rank,
			PlayerID:   member.PlayerID,
			PlayerName: member.Player.Nickname,
			Score:      member.Score,
			IsWinner:   rank == 0,
		})
	}

	return standings, nil
}

// Leaderboard returns current cumulative scores, highest first.
func (s *ScoringService) Leaderboard(tx *gorm.DB, gameID uint) ([]LeaderboardEntry, error) {
	var members []models.GamePlayer
	if err := tx.Where("game_id = ? AND is_active = ?", gameID, true).
		Preload("Player").
		Order("score DESC").
		Find(&members).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, LeaderboardEntry{
			PlayerID:   member.PlayerID,
			PlayerName: member.Player.Nickname,
			Score:      member.Score,
		})
	}
	return entries, nil
}

func pointsFor(votes int) int {
	return participationPoints + votes*pointsPerVote
}

// rankRoundResults orders results by votes received, preserving submission
// order among ties.
func rankRoundResults(results []RoundResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Votes > results[j].Votes
	})
}
