package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"acroparty/models"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Join codes avoid characters that read ambiguously on a shared screen.
const codeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 6

type CreateGameRequest struct {
	Settings *models.GameSettings `json:"settings"`
	IsPublic bool                 `json:"is_public"`
	Password string               `json:"password"`
}

type JoinGameRequest struct {
	Password string `json:"password"`
}

type GameSummary struct {
	Code         string `json:"code"`
	HostNickname string `json:"host_nickname"`
	PlayerCount  int    `json:"player_count"`
	MaxPlayers   int    `json:"max_players"`
	HasPassword  bool   `json:"has_password"`
	Status       string `json:"status"`
	CurrentRound int    `json:"current_round"`
	TotalRounds  int    `json:"total_rounds"`
}

// GameService owns session management: create, join, leave, start, end, and
// the host-only lobby operations. Join and leave serialize on the game row so
// the capacity check and the membership write commit as a unit.
type GameService struct {
	db        *gorm.DB
	rounds    *RoundService
	scoring   *ScoringService
	notifier  *Notifier
	logger    *zap.SugaredLogger
	codeCache *lru.Cache // join code -> game id, for the hot request-path lookup
}

func NewGameService(db *gorm.DB, rounds *RoundService, scoring *ScoringService, notifier *Notifier, logger *zap.SugaredLogger, cacheSize int) (*GameService, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating code cache: %w", err)
	}
	return &GameService{
		db:        db,
		rounds:    rounds,
		scoring:   scoring,
		notifier:  notifier,
		logger:    logger,
		codeCache: cache,
	}, nil
}

func (s *GameService) CreateGame(ctx context.Context, host *models.Player, req *CreateGameRequest) (*models.Game, error) {
	settings := models.DefaultSettings()
	if req.Settings != nil {
		settings = mergeSettings(settings, *req.Settings)
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	game := models.Game{
		Code:         code,
		HostPlayerID: host.ID,
		Status:       models.GameStatusLobby,
		TotalRounds:  settings.Rounds,
		Settings:     datatypes.NewJSONType(settings),
		IsPublic:     req.IsPublic,
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashStr := string(hash)
		game.PasswordHash = &hashStr
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&game).Error; err != nil {
			return err
		}
		// The host is the first member.
		return tx.Create(&models.GamePlayer{
			GameID:   game.ID,
			PlayerID: host.ID,
			JoinedAt: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.codeCache.Add(game.Code, game.ID)
	s.logger.Infow("game created", "game", game.Code, "host", host.ID)
	return s.GetGameByCode(game.Code)
}

// GetGameByCode resolves the most recent game for a join code, preferring the
// cached id when it still points at an unfinished game.
func (s *GameService) GetGameByCode(code string) (*models.Game, error) {
	if cached, ok := s.codeCache.Get(code); ok {
		var game models.Game
		err := s.gameQuery().First(&game, cached.(uint)).Error
		if err == nil && !game.IsFinished() {
			return &game, nil
		}
		s.codeCache.Remove(code)
	}

	var game models.Game
	err := s.gameQuery().Where("code = ?", code).Order("created_at DESC").First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}

	if !game.IsFinished() {
		s.codeCache.Add(code, game.ID)
	}
	return &game, nil
}

func (s *GameService) gameQuery() *gorm.DB {
	return s.db.
		Preload("Host").
		Preload("GamePlayers", "is_active = ?", true).
		Preload("GamePlayers.Player")
}

// JoinGame adds a player to a game, or reactivates their old membership. The
// capacity check and the membership insert run under a row lock on the game so
// two concurrent joins cannot overshoot max_players together.
func (s *GameService) JoinGame(ctx context.Context, game *models.Game, player *models.Player, password string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}

		if locked.IsFinished() {
			return ErrGameFinished
		}

		if locked.HasPassword() {
			if err := bcrypt.CompareHashAndPassword([]byte(*locked.PasswordHash), []byte(password)); err != nil {
				return ErrWrongPassword
			}
		}

		var existing models.GamePlayer
		err := tx.Where("game_id = ? AND player_id = ?", locked.ID, player.ID).First(&existing).Error
		if err == nil {
			if existing.IsActive {
				return ErrAlreadyInGame
			}
			// Rejoin: reactivate the old row so the prior score survives.
			return tx.Model(&existing).Update("is_active", true).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		// Fresh joins are only accepted while the lobby is open.
		if !locked.IsInLobby() {
			return ErrGameAlreadyStarted
		}

		var active int64
		if err := tx.Model(&models.GamePlayer{}).
			Where("game_id = ? AND is_active = ?", locked.ID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active >= int64(locked.GetSettings().MaxPlayers) {
			return ErrGameFull
		}

		return tx.Create(&models.GamePlayer{
			GameID:   locked.ID,
			PlayerID: player.ID,
			JoinedAt: time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(ctx, game.Code, EventPlayerJoined, map[string]interface{}{
		"player":        map[string]interface{}{"id": player.ID, "nickname": player.Nickname},
		"players_count": s.ActiveMemberCount(game.ID),
	})
	return nil
}

// LeaveGame deactivates the player's membership. A host leaving the lobby
// hands the game to the earliest-joined remaining member, or force-finishes
// the lobby when nobody is left. Leaving during play never ends the game here;
// the orchestrator is the single termination authority.
func (s *GameService) LeaveGame(ctx context.Context, game *models.Game, player *models.Player) error {
	var newHostID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}

		var membership models.GamePlayer
		err := tx.Where("game_id = ? AND player_id = ? AND is_active = ?", locked.ID, player.ID, true).
			First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotInGame
		}
		if err != nil {
			return err
		}

		if locked.HostPlayerID == player.ID && locked.IsInLobby() {
			var next models.GamePlayer
			err := tx.Where("game_id = ? AND is_active = ? AND player_id <> ?", locked.ID, true, player.ID).
				Order("joined_at ASC").
				First(&next).Error
			switch {
			case err == nil:
				if err := tx.Model(&locked).Update("host_player_id", next.PlayerID).Error; err != nil {
					return err
				}
				newHostID = next.PlayerID
			case errors.Is(err, gorm.ErrRecordNotFound):
				// A lobby cannot exist without a host.
				if err := tx.Model(&locked).Update("status", models.GameStatusFinished).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}

		return tx.Model(&membership).Update("is_active", false).Error
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(ctx, game.Code, EventPlayerLeft, map[string]interface{}{
		"player_id":     player.ID,
		"players_count": s.ActiveMemberCount(game.ID),
		"new_host_id":   newHostID,
	})
	return nil
}

// StartGame moves a lobby into play and starts round 1 immediately. Later
// rounds are started by the orchestrator from deadlines alone.
func (s *GameService) StartGame(ctx context.Context, game *models.Game, player *models.Player) (*models.Game, *models.Round, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}

		if !locked.IsInLobby() {
			return ErrGameAlreadyStarted
		}
		if !s.isHostOrCoHost(tx, &locked, player.ID) {
			return ErrNotHost
		}

		var active int64
		if err := tx.Model(&models.GamePlayer{}).
			Where("game_id = ? AND is_active = ?", locked.ID, true).
			Count(&active).Error; err != nil {
			return err
		}
		if active < int64(locked.GetSettings().MinPlayers) {
			return ErrNotEnoughPlayers
		}

		return tx.Model(&locked).Update("status", models.GameStatusPlaying).Error
	})
	if err != nil {
		return nil, nil, err
	}

	game.Status = models.GameStatusPlaying
	s.notifier.Publish(ctx, game.Code, EventGameStarted, map[string]interface{}{
		"game_id":      game.ID,
		"total_rounds": game.TotalRounds,
	})

	round, err := s.rounds.StartRound(ctx, game, 1)
	if err != nil {
		// The orchestrator will start round 1 on its next tick.
		s.logger.Warnw("first round start failed, deferring to orchestrator", "game", game.Code, "error", err)
	}

	fresh, err := s.GetGameByCode(game.Code)
	if err != nil {
		return nil, nil, err
	}
	return fresh, round, nil
}

// EndGame finishes a playing game: persists lifetime stats and the final
// standings snapshot, then announces winner and standings. Only the
// orchestrator calls this; there is no player-facing end-game request.
func (s *GameService) EndGame(ctx context.Context, game *models.Game) ([]FinalScore, error) {
	var standings []FinalScore

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}
		if !locked.IsPlaying() {
			return ErrGameNotPlaying
		}

		if err := tx.Model(&locked).Updates(map[string]interface{}{
			"status":          models.GameStatusFinished,
			"active_round_id": nil,
		}).Error; err != nil {
			return err
		}

		var err error
		standings, err = s.scoring.FinalStandings(tx, &locked)
		if err != nil {
			return err
		}

		if err := s.scoring.UpdatePlayerStats(tx, standings); err != nil {
			return err
		}

		for _, standing := range standings {
			result := models.GameResult{
				GameID:   locked.ID,
				PlayerID: standing.PlayerID,
				Nickname: standing.PlayerName,
				Rank:     standing.Rank,
				Score:    standing.Score,
				IsWinner: standing.IsWinner,
			}
			if err := tx.Create(&result).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.codeCache.Remove(game.Code)

	var winner interface{}
	if len(standings) > 0 {
		winner = standings[0]
	}
	s.logger.Infow("game finished", "game", game.Code, "players", len(standings))
	s.notifier.Publish(ctx, game.Code, EventGameFinished, map[string]interface{}{
		"winner":       winner,
		"final_scores": standings,
	})
	return standings, nil
}

// KickPlayer removes a member from the game. Host only.
func (s *GameService) KickPlayer(ctx context.Context, game *models.Game, requester *models.Player, targetID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}
		if locked.IsFinished() {
			return ErrGameFinished
		}
		if !s.isHostOrCoHost(tx, &locked, requester.ID) {
			return ErrNotHost
		}
		if targetID == locked.HostPlayerID {
			return ErrNotHost
		}

		result := tx.Model(&models.GamePlayer{}).
			Where("game_id = ? AND player_id = ? AND is_active = ?", locked.ID, targetID, true).
			Update("is_active", false)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotInGame
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(ctx, game.Code, EventPlayerKicked, map[string]interface{}{
		"player_id":     targetID,
		"players_count": s.ActiveMemberCount(game.ID),
	})
	return nil
}

// Rematch clones a finished game's settings into a fresh lobby hosted by the
// requester, and points the old game's subscribers at the new code.
func (s *GameService) Rematch(ctx context.Context, game *models.Game, requester *models.Player) (*models.Game, error) {
	if !game.IsFinished() {
		return nil, ErrGameNotPlaying
	}
	if !s.isHostOrCoHost(s.db, game, requester.ID) {
		return nil, ErrNotHost
	}

	settings := game.GetSettings()
	fresh, err := s.CreateGame(ctx, requester, &CreateGameRequest{
		Settings: &settings,
		IsPublic: game.IsPublic,
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Publish(ctx, game.Code, EventGameRematch, map[string]interface{}{
		"new_code": fresh.Code,
	})
	return fresh, nil
}

// UpdateSettings changes the settings of a lobby. Host only.
func (s *GameService) UpdateSettings(ctx context.Context, game *models.Game, requester *models.Player, settings models.GameSettings) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locked models.Game
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, game.ID).Error; err != nil {
			return err
		}
		if !locked.IsInLobby() {
			return ErrGameAlreadyStarted
		}
		if !s.isHostOrCoHost(tx, &locked, requester.ID) {
			return ErrNotHost
		}

		merged := mergeSettings(locked.GetSettings(), settings)
		return tx.Model(&locked).Updates(map[string]interface{}{
			"settings":     datatypes.NewJSONType(merged),
			"total_rounds": merged.Rounds,
		}).Error
	})
	if err != nil {
		return err
	}

	s.notifier.Publish(ctx, game.Code, EventGameSettingsChanged, map[string]interface{}{
		"settings": settings,
	})
	return nil
}

// ListPublicGames returns joinable public lobbies, newest first.
func (s *GameService) ListPublicGames() ([]GameSummary, error) {
	var games []models.Game
	err := s.db.
		Where("is_public = ? AND status <> ?", true, models.GameStatusFinished).
		Preload("Host").
		Order("created_at DESC").
		Limit(20).
		Find(&games).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]GameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, GameSummary{
			Code:         game.Code,
			HostNickname: game.Host.Nickname,
			PlayerCount:  s.ActiveMemberCount(game.ID),
			MaxPlayers:   game.GetSettings().MaxPlayers,
			HasPassword:  game.HasPassword(),
			Status:       game.Status,
			CurrentRound: game.CurrentRound,
			TotalRounds:  game.TotalRounds,
		})
	}
	return summaries, nil
}

func (s *GameService) ActiveMemberCount(gameID uint) int {
	var count int64
	s.db.Model(&models.GamePlayer{}).
		Where("game_id = ? AND is_active = ?", gameID, true).
		Count(&count)
	return int(count)
}

func (s *GameService) GetPlayerByID(playerID uint) (*models.Player, error) {
	var player models.Player
	if err := s.db.First(&player, playerID).Error; err != nil {
		return nil, err
	}
	return &player, nil
}

// IsHost reports whether the player may perform host-only actions on the game.
func (s *GameService) IsHost(game *models.Game, playerID uint) bool {
	return s.isHostOrCoHost(s.db, game, playerID)
}

func (s *GameService) isHostOrCoHost(tx *gorm.DB, game *models.Game, playerID uint) bool {
	if game.HostPlayerID == playerID {
		return true
	}
	var count int64
	tx.Model(&models.GamePlayer{}).
		Where("game_id = ? AND player_id = ? AND is_co_host = ? AND is_active = ?", game.ID, playerID, true, true).
		Count(&count)
	return count > 0
}

// generateUniqueCode draws codes until one is free among non-finished games.
// Finished games keep their code, so uniqueness only holds per live game.
func (s *GameService) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < 32; attempt++ {
		code, err := randomCode(codeLength)
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.Model(&models.Game{}).
			Where("code = ? AND status <> ?", code, models.GameStatusFinished).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("could not allocate a free join code")
}

func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}

// mergeSettings overlays non-zero override fields on top of base.
func mergeSettings(base, override models.GameSettings) models.GameSettings {
	if override.MinPlayers > 0 {
		base.MinPlayers = override.MinPlayers
	}
	if override.MaxPlayers > 0 {
		base.MaxPlayers = override.MaxPlayers
	}
	if override.Rounds > 0 {
		base.Rounds = override.Rounds
	}
	if override.AnswerTime > 0 {
		base.AnswerTime = override.AnswerTime
	}
	if override.VoteTime > 0 {
		base.VoteTime = override.VoteTime
	}
	if override.AcronymLengthMin > 0 {
		base.AcronymLengthMin = override.AcronymLengthMin
	}
	if override.AcronymLengthMax > 0 {
		base.AcronymLengthMax = override.AcronymLengthMax
	}
	if override.TimeBetweenRounds > 0 {
		base.TimeBetweenRounds = override.TimeBetweenRounds
	}
	if override.ExcludedLetters != "" {
		base.ExcludedLetters = override.ExcludedLetters
	}
	return base
}
