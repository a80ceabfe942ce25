package services

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types published toward connected clients. Names follow the
// "subject.verb" convention used on the wire.
const (
	EventPlayerJoined        = "player.joined"
	EventPlayerLeft          = "player.left"
	EventPlayerKicked        = "player.kicked"
	EventGameStarted         = "game.started"
	EventGameFinished        = "game.finished"
	EventGameRematch         = "game.rematch"
	EventGameSettingsChanged = "game.settings_changed"
	EventRoundStarted        = "round.started"
	EventAnswerSubmitted     = "answer.submitted"
	EventVotingStarted       = "voting.started"
	EventVoteSubmitted       = "vote.submitted"
	EventRoundCompleted      = "round.completed"
	EventChatMessage         = "chat.message"
)

// systemSender is the author name on orchestrator chat notices.
const systemSender = "Delectus"

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Notifier publishes game events to the redis channel "game.<code>". The hub
// subscribes on the other end and fans out to websocket clients. Publishing is
// fire-and-forget: failures are logged and never returned to the caller, since
// the authoritative state transition has already been persisted.
type Notifier struct {
	redis  *redis.Client
	logger *zap.SugaredLogger
}

func NewNotifier(rdb *redis.Client, logger *zap.SugaredLogger) *Notifier {
	return &Notifier{redis: rdb, logger: logger}
}

func (n *Notifier) Publish(ctx context.Context, gameCode, eventType string, payload interface{}) {
	data, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		n.logger.Errorw("marshal event", "game", gameCode, "event", eventType, "error", err)
		return
	}

	if err := n.redis.Publish(ctx, ChannelForGame(gameCode), data).Err(); err != nil {
		n.logger.Errorw("publish event", "game", gameCode, "event", eventType, "error", err)
	}
}

// SystemMessage emits an ad hoc chat notice from the orchestrator, such as a
// grace-period warning.
func (n *Notifier) SystemMessage(ctx context.Context, gameCode, text string) {
	n.Publish(ctx, gameCode, EventChatMessage, map[string]interface{}{
		"sender":    systemSender,
		"message":   text,
		"is_system": true,
	})
}

// ChannelForGame is the redis pub/sub channel carrying one game's events.
func ChannelForGame(code string) string {
	return "game." + code
}

// ChannelPattern matches every game channel; the hub subscribes with it.
const ChannelPattern = "game.*"
