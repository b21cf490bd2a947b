package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/matchdayhq/matchday-services/internal/comm"
	"github.com/matchdayhq/matchday-services/internal/matchsvc/service"
	natscli "github.com/matchdayhq/matchday-services/internal/nats"
)

// Broker consumes websocket-originated mutations from the socket service and
// runs them through the mutation handlers. Successful mutations publish
// snapshots through the Publisher; the originating socket additionally gets
// a direct confirmation or error reply.
type Broker struct {
	Conn             *nats.Conn
	Publisher        *Publisher
	GameService      *service.GameService
	FormationService *service.FormationService
	CommentService   *service.CommentService
}

func NewBroker(nc *nats.Conn, pub *Publisher, gameService *service.GameService,
	formationService *service.FormationService, commentService *service.CommentService) *Broker {
	return &Broker{
		Conn:             nc,
		Publisher:        pub,
		GameService:      gameService,
		FormationService: formationService,
		CommentService:   commentService,
	}
}

// SubscribeMutations consumes mutation requests forwarded by the socket
// service.
func (b *Broker) SubscribeMutations() (*nats.Subscription, error) {
	return b.Conn.Subscribe(natscli.SubjectMutations, b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "respond-game":
		var request struct {
			UserID      string `json:"user_id"`
			OrgID       string `json:"org_id"`
			GameID      string `json:"game_id"`
			IsAvailable bool   `json:"is_available"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding respond-game request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		game, err := b.GameService.RespondToGame(ctx, request.UserID, request.OrgID, request.GameID, request.IsAvailable)
		if err != nil {
			b.replyError(msg.SocketId, "respond-game", err)
			return
		}

		snap := b.Publisher.PublishGameUpdated(game)
		b.reply(msg.SocketId, "respond-game-response", snap)

	case "like-formation":
		var request struct {
			UserID      string `json:"user_id"`
			OrgID       string `json:"org_id"`
			FormationID string `json:"formation_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding like-formation request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		f, err := b.FormationService.LikeFormation(ctx, request.UserID, request.OrgID, request.FormationID)
		if err != nil {
			b.replyError(msg.SocketId, "like-formation", err)
			return
		}

		like := b.Publisher.PublishFormationLiked(f)
		b.reply(msg.SocketId, "like-formation-response", like)

	case "like-comment":
		var request struct {
			UserID    string `json:"user_id"`
			OrgID     string `json:"org_id"`
			CommentID string `json:"comment_id"`
		}
		if err := json.Unmarshal(msg.Data, &request); err != nil {
			log.Errorf("Error decoding like-comment request: %s", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c, err := b.CommentService.LikeComment(ctx, request.UserID, request.OrgID, request.CommentID)
		if err != nil {
			b.replyError(msg.SocketId, "like-comment", err)
			return
		}

		like := b.Publisher.PublishCommentLiked(c)
		b.reply(msg.SocketId, "like-comment-response", like)

	default:
		log.Errorf("Unknown mutation message type %q", msg.Type)
	}
}

// reply sends a direct response envelope back to the originating socket.
func (b *Broker) reply(socketId, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("unable to marshal %s reply for socket %s", msgType, socketId)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	out, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if err := b.Conn.Publish(natscli.SubjectReplies, out); err != nil {
		log.Errorf("Error publishing to subject %s: %s", natscli.SubjectReplies, err)
	}
}

func (b *Broker) replyError(socketId, op string, opErr error) {
	kind := "transient"
	switch {
	case errors.Is(opErr, service.ErrUnauthenticated):
		kind = "unauthenticated"
	case errors.Is(opErr, service.ErrUnauthorized):
		kind = "unauthorized"
	case errors.Is(opErr, service.ErrNotFound):
		kind = "not_found"
	case errors.Is(opErr, service.ErrAlreadyExists):
		kind = "already_exists"
	case errors.Is(opErr, service.ErrValidationFailed):
		kind = "validation_failed"
	}

	log.Errorf("Error [%s] for socket %s: %s", op, socketId, opErr)
	b.reply(socketId, op+"-error", map[string]string{"op": op, "error": kind})
}
