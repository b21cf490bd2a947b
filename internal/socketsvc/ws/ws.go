package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/matchdayhq/matchday-services/internal/comm"
	"github.com/matchdayhq/matchday-services/internal/socketsvc/broker"
)

// Channel is one client's filtered view of a topic. A socket may hold many
// channels on the same topic with different filters; closing one leaves the
// others untouched.
type Channel struct {
	ID       string
	SocketID string
	Topic    string
	Filter   comm.EventKeys
}

type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	sendMu  sync.Map // socketId -> *sync.Mutex, serializes writes per socket

	mu       sync.RWMutex
	channels map[string]*Channel // channelId -> channel

	Broker *broker.Broker
}

func NewWs() *Ws {
	return &Ws{
		channels: make(map[string]*Channel),
	}
}

// SocketMessage handles a message from a web client: channel lifecycle is
// served here, mutations are forwarded to the match service over NATS.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "subscribe":
		s.handleSubscribe(socketId, message)
	case "unsubscribe":
		s.handleUnsubscribe(socketId, message)
	case "respond-game", "like-formation", "like-comment":
		s.forwardMutation(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) handleSubscribe(socketId string, msg *comm.WSMessage) {
	var payload struct {
		Topic       string `json:"topic"`
		GameID      string `json:"game_id"`
		FormationID string `json:"formation_id"`
		CommentID   string `json:"comment_id"`
	}

	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: malformed subscribe payload %s", err)
		return
	}
	if payload.Topic == "" {
		log.Error("Invalid subscribe payload: missing topic")
		return
	}

	ch := &Channel{
		ID:       uuid.New().String(),
		SocketID: socketId,
		Topic:    payload.Topic,
		Filter: comm.EventKeys{
			GameID:      payload.GameID,
			FormationID: payload.FormationID,
			CommentID:   payload.CommentID,
		},
	}

	s.mu.Lock()
	s.channels[ch.ID] = ch
	s.mu.Unlock()

	log.Infof("socket %s opened channel %s on topic %s", socketId, ch.ID, ch.Topic)
	s.SendToSocket(socketId, &comm.WSMessage{
		Type: "subscribed",
		Data: mustMarshal(map[string]string{"channel_id": ch.ID, "topic": ch.Topic}),
	})
}

func (s *Ws) handleUnsubscribe(socketId string, msg *comm.WSMessage) {
	var payload struct {
		ChannelID string `json:"channel_id"`
	}

	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		log.Errorf("Error: malformed unsubscribe payload %s", err)
		return
	}

	s.mu.Lock()
	ch, ok := s.channels[payload.ChannelID]
	if ok && ch.SocketID == socketId {
		delete(s.channels, payload.ChannelID)
	}
	s.mu.Unlock()

	if ok {
		log.Infof("socket %s closed channel %s", socketId, payload.ChannelID)
	}
}

// forwardMutation relays a mutation request to the match service. The reply
// and the resulting broadcast both come back over NATS.
func (s *Ws) forwardMutation(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.PublishMutation(bytes); err != nil {
		log.Errorf("Failed to forward mutation %s for socket %s: %v", msg.Type, socketId, err)
	}
}

// MatchingChannels returns the channels that should receive an event: topic
// equality plus key-field filtering. A filter field left empty matches any
// event; a set field must equal the event's key. Events are dropped here,
// before the client ever sees them.
func (s *Ws) MatchingChannels(topic string, keys comm.EventKeys) []*Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*Channel
	for _, ch := range s.channels {
		if ch.Topic != topic {
			continue
		}
		if ch.Filter.GameID != "" && ch.Filter.GameID != keys.GameID {
			continue
		}
		if ch.Filter.FormationID != "" && ch.Filter.FormationID != keys.FormationID {
			continue
		}
		if ch.Filter.CommentID != "" && ch.Filter.CommentID != keys.CommentID {
			continue
		}
		matched = append(matched, ch)
	}

	return matched
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
	s.sendMu.Store(socketId, &sync.Mutex{})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// SendToSocket writes one frame to the socket, serialized per connection.
func (s *Ws) SendToSocket(socketId string, msg *comm.WSMessage) {
	conn, ok := s.GetConnection(socketId)
	if !ok {
		log.Warnf("no connection for socket %s", socketId)
		return
	}

	muVal, ok := s.sendMu.Load(socketId)
	if !ok {
		return
	}
	mu := muVal.(*sync.Mutex)

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("unable to marshal frame for socket %s: %s", socketId, err)
		return
	}

	mu.Lock()
	defer mu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Errorf("write to socket %s failed: %v", socketId, err)
	}
}

// HandleDisconnect drops the connection and every channel it had open.
// In-flight mutations the socket already forwarded keep processing; other
// sockets' channels are unaffected.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
	s.sendMu.Delete(socketId)

	s.mu.Lock()
	for id, ch := range s.channels {
		if ch.SocketID == socketId {
			delete(s.channels, id)
		}
	}
	s.mu.Unlock()
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal failed: %v", err)
		return json.RawMessage(`{}`)
	}
	return data
}
