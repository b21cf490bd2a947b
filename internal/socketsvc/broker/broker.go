package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/matchdayhq/matchday-services/internal/comm"
	natscli "github.com/matchdayhq/matchday-services/internal/nats"
)

// ChannelTarget is the delivery destination resolved by the ws layer.
type ChannelTarget struct {
	ChannelID string
	SocketID  string
}

// Broker bridges NATS and the websocket layer: entity events fan out to
// every matching subscription channel, direct replies go to one socket.
type Broker struct {
	Conn             *nats.Conn
	SendToSocket     func(socketId string, msg *comm.WSMessage)
	MatchingChannels func(topic string, keys comm.EventKeys) []ChannelTarget
}

func NewBroker(conn *nats.Conn,
	fncSendToSocket func(string, *comm.WSMessage),
	fncMatchingChannels func(string, comm.EventKeys) []ChannelTarget) *Broker {
	return &Broker{
		Conn:             conn,
		SendToSocket:     fncSendToSocket,
		MatchingChannels: fncMatchingChannels,
	}
}

// SubscribeEvents consumes the entity event stream from the match service.
func (b *Broker) SubscribeEvents() (*nats.Subscription, error) {
	return b.Conn.Subscribe(natscli.SubjectEvents, b.handleEvent)
}

// SubscribeReplies consumes socket-addressed mutation replies.
func (b *Broker) SubscribeReplies() (*nats.Subscription, error) {
	return b.Conn.Subscribe(natscli.SubjectReplies, b.handleReply)
}

// PublishMutation forwards a websocket-originated mutation to the match
// service.
func (b *Broker) PublishMutation(payload []byte) error {
	err := b.Conn.Publish(natscli.SubjectMutations, payload)
	if err != nil {
		log.Errorf("Error publishing to subject %s: %s", natscli.SubjectMutations, err)
		return err
	}
	return nil
}

// eventFrame is what a client receives on an open channel.
type eventFrame struct {
	ChannelID string          `json:"channel_id"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
}

func (b *Broker) handleEvent(msgNats *nats.Msg) {
	ev := &comm.Event{}
	if err := json.Unmarshal(msgNats.Data, ev); err != nil {
		log.Errorf("Error decoding event: %s", err)
		return
	}

	keys := comm.EventKeys{}
	if err := json.Unmarshal(ev.Data, &keys); err != nil {
		log.Errorf("Error extracting keys from event on %s: %s", ev.Topic, err)
		return
	}

	targets := b.MatchingChannels(ev.Topic, keys)
	for _, target := range targets {
		frame := eventFrame{
			ChannelID: target.ChannelID,
			Topic:     ev.Topic,
			Payload:   ev.Data,
		}
		data, err := json.Marshal(frame)
		if err != nil {
			log.Errorf("Error marshalling frame for channel %s: %s", target.ChannelID, err)
			continue
		}
		b.SendToSocket(target.SocketID, &comm.WSMessage{
			Type:     "event",
			Data:     data,
			SocketId: target.SocketID,
		})
	}
}

func (b *Broker) handleReply(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	if err := json.Unmarshal(msgNats.Data, message); err != nil {
		log.Errorf("Error decoding reply: %s", err)
		return
	}

	if message.SocketId == "" {
		log.Warn("reply without socket id, dropping")
		return
	}

	b.SendToSocket(message.SocketId, message)
}
