package nats

import (
	"encoding/json"
	"os"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"github.com/matchdayhq/matchday-services/internal/bus"
	"github.com/matchdayhq/matchday-services/internal/comm"
)

// SubjectEvents carries every published entity snapshot between services.
// SubjectMutations carries websocket-originated mutation requests from the
// socket service to the match service.
// SubjectReplies carries direct responses addressed to one socket.
const (
	SubjectEvents    = "match.events"
	SubjectMutations = "socket.service"
	SubjectReplies   = "socket.replies"
)

type Nats struct {
	Url   string
	Token string
	Conn  *nats.Conn
}

func Connect() (*Nats, error) {
	n := &Nats{
		Url:   os.Getenv("NATS_URL"),
		Token: os.Getenv("NATS_TOKEN"),
	}

	if n.Url == "" {
		n.Url = "nats://localhost:4224"
	}

	opts := []nats.Option{
		nats.Name("NATS Connection"),
	}

	// if token provided
	if n.Token != "" {
		opts = append(opts, nats.Token(n.Token))
	}

	conn, err := nats.Connect(n.Url, opts...)
	if err != nil {
		return nil, err
	}

	n.Conn = conn

	return n, nil
}

// Relay forwards every event published on the in-process bus to the shared
// NATS subject, so other service instances see mutations made here.
type Relay struct {
	conn *nats.Conn
	subs []*bus.Subscription
	done chan struct{}
}

func NewRelay(conn *nats.Conn, b *bus.Bus) *Relay {
	r := &Relay{
		conn: conn,
		done: make(chan struct{}),
	}
	for _, topic := range comm.AllTopics() {
		r.subs = append(r.subs, b.Subscribe(topic, 64))
	}
	return r
}

func (r *Relay) Run() {
	for _, sub := range r.subs {
		go r.forward(sub)
	}
}

func (r *Relay) forward(sub *bus.Subscription) {
	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Errorf("relay: unable to marshal event for topic %s: %s", ev.Topic, err)
				continue
			}
			if err := r.conn.Publish(SubjectEvents, payload); err != nil {
				log.Errorf("relay: error publishing to subject %s: %s", SubjectEvents, err)
			}
		case <-r.done:
			return
		}
	}
}

func (r *Relay) Stop() {
	close(r.done)
	for _, sub := range r.subs {
		sub.Close()
	}
}
