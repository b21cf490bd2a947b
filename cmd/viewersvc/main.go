// cmd/viewersvc/main.go
package main

import (
	"encoding/json"
	"sync"
	"time"

	config "github.com/matchdayhq/matchday-services/configs"
	"github.com/matchdayhq/matchday-services/internal/comm"
	natscli "github.com/matchdayhq/matchday-services/internal/nats"
	"github.com/matchdayhq/matchday-services/internal/reconcile"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "viewer"

var instanceId string

func init() {
	instanceId = "001"
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

// The viewer keeps a live mirror of every organization's state by replaying
// the event stream through the same reconciler the web clients use. It makes
// no mutations of its own, so nothing ever goes optimistic here; the mirror
// is a convergence check and a debugging window into what clients see.

// views holds one reconciler per scope: the game list of an org, the
// formation list of an org, the comment thread of a formation. NATS feeds
// events on one goroutine, but the report loop reads concurrently.
var (
	viewsMu sync.Mutex
	views   = make(map[string]*reconcile.Reconciler)
)

// formationByGame remembers which formation belongs to which game, because
// a formation removal event only carries the owning game id.
var formationByGame = make(map[string]string)

func main() {
	log.Printf("Starting Viewer Service...")

	nc, err := natscli.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Conn.Close()
	log.Infof("NATS connected at %s", nc.Url)

	_, err = nc.Conn.Subscribe(natscli.SubjectEvents, handleEvent)
	if err != nil {
		log.Fatalf("Failed to subscribe to %s: %v", natscli.SubjectEvents, err)
	}
	log.Printf("Subscribed to %s", natscli.SubjectEvents)

	go reportLoop()

	log.Printf("Viewer Service fully operational!")

	// Keep service running
	select {}
}

// handleEvent routes one published event into the reconciler of its scope.
func handleEvent(msg *nats.Msg) {
	ev := &comm.Event{}
	if err := json.Unmarshal(msg.Data, ev); err != nil {
		log.Errorf("Failed to unmarshal event: %v", err)
		return
	}

	keys := comm.EventKeys{}
	if err := json.Unmarshal(ev.Data, &keys); err != nil {
		log.Errorf("Failed to extract keys from event on %s: %v", ev.Topic, err)
		return
	}

	switch ev.Topic {
	case comm.TopicGameCreated:
		applyTo("games/"+ev.OrgID, reconcile.EventAdd, keys.GameID, ev.Data)
	case comm.TopicGameUpdated, comm.TopicGameConfirmed, comm.TopicGameCancelled, comm.TopicGameCompleted:
		applyTo("games/"+ev.OrgID, reconcile.EventUpdate, keys.GameID, ev.Data)
	case comm.TopicGameDeleted:
		applyTo("games/"+ev.OrgID, reconcile.EventDelete, keys.GameID, nil)

	case comm.TopicFormationCreated:
		formationByGame[keys.GameID] = keys.FormationID
		applyTo("formations/"+ev.OrgID, reconcile.EventAdd, keys.FormationID, ev.Data)
	case comm.TopicFormationUpdated, comm.TopicFormationLiked:
		if keys.GameID != "" {
			formationByGame[keys.GameID] = keys.FormationID
		}
		applyTo("formations/"+ev.OrgID, reconcile.EventUpdate, keys.FormationID, ev.Data)
	case comm.TopicFormationDeleted:
		formationID, ok := formationByGame[keys.GameID]
		if !ok {
			log.Warnf("formation removal for unknown game %s, nothing to drop", keys.GameID)
			return
		}
		delete(formationByGame, keys.GameID)
		applyTo("formations/"+ev.OrgID, reconcile.EventDelete, formationID, nil)
		viewsMu.Lock()
		delete(views, "comments/"+formationID)
		viewsMu.Unlock()

	case comm.TopicCommentAdded:
		applyTo("comments/"+keys.FormationID, reconcile.EventAdd, keys.CommentID, ev.Data)
	case comm.TopicCommentUpdated, comm.TopicCommentLiked:
		applyTo("comments/"+keys.FormationID, reconcile.EventUpdate, keys.CommentID, ev.Data)
	case comm.TopicCommentDeleted:
		applyTo("comments/"+keys.FormationID, reconcile.EventDelete, keys.CommentID, nil)

	default:
		log.Warnf("event on unknown topic %s dropped", ev.Topic)
	}
}

// applyTo feeds one event into the reconciler for the given scope, creating
// the scope on first sight. The mirror starts from an empty load and
// converges through the stream itself: an update for an id it never saw
// becomes an implicit add.
func applyTo(scope string, kind reconcile.EventKind, id string, payload json.RawMessage) {
	if id == "" {
		log.Warnf("event without an entity id on scope %s dropped", scope)
		return
	}

	viewsMu.Lock()
	defer viewsMu.Unlock()

	r, ok := views[scope]
	if !ok {
		r = reconcile.New(SERVICE_NAME + "-" + instanceId)
		r.Load(nil)
		views[scope] = r
		log.Printf("Opened view %s", scope)
	}

	fields, version := decodeFields(payload)
	r.Apply(reconcile.Event{
		Kind:    kind,
		ID:      id,
		Version: version,
		Fields:  fields,
	})
}

// decodeFields flattens an event payload into reconciler fields and pulls
// out the version the payload carries.
func decodeFields(payload json.RawMessage) (map[string]interface{}, int64) {
	if len(payload) == 0 {
		return nil, 0
	}

	fields := make(map[string]interface{})
	if err := json.Unmarshal(payload, &fields); err != nil {
		log.Errorf("Failed to decode event payload: %v", err)
		return nil, 0
	}

	var version int64
	if v, ok := fields["version"].(float64); ok {
		version = int64(v)
	}
	delete(fields, "version")

	return fields, version
}

// reportLoop logs a convergence summary every 30 seconds.
func reportLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		total := 0
		viewsMu.Lock()
		for scope, r := range views {
			total += r.Len()
			log.Printf("view %s: %d items", scope, r.Len())
		}
		count := len(views)
		viewsMu.Unlock()
		log.Infof("mirror summary: %d views, %d items total", count, total)
	}
}
