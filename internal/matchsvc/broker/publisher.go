package broker

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/matchdayhq/matchday-services/internal/bus"
	"github.com/matchdayhq/matchday-services/internal/comm"
	"github.com/matchdayhq/matchday-services/internal/matchsvc/models"
)

// Publisher turns committed entities into canonical snapshots and publishes
// them on the topic bus. Every mutation path goes through here, so listeners
// always see full entity state, never a diff.
type Publisher struct {
	bus *bus.Bus
}

func NewPublisher(b *bus.Bus) *Publisher {
	return &Publisher{bus: b}
}

func (p *Publisher) publish(topic, orgID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("publisher: unable to marshal payload for topic %s: %s", topic, err)
		return
	}
	p.bus.Publish(topic, comm.Event{Topic: topic, OrgID: orgID, Data: data})
}

// GameSnap builds the canonical game snapshot.
func GameSnap(g *models.Game) comm.GameSnapshot {
	responses := make([]comm.GameResponse, 0, len(g.Responses))
	for _, r := range g.Responses {
		responses = append(responses, comm.GameResponse{UserID: r.UserID, IsAvailable: r.IsAvailable})
	}
	return comm.GameSnapshot{
		GameID:    g.ID,
		CreatorID: g.CreatorID,
		Date:      g.Date,
		Time:      g.Time,
		Venue:     g.Venue,
		Status:    g.Status,
		Notes:     g.Notes,
		Responses: responses,
		Version:   g.Version,
	}
}

// FormationSnap builds the canonical formation snapshot.
func FormationSnap(f *models.Formation) comm.FormationSnapshot {
	positions := make([]comm.PositionSnapshot, 0, len(f.Positions))
	for _, pos := range f.Positions {
		positions = append(positions, comm.PositionSnapshot{Slot: pos.Slot, PlayerID: pos.PlayerID})
	}
	return comm.FormationSnapshot{
		FormationID:   f.ID,
		GameID:        f.GameID,
		FormationType: f.FormationType,
		Positions:     positions,
		Version:       f.Version,
	}
}

// CommentSnap builds the canonical comment snapshot.
func CommentSnap(c *models.FormationComment) comm.CommentSnapshot {
	return comm.CommentSnapshot{
		CommentID:      c.ID,
		FormationID:    c.FormationID,
		AuthorID:       c.AuthorID,
		Text:           c.Text,
		LikeCount:      c.LikeCount,
		LikedByUserIds: append([]string{}, c.LikedBy...),
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func (p *Publisher) PublishGameCreated(g *models.Game) comm.GameSnapshot {
	snap := GameSnap(g)
	p.publish(comm.TopicGameCreated, g.OrgID, snap)
	return snap
}

func (p *Publisher) PublishGameUpdated(g *models.Game) comm.GameSnapshot {
	snap := GameSnap(g)
	p.publish(comm.TopicGameUpdated, g.OrgID, snap)
	return snap
}

// PublishGameStatus routes a status transition to its own topic.
func (p *Publisher) PublishGameStatus(g *models.Game) comm.GameSnapshot {
	snap := GameSnap(g)
	topic := comm.TopicGameUpdated
	switch g.Status {
	case models.GameStatusConfirmed:
		topic = comm.TopicGameConfirmed
	case models.GameStatusCancelled:
		topic = comm.TopicGameCancelled
	case models.GameStatusCompleted:
		topic = comm.TopicGameCompleted
	}
	p.publish(topic, g.OrgID, snap)
	return snap
}

func (p *Publisher) PublishGameDeleted(orgID, gameID string) {
	p.publish(comm.TopicGameDeleted, orgID, comm.GameDeleted{GameID: gameID})
}

func (p *Publisher) PublishFormationCreated(f *models.Formation) comm.FormationSnapshot {
	snap := FormationSnap(f)
	p.publish(comm.TopicFormationCreated, f.OrgID, snap)
	return snap
}

func (p *Publisher) PublishFormationUpdated(f *models.Formation) comm.FormationSnapshot {
	snap := FormationSnap(f)
	p.publish(comm.TopicFormationUpdated, f.OrgID, snap)
	return snap
}

func (p *Publisher) PublishFormationDeleted(orgID, gameID string) {
	p.publish(comm.TopicFormationDeleted, orgID, comm.FormationDeleted{GameID: gameID})
}

func (p *Publisher) PublishFormationLiked(f *models.Formation) comm.FormationLike {
	like := comm.FormationLike{
		FormationID:    f.ID,
		LikeCount:      f.LikeCount,
		LikedByUserIds: append([]string{}, f.LikedBy...),
		Version:        f.Version,
	}
	p.publish(comm.TopicFormationLiked, f.OrgID, like)
	return like
}

func (p *Publisher) PublishCommentAdded(c *models.FormationComment) comm.CommentSnapshot {
	snap := CommentSnap(c)
	p.publish(comm.TopicCommentAdded, c.OrgID, snap)
	return snap
}

func (p *Publisher) PublishCommentUpdated(c *models.FormationComment) comm.CommentSnapshot {
	snap := CommentSnap(c)
	p.publish(comm.TopicCommentUpdated, c.OrgID, snap)
	return snap
}

func (p *Publisher) PublishCommentDeleted(orgID, commentID, formationID string) {
	p.publish(comm.TopicCommentDeleted, orgID, comm.CommentDeleted{CommentID: commentID, FormationID: formationID})
}

func (p *Publisher) PublishCommentLiked(c *models.FormationComment) comm.CommentLike {
	like := comm.CommentLike{
		CommentID:      c.ID,
		FormationID:    c.FormationID,
		LikeCount:      c.LikeCount,
		LikedByUserIds: append([]string{}, c.LikedBy...),
		Version:        c.Version,
	}
	p.publish(comm.TopicCommentLiked, c.OrgID, like)
	return like
}
