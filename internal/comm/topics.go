package comm

// Topic names, one per event kind. Entity scoping lives inside the payload;
// filtering by entity id is the listener's job, not the bus's.
const (
	TopicGameCreated   = "game.created"
	TopicGameUpdated   = "game.updated"
	TopicGameConfirmed = "game.confirmed"
	TopicGameCancelled = "game.cancelled"
	TopicGameCompleted = "game.completed"
	TopicGameDeleted   = "game.deleted"

	TopicFormationCreated = "formation.created"
	TopicFormationUpdated = "formation.updated"
	TopicFormationDeleted = "formation.deleted"
	TopicFormationLiked   = "formation.liked"

	TopicCommentAdded   = "comment.added"
	TopicCommentUpdated = "comment.updated"
	TopicCommentDeleted = "comment.deleted"
	TopicCommentLiked   = "comment.liked"
)

// AllTopics lists every event topic, in a stable order. The NATS relay and
// the socket service subscribe to the full set.
func AllTopics() []string {
	return []string{
		TopicGameCreated,
		TopicGameUpdated,
		TopicGameConfirmed,
		TopicGameCancelled,
		TopicGameCompleted,
		TopicGameDeleted,
		TopicFormationCreated,
		TopicFormationUpdated,
		TopicFormationDeleted,
		TopicFormationLiked,
		TopicCommentAdded,
		TopicCommentUpdated,
		TopicCommentDeleted,
		TopicCommentLiked,
	}
}
