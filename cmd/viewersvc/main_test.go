package main

import (
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/matchdayhq/matchday-services/internal/comm"
	"github.com/matchdayhq/matchday-services/internal/reconcile"
)

func resetMirror() {
	viewsMu.Lock()
	views = make(map[string]*reconcile.Reconciler)
	viewsMu.Unlock()
	formationByGame = make(map[string]string)
}

func inject(t *testing.T, topic, orgID string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	frame, err := json.Marshal(comm.Event{Topic: topic, OrgID: orgID, Data: data})
	require.NoError(t, err)
	handleEvent(&nats.Msg{Data: frame})
}

func TestCommentLikeLandsInItsThreadView(t *testing.T) {
	resetMirror()

	inject(t, comm.TopicCommentAdded, "org-1", comm.CommentSnapshot{
		CommentID:   "c1",
		FormationID: "f1",
		AuthorID:    "member",
		Text:        "press higher",
		Version:     1,
	})
	inject(t, comm.TopicCommentLiked, "org-1", comm.CommentLike{
		CommentID:      "c1",
		FormationID:    "f1",
		LikeCount:      1,
		LikedByUserIds: []string{"member"},
		Version:        2,
	})

	viewsMu.Lock()
	defer viewsMu.Unlock()

	require.Len(t, views, 1, "like must not open a second view")
	thread, ok := views["comments/f1"]
	require.True(t, ok, "thread view for f1 missing")

	item, ok := thread.Get("c1")
	require.True(t, ok)
	require.EqualValues(t, 2, item.Version)
	require.EqualValues(t, 1, item.Fields["like_count"])
	// partial update merged, the text the like event never carried survives
	require.Equal(t, "press higher", item.Fields["text"])
}

func TestFormationRemovalDropsItsThreadView(t *testing.T) {
	resetMirror()

	inject(t, comm.TopicFormationCreated, "org-1", comm.FormationSnapshot{
		FormationID:   "f1",
		GameID:        "g1",
		FormationType: "4-4-2",
		Version:       1,
	})
	inject(t, comm.TopicCommentAdded, "org-1", comm.CommentSnapshot{
		CommentID: "c1", FormationID: "f1", AuthorID: "member", Text: "hm", Version: 1,
	})
	inject(t, comm.TopicFormationDeleted, "org-1", comm.FormationDeleted{GameID: "g1"})

	viewsMu.Lock()
	defer viewsMu.Unlock()

	_, ok := views["comments/f1"]
	require.False(t, ok, "thread view must go with its formation")
	require.Zero(t, views["formations/org-1"].Len())
}
