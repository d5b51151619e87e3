package chat

import (
	"testing"

	"github.com/anonto42/nano-midea/chat/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionScenario(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "seven")

	msg := f.post(t, alice, room, "hello")
	page, err := f.svc.ListMessages(f.ctx, alice, room, 0, 50)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "hello", page[0].Body)

	summary, err := f.svc.ToggleReaction(f.ctx, bob, room, msg.ID, "👍")
	require.NoError(t, err)
	assert.Equal(t, []ReactionSummary{{Emoji: "👍", Count: 1, Reacted: true}}, summary)

	summary, err = f.svc.ToggleReaction(f.ctx, bob, room, msg.ID, "👍")
	require.NoError(t, err)
	assert.Empty(t, summary)

	requireKind(t, f.svc.DeleteMessage(f.ctx, carol, room, msg.ID), KindForbidden)
}

func TestToggleTwiceRestoresCount(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "general")
	msg := f.post(t, alice, room, "react to me")

	_, err := f.svc.ToggleReaction(f.ctx, alice, room, msg.ID, "😂")
	require.NoError(t, err)
	before, err := f.svc.ToggleReaction(f.ctx, carol, room, msg.ID, "❤️")
	require.NoError(t, err)

	_, err = f.svc.ToggleReaction(f.ctx, bob, room, msg.ID, "😂")
	require.NoError(t, err)
	after, err := f.svc.ToggleReaction(f.ctx, bob, room, msg.ID, "😂")
	require.NoError(t, err)

	// Same store state; reacted flags differ only by viewer.
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Emoji, after[i].Emoji)
		assert.Equal(t, before[i].Count, after[i].Count)
	}
}

func TestReactionSummaryOrderAndViewer(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "general")
	msg := f.post(t, alice, room, "order")

	for _, step := range []struct {
		who   string
		emoji string
	}{{"bob", "😢"}, {"carol", "👍"}, {"bob", "👍"}} {
		who := bob
		if step.who == "carol" {
			who = carol
		}
		_, err := f.svc.ToggleReaction(f.ctx, who, room, msg.ID, step.emoji)
		require.NoError(t, err)
	}

	page, err := f.svc.ListMessages(f.ctx, carol, room, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, []ReactionSummary{
		{Emoji: "👍", Count: 2, Reacted: true},
		{Emoji: "😢", Count: 1, Reacted: false},
	}, page[0].Reactions)
}

func TestToggleReactionValidation(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "general")
	other := f.room(t, "other")
	msg := f.post(t, alice, room, "x")

	_, err := f.svc.ToggleReaction(f.ctx, bob, room, msg.ID, "🔥")
	requireKind(t, err, KindValidation)

	_, err = f.svc.ToggleReaction(f.ctx, bob, other, msg.ID, "👍")
	requireKind(t, err, KindNotFound)

	_, err = f.svc.ToggleReaction(f.ctx, bob, room, msg.ID+1, "👍")
	requireKind(t, err, KindNotFound)

	assert.Zero(t, f.store.Counts()["reactions"])
}

func TestToggleReactionOnVanishedMessage(t *testing.T) {
	f := newFixture(t)
	room := f.room(t, "general")
	msg := f.post(t, alice, room, "x")

	// the message is deleted between the lookup and the toggle
	f.store.FailNext("reactions.toggle", repositories.ErrNotFound)
	_, err := f.svc.ToggleReaction(f.ctx, bob, room, msg.ID, "👍")
	requireKind(t, err, KindNotFound)
}

func TestSummarizeSkipsZeroCounts(t *testing.T) {
	assert.Equal(t, []ReactionSummary{}, summarize(nil, "a@example.com"))
}
