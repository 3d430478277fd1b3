package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

func TestCastVote_UpsertsInPlace(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	f.joinVoters(t, room.Id, 1) // second voter keeps auto-reveal from firing

	first, err := f.rounds.CastVote(host, room.Id, "5")
	require.NoError(t, err)

	second, err := f.rounds.CastVote(host, room.Id, "8")
	require.NoError(t, err)

	assert.Equal(t, first.Id, second.Id, "revote should update the same record")
	assert.Equal(t, "8", second.GetString("value"))

	votes, err := f.rounds.VotesForRoom(host, room.Id)
	require.NoError(t, err)
	assert.Len(t, votes, 1)
}

func TestCastVote_RejectsTokenOutsideScale(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	_, err := f.rounds.CastVote(host, room.Id, "4")
	assert.ErrorIs(t, err, services.ErrInvalidVoteValue)
}

func TestCastVote_RequiresMembership(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	_, err := f.rounds.CastVote(newCaller("stranger", "Eve"), room.Id, "5")
	assert.ErrorIs(t, err, services.ErrNotJoined)

	_, err = f.rounds.CastVote(nil, room.Id, "5")
	assert.ErrorIs(t, err, services.ErrAuthRequired)
}

func TestCastVote_ObserversRefused(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	observer := newCaller("user-2", "Bob")
	_, err := f.participants.Join(observer, room.Id, models.TypeObserver)
	require.NoError(t, err)

	_, err = f.rounds.CastVote(observer, room.Id, "5")
	assert.ErrorIs(t, err, services.ErrObserversCannotVote)
}

func TestCastVote_ClosedRoomRefused(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	require.NoError(t, f.rooms.Close(host, room.Id))

	_, err := f.rounds.CastVote(host, room.Id, "5")
	assert.ErrorIs(t, err, services.ErrRoomClosed)
}

func TestReveal_ClosedRoomRefused(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	f.joinVoters(t, room.Id, 1)
	require.NoError(t, f.rooms.Close(host, room.Id))

	_, err := f.rounds.Reveal(host, room.Id)
	assert.ErrorIs(t, err, services.ErrRoomClosed)

	round, err := f.app.FindRecordById("rounds", room.GetString("current_round_id"))
	require.NoError(t, err)
	assert.False(t, round.GetBool("is_revealed"))
}

func TestCastVote_RevealedRoundRefused(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	f.joinVoters(t, room.Id, 1)

	_, err := f.rounds.Reveal(host, room.Id)
	require.NoError(t, err)

	_, err = f.rounds.CastVote(host, room.Id, "5")
	assert.ErrorIs(t, err, services.ErrRoundRevealed)
}

func TestAutoReveal_FiresWhenLastVoterVotes(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	voters := f.joinVoters(t, room.Id, 2)

	var events []string
	f.rounds.OnChange(func(roomID, event string) {
		events = append(events, event)
	})

	_, err := f.rounds.CastVote(host, room.Id, "3")
	require.NoError(t, err)
	_, err = f.rounds.CastVote(voters[0], room.Id, "5")
	require.NoError(t, err)

	round, err := f.app.FindRecordById("rounds", room.GetString("current_round_id"))
	require.NoError(t, err)
	assert.False(t, round.GetBool("is_revealed"), "round must stay hidden while a voter is outstanding")

	_, err = f.rounds.CastVote(voters[1], room.Id, "8")
	require.NoError(t, err)

	round, err = f.app.FindRecordById("rounds", round.Id)
	require.NoError(t, err)
	assert.True(t, round.GetBool("is_revealed"))
	assert.Contains(t, events, models.MsgTypeVotesRevealed)
}

func TestAutoReveal_ObserversDoNotBlockReveal(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	observer := newCaller("user-2", "Bob")
	_, err := f.participants.Join(observer, room.Id, models.TypeObserver)
	require.NoError(t, err)

	_, err = f.rounds.CastVote(host, room.Id, "5")
	require.NoError(t, err)

	round, err := f.app.FindRecordById("rounds", room.GetString("current_round_id"))
	require.NoError(t, err)
	assert.True(t, round.GetBool("is_revealed"), "lone voter's vote should complete the round")
}

func TestAutoReveal_DisabledLeavesRoundHidden(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	off := false
	_, err := f.rooms.UpdateSettings(host, room.Id, services.UpdateSettingsParams{AutoRevealVotes: &off})
	require.NoError(t, err)

	_, err = f.rounds.CastVote(host, room.Id, "5")
	require.NoError(t, err)

	round, err := f.app.FindRecordById("rounds", room.GetString("current_round_id"))
	require.NoError(t, err)
	assert.False(t, round.GetBool("is_revealed"))
}

func TestReveal_ComputesStatsAndDefaultFinalScore(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	voters := f.joinVoters(t, room.Id, 2)

	off := false
	_, err := f.rooms.UpdateSettings(host, room.Id, services.UpdateSettingsParams{AutoRevealVotes: &off})
	require.NoError(t, err)

	_, err = f.rounds.CastVote(host, room.Id, "3")
	require.NoError(t, err)
	_, err = f.rounds.CastVote(voters[0], room.Id, "5")
	require.NoError(t, err)
	_, err = f.rounds.CastVote(voters[1], room.Id, "?")
	require.NoError(t, err)

	round, err := f.rounds.Reveal(host, room.Id)
	require.NoError(t, err)

	assert.True(t, round.GetBool("is_revealed"))
	assert.NotEmpty(t, round.GetString("revealed_at"))
	assert.Equal(t, 4.0, round.GetFloat("average_score"))
	assert.Equal(t, 4.0, round.GetFloat("median_score"))
	assert.Equal(t, 1, round.GetInt("unsure_count"))
	// 4.0 sits between 3 and 5; ties round down to the smaller scale value.
	assert.Equal(t, "3", round.GetString("final_score"))

	view := models.NewRoundView(round)
	require.NotNil(t, view.AverageScore)
	assert.Equal(t, 4.0, *view.AverageScore)
	require.NotNil(t, view.MedianScore)
	assert.Equal(t, 4.0, *view.MedianScore)
}

func TestReveal_AllUnsureLeavesScoresAbsent(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	_, err := f.rounds.CastVote(host, room.Id, "?")
	require.NoError(t, err)

	round, err := f.app.FindRecordById("rounds", room.GetString("current_round_id"))
	require.NoError(t, err)
	assert.True(t, round.GetBool("is_revealed"))
	assert.False(t, round.GetBool("has_scores"))
	assert.Equal(t, 1, round.GetInt("unsure_count"))
	assert.Empty(t, round.GetString("final_score"))

	// The stored number columns flatten to zero; the client shape must
	// still report both scores as absent, not zero.
	view := models.NewRoundView(round)
	assert.Nil(t, view.AverageScore)
	assert.Nil(t, view.MedianScore)
}

func TestReveal_Idempotent(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	_, err := f.rounds.CastVote(host, room.Id, "5")
	require.NoError(t, err)

	round, err := f.app.FindRecordById("rounds", room.GetString("current_round_id"))
	require.NoError(t, err)
	firstRevealedAt := round.GetString("revealed_at")
	require.NotEmpty(t, firstRevealedAt)

	// An admin overrides the consensus, then reveals again; the override
	// and the original timestamp must both survive.
	require.NoError(t, f.rounds.SetFinalScore(host, round.Id, "13"))

	_, err = f.rounds.Reveal(host, room.Id)
	require.NoError(t, err)

	round, err = f.app.FindRecordById("rounds", round.Id)
	require.NoError(t, err)
	assert.Equal(t, firstRevealedAt, round.GetString("revealed_at"))
	assert.Equal(t, "13", round.GetString("final_score"))
}

func TestReveal_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	member := f.joinVoters(t, room.Id, 1)[0]

	_, err := f.rounds.Reveal(member, room.Id)
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestSetFinalScore_AcceptsOffScaleValue(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	roundID := room.GetString("current_round_id")

	require.NoError(t, f.rounds.SetFinalScore(host, roundID, "42"))

	round, err := f.app.FindRecordById("rounds", roundID)
	require.NoError(t, err)
	assert.Equal(t, "42", round.GetString("final_score"))
}

func TestVotesForRoom_RedactsBeforeReveal(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	voters := f.joinVoters(t, room.Id, 2)

	_, err := f.rounds.CastVote(host, room.Id, "3")
	require.NoError(t, err)
	_, err = f.rounds.CastVote(voters[0], room.Id, "5")
	require.NoError(t, err)

	views, err := f.rounds.VotesForRoom(voters[0], room.Id)
	require.NoError(t, err)
	require.Len(t, views, 2)

	for _, view := range views {
		assert.True(t, view.HasVoted)
	}

	own := f.rooms.FindCallerParticipant(voters[0], room.Id)
	require.NotNil(t, own)
	for _, view := range views {
		if view.ParticipantID == own.Id {
			require.NotNil(t, view.Value)
			assert.Equal(t, "5", *view.Value)
		} else {
			assert.Nil(t, view.Value, "other voters' values must be hidden before reveal")
		}
	}
}

func TestVotesForRoom_ValuesVisibleAfterReveal(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	voters := f.joinVoters(t, room.Id, 1)

	_, err := f.rounds.CastVote(host, room.Id, "3")
	require.NoError(t, err)
	_, err = f.rounds.CastVote(voters[0], room.Id, "5") // triggers auto-reveal
	require.NoError(t, err)

	views, err := f.rounds.VotesForRoom(voters[0], room.Id)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, view := range views {
		assert.NotNil(t, view.Value)
	}
}

func TestCurrentVote(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	f.joinVoters(t, room.Id, 1)

	view, err := f.rounds.CurrentVote(host, room.Id)
	require.NoError(t, err)
	assert.Nil(t, view)

	_, err = f.rounds.CastVote(host, room.Id, "5")
	require.NoError(t, err)

	view, err = f.rounds.CurrentVote(host, room.Id)
	require.NoError(t, err)
	require.NotNil(t, view)
	require.NotNil(t, view.Value)
	assert.Equal(t, "5", *view.Value)
}

func TestStartNewRound_RepointsRoom(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	firstRoundID := room.GetString("current_round_id")

	_, err := f.rounds.CastVote(host, room.Id, "5")
	require.NoError(t, err)

	round, err := f.rounds.StartNewRound(host, room.Id, "Checkout flow", "PROJ-17")
	require.NoError(t, err)
	assert.NotEqual(t, firstRoundID, round.Id)
	assert.False(t, round.GetBool("is_revealed"))

	reloaded, err := f.app.FindRecordById("rooms", room.Id)
	require.NoError(t, err)
	assert.Equal(t, round.Id, reloaded.GetString("current_round_id"))
	assert.Equal(t, "Checkout flow", reloaded.GetString("current_story"))

	// The previous round's data is frozen, not erased.
	first, err := f.app.FindRecordById("rounds", firstRoundID)
	require.NoError(t, err)
	assert.True(t, first.GetBool("is_revealed"))
}

func TestStartNewRound_AutoStartTimer(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	on := true
	_, err := f.rooms.UpdateSettings(host, room.Id, services.UpdateSettingsParams{AutoStartTimer: &on})
	require.NoError(t, err)

	_, err = f.rounds.StartNewRound(host, room.Id, "", "")
	require.NoError(t, err)

	reloaded, err := f.app.FindRecordById("rooms", room.Id)
	require.NoError(t, err)
	assert.NotEmpty(t, reloaded.GetString("timer_started_at"))
	assert.NotEmpty(t, reloaded.GetString("timer_ends_at"))
}

func TestStartNewRound_ClosedRoomRefused(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	require.NoError(t, f.rooms.Close(host, room.Id))

	_, err := f.rounds.StartNewRound(host, room.Id, "", "")
	assert.ErrorIs(t, err, services.ErrRoomClosed)
}

func TestListRounds_NumbersOldestFirst(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})

	_, err := f.rounds.StartNewRound(host, room.Id, "Second", "")
	require.NoError(t, err)
	_, err = f.rounds.StartNewRound(host, room.Id, "Third", "")
	require.NoError(t, err)

	views, err := f.rounds.ListRounds(host, room.Id)
	require.NoError(t, err)
	require.Len(t, views, 3)
	for i, view := range views {
		assert.Equal(t, i+1, view.RoundNumber)
	}
	assert.Equal(t, "Third", views[2].Name)
}

func TestRoundWithVotes(t *testing.T) {
	f := newFixture(t)
	host := newCaller("host-1", "Alice")
	room := f.createRoom(t, host, services.CreateRoomParams{})
	f.joinVoters(t, room.Id, 1)

	_, err := f.rounds.CastVote(host, room.Id, "3")
	require.NoError(t, err)

	roundID := room.GetString("current_round_id")
	view, votes, err := f.rounds.RoundWithVotes(host, roundID)
	require.NoError(t, err)
	assert.Equal(t, roundID, view.ID)
	require.Len(t, votes, 1)
	require.NotNil(t, votes[0].Value, "caller sees their own vote pre-reveal")
}
