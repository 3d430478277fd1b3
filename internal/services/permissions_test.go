package services_test

import (
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
)

func blankRecord(t *testing.T, app core.App, collection string) *core.Record {
	t.Helper()
	col, err := app.FindCollectionByNameOrId(collection)
	require.NoError(t, err)
	return core.NewRecord(col)
}

func TestEffectiveVisibility_DefaultsToPrivate(t *testing.T) {
	f := newFixture(t)

	room := blankRecord(t, f.app, "rooms")
	assert.Equal(t, models.VisibilityPrivate, services.EffectiveVisibility(room))

	room.Set("visibility", "public")
	assert.Equal(t, models.VisibilityPublic, services.EffectiveVisibility(room))
}

func TestEffectiveRoleAndType_Defaults(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, models.RoleTeam, services.EffectiveRole(nil))
	assert.Equal(t, models.TypeVoter, services.EffectiveParticipantType(nil))

	participant := blankRecord(t, f.app, "participants")
	assert.Equal(t, models.RoleTeam, services.EffectiveRole(participant))
	assert.Equal(t, models.TypeVoter, services.EffectiveParticipantType(participant))

	participant.Set("role", "admin")
	participant.Set("participant_type", "observer")
	assert.Equal(t, models.RoleAdmin, services.EffectiveRole(participant))
	assert.Equal(t, models.TypeObserver, services.EffectiveParticipantType(participant))
}

func TestCanView(t *testing.T) {
	f := newFixture(t)

	private := blankRecord(t, f.app, "rooms")
	private.Set("visibility", "private")
	public := blankRecord(t, f.app, "rooms")
	public.Set("visibility", "public")

	assert.False(t, services.CanView(private, false))
	assert.True(t, services.CanView(private, true))
	assert.True(t, services.CanView(public, false))
	assert.True(t, services.CanView(public, true))
}

func TestIsAdmin(t *testing.T) {
	f := newFixture(t)

	room := blankRecord(t, f.app, "rooms")

	// Hosts hold admin rights without a participant record.
	assert.True(t, services.IsAdmin(room, nil, true))

	assert.False(t, services.IsAdmin(room, nil, false))

	participant := blankRecord(t, f.app, "participants")
	participant.Set("role", "team")
	assert.False(t, services.IsAdmin(room, participant, false))

	participant.Set("role", "admin")
	assert.True(t, services.IsAdmin(room, participant, false))
}
