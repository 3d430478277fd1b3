package services_test

import (
	"fmt"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/require"

	"github.com/KevinVandy/pointmystory-sub000/internal/models"
	"github.com/KevinVandy/pointmystory-sub000/internal/services"
	"github.com/KevinVandy/pointmystory-sub000/internal/testutil"
)

func newCaller(id, name string) *services.Caller {
	return &services.Caller{UserID: id, Name: name, Authenticated: true}
}

type fixture struct {
	app          core.App
	rooms        *services.RoomService
	rounds       *services.RoundService
	participants *services.ParticipantService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	app := testutil.NewTestApp(t)
	scheduler := &services.SyncScheduler{}

	return &fixture{
		app:          app,
		rooms:        services.NewRoomService(app, scheduler),
		rounds:       services.NewRoundService(app, scheduler),
		participants: services.NewParticipantService(app),
	}
}

// createRoom builds a room owned by the given host with default settings.
func (f *fixture) createRoom(t *testing.T, host *services.Caller, params services.CreateRoomParams) *core.Record {
	t.Helper()

	if params.Name == "" {
		params.Name = "Sprint Planning"
	}
	room, err := f.rooms.Create(host, params)
	require.NoError(t, err)
	return room
}

// joinVoters joins n voter participants and returns their callers.
func (f *fixture) joinVoters(t *testing.T, roomID string, n int) []*services.Caller {
	t.Helper()

	callers := make([]*services.Caller, 0, n)
	for i := 0; i < n; i++ {
		caller := newCaller(fmt.Sprintf("user-%d", i+1), fmt.Sprintf("Voter %d", i+1))
		_, err := f.participants.Join(caller, roomID, models.TypeVoter)
		require.NoError(t, err)
		callers = append(callers, caller)
	}
	return callers
}
