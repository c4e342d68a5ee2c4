package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharesTeam(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "T1", "admin")
	require.NoError(t, err)
	require.NoError(t, svc.AddTeamMember(ctx, team.ID, "u1", "admin"))
	require.NoError(t, svc.AddTeamMember(ctx, team.ID, "u2", "admin"))

	dir := &dbTeamDirectory{db: svc.db}

	shared, err := dir.SharesTeam(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.True(t, shared)

	shared, err = dir.SharesTeam(ctx, "u1", "u3")
	require.NoError(t, err)
	assert.False(t, shared)

	// A profile always shares a team with itself, membership or not.
	shared, err = dir.SharesTeam(ctx, "u9", "u9")
	require.NoError(t, err)
	assert.True(t, shared)
}

func TestTeamMembership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t1, err := svc.CreateTeam(ctx, "T1", "admin")
	require.NoError(t, err)
	t2, err := svc.CreateTeam(ctx, "T2", "admin")
	require.NoError(t, err)

	require.NoError(t, svc.AddTeamMember(ctx, t1.ID, "u1", "admin"))
	require.NoError(t, svc.AddTeamMember(ctx, t2.ID, "u1", "admin"))

	teams, err := svc.TeamsOf(ctx, "u1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{t1.ID, t2.ID}, teams)

	require.NoError(t, svc.RemoveTeamMember(ctx, t1.ID, "u1", "admin"))

	teams, err = svc.TeamsOf(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{t2.ID}, teams)

	err = svc.RemoveTeamMember(ctx, t1.ID, "u1", "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTeamDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTeam(ctx, "T1", "admin")
	require.NoError(t, err)

	_, err = svc.CreateTeam(ctx, "T1", "admin")
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestDeleteTeamRemovesMemberships(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	team, err := svc.CreateTeam(ctx, "T1", "admin")
	require.NoError(t, err)
	require.NoError(t, svc.AddTeamMember(ctx, team.ID, "u1", "admin"))

	require.NoError(t, svc.DeleteTeam(ctx, team.ID, "admin"))

	teams, err := svc.TeamsOf(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestAddTeamMemberUnknownTeam(t *testing.T) {
	svc := newTestService(t)

	err := svc.AddTeamMember(context.Background(), "ghost", "u1", "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}
