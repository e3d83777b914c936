package pairing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/rounds"
	"github.com/shrimpsizemoose/semla/internal/store/storetest"
)

// pairFixture sets up an assigned pairing published at a chosen age.
// aurora wins priority via its higher cumulative score.
func pairFixture(t *testing.T, age time.Duration) (*Service, *storetest.Fake, string) {
	t.Helper()

	svc, fake := newTestService(t)
	fake.AddScore("aurora", 1, 42)
	fake.AddScore("borealis", 1, 17)

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(-age) }

	pairingID, err := svc.Create(rounds.PairRound, "aurora", "borealis")
	require.NoError(t, err)
	require.NoError(t, svc.AssignOptions(rounds.PairRound, pairingID, []string{"opt-1", "opt-2"}))

	svc.now = func() time.Time { return base }
	return svc, fake, pairingID
}

func TestResolvePropagatesComplement(t *testing.T) {
	svc, fake, _ := pairFixture(t, 5*time.Minute)

	won, err := fake.FinalizeSelection("aurora", rounds.PairRound, "opt-1", svc.now().Unix(), false)
	require.NoError(t, err)
	require.True(t, won)

	set, err := fake.GetRoundOptions("borealis", rounds.PairRound)
	require.NoError(t, err)
	resolved, err := svc.Resolve(set)
	require.NoError(t, err)

	require.NotNil(t, resolved.Selected)
	assert.Equal(t, "opt-2", *resolved.Selected)
	assert.False(t, resolved.AutoAssigned, "propagation mirrors a real choice")
}

func TestResolveWaitsInsideWindow(t *testing.T) {
	svc, fake, _ := pairFixture(t, 5*time.Minute)

	set, err := fake.GetRoundOptions("aurora", rounds.PairRound)
	require.NoError(t, err)
	resolved, err := svc.Resolve(set)
	require.NoError(t, err)

	assert.Nil(t, resolved.Selected)

	sibling, err := fake.GetRoundOptions("borealis", rounds.PairRound)
	require.NoError(t, err)
	assert.Nil(t, sibling.Selected)
}

func TestResolveAutoAssignsAfterWindow(t *testing.T) {
	svc, fake, _ := pairFixture(t, 20*time.Minute)

	set, err := fake.GetRoundOptions("borealis", rounds.PairRound)
	require.NoError(t, err)
	resolved, err := svc.Resolve(set)
	require.NoError(t, err)

	require.NotNil(t, resolved.Selected)
	assert.Equal(t, "opt-2", *resolved.Selected)
	assert.True(t, resolved.AutoAssigned)

	priority, err := fake.GetRoundOptions("aurora", rounds.PairRound)
	require.NoError(t, err)
	require.NotNil(t, priority.Selected)
	assert.Equal(t, "opt-1", *priority.Selected)
	assert.True(t, priority.AutoAssigned)

	assert.NotEqual(t, *priority.Selected, *resolved.Selected)
}

func TestResolveIsIdempotent(t *testing.T) {
	svc, fake, _ := pairFixture(t, 20*time.Minute)

	set, err := fake.GetRoundOptions("aurora", rounds.PairRound)
	require.NoError(t, err)
	first, err := svc.Resolve(set)
	require.NoError(t, err)
	second, err := svc.Resolve(first)
	require.NoError(t, err)

	assert.Equal(t, *first.Selected, *second.Selected)
	assert.Equal(t, *first.SelectedAt, *second.SelectedAt)

	sibling, err := fake.GetRoundOptions("borealis", rounds.PairRound)
	require.NoError(t, err)
	require.NotNil(t, sibling.Selected)
}

func TestResolveLosesRaceGracefully(t *testing.T) {
	svc, fake, _ := pairFixture(t, 20*time.Minute)

	// the priority team beats the sweep to its own row
	won, err := fake.FinalizeSelection("aurora", rounds.PairRound, "opt-2", svc.now().Unix(), false)
	require.NoError(t, err)
	require.True(t, won)

	set, err := fake.GetRoundOptions("borealis", rounds.PairRound)
	require.NoError(t, err)
	resolved, err := svc.Resolve(set)
	require.NoError(t, err)

	// the sibling inherits the complement of the actual choice, not opt-2
	require.NotNil(t, resolved.Selected)
	assert.Equal(t, "opt-1", *resolved.Selected)

	priority, err := fake.GetRoundOptions("aurora", rounds.PairRound)
	require.NoError(t, err)
	assert.Equal(t, "opt-2", *priority.Selected)
	assert.False(t, priority.AutoAssigned, "team's own write must not be overwritten")
}

func TestResolveIgnoresTeamModeRows(t *testing.T) {
	svc, fake := newTestService(t)

	opt := "opt-9"
	row := &models.RoundOptions{
		TeamID:         "aurora",
		RoundNumber:    rounds.Qualifier,
		OptionA:        &opt,
		AssignmentMode: models.AssignmentTeam,
	}
	require.NoError(t, fake.UpsertRoundOptions(row))

	resolved, err := svc.Resolve(row)
	require.NoError(t, err)
	assert.Equal(t, row, resolved)
}

func TestSweepExpired(t *testing.T) {
	svc, fake, _ := pairFixture(t, 20*time.Minute)

	resolved, err := svc.SweepExpired(rounds.PairRound)
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)

	for _, teamID := range []string{"aurora", "borealis"} {
		row, err := fake.GetRoundOptions(teamID, rounds.PairRound)
		require.NoError(t, err)
		require.NotNil(t, row.Selected)
		assert.True(t, row.AutoAssigned)
	}

	// nothing left to do on the second pass
	resolved, err = svc.SweepExpired(rounds.PairRound)
	require.NoError(t, err)
	assert.Equal(t, 0, resolved)
}
