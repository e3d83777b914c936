package allocation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/engine"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/rounds"
	"github.com/shrimpsizemoose/semla/internal/store/storetest"
)

func TestAllocateRejectsWrongRounds(t *testing.T) {
	a := NewAllocator(storetest.New())

	batch := []models.Allocation{{TeamID: "aurora", Options: []string{"opt-1", "opt-2"}}}

	_, err := a.AllocateTeamOptions(rounds.PairRound, batch)
	assert.ErrorIs(t, err, engine.ErrNotTeamRound)

	_, err = a.AllocateTeamOptions(rounds.Final, batch)
	assert.ErrorIs(t, err, engine.ErrNotTeamRound)
}

func TestAllocateWritesTeamModeRows(t *testing.T) {
	fake := storetest.New()
	a := NewAllocator(fake)

	count, err := a.AllocateTeamOptions(rounds.Qualifier, []models.Allocation{
		{TeamID: "aurora", Options: []string{"opt-1", "opt-2"}},
		{TeamID: "borealis", Options: []string{"opt-3", "opt-3", "opt-4"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	row, err := fake.GetRoundOptions("borealis", rounds.Qualifier)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, []string{"opt-3", "opt-4"}, row.Options(), "options deduplicated and capped")
	assert.Equal(t, models.AssignmentTeam, row.AssignmentMode)
	assert.Nil(t, row.Selected)
}

func TestAllocatePreservesStillOfferedSelection(t *testing.T) {
	fake := storetest.New()
	a := NewAllocator(fake)

	_, err := a.AllocateTeamOptions(rounds.Shortlist, []models.Allocation{
		{TeamID: "aurora", Options: []string{"opt-3", "opt-5"}},
	})
	require.NoError(t, err)

	won, err := fake.FinalizeSelection("aurora", rounds.Shortlist, "opt-3", 1700000000, false)
	require.NoError(t, err)
	require.True(t, won)

	t.Run("selection survives a re-run that still offers it", func(t *testing.T) {
		_, err := a.AllocateTeamOptions(rounds.Shortlist, []models.Allocation{
			{TeamID: "aurora", Options: []string{"opt-3", "opt-4"}},
		})
		require.NoError(t, err)

		row, err := fake.GetRoundOptions("aurora", rounds.Shortlist)
		require.NoError(t, err)
		require.NotNil(t, row.Selected)
		assert.Equal(t, "opt-3", *row.Selected)
		assert.Equal(t, int64(1700000000), *row.SelectedAt)
	})

	t.Run("selection clears when no longer offered", func(t *testing.T) {
		_, err := a.AllocateTeamOptions(rounds.Shortlist, []models.Allocation{
			{TeamID: "aurora", Options: []string{"opt-6", "opt-7"}},
		})
		require.NoError(t, err)

		row, err := fake.GetRoundOptions("aurora", rounds.Shortlist)
		require.NoError(t, err)
		assert.Nil(t, row.Selected)
		assert.Nil(t, row.SelectedAt)
	})
}

func TestAllocateScrubsStalePairingFields(t *testing.T) {
	fake := storetest.New()
	a := NewAllocator(fake)

	pairID := "pairing-1"
	priority := "aurora"
	published := int64(1700000000)
	opt := "opt-1"
	require.NoError(t, fake.UpsertRoundOptions(&models.RoundOptions{
		TeamID:         "aurora",
		RoundNumber:    rounds.Shortlist,
		OptionA:        &opt,
		AssignmentMode: models.AssignmentPair,
		PairID:         &pairID,
		PriorityTeamID: &priority,
		PairedTeamID:   &priority,
		PublishedAt:    &published,
		AutoAssigned:   true,
	}))

	_, err := a.AllocateTeamOptions(rounds.Shortlist, []models.Allocation{
		{TeamID: "aurora", Options: []string{"opt-1", "opt-2"}},
	})
	require.NoError(t, err)

	row, err := fake.GetRoundOptions("aurora", rounds.Shortlist)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentTeam, row.AssignmentMode)
	assert.Nil(t, row.PairID)
	assert.Nil(t, row.PriorityTeamID)
	assert.Nil(t, row.PairedTeamID)
	assert.Nil(t, row.PublishedAt)
	assert.False(t, row.AutoAssigned)
}

func TestAllocateValidatesEntries(t *testing.T) {
	a := NewAllocator(storetest.New())

	_, err := a.AllocateTeamOptions(rounds.Qualifier, []models.Allocation{
		{TeamID: "", Options: []string{"opt-1"}},
	})
	assert.Error(t, err)

	_, err = a.AllocateTeamOptions(rounds.Qualifier, []models.Allocation{
		{TeamID: "aurora", Options: nil},
	})
	assert.Error(t, err)
}
