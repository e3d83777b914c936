package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/allocation"
	"github.com/shrimpsizemoose/semla/internal/engine"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/pairing"
	"github.com/shrimpsizemoose/semla/internal/rounds"
	"github.com/shrimpsizemoose/semla/internal/store/storetest"
)

func newFixture(t *testing.T) (*Selector, *pairing.Service, *storetest.Fake) {
	t.Helper()

	fake := storetest.New()
	for _, n := range []int{rounds.Qualifier, rounds.Shortlist, rounds.PairRound, rounds.Final} {
		fake.AddRound(models.Round{RoundNumber: n, IsActive: true})
	}
	for _, team := range []models.Team{
		{ID: "aurora", Track: "fintech"},
		{ID: "borealis", Track: "fintech"},
	} {
		fake.AddTeam(team)
		fake.Grant(team.ID, rounds.PairRound)
	}

	pairs := pairing.NewService(fake, 15*time.Minute)
	return NewSelector(fake, pairs), pairs, fake
}

func pairedFixture(t *testing.T) (*Selector, *storetest.Fake) {
	t.Helper()

	sel, pairs, fake := newFixture(t)
	fake.AddScore("aurora", 1, 42)
	fake.AddScore("borealis", 1, 17)

	pairingID, err := pairs.Create(rounds.PairRound, "aurora", "borealis")
	require.NoError(t, err)
	require.NoError(t, pairs.AssignOptions(rounds.PairRound, pairingID, []string{"opt-1", "opt-2"}))

	return sel, fake
}

func TestSelectRoundGuards(t *testing.T) {
	sel, _, fake := newFixture(t)

	t.Run("final round has no selection", func(t *testing.T) {
		_, err := sel.Select("aurora", rounds.Final, "opt-1")
		assert.ErrorIs(t, err, engine.ErrNoSelectionRound)
	})

	t.Run("unknown round", func(t *testing.T) {
		bare := storetest.New()
		pairs := pairing.NewService(bare, 15*time.Minute)
		_, err := NewSelector(bare, pairs).Select("aurora", rounds.Shortlist, "opt-1")
		assert.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("inactive round", func(t *testing.T) {
		fake.AddRound(models.Round{RoundNumber: rounds.Qualifier, IsActive: false})
		_, err := sel.Select("aurora", rounds.Qualifier, "opt-1")
		assert.ErrorIs(t, err, engine.ErrRoundInactive)
	})

	t.Run("no options assigned", func(t *testing.T) {
		_, err := sel.Select("aurora", rounds.Shortlist, "opt-1")
		assert.ErrorIs(t, err, engine.ErrNoOptionsAssigned)
	})
}

func TestTeamModeSelection(t *testing.T) {
	sel, _, fake := newFixture(t)

	alloc := allocation.NewAllocator(fake)
	_, err := alloc.AllocateTeamOptions(rounds.Shortlist, []models.Allocation{
		{TeamID: "aurora", Options: []string{"opt-1", "opt-2"}},
	})
	require.NoError(t, err)

	t.Run("option must be offered", func(t *testing.T) {
		_, err := sel.Select("aurora", rounds.Shortlist, "opt-99")
		assert.ErrorIs(t, err, engine.ErrOptionNotOffered)
	})

	t.Run("first selection finalizes", func(t *testing.T) {
		set, err := sel.Select("aurora", rounds.Shortlist, "opt-2")
		require.NoError(t, err)
		require.NotNil(t, set.Selected)
		assert.Equal(t, "opt-2", *set.Selected)
		assert.False(t, set.AutoAssigned)
	})

	t.Run("finalized is terminal", func(t *testing.T) {
		_, err := sel.Select("aurora", rounds.Shortlist, "opt-1")
		assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)

		set, err := sel.Get("aurora", rounds.Shortlist)
		require.NoError(t, err)
		assert.Equal(t, "opt-2", *set.Selected)
	})
}

func TestPairedSelectionSettlesBothSides(t *testing.T) {
	sel, fake := pairedFixture(t)

	set, err := sel.Select("aurora", rounds.PairRound, "opt-1")
	require.NoError(t, err)
	require.NotNil(t, set.Selected)
	assert.Equal(t, "opt-1", *set.Selected)

	// sibling settles in the same operation, not on its next read
	sibling, err := fake.GetRoundOptions("borealis", rounds.PairRound)
	require.NoError(t, err)
	require.NotNil(t, sibling.Selected)
	assert.Equal(t, "opt-2", *sibling.Selected)
	assert.False(t, sibling.AutoAssigned)
}

func TestPairedSelectionGuards(t *testing.T) {
	t.Run("paired team waits for priority", func(t *testing.T) {
		sel, _ := pairedFixture(t)
		_, err := sel.Select("borealis", rounds.PairRound, "opt-2")
		assert.ErrorIs(t, err, engine.ErrWaitingForPriority)
	})

	t.Run("paired row is never user-settable", func(t *testing.T) {
		sel, _ := pairedFixture(t)
		_, err := sel.Select("aurora", rounds.PairRound, "opt-1")
		require.NoError(t, err)

		_, err = sel.Select("borealis", rounds.PairRound, "opt-2")
		assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)
	})

	t.Run("priority cannot backtrack", func(t *testing.T) {
		sel, _ := pairedFixture(t)
		_, err := sel.Select("aurora", rounds.PairRound, "opt-1")
		require.NoError(t, err)

		_, err = sel.Select("aurora", rounds.PairRound, "opt-2")
		assert.ErrorIs(t, err, engine.ErrAlreadyFinalized)
	})

	t.Run("priority must pick from the pool", func(t *testing.T) {
		sel, _ := pairedFixture(t)
		_, err := sel.Select("aurora", rounds.PairRound, "opt-7")
		assert.ErrorIs(t, err, engine.ErrOptionNotOffered)
	})
}

func TestGetResolvesPairRows(t *testing.T) {
	sel, fake := pairedFixture(t)

	// age the pairing past the decision window
	rows, err := fake.ListPairRows(mustPairID(t, fake))
	require.NoError(t, err)
	for i := range rows {
		aged := *rows[i].PublishedAt - int64((20 * time.Minute).Seconds())
		rows[i].PublishedAt = &aged
		require.NoError(t, fake.UpsertRoundOptions(&rows[i]))
	}

	set, err := sel.Get("borealis", rounds.PairRound)
	require.NoError(t, err)
	require.NotNil(t, set.Selected)
	assert.Equal(t, "opt-2", *set.Selected)
	assert.True(t, set.AutoAssigned)
}

func TestGetReturnsNilForUnassigned(t *testing.T) {
	sel, _, _ := newFixture(t)

	set, err := sel.Get("aurora", rounds.Qualifier)
	require.NoError(t, err)
	assert.Nil(t, set)
}

func mustPairID(t *testing.T, fake *storetest.Fake) string {
	t.Helper()
	pairings, err := fake.ListPairings(rounds.PairRound)
	require.NoError(t, err)
	require.Len(t, pairings, 1)
	return pairings[0].ID
}
