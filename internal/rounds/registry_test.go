package rounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/store/storetest"
)

func TestRoundRolePredicates(t *testing.T) {
	assert.True(t, IsTeamAllocated(Qualifier))
	assert.True(t, IsTeamAllocated(Shortlist))
	assert.False(t, IsTeamAllocated(PairRound))
	assert.False(t, IsTeamAllocated(Final))

	assert.True(t, IsPairRound(PairRound))
	assert.False(t, IsPairRound(Shortlist))

	assert.True(t, HasSelection(Qualifier))
	assert.True(t, HasSelection(PairRound))
	assert.False(t, HasSelection(Final))

	assert.Equal(t, []int{Qualifier, Shortlist}, ScoreRounds())
}

func TestCanAccessRound(t *testing.T) {
	fake := storetest.New()
	registry := NewRegistry(fake)

	fake.AddRound(models.Round{RoundNumber: Qualifier, IsActive: true})
	fake.AddTeam(models.Team{ID: "aurora", Track: "fintech"})
	fake.AddTeam(models.Team{ID: "borealis", Track: "fintech"})

	t.Run("active first round is open to everyone", func(t *testing.T) {
		ok, err := registry.CanAccessRound("aurora", Qualifier)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("inactive first round needs a grant", func(t *testing.T) {
		fake.AddRound(models.Round{RoundNumber: Qualifier, IsActive: false})
		ok, err := registry.CanAccessRound("aurora", Qualifier)
		require.NoError(t, err)
		assert.False(t, ok)

		fake.Grant("aurora", Qualifier)
		ok, err = registry.CanAccessRound("aurora", Qualifier)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("later rounds need explicit grants", func(t *testing.T) {
		ok, err := registry.CanAccessRound("aurora", Shortlist)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("shortlist grant cascades to the later rounds", func(t *testing.T) {
		fake.Grant("borealis", Shortlist)

		for _, round := range []int{Shortlist, PairRound, Final} {
			ok, err := registry.CanAccessRound("borealis", round)
			require.NoError(t, err)
			assert.True(t, ok, "round %d", round)
		}

		// cascade flows forward only
		ok, err := registry.CanAccessRound("borealis", Qualifier)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestShortlistedTeamsFoldsCascade(t *testing.T) {
	fake := storetest.New()
	registry := NewRegistry(fake)

	fake.AddTeam(models.Team{ID: "aurora", Track: "fintech"})
	fake.AddTeam(models.Team{ID: "borealis", Track: "fintech"})
	fake.AddTeam(models.Team{ID: "cumulus", Track: "healthtech"})

	fake.Grant("aurora", Shortlist)
	fake.Grant("borealis", PairRound)
	fake.Grant("cumulus", Qualifier)

	teams, err := registry.ShortlistedTeams(PairRound)
	require.NoError(t, err)

	var ids []string
	for _, team := range teams {
		ids = append(ids, team.ID)
	}
	assert.ElementsMatch(t, []string{"aurora", "borealis"}, ids)

	teams, err = registry.ShortlistedTeams(Shortlist)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "aurora", teams[0].ID)
}
