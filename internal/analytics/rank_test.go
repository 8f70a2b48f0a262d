package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoteldash/internal/core"
)

func rankNames(records []core.RankedRecord) []string {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names
}

func TestRankModes(t *testing.T) {
	t.Parallel()

	records := []core.CategoryPoint{
		{Name: "A", Value: 100, Change: 50},
		{Name: "B", Value: 200, Change: 20},
		{Name: "C", Value: 50, Change: -50},
		{Name: "D", Value: 0, Change: 0},
	}
	cases := []struct {
		mode core.RankMode
		want []string
	}{
		{core.RankTop, []string{"B", "A", "C", "D"}},
		{core.RankBottom, []string{"D", "C", "A", "B"}},
		{core.RankRising, []string{"A", "B", "C", "D"}},
		{core.RankFalling, []string{"C", "B", "A", "D"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			got := newTestEngine().Rank(records, tc.mode, 0)
			assert.Equal(t, tc.want, rankNames(got))
			for i, r := range got {
				assert.Equal(t, i+1, r.Rank)
			}
		})
	}
}

func TestRankLimitAndChange(t *testing.T) {
	t.Parallel()

	records := []core.CategoryPoint{
		{Name: "A", Value: 100, Change: 50},
		{Name: "B", Value: 200, Change: 20},
		{Name: "D", Value: 0, Change: 0},
	}

	got := newTestEngine().Rank(records, core.RankTop, 2)

	require.Len(t, got, 2)
	require.NotNil(t, got[0].ChangePercent)
	assert.Equal(t, 11.1, *got[0].ChangePercent)
	assert.Equal(t, 100.0, *got[1].ChangePercent)

	all := newTestEngine().Rank(records, core.RankTop, 0)
	require.Len(t, all, 3)
	assert.Nil(t, all[2].ChangePercent)
}

func TestRankEmpty(t *testing.T) {
	t.Parallel()

	got := newTestEngine().Rank(nil, core.RankRising, 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
