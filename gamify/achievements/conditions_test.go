package achievements

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpack/gamify/gamify/database/models"
)

func TestConditionValidate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr string
	}{
		{
			name: "valid count",
			cond: Condition{Kind: KindCount, Counter: CounterPacksOpened, Target: 10},
		},
		{
			name:    "count with unknown counter",
			cond:    Condition{Kind: KindCount, Counter: "credits_spent", Target: 10},
			wantErr: "unknown counter",
		},
		{
			name:    "count without target",
			cond:    Condition{Kind: KindCount, Counter: CounterPacksOpened},
			wantErr: "positive target",
		},
		{
			name: "valid value",
			cond: Condition{Kind: KindValue, Counter: ValueLevel, Target: 10},
		},
		{
			name:    "value with counter name",
			cond:    Condition{Kind: KindValue, Counter: CounterPacksOpened, Target: 10},
			wantErr: "unknown value",
		},
		{
			name: "valid rarity threshold",
			cond: Condition{Kind: KindRarityThreshold, Rarity: models.RarityEpic, Count: 3},
		},
		{
			name:    "rarity threshold with bogus rarity",
			cond:    Condition{Kind: KindRarityThreshold, Rarity: "MYTHIC", Count: 3},
			wantErr: "unknown rarity",
		},
		{
			name: "valid first occurrence",
			cond: Condition{Kind: KindFirstOccurrence, Of: EventPackOpened},
		},
		{
			name:    "first occurrence of unsupported event",
			cond:    Condition{Kind: KindFirstOccurrence, Of: EventDailyLogin},
			wantErr: "unsupported source",
		},
		{
			name: "valid time window",
			cond: Condition{Kind: KindTimeWindow, StartHour: 0, EndHour: 5},
		},
		{
			name:    "inverted time window",
			cond:    Condition{Kind: KindTimeWindow, StartHour: 6, EndHour: 5},
			wantErr: "must precede",
		},
		{
			name:    "time window out of range",
			cond:    Condition{Kind: KindTimeWindow, StartHour: 0, EndHour: 25},
			wantErr: "out of range",
		},
		{
			name: "valid early bird",
			cond: Condition{Kind: KindEarlyBird, BeforeHour: 6},
		},
		{
			name:    "early bird at midnight",
			cond:    Condition{Kind: KindEarlyBird, BeforeHour: 0},
			wantErr: "out of range",
		},
		{
			name:    "comeback without gap",
			cond:    Condition{Kind: KindComeback},
			wantErr: "positive gap",
		},
		{
			name:    "unknown kind",
			cond:    Condition{Kind: "lunar_eclipse"},
			wantErr: "unknown condition kind",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDecodeConditions(t *testing.T) {
	t.Run("round trips the seed encoding", func(t *testing.T) {
		raw := MustConditions(
			Condition{Kind: KindFirstOccurrence, Of: EventPackOpened},
			Condition{Kind: KindRarityThreshold, Rarity: models.RarityLegendary, Count: 1},
		)
		conds, err := DecodeConditions(raw)
		require.NoError(t, err)
		require.Len(t, conds, 2)
		assert.Equal(t, KindFirstOccurrence, conds[0].Kind)
		assert.Equal(t, models.RarityLegendary, conds[1].Rarity)
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		_, err := DecodeConditions(json.RawMessage(`{"kind": "count"`))
		assert.Error(t, err)
	})

	t.Run("rejects empty condition list", func(t *testing.T) {
		_, err := DecodeConditions(json.RawMessage(`[]`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no conditions")
	})

	t.Run("rejects list with one invalid entry", func(t *testing.T) {
		raw := json.RawMessage(`[{"kind":"count","counter":"packs_opened","target":5},{"kind":"count","counter":"bogus","target":5}]`)
		_, err := DecodeConditions(raw)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "condition 1")
	})
}

func TestSeedDefinitionsAllDecode(t *testing.T) {
	names := make(map[string]bool)
	for _, def := range seedDefinitions() {
		assert.False(t, names[def.Name], "duplicate seed name %q", def.Name)
		names[def.Name] = true

		_, err := DecodeConditions(def.Conditions)
		assert.NoError(t, err, "seed %q", def.Name)
	}
}
