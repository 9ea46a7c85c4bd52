package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	gen, err := r.Register("ma_fast", KindMovingAverageCrossover, []byte(`{"short_window": 3, "long_window": 10}`), true)
	require.NoError(t, err)
	assert.Equal(t, "ma_fast", gen.ID())
	assert.Equal(t, 10, gen.MinLookback())

	got, ok := r.Get("ma_fast")
	require.True(t, ok)
	assert.Equal(t, gen, got)

	infos := r.List()
	require.Len(t, infos, 1)
	assert.Equal(t, KindMovingAverageCrossover, infos[0].Kind)
	assert.True(t, infos[0].Active)
}

func TestRegistry_DefaultsWhenParamsOmitted(t *testing.T) {
	r := NewRegistry()
	gen, err := r.Register("rsi_default", KindRSI, nil, true)
	require.NoError(t, err)
	assert.Equal(t, 15, gen.MinLookback()) // period 14 + 1
}

func TestRegistry_RejectsUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("x", "fibonacci_spiral", nil, true)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRegistry_SchemaRejectsBadParams(t *testing.T) {
	r := NewRegistry()
	cases := []struct {
		name   string
		kind   string
		params string
	}{
		{"negative window", KindMovingAverageCrossover, `{"short_window": -1, "long_window": 20}`},
		{"unknown field", KindRSI, `{"period": 14, "velocity": 9}`},
		{"non-object params", KindMACD, `[1, 2, 3]`},
		{"wrong type", KindBollingerBands, `{"period": "twenty"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Register("x", tc.kind, []byte(tc.params), true)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestRegistry_ConstructorRejectsCrossFieldViolations(t *testing.T) {
	r := NewRegistry()
	// Each field passes the schema alone; the constructor still rejects the
	// combination.
	_, err := r.Register("x", KindMovingAverageCrossover, []byte(`{"short_window": 20, "long_window": 5}`), true)
	assert.ErrorIs(t, err, ErrInvalidParams)
	_, ok := r.Get("x")
	assert.False(t, ok)
}

func TestRegistry_ActiveFiltersAndOrders(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("b_rsi", KindRSI, nil, true)
	require.NoError(t, err)
	_, err = r.Register("a_macd", KindMACD, nil, true)
	require.NoError(t, err)
	_, err = r.Register("c_bb", KindBollingerBands, nil, false)
	require.NoError(t, err)

	active := r.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "a_macd", active[0].ID())
	assert.Equal(t, "b_rsi", active[1].ID())

	require.True(t, r.SetActive("c_bb", true))
	assert.Len(t, r.Active(), 3)
	assert.False(t, r.SetActive("ghost", true))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register("rsi", KindRSI, nil, true)
	require.NoError(t, err)

	assert.True(t, r.Remove("rsi"))
	assert.False(t, r.Remove("rsi"))
	assert.Empty(t, r.Active())
}
