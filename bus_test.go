// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBusDefs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "buses.json")
	data := `{"buses": [
		{"name": "master", "child_buses": ["music"]},
		{"name": "music", "gain": 0.7, "duck_gain": 0.1}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	defs, err := LoadBusDefs(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "master", defs[0].Name)
	assert.Equal(t, []string{"music"}, defs[0].ChildBuses)
	assert.InDelta(t, 0.7, defs[1].Gain, 1e-6)
	assert.InDelta(t, 0.1, defs[1].DuckGain, 1e-6)
}

func TestLoadBusDefs_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadBusDefs(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestBuildBusGraph_NoMaster(t *testing.T) {
	t.Parallel()

	_, _, _, err := buildBusGraph([]BusDef{{Name: "music"}})
	assert.ErrorIs(t, err, ErrNoMasterBus)
}

func TestBuildBusGraph_DuplicateName(t *testing.T) {
	t.Parallel()

	_, _, _, err := buildBusGraph([]BusDef{
		{Name: "master"},
		{Name: "music"},
		{Name: "music"},
	})
	assert.ErrorIs(t, err, ErrDuplicateBus)
}

func TestBuildBusGraph_UnknownChild(t *testing.T) {
	t.Parallel()

	_, _, _, err := buildBusGraph([]BusDef{
		{Name: "master", ChildBuses: []string{"nope"}},
	})
	assert.ErrorIs(t, err, ErrUnknownBus)
}

func TestBuildBusGraph_UnknownDuckTarget(t *testing.T) {
	t.Parallel()

	_, _, _, err := buildBusGraph([]BusDef{
		{Name: "master", ChildBuses: []string{"voice"}},
		{Name: "voice", DuckBuses: []string{"nope"}},
	})
	assert.ErrorIs(t, err, ErrUnknownBus)
}

func TestBuildBusGraph_Resolves(t *testing.T) {
	t.Parallel()

	ordered, byName, master, err := buildBusGraph(testBusGraph())
	require.NoError(t, err)

	assert.Len(t, ordered, 4)
	assert.Equal(t, "master", master.Name())
	assert.Len(t, master.children, 3)
	require.Contains(t, byName, "voice")
	assert.Len(t, byName["voice"].duckTargets, 1)
	assert.Same(t, byName["music"], byName["voice"].duckTargets[0])
}

func TestBusGainPropagation(t *testing.T) {
	t.Parallel()

	_, byName, master, err := buildBusGraph([]BusDef{
		{Name: "master", Gain: 0.8, ChildBuses: []string{"music"}},
		{Name: "music", Gain: 0.5},
	})
	require.NoError(t, err)

	master.updateGain(1)
	assert.InDelta(t, 0.8, master.Gain(), 1e-6)
	assert.InDelta(t, 0.4, byName["music"].Gain(), 1e-6)

	// Master gain 0 silences the whole tree.
	master.updateGain(0)
	assert.Zero(t, byName["music"].Gain())
}

// advanceBuses runs one frame of duck recomputation over the graph.
func advanceBuses(buses []*Bus, master *Bus, dt time.Duration) {
	for _, b := range buses {
		b.resetDuckGain()
	}
	for _, b := range buses {
		b.updateDuckGain(dt, LinearDuckCurve)
	}
	master.updateGain(1)
}

func TestBusDucking_FadeInAndRecovery(t *testing.T) {
	t.Parallel()

	buses, byName, master, err := buildBusGraph(testBusGraph())
	require.NoError(t, err)

	music := byName["music"]
	voice := byName["voice"]

	advanceBuses(buses, master, 0)
	assert.InDelta(t, 1.0, music.Gain(), 1e-6)

	// A sound starts on the voice bus: music eases toward the 0.2 floor
	// over 100ms. With 25ms frames the gain drops linearly.
	voice.incrementSoundCounter()
	want := []float64{0.8, 0.6, 0.4, 0.2}
	for _, expected := range want {
		advanceBuses(buses, master, 25*time.Millisecond)
		assert.InDelta(t, expected, music.Gain(), 1e-5)
	}

	// Fully ducked: further frames hold the floor.
	advanceBuses(buses, master, 25*time.Millisecond)
	assert.InDelta(t, 0.2, music.Gain(), 1e-5)

	// Voice goes silent: recovery over 200ms.
	voice.decrementSoundCounter()
	advanceBuses(buses, master, 100*time.Millisecond)
	assert.InDelta(t, 0.6, music.Gain(), 1e-5)
	advanceBuses(buses, master, 100*time.Millisecond)
	assert.InDelta(t, 1.0, music.Gain(), 1e-5)
}

func TestBusDucking_ZeroFadeSnaps(t *testing.T) {
	t.Parallel()

	buses, byName, master, err := buildBusGraph([]BusDef{
		{Name: "master", ChildBuses: []string{"music", "voice"}},
		{Name: "music"},
		{Name: "voice", DuckBuses: []string{"music"}, DuckGain: 0.5},
	})
	require.NoError(t, err)

	byName["voice"].incrementSoundCounter()
	advanceBuses(buses, master, time.Millisecond)
	assert.InDelta(t, 0.5, byName["music"].Gain(), 1e-6)

	byName["voice"].decrementSoundCounter()
	advanceBuses(buses, master, time.Millisecond)
	assert.InDelta(t, 1.0, byName["music"].Gain(), 1e-6)
}

func TestBusDucking_MinAcrossDuckers(t *testing.T) {
	t.Parallel()

	buses, byName, master, err := buildBusGraph([]BusDef{
		{Name: "master", ChildBuses: []string{"music", "voice", "alerts"}},
		{Name: "music"},
		{Name: "voice", DuckBuses: []string{"music"}, DuckGain: 0.5},
		{Name: "alerts", DuckBuses: []string{"music"}, DuckGain: 0.1},
	})
	require.NoError(t, err)

	// Both duckers active: the deeper suppression wins, they do not stack.
	byName["voice"].incrementSoundCounter()
	byName["alerts"].incrementSoundCounter()
	advanceBuses(buses, master, time.Millisecond)
	assert.InDelta(t, 0.1, byName["music"].Gain(), 1e-6)

	// The deep ducker stops: the shallow one still holds 0.5.
	byName["alerts"].decrementSoundCounter()
	advanceBuses(buses, master, time.Millisecond)
	assert.InDelta(t, 0.5, byName["music"].Gain(), 1e-6)
}

func TestBusSoundCounterNeverNegative(t *testing.T) {
	t.Parallel()

	bus := newBus(BusDef{Name: "music"})
	bus.decrementSoundCounter()
	assert.Equal(t, 0, bus.SoundCount())
}
