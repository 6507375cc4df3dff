package status

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/jalousie-io/internal/logging"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "status-io.json"), logging.NewNop())
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Load())
	assert.Empty(t, s.Dump())
}

func TestStoreLoadCorruptFile(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	err := s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse status")
	assert.Empty(t, s.Dump())
}

func TestStoreLoadNullDocument(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("null\n"), 0o644))

	require.NoError(t, s.Load())
	assert.Empty(t, s.Dump())

	require.NotPanics(t, func() {
		require.NoError(t, s.Save(map[string]any{"rain": map[string]any{"level": 0.44}}))
	})

	reloaded := NewStore(s.Path(), logging.NewNop())
	require.NoError(t, reloaded.Load())
	var rain RainSection
	require.NoError(t, reloaded.Decode("rain", &rain))
	assert.Equal(t, 0.44, rain.Level)
}

func TestStoreRoundTripExactValue(t *testing.T) {
	s := newTestStore(t)

	level := 0.0
	for i := 0; i < 7; i++ {
		level += 0.44
	}
	require.NoError(t, s.Save(map[string]any{"rain": map[string]any{"level": level}}))

	reloaded := NewStore(s.Path(), logging.NewNop())
	require.NoError(t, reloaded.Load())

	var rain RainSection
	require.NoError(t, reloaded.Decode("rain", &rain))
	assert.Equal(t, level, rain.Level)
}

func TestStoreDeepMerge(t *testing.T) {
	s := newTestStore(t)

	s.Update(map[string]any{
		"rain": map[string]any{"level": 0.44, "unit": "mm"},
		"name": "io",
	})
	s.Update(map[string]any{
		"rain": map[string]any{"level": 0.88},
		"wind": map[string]any{"level": 3},
	})

	got := s.Dump()
	assert.Equal(t, map[string]any{"level": 0.88, "unit": "mm"}, got["rain"])
	assert.Equal(t, map[string]any{"level": 3}, got["wind"])
	assert.Equal(t, "io", got["name"])
}

func TestStoreMergeReplacesScalarWithMap(t *testing.T) {
	s := newTestStore(t)

	s.Update(map[string]any{"rain": 1})
	s.Update(map[string]any{"rain": map[string]any{"level": 0.44}})

	assert.Equal(t, map[string]any{"level": 0.44}, s.Dump()["rain"])
}

func TestStoreDumpIsCopy(t *testing.T) {
	s := newTestStore(t)
	s.Update(map[string]any{"rain": map[string]any{"level": 0.44}})

	d := s.Dump()
	d["rain"].(map[string]any)["level"] = 99.0

	assert.Equal(t, 0.44, s.Dump()["rain"].(map[string]any)["level"])
}

func TestStoreWriteIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Save(map[string]any{"rain": map[string]any{"level": 0.44}}))
	require.NoError(t, s.Save(map[string]any{"rain": map[string]any{"level": 0.88}}))

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"rain\": {\n    \"level\": 0.88\n  }\n}\n", string(data))
}

func TestStoreWriteMissingDirectory(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing", "status-io.json"), logging.NewNop())

	err := s.Save(map[string]any{"rain": map[string]any{"level": 0.44}})
	require.Error(t, err)
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStoreDecodeMissingSection(t *testing.T) {
	s := newTestStore(t)

	rain := RainSection{Level: 1.5}
	require.NoError(t, s.Decode("rain", &rain))
	assert.Equal(t, 1.5, rain.Level)
}

func TestStoreDecodeWeakTypes(t *testing.T) {
	s := newTestStore(t)
	s.Update(map[string]any{"rain": map[string]any{"level": "2.2"}})

	var rain RainSection
	require.NoError(t, s.Decode("rain", &rain))
	assert.Equal(t, 2.2, rain.Level)
}
