package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMarshal(t *testing.T) {
	data, err := json.Marshal(Ordered[int]{"10": 1, "2": 0, "abc": 3, "1": 0})
	require.NoError(t, err)
	assert.Equal(t, `{"1":0,"2":0,"10":1,"abc":3}`, string(data))

	data, err = json.Marshal(Ordered[string](nil))
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))

	data, err = json.Marshal(IntKeys(map[int][]string{10: {"2"}, 4: {"1201", "1202"}}))
	require.NoError(t, err)
	assert.Equal(t, `{"4":["1201","1202"],"10":["2"]}`, string(data))
}

func TestWriteJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	w := NewWriter(dir)

	require.NoError(t, w.WriteJSON(ItemTypes, IntKeys(map[int][]string{0: {"501"}})))
	require.NoError(t, w.WriteJSON(ItemTypes, IntKeys(map[int][]string{3: {"909"}})))

	data, err := os.ReadFile(filepath.Join(dir, ItemTypes))
	require.NoError(t, err)
	assert.JSONEq(t, `{"3":["909"]}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")

	assert.NoError(t, w.Err())
	assert.Equal(t, []string{ItemTypes, ItemTypes}, w.Written())
}

func TestWriteErrorsArePerArtifact(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	require.NoError(t, w.WriteJSON(Items, map[string]string{"501": "Red Potion"}))
	assert.Error(t, w.WriteJSON(Mobs, map[string]any{"bad": make(chan int)}))
	require.NoError(t, w.WriteJSON(MobRaces, map[string]any{}))

	err := w.Err()
	require.Error(t, err)
	assert.True(t, IsWriteError(err))

	var we *Error
	require.ErrorAs(t, err, &we)
	assert.Contains(t, we.Failed, Mobs)
	assert.Len(t, we.Failed, 1)

	_, statErr := os.Stat(filepath.Join(dir, Mobs))
	assert.True(t, os.IsNotExist(statErr))

	data, readErr := os.ReadFile(filepath.Join(dir, Items))
	require.NoError(t, readErr)
	assert.JSONEq(t, `{"501":"Red Potion"}`, string(data))
}

func TestBatchFile(t *testing.T) {
	assert.Equal(t, "icons_batch_0.json", BatchFile(IconBatchPrefix, 0))
	assert.Equal(t, "mob_sprites_batch_12.json", BatchFile(MobSpriteBatchPrefix, 12))
}
