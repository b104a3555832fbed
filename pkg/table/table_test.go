package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNames(t *testing.T) {
	input := "501#Red_Potion#\n" +
		"\n" +
		"502#Orange Potion#\r\n" +
		"garbage line\n" +
		"#NoID#\n" +
		"503##\n" +
		"504#White Potion"

	names := ParseNames(strings.NewReader(input))
	assert.Equal(t, map[string]string{
		"501": "Red_Potion",
		"502": "Orange Potion",
		"504": "White Potion",
	}, names)
}

func TestParseDescriptions(t *testing.T) {
	input := "501#\n" +
		"A potion made from ^FF0000Red Herbs^000000.\n" +
		"Type: ^777777Healing^000000\n" +
		"#\n" +
		"stray line outside any block\n" +
		"502#\n" +
		"\n" +
		"Orange.\n" +
		"#\n" +
		"503#\n" +
		"#\n" +
		"504#\n" +
		"Never closed"

	descriptions := ParseDescriptions(strings.NewReader(input))
	require.Len(t, descriptions, 3)

	assert.Equal(t, "A potion made from ^FF0000Red Herbs^000000.\nType: ^777777Healing^000000", descriptions["501"].Raw)
	assert.Equal(t, "a potion made from red herbs.", descriptions["501"].Normalized)
	assert.Equal(t, "Orange.", descriptions["502"].Raw)
	assert.NotContains(t, descriptions, "503")
	assert.Equal(t, "Never closed", descriptions["504"].Raw)
	assert.Equal(t, "never closed", descriptions["504"].Normalized)
}

func TestParseDescriptionsFlushesOnNextID(t *testing.T) {
	input := "601#\nFirst\n602#\nSecond\n#\n"

	descriptions := ParseDescriptions(strings.NewReader(input))
	assert.Equal(t, "First", descriptions["601"].Raw)
	assert.Equal(t, "Second", descriptions["602"].Raw)
}

func TestParseDescriptionsTextEndingWithHash(t *testing.T) {
	input := "701#\nCall now at #\nCosts 5#\n#\n"

	descriptions := ParseDescriptions(strings.NewReader(input))
	assert.Equal(t, "Call now at #\nCosts 5#", descriptions["701"].Raw)
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, LoadNames(filepath.Join(dir, "missing.txt")))
	assert.Empty(t, LoadDescriptions(filepath.Join(dir, "missing.txt")))
}

func TestLoadNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names.txt")
	require.NoError(t, os.WriteFile(path, []byte("909#Jellopy#\n"), 0644))

	assert.Equal(t, map[string]string{"909": "Jellopy"}, LoadNames(path))
}
