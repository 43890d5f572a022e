package restype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	ext, ok := c.Extension(TypeTXT)
	require.True(t, ok)
	assert.Equal(t, "txt", ext)

	ext, ok = c.Extension(TypeTPC)
	require.True(t, ok)
	assert.Equal(t, "tpc", ext)

	_, ok = c.Extension(0x0005)
	assert.False(t, ok, "0x0005 is not a registered type")

	assert.Equal(t, len(kotorTypes), c.Len())
}

func TestTypeIDReverseLookup(t *testing.T) {
	c := Default()

	tests := []struct {
		ext  string
		want uint16
	}{
		{"2da", Type2DA},
		{".2DA", Type2DA},
		{"ERF", TypeERF},
		{"key", TypeKEY},
	}
	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			got, ok := c.TypeID(tt.ext)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.False(t, c.Has("exe"))
}

func TestNewCopiesTable(t *testing.T) {
	table := map[uint16]string{0x000A: "TXT"}
	c := New(table)
	table[0x0001] = "bmp"

	assert.Equal(t, 1, c.Len())
	ext, ok := c.Extension(0x000A)
	require.True(t, ok)
	assert.Equal(t, "txt", ext, "extensions are normalised to lower case")
}

func TestIDsSorted(t *testing.T) {
	ids := New(map[uint16]string{0x270F: "key", 0x0001: "bmp", 0x07E1: "2da"}).IDs()
	assert.Equal(t, []uint16{0x0001, 0x07E1, 0x270F}, ids)
}
