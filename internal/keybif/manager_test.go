package keybif

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/kotka/internal/binio"
	"github.com/jchantrell/kotka/internal/cache"
	"github.com/jchantrell/kotka/internal/restype"
)

func TestManagerGetResource(t *testing.T) {
	root := writeInstall(t, []testArchive{{
		Name:      "data.bif",
		Resources: []testResource{{ResRef: "test", TypeID: restype.TypeTXT, Data: []byte("hello")}},
	}})

	m, err := NewManager(root, IndexOptions{})
	require.NoError(t, err)
	defer m.Close()

	data, err := m.GetResource("data.bif", "test.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	assert.True(t, m.FileExists("data.bif", "test.txt"))
	assert.False(t, m.FileExists("data.bif", "test.2da"))
}

func TestManagerReadsEveryPosition(t *testing.T) {
	archives := sampleArchives()
	root := writeInstall(t, archives)

	m, err := NewManager(root, IndexOptions{})
	require.NoError(t, err)

	for _, a := range archives {
		for _, res := range a.Resources {
			if res.TypeID == 0x0005 {
				continue
			}
			ext, _ := restype.Default().Extension(res.TypeID)
			data, err := m.GetResource(a.Name, res.ResRef+"."+ext)
			require.NoError(t, err, res.ResRef)
			assert.Equal(t, res.Data, data, res.ResRef)
		}
	}

	data, err := m.GetFile("spells.2da")
	require.NoError(t, err)
	assert.Equal(t, []byte("2DA V2.b spells"), data)
}

func TestManagerResourceNotFound(t *testing.T) {
	root := writeInstall(t, sampleArchives())

	m, err := NewManager(root, IndexOptions{})
	require.NoError(t, err)

	_, err = m.GetResource("data/2da.bif", "missing.2da")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = m.GetFile("missing.2da")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	_, err = m.ExtractResource("data/2da.bif", "missing.2da")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestManagerMissingKeyFile(t *testing.T) {
	_, err := NewManager(t.TempDir(), IndexOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestManagerShortRead(t *testing.T) {
	root := writeInstall(t, []testArchive{{
		Name:      "data.bif",
		Resources: []testResource{{ResRef: "test", TypeID: restype.TypeTXT, Data: []byte("hello world")}},
	}})

	// drop the tail of the payload while the table still declares 11 bytes
	path := filepath.Join(root, "data.bif")
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-4))

	m, err := NewManager(root, IndexOptions{})
	require.NoError(t, err)

	_, err = m.GetResource("data.bif", "test.txt")
	assert.ErrorIs(t, err, binio.ErrShortRead)
}

func TestManagerExtractResource(t *testing.T) {
	root := writeInstall(t, sampleArchives())

	m, err := NewManager(root, IndexOptions{})
	require.NoError(t, err)

	tmp, err := m.ExtractResource("data/2da.bif", "feat.2da")
	require.NoError(t, err)

	data, err := io.ReadAll(tmp)
	require.NoError(t, err)
	assert.Equal(t, []byte("2DA V2.b feat"), data)

	name := tmp.Name()
	assert.FileExists(t, name)
	require.NoError(t, tmp.Close())
	assert.NoFileExists(t, name)
}

func TestManagerPayloadCache(t *testing.T) {
	root := writeInstall(t, sampleArchives())

	payloads, err := cache.NewPayloads(8)
	require.NoError(t, err)

	m, err := NewManager(root, IndexOptions{}, WithPayloadCache(payloads))
	require.NoError(t, err)

	first, err := m.GetResource("data/2da.bif", "feat.2da")
	require.NoError(t, err)
	assert.Equal(t, 1, payloads.Len())

	require.NoError(t, os.Remove(m.ArchivePath("data/2da.bif")))

	second, err := m.GetResource("data/2da.bif", "feat.2da")
	require.NoError(t, err, "cached payload is served without the archive")
	assert.Equal(t, first, second)

	_, err = m.GetResource("data/2da.bif", "spells.2da")
	assert.Error(t, err)

	require.NoError(t, m.Close())
	assert.Equal(t, 0, payloads.Len())
}

func TestManagerFilteredIndex(t *testing.T) {
	root := writeInstall(t, sampleArchives())

	m, err := NewManager(root, IndexOptions{TypeFilter: "nss"})
	require.NoError(t, err)

	assert.Equal(t, 1, m.Index().Len())
	data, err := m.GetFile("k_inc_generic.nss")
	require.NoError(t, err)
	assert.Equal(t, []byte("void main() {}"), data)

	_, err = m.GetFile("feat.2da")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestReadArchiveTable(t *testing.T) {
	root := writeInstall(t, sampleArchives())

	header, entries, err := ReadArchiveTable(filepath.Join(root, "data", "2da.bif"))
	require.NoError(t, err)
	assert.Equal(t, "BIFF", string(header.Magic[:]))
	assert.Equal(t, uint32(3), header.VariableCount)
	require.Len(t, entries, 3)

	assert.Equal(t, uint32(20+16*3), entries[0].Offset)
	assert.Equal(t, uint32(len("2DA V2.b feat")), entries[0].Size)
	assert.Equal(t, uint32(restype.TypeTXT), entries[2].TypeID)

	bad := filepath.Join(t.TempDir(), "bad.bif")
	require.NoError(t, os.WriteFile(bad, []byte("NOPEV1  \x00\x00\x00\x00\x00\x00\x00\x00\x14\x00\x00\x00"), 0644))
	_, _, err = ReadArchiveTable(bad)
	assert.ErrorIs(t, err, ErrMissingHeader)
}
