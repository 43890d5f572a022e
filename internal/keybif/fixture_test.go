package keybif

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type testResource struct {
	ResRef string
	TypeID uint16
	Data   []byte
}

type testArchive struct {
	// Name as stored in the KEY file, Windows separators allowed
	Name      string
	Resources []testResource
}

// declaredSpan fills the name_offset/name_size span of every file table
// entry. The real filename follows it.
var declaredSpan = []byte("SPAN")

// buildKey encodes a KEY file indexing the given archives
func buildKey(t *testing.T, archives []testArchive) []byte {
	t.Helper()

	const fileTableOffset = 64

	var names bytes.Buffer
	fileTable := make([]byte, 0, 12*len(archives))
	namesOffset := fileTableOffset + 12*len(archives)

	for _, a := range archives {
		entry := make([]byte, 12)
		binary.LittleEndian.PutUint32(entry[0:], 0)
		binary.LittleEndian.PutUint32(entry[4:], uint32(namesOffset+names.Len()))
		binary.LittleEndian.PutUint16(entry[8:], uint16(len(declaredSpan)))
		fileTable = append(fileTable, entry...)

		names.Write(declaredSpan)
		names.WriteString(a.Name)
		names.WriteByte(0)
	}

	keyTableOffset := namesOffset + names.Len()

	var keys bytes.Buffer
	keyCount := 0
	for archiveIdx, a := range archives {
		for pos, res := range a.Resources {
			id, err := NewResourceID(uint32(archiveIdx), uint32(pos))
			require.NoError(t, err)

			var resref [16]byte
			copy(resref[:], res.ResRef)
			keys.Write(resref[:])
			binary.Write(&keys, binary.LittleEndian, res.TypeID)
			binary.Write(&keys, binary.LittleEndian, uint32(id))
			keyCount++
		}
	}

	var out bytes.Buffer
	out.WriteString("KEY V1  ")
	binary.Write(&out, binary.LittleEndian, Header{
		BifCount:        uint32(len(archives)),
		KeyCount:        uint32(keyCount),
		OffsetFileTable: fileTableOffset,
		OffsetKeyTable:  uint32(keyTableOffset),
	})
	out.Write(make([]byte, fileTableOffset-out.Len()))
	out.Write(fileTable)
	out.Write(names.Bytes())
	out.Write(keys.Bytes())

	require.Equal(t, keyTableOffset+keyCount*keyRecordSize, out.Len())
	return out.Bytes()
}

// buildArchive encodes a BIF data archive holding resources in order
func buildArchive(t *testing.T, resources []testResource) []byte {
	t.Helper()

	var out bytes.Buffer
	out.WriteString(archiveMagic + "V1  ")
	binary.Write(&out, binary.LittleEndian, uint32(len(resources)))
	binary.Write(&out, binary.LittleEndian, uint32(0))
	binary.Write(&out, binary.LittleEndian, uint32(20))

	dataOffset := 20 + resourceEntrySize*len(resources)
	for i, res := range resources {
		binary.Write(&out, binary.LittleEndian, ArchiveEntry{
			ID:     uint32(i),
			Offset: uint32(dataOffset),
			Size:   uint32(len(res.Data)),
			TypeID: uint32(res.TypeID),
		})
		dataOffset += len(res.Data)
	}
	for _, res := range resources {
		out.Write(res.Data)
	}
	return out.Bytes()
}

// writeInstall lays out chitin.key and every archive under a temp root
func writeInstall(t *testing.T, archives []testArchive) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, KeyFileName), buildKey(t, archives), 0644))

	for _, a := range archives {
		path := filepath.Join(root, filepath.FromSlash(strings.ReplaceAll(a.Name, "\\", "/")))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, buildArchive(t, a.Resources), 0644))
	}
	return root
}
