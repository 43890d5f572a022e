package erf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jchantrell/kotka/internal/restype"
)

type testResource struct {
	ResRef string
	TypeID uint32
	ID     uint32
	Data   []byte
}

func sampleResources() []testResource {
	return []testResource{
		{ResRef: "module", TypeID: 0x07DE, ID: 0, Data: []byte("IFO V3.2 module")},
		{ResRef: "feat", TypeID: uint32(restype.Type2DA), ID: 1, Data: []byte("2DA V2.b feat table")},
		{ResRef: "k_ai_master", TypeID: 0x07DA, ID: 2, Data: []byte("NCS V1.0\x42")},
		{ResRef: "notes", TypeID: uint32(restype.TypeTXT), ID: 3, Data: []byte("hello")},
	}
}

// buildPack encodes a pack the way the game's tools lay it out: header,
// localized strings, keys, resource list, then the data. The data block is
// written in reverse key order so readers must follow the resource list.
func buildPack(t *testing.T, fileType, version string, strs []LocalizedString, resources []testResource) []byte {
	t.Helper()
	require.Len(t, version, 4)

	nameWidth := 16
	if version[3] != '0' {
		nameWidth = 32
	}

	var locSize uint32
	for _, s := range strs {
		locSize += 8 + uint32(len(s.Text))
	}

	listLen := uint32(0)
	for _, r := range resources {
		if r.ID+1 > listLen {
			listLen = r.ID + 1
		}
	}

	var h Header
	copy(h.FileType[:], fileType)
	copy(h.Version[:], version)
	h.LocalizedStringCount = uint32(len(strs))
	h.LocalizedStringSize = locSize
	h.EntryCount = uint32(len(resources))
	h.OffsetToLocalizedString = HeaderSize
	h.OffsetToKeyList = HeaderSize + locSize
	h.OffsetToResourceList = h.OffsetToKeyList + uint32(len(resources)*(nameWidth+8))
	h.BuildYear = 103
	h.BuildDay = 200
	h.DescriptionStrRef = 42
	copy(h.Reserved[:], "reserved tail")

	dataStart := h.OffsetToResourceList + listLen*8
	list := make([]ResourceEntry, listLen)
	next := dataStart
	for i := len(resources) - 1; i >= 0; i-- {
		r := resources[i]
		list[r.ID] = ResourceEntry{Offset: next, Size: uint32(len(r.Data))}
		next += uint32(len(r.Data))
	}

	var out bytes.Buffer
	require.NoError(t, binary.Write(&out, binary.LittleEndian, h))
	require.Equal(t, HeaderSize, out.Len())

	for _, s := range strs {
		binary.Write(&out, binary.LittleEndian, s.LanguageID)
		binary.Write(&out, binary.LittleEndian, uint32(len(s.Text)))
		out.Write(s.Text)
	}
	for _, r := range resources {
		name := make([]byte, nameWidth)
		copy(name, r.ResRef)
		out.Write(name)
		binary.Write(&out, binary.LittleEndian, r.ID)
		binary.Write(&out, binary.LittleEndian, r.TypeID)
	}
	require.NoError(t, binary.Write(&out, binary.LittleEndian, list))
	require.Equal(t, int(dataStart), out.Len())

	for i := len(resources) - 1; i >= 0; i-- {
		out.Write(resources[i].Data)
	}
	return out.Bytes()
}

// writePack stores a built pack under a temp dir and returns its path
func writePack(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}
