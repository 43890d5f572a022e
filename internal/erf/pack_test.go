package erf

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/kotka/internal/binio"
)

func TestOpen(t *testing.T) {
	path := writePack(t, "test.erf", buildPack(t, "ERF ", "V1.0", nil, sampleResources()))

	p, err := Open(path)
	require.NoError(t, err)

	h := p.Header()
	assert.Equal(t, "ERF", h.FileTypeString())
	assert.Equal(t, uint32(4), h.EntryCount)
	assert.Equal(t, uint32(103), h.BuildYear)
	assert.Equal(t, uint32(42), h.DescriptionStrRef)
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, path, p.Path())
	assert.Equal(t, FetchOnDemand, p.Strategy())

	keys := p.Resources()
	require.Len(t, keys, 4)
	assert.Equal(t, Key{ResRef: "feat", ID: 1, TypeID: 0x07E1}, keys[1])
	assert.Equal(t, "k_ai_master.ncs", p.Filename(keys[2]))

	for _, res := range sampleResources() {
		data, err := p.Bytes(res.ID)
		require.NoError(t, err, res.ResRef)
		assert.Equal(t, res.Data, data, res.ResRef)
	}
}

func TestOpenVersionsDecodeSameKeys(t *testing.T) {
	v10, err := OpenBytes(buildPack(t, "ERF ", "V1.0", nil, sampleResources()))
	require.NoError(t, err)
	v11, err := OpenBytes(buildPack(t, "ERF ", "V1.1", nil, sampleResources()))
	require.NoError(t, err)

	assert.Equal(t, 16, v10.Header().KeyNameWidth())
	assert.Equal(t, 32, v11.Header().KeyNameWidth())
	assert.Equal(t, v10.Resources(), v11.Resources())

	for _, res := range sampleResources() {
		a, err := v10.Bytes(res.ID)
		require.NoError(t, err)
		b, err := v11.Bytes(res.ID)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestKeyNameWidth(t *testing.T) {
	tests := []struct {
		version string
		width   int
	}{
		{"V1.0", 16},
		{"V1.1", 32},
		{"V2.0", 16},
		{"V2.2", 32},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			var h Header
			copy(h.Version[:], tt.version)
			assert.Equal(t, tt.width, h.KeyNameWidth())
			assert.Equal(t, tt.width+8, h.KeyRecordSize())
		})
	}
}

func TestOpenFileTypes(t *testing.T) {
	for _, ft := range []string{"ERF ", "MOD ", "SAV ", "HAK "} {
		p, err := OpenBytes(buildPack(t, ft, "V1.0", nil, sampleResources()))
		require.NoError(t, err, ft)
		assert.Equal(t, 4, p.Len())
	}
}

func TestOpenMissingHeader(t *testing.T) {
	data := buildPack(t, "ERF ", "V1.0", nil, sampleResources())
	copy(data, "BIFF")

	_, err := OpenBytes(data)
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = OpenBytes([]byte("ERF V1.0"))
	assert.ErrorIs(t, err, ErrMissingHeader, "header shorter than 160 bytes")

	_, err = Open(filepath.Join(t.TempDir(), "missing.erf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenTruncatedKeys(t *testing.T) {
	data := buildPack(t, "ERF ", "V1.0", nil, sampleResources())

	_, err := OpenBytes(data[:HeaderSize+30])
	assert.ErrorIs(t, err, binio.ErrShortRead)
}

func TestOpenRejectsCountsBeyondSource(t *testing.T) {
	header := func(set func(h *Header)) []byte {
		var h Header
		copy(h.FileType[:], "ERF ")
		copy(h.Version[:], "V1.0")
		h.OffsetToLocalizedString = HeaderSize
		h.OffsetToKeyList = HeaderSize
		h.OffsetToResourceList = HeaderSize
		set(&h)

		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, h))
		require.Len(t, buf.Bytes(), HeaderSize)
		return buf.Bytes()
	}

	_, err := OpenBytes(header(func(h *Header) { h.EntryCount = 0xFFFFFFFF }))
	require.ErrorIs(t, err, binio.ErrShortRead)
	assert.Contains(t, err.Error(), "key list of 4294967295 entries")

	_, err = OpenBytes(header(func(h *Header) { h.LocalizedStringCount = 0xFFFFFFFF }))
	require.ErrorIs(t, err, binio.ErrShortRead)
	assert.Contains(t, err.Error(), "localized string block of 4294967295 entries")
}

func TestLocalizedStrings(t *testing.T) {
	strs := []LocalizedString{
		{LanguageID: uint32(English), Text: []byte("Endar Spire\x00")},
		{LanguageID: uint32(French), Text: []byte("Vaisseau \xe9toile")},
		{LanguageID: uint32(Polish), Text: []byte("Statek \xb9")},
	}
	p, err := OpenBytes(buildPack(t, "MOD ", "V1.0", strs, sampleResources()))
	require.NoError(t, err)

	got := p.LocalizedStrings()
	require.Len(t, got, 3)
	assert.Equal(t, strs, got)

	text, err := got[0].Decode()
	require.NoError(t, err)
	assert.Equal(t, "Endar Spire", text)

	text, err = got[1].Decode()
	require.NoError(t, err)
	assert.Equal(t, "Vaisseau étoile", text)

	text, err = got[2].Decode()
	require.NoError(t, err)
	assert.Equal(t, "Statek ą", text)

	// keys still follow the string block
	assert.Equal(t, 4, p.Len())
	data, err := p.Bytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestLanguages(t *testing.T) {
	lang, err := ParseLanguage(" Korean ")
	require.NoError(t, err)
	assert.Equal(t, Korean, lang)
	assert.Equal(t, "korean", lang.String())

	_, err = ParseLanguage("klingon")
	assert.Error(t, err)

	assert.Equal(t, "language(77)", Language(77).String())
	assert.Len(t, LanguageNames(), 10)

	s, err := NewLocalizedString(Japanese, "ダンテ")
	require.NoError(t, err)
	assert.Equal(t, uint32(131), s.LanguageID)
	assert.NotEqual(t, []byte("ダンテ"), s.Text, "stored in Shift JIS")

	decoded, err := s.Decode()
	require.NoError(t, err)
	assert.Equal(t, "ダンテ", decoded)
}

func TestQueries(t *testing.T) {
	p, err := OpenBytes(buildPack(t, "ERF ", "V1.1", nil, append(sampleResources(),
		testResource{ResRef: "spells", TypeID: 0x07E1, ID: 4, Data: []byte("2DA V2.b spells")})))
	require.NoError(t, err)

	id, ok := p.ResourceIDByName("FEAT")
	require.True(t, ok)
	assert.Equal(t, uint32(1), id)

	id, ok = p.ResourceIDByName("spells.2da")
	require.True(t, ok)
	assert.Equal(t, uint32(4), id)

	_, ok = p.ResourceIDByName("spells.txt")
	assert.False(t, ok)

	id, ok = p.ResourceIDByType("2da")
	require.True(t, ok)
	assert.Equal(t, uint32(1), id, "first match in pack order")

	_, ok = p.ResourceIDByType("tpc")
	assert.False(t, ok)
	_, ok = p.ResourceIDByType("nope")
	assert.False(t, ok)

	keys := p.ResourcesByType(".2DA")
	require.Len(t, keys, 2)
	assert.Equal(t, "feat", keys[0].ResRef)
	assert.Equal(t, "spells", keys[1].ResRef)

	key, err := p.Resource(2)
	require.NoError(t, err)
	assert.Equal(t, "k_ai_master", key.ResRef)

	_, err = p.Resource(99)
	assert.ErrorIs(t, err, ErrResourceNotFound)
	_, err = p.Bytes(99)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestEntryIsAddressedByID(t *testing.T) {
	resources := sampleResources()
	// key order no longer matches id order
	resources[0].ID, resources[3].ID = 3, 0

	p, err := OpenBytes(buildPack(t, "ERF ", "V1.0", nil, resources))
	require.NoError(t, err)

	data, err := p.Bytes(0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	entry, err := p.Entry(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(len("IFO V3.2 module")), entry.Size)
}

func TestEntries(t *testing.T) {
	p, err := Open(writePack(t, "entries.erf", buildPack(t, "ERF ", "V1.0", nil, sampleResources())))
	require.NoError(t, err)
	require.NoError(t, p.Replace(1, []byte("2DA V2.b")))

	entries, err := p.Entries()
	require.NoError(t, err)
	require.Len(t, entries, p.Len())

	for i, key := range p.Resources() {
		if key.ID == 1 {
			assert.Equal(t, uint32(len("2DA V2.b")), entries[i].Size, "replacement size")
			continue
		}
		entry, err := p.Entry(key.ID)
		require.NoError(t, err)
		assert.Equal(t, entry, entries[i], key.ResRef)
		assert.Equal(t, uint32(len(sampleResources()[i].Data)), entries[i].Size, key.ResRef)
	}
}

func TestStrategies(t *testing.T) {
	pack := buildPack(t, "ERF ", "V1.0", nil, sampleResources())

	t.Run("fetch on demand reads the backing file", func(t *testing.T) {
		path := writePack(t, "lazy.erf", pack)
		p, err := Open(path)
		require.NoError(t, err)

		_, err = p.Bytes(0)
		require.NoError(t, err)

		require.NoError(t, os.Remove(path))

		data, err := p.Bytes(0)
		require.NoError(t, err, "fetched bytes are cached")
		assert.Equal(t, []byte("IFO V3.2 module"), data)

		_, err = p.Bytes(1)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("hydrate all reads everything on open", func(t *testing.T) {
		path := writePack(t, "eager.erf", pack)
		p, err := Open(path, WithStrategy(HydrateAll))
		require.NoError(t, err)
		assert.Equal(t, HydrateAll, p.Strategy())

		require.NoError(t, os.Remove(path))

		for _, res := range sampleResources() {
			data, err := p.Bytes(res.ID)
			require.NoError(t, err)
			assert.Equal(t, res.Data, data)
		}
	})

	t.Run("load file hydrates a lazy pack", func(t *testing.T) {
		path := writePack(t, "bulk.erf", pack)
		p, err := Open(path)
		require.NoError(t, err)

		require.NoError(t, p.LoadFile())
		require.NoError(t, os.Remove(path))

		data, err := p.Bytes(2)
		require.NoError(t, err)
		assert.Equal(t, []byte("NCS V1.0\x42"), data)
	})
}

func TestExportLeavesSourceUntouched(t *testing.T) {
	pack := buildPack(t, "ERF ", "V1.0", nil, sampleResources())
	path := writePack(t, "source.erf", pack)
	before, err := os.Stat(path)
	require.NoError(t, err)

	p, err := Open(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "feat.2da")
	require.NoError(t, p.Export(1, out))

	exported, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []byte("2DA V2.b feat table"), exported)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pack, after)

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), stat.ModTime())

	assert.ErrorIs(t, p.Export(42, out), ErrResourceNotFound)
}

func TestGetFile(t *testing.T) {
	p, err := OpenBytes(buildPack(t, "ERF ", "V1.0", nil, sampleResources()))
	require.NoError(t, err)

	data, err := p.GetFile("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	_, err = p.GetFile("notes.2da")
	assert.ErrorIs(t, err, ErrResourceNotFound)
}
