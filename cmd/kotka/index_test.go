package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jchantrell/kotka/internal/erf"
)

func TestFindPacks(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"modules/danm13.mod", "modules/danm13.rim", "modules/end_m01aa.MOD", "lips/danm13_loc.mod", "texturepacks/swpc_tex_gui.erf", "override/feat.2da"} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}

	packs, err := findPacks(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"modules/danm13.mod",
		"modules/end_m01aa.MOD",
		"lips/danm13_loc.mod",
		"texturepacks/swpc_tex_gui.erf",
	}, packs)
}

func TestPackRows(t *testing.T) {
	pack, err := erf.New("MOD", "V1.0")
	require.NoError(t, err)
	_, err = pack.Add("module", "ifo", []byte("IFO V3.2"))
	require.NoError(t, err)
	_, err = pack.Add("k_ai_master", "ncs", []byte("NCS V1.0"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "danm13.mod")
	require.NoError(t, pack.Save(path, false))

	saved, err := erf.Open(path)
	require.NoError(t, err)

	rows, err := packRows("modules/danm13.mod", saved)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "module.ifo", rows[0].Name)
	assert.Equal(t, "ifo", rows[0].Extension)
	assert.Equal(t, uint32(0x07DE), rows[0].TypeID)
	assert.Equal(t, "k_ai_master.ncs", rows[1].Name)
	assert.Equal(t, uint32(1), rows[1].ResourceID)
	assert.Equal(t, rows[0].Offset+rows[0].Size, rows[1].Offset)
	assert.Equal(t, uint32(8), rows[1].Size)
}
