package pmafile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geo-pma/internal/feature"
	"geo-pma/internal/pmaformat"
)

type memFile struct {
	bytes.Buffer
	failAt int
	writes int
	closed bool
}

func (m *memFile) Write(p []byte) (int, error) {
	m.writes++
	if m.failAt > 0 && m.writes == m.failAt {
		return 0, errors.New("disk full")
	}
	return m.Buffer.Write(p)
}

func (m *memFile) Close() error { m.closed = true; return nil }

func TestEncodeRoundTrip(t *testing.T) {
	in := "Aeródromos_PÚBLICO_São Paulo_Padrão_ção€\n"
	b, subs := Encode(in)
	assert.Zero(t, subs)
	assert.Len(t, b, len([]rune(in)))

	out, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// C1 码位按 WHATWG 表原值互映，不做字符引用
	c1 := "\u0081\u008d\u008f\u0090\u009d"
	b, subs = Encode(c1)
	assert.Zero(t, subs)
	assert.Equal(t, []byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}, b)
	out, err = Decode(b)
	require.NoError(t, err)
	assert.Equal(t, c1, out)
}

func TestEncodeSubstitutes(t *testing.T) {
	b, subs := Encode("A✈B中")
	assert.Equal(t, 2, subs)
	assert.Equal(t, "A&#9992;B&#20013;", string(b))
}

func TestDestination(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, "aisweb_cabeceiras.txt"), Destination(dir, feature.KindCompleteThreshold))
	assert.Equal(t, "aisweb_vor.txt", Destination(filepath.Join(dir, "missing"), feature.KindVOR))
	assert.Equal(t, "aisweb_waypoint.txt", Destination("", feature.KindWaypoint))

	f := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	assert.Equal(t, "aisweb_ndb.txt", Destination(f, feature.KindNDB))
}

func TestWriteLinesToDir(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, LenientPolicy())
	recs := []feature.Record{
		feature.Waypoint{Ident: "ISUNO", Latitude: -23.1, Longitude: -46.2, CodeType: "RNAV_GPS"},
		feature.Waypoint{Ident: "✈X", Latitude: 1, Longitude: 2, CodeType: "ICAO"},
	}
	lines, _ := pmaformat.Lines(recs)
	rep, err := w.WriteLines(feature.KindWaypoint, lines)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Lines)
	assert.Equal(t, 1, rep.Substitutions)
	assert.Equal(t, filepath.Join(dir, "aisweb_waypoint.txt"), rep.Path)

	raw, err := os.ReadFile(rep.Path)
	require.NoError(t, err)
	text, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "Fixos_RNAV-GPS_ _ISUNO_Padrão_-23.1_-46.2_0\nFixos_ICAO_ _&#9992;X_Padrão_1_2_0\n", text)
	// 'ã' 单字节编码
	assert.True(t, bytes.Contains(raw, []byte{'P', 'a', 'd', 'r', 0xE3, 'o'}))
}

func TestWriteEmptyFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, LenientPolicy())
	rep, err := w.WriteLines(feature.KindCompleteThreshold, nil)
	require.NoError(t, err)
	assert.Zero(t, rep.Lines)
	assert.Equal(t, filepath.Join(dir, "aisweb_cabeceiras.txt"), rep.Path)

	raw, err := os.ReadFile(rep.Path)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestWriteFallbackToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	var opened []string
	mem := &memFile{}
	w := &Writer{Dir: dir, Policy: LenientPolicy(), Create: func(name string) (io.WriteCloser, error) {
		opened = append(opened, name)
		if name != FileName(feature.KindVOR) {
			return nil, os.ErrPermission
		}
		return mem, nil
	}}
	rep, err := w.WriteLines(feature.KindVOR, []string{"VOR_112.00_X_Y_Padrão_1_2_0\n"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "aisweb_vor.txt"), "aisweb_vor.txt"}, opened)
	assert.Equal(t, "aisweb_vor.txt", rep.Path)
	assert.Equal(t, 1, rep.Lines)
	assert.True(t, mem.closed)
}

func TestWriteStrictCreateFailure(t *testing.T) {
	w := &Writer{Dir: t.TempDir(), Policy: StrictPolicy(), Create: func(string) (io.WriteCloser, error) {
		return nil, os.ErrPermission
	}}
	_, err := w.WriteLines(feature.KindVOR, []string{"x\n"})
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestWriteLineFailurePolicies(t *testing.T) {
	lines := []string{"a\n", "b\n", "c\n"}

	mem := &memFile{failAt: 2}
	w := &Writer{Policy: LenientPolicy(), Create: func(string) (io.WriteCloser, error) { return mem, nil }}
	rep, err := w.WriteLines(feature.KindNDB, lines)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Lines)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, "a\nc\n", mem.String())

	mem = &memFile{failAt: 2}
	w = &Writer{Policy: StrictPolicy(), Create: func(string) (io.WriteCloser, error) { return mem, nil }}
	rep, err = w.WriteLines(feature.KindNDB, lines)
	require.Error(t, err)
	assert.Equal(t, 1, rep.Lines)
	assert.Equal(t, "a\n", mem.String())
	assert.True(t, mem.closed)
}
