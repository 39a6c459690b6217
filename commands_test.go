package main

import (
	"bytes"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"picstego/imageio"
	"picstego/stego"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func makeCover(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "cover.png")
	_, err := run(t, "cover", "--width", strconv.Itoa(w), "--height", strconv.Itoa(h), "--seed", "3", "-o", path)
	require.NoError(t, err)
	return path
}

func TestCoverEmbedExtract(t *testing.T) {
	dir := t.TempDir()
	coverPath := makeCover(t, dir, 16, 8)

	out, err := run(t, "capacity", "--image", coverPath)
	require.NoError(t, err)
	assert.Equal(t, "png 16x8: 384 bits, 44 message bytes\n", out)

	stegoPath := filepath.Join(dir, "s.png")
	out, err = run(t, "embed", "--image", coverPath, "--message", "from the cli", "--output", stegoPath, "--format", "png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "wrote "+stegoPath+" as png"), out)

	out, err = run(t, "extract", "--image", stegoPath)
	require.NoError(t, err)
	assert.Equal(t, "from the cli\n", out)
}

func TestEmbedDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	coverPath := makeCover(t, dir, 8, 8)

	out, err := run(t, "embed", "-i", coverPath, "-m", "bmp", "--format", "bmp", "--verbose")
	require.NoError(t, err)
	stegoPath := filepath.Join(dir, "cover_stego.bmp")
	assert.Contains(t, out, "wrote "+stegoPath+" as bmp")
	assert.Contains(t, out, "channel LSBs")

	buf, meta, err := imageio.NewImageDecoder(0).LoadFile(stegoPath)
	require.NoError(t, err)
	assert.Equal(t, "bmp", meta.Format)
	msg, err := stego.Extract(buf)
	require.NoError(t, err)
	assert.Equal(t, "bmp", msg)
}

func TestEmbedFormatFromOutput(t *testing.T) {
	dir := t.TempDir()
	coverPath := makeCover(t, dir, 8, 8)
	stegoPath := filepath.Join(dir, "out.bmp")

	_, err := run(t, "embed", "--image", coverPath, "--message", "x", "--output", stegoPath)
	require.NoError(t, err)
	_, meta, err := imageio.NewImageDecoder(0).LoadFile(stegoPath)
	require.NoError(t, err)
	assert.Equal(t, "bmp", meta.Format)
}

func TestEmbedErrors(t *testing.T) {
	dir := t.TempDir()
	tiny := filepath.Join(dir, "tiny.png")
	_, err := run(t, "cover", "--width", "2", "--height", "2", "--seed", "1", "-o", tiny)
	require.NoError(t, err)

	_, err = run(t, "embed", "--image", tiny)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"message"`)

	_, err = run(t, "embed", "--message", "Hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"image"`)

	_, err = run(t, "embed", "--image", tiny, "--message", "Hi")
	assert.ErrorIs(t, err, stego.ErrCapacity)

	_, err = run(t, "embed", "--image", tiny, "--message", "", "--format", "jpeg")
	assert.ErrorIs(t, err, stego.ErrInputFormat)

	_, err = run(t, "embed", "--image", tiny, "--message", "", "--output", filepath.Join(dir, "out.jpg"))
	assert.ErrorIs(t, err, stego.ErrInputFormat)

	_, err = run(t, "embed", "--image", tiny, "--message", "", "--output", filepath.Join(dir, "out.png"), "--format", "bmp")
	assert.ErrorIs(t, err, stego.ErrInputFormat)

	_, err = run(t, "extract", "--image", filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, stego.ErrNotFound)

	_, err = run(t, "capacity")
	assert.Error(t, err)

	_, err = run(t, "extract", tiny)
	assert.Error(t, err)
}

func TestCoverRejectsLossyOutput(t *testing.T) {
	_, err := run(t, "cover", "--width", "4", "--height", "4", "-o", filepath.Join(t.TempDir(), "c.jpg"))
	assert.ErrorIs(t, err, stego.ErrInputFormat)
}
