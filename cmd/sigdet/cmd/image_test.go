package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageCommand_NoArgs(t *testing.T) {
	cmd := GetImageCommand()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	err := cmd.RunE(cmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestImageCommand_Flags(t *testing.T) {
	cmd := GetImageCommand()

	for _, name := range []string{
		"format", "output", "confidence", "iou", "model",
		"overlay-dir", "crops-dir", "crop-padding", "gpu",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "expected flag %q", name)
	}
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, isSupportedImage("scan.jpg"))
	assert.True(t, isSupportedImage("SCAN.PNG"))
	assert.True(t, isSupportedImage("doc.bmp"))
	assert.False(t, isSupportedImage("doc.pdf"))
	assert.False(t, isSupportedImage("doc.tiff"))
}

func TestParseMemorySize(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"", 0},
		{"1024", 1024},
		{"2KB", 2 << 10},
		{"512MB", 512 << 20},
		{"2GB", 2 << 30},
		{"1g", 1 << 30},
	}
	for _, tc := range cases {
		got, err := parseMemorySize(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}

	_, err := parseMemorySize("abc")
	assert.Error(t, err)
}
