package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "report.pdf", want: "report.pdf"},
		{raw: "../../evil.sh", want: "evil.sh"},
		{raw: `C:\Users\me\photo.jpg`, want: "photo.jpg"},
		{raw: `..\..\win.ini`, want: "win.ini"},
		{raw: "archive.tar.gz", want: "archive.tar.gz"},
		{raw: "my file (1).txt", want: "my file (1).txt"},
		{raw: "café.md", want: "café.md"},
		{raw: "CONSOLE.txt", want: "CONSOLE.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := SanitizeFileName(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeFileName_Rejects(t *testing.T) {
	raws := []string{
		"",
		"noextension",
		".bashrc",
		"trailingdot.",
		"dir/",
		"../",
		"..",
		"a\x00b.txt",
		"tab\there.txt",
		"what?.txt",
		"a<b>.txt",
		"pipe|.txt",
		"con.txt",
		"NUL.tar.gz",
		"lpt1.log",
		"Com9.ini",
		"...txt",
	}
	for _, raw := range raws {
		t.Run(raw, func(t *testing.T) {
			_, err := SanitizeFileName(raw)
			assert.ErrorIs(t, err, ErrBadFileName)
		})
	}
}
