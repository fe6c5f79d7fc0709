package upload

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type part struct {
	field    string
	filename string // empty means a plain form field
	body     string
	rawName  bool // send filename even when empty
}

func multipartBody(t *testing.T, parts ...part) (string, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		if p.filename != "" || p.rawName {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
			h.Set("Content-Type", "application/octet-stream")
		} else {
			h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, p.field))
		}
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), buf
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func requireRejected(t *testing.T, err error, want Reason) *RejectedError {
	t.Helper()
	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, want, rejected.Reason, rejected.Error())
	return rejected
}

func TestIngest_StoresFiles(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t,
		part{field: "note", body: "ignored"},
		part{field: "file", filename: "a.txt", body: "hello"},
		part{field: "file", filename: "b.bin", body: strings.Repeat("x", 100_000)},
	)

	accepted, err := Ingest(context.Background(), dir, ct, body, 0)
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{RawName: "a.txt", Name: "a.txt", Size: 5},
		{RawName: "b.bin", Name: "b.bin", Size: 100_000},
	}, accepted.Files)

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	info, err := os.Stat(filepath.Join(dir, "b.bin"))
	require.NoError(t, err)
	assert.EqualValues(t, 100_000, info.Size())
}

func TestIngest_TraversalNameStaysInside(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "a", "b")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	ct, body := multipartBody(t, part{field: "file", filename: "../../evil.sh", body: "#!/bin/sh"})
	accepted, err := Ingest(context.Background(), dir, ct, body, 0)
	require.NoError(t, err)
	require.Len(t, accepted.Files, 1)
	assert.Equal(t, "../../evil.sh", accepted.Files[0].RawName)
	assert.Equal(t, "evil.sh", accepted.Files[0].Name)

	assert.FileExists(t, filepath.Join(dir, "evil.sh"))
	assert.NoFileExists(t, filepath.Join(base, "evil.sh"))
	assert.Equal(t, []string{"a"}, dirNames(t, base))
}

func TestIngest_CollisionKeepsExistingBytes(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(existing, []byte("original"), 0o644))

	ct, body := multipartBody(t, part{field: "file", filename: "keep.txt", body: "replacement"})
	_, err := Ingest(context.Background(), dir, ct, body, 0)
	requireRejected(t, err, Forbidden)

	got, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestIngest_CollisionRollsBackEarlierParts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "taken.txt"), []byte("x"), 0o644))

	ct, body := multipartBody(t,
		part{field: "file", filename: "first.txt", body: "1"},
		part{field: "file", filename: "taken.txt", body: "2"},
		part{field: "file", filename: "third.txt", body: "3"},
	)
	_, err := Ingest(context.Background(), dir, ct, body, 0)
	requireRejected(t, err, Forbidden)

	assert.Equal(t, []string{"taken.txt"}, dirNames(t, dir))
}

func TestIngest_ContentTypeChecks(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        Reason
	}{
		{name: "form urlencoded", contentType: "application/x-www-form-urlencoded", want: Forbidden},
		{name: "json", contentType: "application/json", want: Forbidden},
		{name: "empty", contentType: "", want: Forbidden},
		{name: "no boundary", contentType: "multipart/form-data", want: BadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Ingest(context.Background(), dir, tt.contentType, strings.NewReader("a.txt=x"), 0)
			requireRejected(t, err, tt.want)
			assert.Empty(t, dirNames(t, dir))
		})
	}
}

func TestIngest_TooLarge(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t,
		part{field: "file", filename: "small.txt", body: "ok"},
		part{field: "file", filename: "big.bin", body: strings.Repeat("x", 4096)},
	)

	_, err := Ingest(context.Background(), dir, ct, body, 1024)
	requireRejected(t, err, TooLarge)
	assert.Empty(t, dirNames(t, dir))
}

func TestIngest_ExactlyAtLimit(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t, part{field: "file", filename: "fit.txt", body: "abc"})

	accepted, err := Ingest(context.Background(), dir, ct, body, int64(body.Len()))
	require.NoError(t, err)
	require.Len(t, accepted.Files, 1)
}

func TestIngest_BadNames(t *testing.T) {
	for _, name := range []string{"noext", "con.txt", ".hidden"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			ct, body := multipartBody(t, part{field: "file", filename: name, body: "x"})
			_, err := Ingest(context.Background(), dir, ct, body, 0)
			requireRejected(t, err, BadRequest)
			assert.Empty(t, dirNames(t, dir))
		})
	}
}

func TestIngest_EmptyFileNameIsBadRequest(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t, part{field: "file", rawName: true, body: ""})
	_, err := Ingest(context.Background(), dir, ct, body, 0)
	requireRejected(t, err, BadRequest)
}

func TestIngest_NoFileParts(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t, part{field: "comment", body: "just text"})
	_, err := Ingest(context.Background(), dir, ct, body, 0)
	requireRejected(t, err, BadRequest)
}

func TestIngest_TruncatedBodyIsIOError(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t, part{field: "file", filename: "cut.txt", body: strings.Repeat("y", 1000)})
	truncated := bytes.NewReader(body.Bytes()[:body.Len()/2])

	_, err := Ingest(context.Background(), dir, ct, truncated, 0)
	require.Error(t, err)
	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected), "truncation is not the client's fault: %v", err)
	assert.Empty(t, dirNames(t, dir))
}

func TestIngest_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t, part{field: "file", filename: "a.txt", body: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Ingest(ctx, dir, ct, body, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dirNames(t, dir))
}

func TestIngest_TooLargeInPartHeaders(t *testing.T) {
	dir := t.TempDir()
	ct, body := multipartBody(t, part{field: "file", filename: "a.txt", body: "x"})

	_, err := Ingest(context.Background(), dir, ct, body, 16)
	rejected := requireRejected(t, err, TooLarge)
	assert.Contains(t, rejected.Msg, "16 bytes")
	assert.Empty(t, dirNames(t, dir))
}
