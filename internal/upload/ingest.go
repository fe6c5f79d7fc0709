package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// DefaultLimit is the upload ceiling used when none is configured.
const DefaultLimit int64 = 256 << 20

const copyBufferSize = 32 << 10

// Reason classifies a rejected upload.
type Reason int

const (
	BadRequest Reason = iota
	Forbidden
	TooLarge
)

func (r Reason) String() string {
	switch r {
	case Forbidden:
		return "forbidden"
	case TooLarge:
		return "too large"
	default:
		return "bad request"
	}
}

// RejectedError is returned when the request itself is at fault. Anything
// else returned by Ingest is an I/O failure.
type RejectedError struct {
	Reason Reason
	Msg    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("upload rejected (%s): %s", e.Reason, e.Msg)
}

func reject(reason Reason, format string, args ...any) error {
	return &RejectedError{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// Field is one stored file part.
type Field struct {
	RawName string
	Name    string
	Size    int64
}

// Accepted lists the files written by one request, in request order.
type Accepted struct {
	Files []Field
}

// Ingest streams the multipart/form-data body into dir. Every file part is
// created exclusively; existing files are never overwritten. If any part
// fails, files already created by this call are removed.
func Ingest(ctx context.Context, dir, contentType string, body io.Reader, limit int64) (*Accepted, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return nil, reject(Forbidden, "content type %q is not multipart/form-data", contentType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, reject(BadRequest, "multipart boundary missing")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// No ResponseWriter: the caller decides how to answer an oversized body.
	capped := http.MaxBytesReader(nil, io.NopCloser(body), limit)
	in := ingestion{ctx: ctx, dir: dir, buf: make([]byte, copyBufferSize)}

	accepted, err := in.run(multipart.NewReader(capped, boundary))
	if err != nil {
		in.rollback()
		return nil, err
	}
	return accepted, nil
}

type ingestion struct {
	ctx     context.Context
	dir     string
	buf     []byte
	created []string
}

func (in *ingestion) run(mr *multipart.Reader) (*Accepted, error) {
	accepted := &Accepted{}
	for {
		if err := in.ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "upload interrupted")
		}

		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, in.readError(err, "next part")
		}

		field, err := in.store(part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		if field != nil {
			accepted.Files = append(accepted.Files, *field)
		}
	}

	if len(accepted.Files) == 0 {
		return nil, reject(BadRequest, "no file parts in upload")
	}
	return accepted, nil
}

// store writes one part to disk. Parts that are not files are drained and
// yield a nil field.
func (in *ingestion) store(part *multipart.Part) (*Field, error) {
	raw, isFile, err := rawFileName(part)
	if err != nil {
		return nil, err
	}
	if !isFile {
		if _, err := io.CopyBuffer(io.Discard, part, in.buf); err != nil {
			return nil, in.readError(err, "drain form field")
		}
		return nil, nil
	}

	name, err := SanitizeFileName(raw)
	if err != nil {
		return nil, reject(BadRequest, "%v", err)
	}

	target := filepath.Join(in.dir, name)
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, reject(Forbidden, "%s already exists", name)
		}
		return nil, errors.Wrapf(err, "create %s", target)
	}
	in.created = append(in.created, target)

	size, err := in.copy(f, part)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "sync %s", target)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Wrapf(err, "close %s", target)
	}

	return &Field{RawName: raw, Name: name, Size: size}, nil
}

func (in *ingestion) copy(dst *os.File, src io.Reader) (int64, error) {
	var written int64
	for {
		if err := in.ctx.Err(); err != nil {
			return written, errors.Wrap(err, "upload interrupted")
		}
		n, rerr := src.Read(in.buf)
		if n > 0 {
			if _, err := dst.Write(in.buf[:n]); err != nil {
				return written, errors.Wrapf(err, "write %s", dst.Name())
			}
			written += int64(n)
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			return written, in.readError(rerr, "read part")
		}
	}
}

// readError separates an exceeded ceiling from a broken stream.
func (in *ingestion) readError(err error, op string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return reject(TooLarge, "upload exceeds %d bytes", tooLarge.Limit)
	}
	return errors.Wrap(err, op)
}

func (in *ingestion) rollback() {
	for _, p := range in.created {
		_ = os.Remove(p)
	}
	in.created = nil
}

// rawFileName reads the filename parameter as sent. Part.FileName is not
// used because it already strips directories, which hides what the client
// asked for.
func rawFileName(part *multipart.Part) (string, bool, error) {
	cd := part.Header.Get("Content-Disposition")
	if cd == "" {
		return "", false, nil
	}
	disposition, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return "", false, reject(BadRequest, "malformed Content-Disposition: %v", err)
	}
	if disposition != "form-data" {
		return "", false, nil
	}
	raw, ok := params["filename"]
	return raw, ok, nil
}
