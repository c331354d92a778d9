package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/tracing"
)

// File reads a snapshot from disk on every fetch, so a file replaced by an
// export job is picked up without restart. Files ending in .cbor are decoded
// as CBOR, anything else as JSON.
type File struct {
	path string
}

// NewFile creates a file-backed source.
func NewFile(path string) *File {
	return &File{path: path}
}

// Name implements Source.
func (f *File) Name() string { return "file" }

// Fetch implements Source.
func (f *File) Fetch(ctx context.Context) (events []proximity.RawEvent, err error) {
	_, end := tracing.StartSourceSpan(ctx, f.Name())
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer fh.Close()

	contentType := ContentTypeJSON
	if strings.EqualFold(filepath.Ext(f.path), ".cbor") {
		contentType = ContentTypeCBOR
	}

	events, err = Decode(fh, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadResponse, f.path, err)
	}
	return events, nil
}
