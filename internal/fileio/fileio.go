// Package fileio opens inputs and creates outputs for the command line tools.
// Inputs are decompressed transparently; outputs are compressed according to
// their file extension. The name "-" selects standard input or output.
package fileio

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/ulikunitz/xz"
)

// Stdio is the name that refers to standard input or standard output.
const Stdio = "-"

// Compression identifies a stream compression format.
type Compression int

// Compression formats.
const (
	None Compression = iota
	Gzip
	Bzip2
	XZ
	Brotli
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case XZ:
		return "xz"
	case Brotli:
		return "brotli"
	default:
		return "none"
	}
}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

const sniffLen = 6

// ForName selects a compression format from a file extension.
func ForName(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return Gzip
	case ".bz2":
		return Bzip2
	case ".xz":
		return XZ
	case ".br":
		return Brotli
	default:
		return None
	}
}

// Sniff detects a compression format from the leading bytes of a stream.
// Brotli has no magic number and is never reported.
func Sniff(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, gzipMagic):
		return Gzip
	case bytes.HasPrefix(header, bzip2Magic):
		return Bzip2
	case bytes.HasPrefix(header, xzMagic):
		return XZ
	default:
		return None
	}
}

// Open opens name for reading, decompressing it when needed.
func Open(name string) (io.ReadCloser, error) {
	if name == Stdio {
		return NewReader(io.NopCloser(os.Stdin), None)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	rc, err := NewReader(f, ForName(name))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return rc, nil
}

// NewReader wraps src in a decompressor. Formats with a magic number are
// detected from the data; hint is consulted only for formats without one.
// Closing the result closes src.
func NewReader(src io.ReadCloser, hint Compression) (io.ReadCloser, error) {
	br := bufio.NewReader(src)
	header, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("peeking header: %w", err)
	}

	kind := Sniff(header)
	if kind == None && hint == Brotli {
		kind = Brotli
	}

	var r io.Reader
	var closeFn func() error
	switch kind {
	case Gzip:
		gzr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		r, closeFn = gzr, gzr.Close
	case Bzip2:
		bzr, err := bzip2.NewReader(br, nil)
		if err != nil {
			return nil, fmt.Errorf("creating bzip2 reader: %w", err)
		}
		r, closeFn = bzr, bzr.Close
	case XZ:
		xzr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("creating xz reader: %w", err)
		}
		r = xzr
	case Brotli:
		r = brotli.NewReader(br)
	default:
		r = br
	}
	return &readCloser{Reader: r, closeFn: closeFn, src: src}, nil
}

type readCloser struct {
	io.Reader
	closeFn func() error
	src     io.Closer
}

func (r *readCloser) Close() error {
	var errs []error
	if r.closeFn != nil {
		errs = append(errs, r.closeFn())
	}
	errs = append(errs, r.src.Close())
	return errors.Join(errs...)
}

// Create opens name for writing, compressing according to its extension.
// Data written to the result is complete only after Close returns.
func Create(name string) (io.WriteCloser, error) {
	if name == Stdio {
		return NewWriter(nopWriteCloser{os.Stdout}, None)
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	wc, err := NewWriter(f, ForName(name))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return wc, nil
}

// NewWriter wraps dst in a compressor for c. Closing the result flushes the
// compressor and closes dst.
func NewWriter(dst io.WriteCloser, c Compression) (io.WriteCloser, error) {
	var w io.WriteCloser
	switch c {
	case Gzip:
		w = gzip.NewWriter(dst)
	case Bzip2:
		bzw, err := bzip2.NewWriter(dst, nil)
		if err != nil {
			return nil, fmt.Errorf("creating bzip2 writer: %w", err)
		}
		w = bzw
	case XZ:
		xzw, err := xz.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("creating xz writer: %w", err)
		}
		w = xzw
	case Brotli:
		w = brotli.NewWriter(dst)
	default:
		return dst, nil
	}
	return &writeCloser{WriteCloser: w, dst: dst}, nil
}

type writeCloser struct {
	io.WriteCloser
	dst io.Closer
}

func (w *writeCloser) Close() error {
	return errors.Join(w.WriteCloser.Close(), w.dst.Close())
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
