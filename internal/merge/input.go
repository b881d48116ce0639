package merge

import (
	"errors"
	"io"

	"github.com/jmylchreest/oggkit/internal/codec"
	"github.com/jmylchreest/oggkit/internal/ogg"
)

// Input is one source file being merged. It holds at most one page read
// ahead of the output.
type Input struct {
	Name string

	src      io.Reader
	reader   *ogg.Reader
	readSize int

	// page is the buffered next page, nil when a fresh pull is required.
	page *ogg.Page

	pagesIn   int64
	pagesOut  int64
	bytesRead int64
}

func newInput(name string, src io.Reader, readSize int) *Input {
	in := &Input{
		Name:     name,
		src:      src,
		reader:   ogg.NewReader(src),
		readSize: readSize,
	}
	in.reader.SetPageHandler(func(p *ogg.Page) error {
		in.page = p.Clone()
		in.pagesIn++
		return ogg.ErrStop
	})
	return in
}

// fill pulls from the reader until a page is buffered. It returns false once
// the input is exhausted; a read failure is returned alongside false.
func (in *Input) fill() (bool, error) {
	for in.page == nil {
		n, err := in.reader.Read(in.readSize)
		in.bytesRead += int64(n)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// take hands over the buffered page, leaving the input empty.
func (in *Input) take() *ogg.Page {
	p := in.page
	in.page = nil
	in.pagesOut++
	return p
}

// codec identifies the buffered BOS page.
func (in *Input) codec() codec.Name {
	if in.page == nil || !in.page.BOS() {
		return codec.Unknown
	}
	m, ok := codec.Identify(in.page.FirstPacket())
	if !ok {
		return codec.Unknown
	}
	return m.Name
}

func (in *Input) close() error {
	in.page = nil
	if c, ok := in.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
