package table

// streaming.go provides reader wrappers that repair common encoding problems
// in uploaded files without loading them into memory:
//
//   - bomReader: drops a leading UTF-8 BOM written by Windows tools
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?'
//
// Use sanitize to apply both in the correct order.

import (
	"io"
	"unicode/utf8"
)

// sanitize strips the BOM first, then repairs the byte stream.
func sanitize(r io.Reader) io.Reader {
	return newUTF8Sanitizer(newBOMReader(r))
}

// bomReader skips the UTF-8 BOM (0xEF 0xBB 0xBF) if the stream starts with it.
type bomReader struct {
	r       io.Reader
	checked bool
	buf     []byte // bytes read during the BOM check that belong to the data
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true

		var head [3]byte
		n, err := io.ReadFull(b.r, head[:])
		if n == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
			n = 0
		}
		b.buf = append(b.buf, head[:n]...)

		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && (err != io.EOF || len(b.buf) == 0) {
			return 0, err
		}
	}

	if len(b.buf) > 0 {
		n := copy(p, b.buf)
		b.buf = b.buf[n:]
		return n, nil
	}

	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 sequences with '?' on the fly.
// A replacement of one byte keeps the output no longer than the input, so
// sanitizing happens in place.
type utf8Sanitizer struct {
	r io.Reader

	// Leftover bytes from the previous read that may start a multi-byte rune
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		// Too small to hold a pending rune plus progress.
		buf := make([]byte, utf8.UTFMax)
		n, err := s.Read(buf)
		if n > len(p) {
			s.pending = append(append([]byte(nil), buf[len(p):n]...), s.pending...)
			n = len(p)
			err = nil
		}
		copy(p, buf[:n])
		return n, err
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.repair(p[:n], err == io.EOF), err
}

// repair rewrites data in place and returns the number of bytes to hand out.
// Unless atEOF, an incomplete rune at the end is kept back for the next read.
func (s *utf8Sanitizer) repair(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				return write
			}
			data[write] = '?'
			write++
			read++
			continue
		}

		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
