// Package rows reads delimited legacy export files into header-keyed records.
package rows

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
)

var (
	// ErrMissingFile is returned when an input file does not exist.
	ErrMissingFile = errors.New("input file missing")
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrIncomplete is handed to OnSkip for a row with a required field empty.
	ErrIncomplete = errors.New("required field empty")
)

// Record maps a header column to its (trimmed, unquoted) value.
type Record map[string]string

type Options struct {
	Delimiter rune     // ',' when zero
	Charset   string   // label understood by x/net/html/charset; see NewReader when empty
	Required  []string // columns the header must have; rows with any of them empty are skipped
	// OnSkip, when set, is called with the line and cause of every dropped row.
	OnSkip func(line int, err error)
}

type Reader struct {
	csv      *csv.Reader
	header   []string
	required []string
	onSkip   func(int, error)
	closer   io.Closer

	line    int
	skipped int
}

// Open opens path for reading. The caller closes the reader.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return nil, err
	}
	r, err := NewReader(f, opts)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.closer = f
	return r, nil
}

// NewReader decodes in to UTF-8 and reads the header row.
// Without a Charset the input is read as UTF-8. A UTF-16 BOM is honoured, and
// windows-1252 is assumed only when the first sniffLen bytes are not valid UTF-8.
func NewReader(in io.Reader, opts Options) (*Reader, error) {
	br := bufio.NewReaderSize(in, sniffLen)

	var src io.Reader = br
	if opts.Charset != "" {
		dec, err := charset.NewReaderLabel(normalizeCharset(opts.Charset), br)
		if err != nil {
			return nil, fmt.Errorf("charset %q: %w", opts.Charset, err)
		}
		src = dec
	} else {
		src = sniff(br)
	}

	cr := csv.NewReader(src)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, col := range opts.Required {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, col)
		}
	}

	return &Reader{
		csv:      cr,
		header:   header,
		required: opts.Required,
		onSkip:   opts.OnSkip,
		line:     1,
	}, nil
}

func (r *Reader) Header() []string { return r.header }

// Skipped reports how many rows were dropped as malformed or underspecified.
func (r *Reader) Skipped() int { return r.skipped }

// Line is the 1-based number of the last row read, header included.
func (r *Reader) Line() int { return r.line }

// Next returns the next complete record, or io.EOF.
func (r *Reader) Next() (Record, error) {
	for {
		fields, err := r.csv.Read()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		r.line++
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				r.skip(err)
				continue
			}
			return nil, err
		}
		if blank(fields) {
			continue
		}

		rec := make(Record, len(r.header))
		for i, h := range r.header {
			if i < len(fields) {
				rec[h] = strings.TrimSpace(fields[i])
			} else {
				rec[h] = ""
			}
		}
		if !r.complete(rec) {
			r.skip(ErrIncomplete)
			continue
		}
		return rec, nil
	}
}

func (r *Reader) skip(err error) {
	r.skipped++
	if r.onSkip != nil {
		r.onSkip(r.line, err)
	}
}

func (r *Reader) complete(rec Record) bool {
	for _, k := range r.required {
		if rec[k] == "" {
			return false
		}
	}
	return true
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// All yields every complete record of path. Each range over the sequence
// reopens the file, so it can be iterated more than once. Iteration stops
// after the first error, which names the file and line.
func All(path string, opts Options) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		r, err := Open(path, opts)
		if err != nil {
			yield(nil, err)
			return
		}
		defer r.Close()
		for {
			rec, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("%s line %d: %w", path, r.Line(), err))
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

const sniffLen = 64 << 10

func sniff(br *bufio.Reader) io.Reader {
	head, err := br.Peek(sniffLen)
	if enc, name, certain := charset.DetermineEncoding(head, "text/csv"); certain && name != "utf-8" {
		return enc.NewDecoder().Reader(br)
	}
	if validUTF8(head, err == nil) {
		return br
	}
	enc, _ := charset.Lookup("windows-1252")
	return enc.NewDecoder().Reader(br)
}

// validUTF8 reports whether head is UTF-8. A rune cut off by the end of a
// truncated head does not count against it.
func validUTF8(head []byte, truncated bool) bool {
	if utf8.Valid(head) {
		return true
	}
	if !truncated {
		return false
	}
	for cut := 1; cut < utf8.UTFMax && cut < len(head); cut++ {
		tail := head[len(head)-cut:]
		if !utf8.FullRune(tail) && utf8.Valid(head[:len(head)-cut]) {
			return true
		}
	}
	return false
}

// normalizeCharset maps unusual labels to names charset.NewReaderLabel knows.
func normalizeCharset(cs string) string {
	c := strings.TrimSpace(strings.ToLower(cs))
	switch c {
	case "latin1", "latin-1", "iso8859-1", "iso_8859-1":
		return "iso-8859-1"
	case "latin ii", "latin-2", "latin2", "iso8859-2", "iso_8859-2":
		return "iso-8859-2"
	case "cp1252", "windows1252", "win-1252":
		return "windows-1252"
	default:
		return c
	}
}
