package filename

import (
	"path/filepath"
	"strings"

	"github.com/anonymise-pipeline/internal/domain"
)

// Record is a parsed view of one file path under a specific format. The
// sample id is always the leading separator-delimited field; rewriting
// operations replace a contiguous field range and leave every other
// character of the name, including the format suffix, untouched.
type Record struct {
	format Format
	dir    string
	name   string
}

// Parse interprets path under the expected format. Paths that do not end
// in the format's suffix return ErrFormatMismatch.
func Parse(path string, format Format) (*Record, error) {
	dir, name := filepath.Split(path)
	if !strings.HasSuffix(name, format.Suffix()) {
		return nil, ErrFormatMismatch
	}
	return &Record{format: format, dir: filepath.Clean(dir), name: name}, nil
}

// Format returns the record's format.
func (r *Record) Format() Format { return r.format }

// Path returns the record's full path.
func (r *Record) Path() string { return filepath.Join(r.dir, r.name) }

// Name returns the record's filename.
func (r *Record) Name() string { return r.name }

// Fields returns the separator-delimited fields of the filename.
func (r *Record) Fields() []string {
	return strings.Split(r.name, r.format.Separator())
}

// SampleID returns the sample identifier: the leading field.
func (r *Record) SampleID() string {
	return r.Fields()[0]
}

// ReplaceSampleID rewrites the leading field to newID, preserving every
// other character of the filename.
func (r *Record) ReplaceSampleID(newID string) {
	r.name = newID + r.name[len(r.SampleID()):]
}

// FieldSpan returns the literal text of fields start..end inclusive, as it
// appears in the filename.
func (r *Record) FieldSpan(start, end int) (string, error) {
	fields := r.Fields()
	if start < 0 || end < start || end >= len(fields) {
		return "", domain.NewError(domain.CategoryBadFilename,
			"filename %s has no fields %d..%d", r.Path(), start, end)
	}
	return strings.Join(fields[start:end+1], r.format.Separator()), nil
}

// ReplaceFields rewrites the contiguous field range start..end inclusive
// with token, preserving the fields before and after untouched.
func (r *Record) ReplaceFields(start, end int, token string) error {
	span, err := r.FieldSpan(start, end)
	if err != nil {
		return err
	}
	prefixLen := 0
	fields := r.Fields()
	for i := 0; i < start; i++ {
		prefixLen += len(fields[i]) + len(r.format.Separator())
	}
	r.name = r.name[:prefixLen] + token + r.name[prefixLen+len(span):]
	return nil
}
