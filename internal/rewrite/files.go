package rewrite

import (
	"io"
	"os"

	"github.com/anonymise-pipeline/internal/domain"
	"github.com/anonymise-pipeline/internal/filename"
)

// Func is the shared rewriter contract: substitute oldID with newID in the
// identifying regions of the stream.
type Func func(r io.Reader, w io.Writer, oldID, newID string) error

// rewriters maps each file format to its content rewriter. Formats absent
// from the map carry no sample identifiers in their content and are copied
// unchanged under the new name.
var rewriters = map[string]Func{
	filename.Alignment.Name(): Alignment,
	filename.Variant.Name():   Variant,
}

// ForFormat returns the content rewriter for a format, or nil when the
// format's content needs no rewriting.
func ForFormat(f filename.Format) Func {
	return rewriters[f.Name()]
}

// File applies fn to inPath, writing the result to outPath. A nil fn
// copies the content unchanged. Any open or write failure is fatal for the
// run.
func File(fn Func, inPath, outPath, oldID, newID string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot open input file %s", inPath)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot create output file %s", outPath)
	}
	defer out.Close()

	if fn == nil {
		if _, err := io.Copy(out, in); err != nil {
			return domain.WrapError(domain.CategoryResource, err, "cannot copy %s to %s", inPath, outPath)
		}
	} else if err := fn(in, out, oldID, newID); err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot rewrite %s to %s", inPath, outPath)
	}

	if err := out.Close(); err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot finish output file %s", outPath)
	}
	return nil
}
