package rewrite

import (
	"bufio"
	"io"
	"strings"
)

// Variant rewrites a variant-call stream. The substitution is applied only
// to header lines, which start with '#' and by convention run through the
// column-header line. Data lines are copied byte for byte, even when they
// happen to contain the old id as a substring.
func Variant(r io.Reader, w io.Writer, oldID, newID string) error {
	writer := bufio.NewWriter(w)
	err := eachLine(r, func(line string) error {
		if strings.HasPrefix(line, "#") {
			line = strings.ReplaceAll(line, oldID, newID)
		}
		_, werr := writer.WriteString(line)
		return werr
	})
	if err != nil {
		return err
	}
	return writer.Flush()
}
