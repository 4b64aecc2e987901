// Package rewrite substitutes sample identifiers inside genomic file
// content. Each rewriter applies the same contract: exact substring
// replacement of the original sample id with its surrogate, restricted to
// the identifying regions of the format; every other byte of the payload
// passes through unchanged and record order is preserved.
package rewrite

import (
	"bufio"
	"io"
	"strings"
)

// Alignment rewrites an alignment stream in its textual representation.
// The substitution is applied to the ID and SM values of every @RG header
// line, to the query name of every alignment record and to the record's
// RG:Z: tag value. All other header fields and record fields (sequence,
// quality, position, other tags) are copied unchanged.
func Alignment(r io.Reader, w io.Writer, oldID, newID string) error {
	writer := bufio.NewWriter(w)
	err := eachLine(r, func(line string) error {
		_, werr := writer.WriteString(rewriteAlignmentLine(line, oldID, newID))
		return werr
	})
	if err != nil {
		return err
	}
	return writer.Flush()
}

func rewriteAlignmentLine(line, oldID, newID string) string {
	body, newline := splitNewline(line)
	if strings.HasPrefix(body, "@") {
		if !strings.HasPrefix(body, "@RG") {
			return line
		}
		return rewriteReadGroupHeader(body, oldID, newID) + newline
	}
	return rewriteAlignmentRecord(body, oldID, newID) + newline
}

// rewriteReadGroupHeader substitutes inside the ID and SM values of one
// @RG header line.
func rewriteReadGroupHeader(body, oldID, newID string) string {
	fields := strings.Split(body, "\t")
	for i, field := range fields[1:] {
		if value, ok := strings.CutPrefix(field, "ID:"); ok {
			fields[i+1] = "ID:" + strings.ReplaceAll(value, oldID, newID)
		} else if value, ok := strings.CutPrefix(field, "SM:"); ok {
			fields[i+1] = "SM:" + strings.ReplaceAll(value, oldID, newID)
		}
	}
	return strings.Join(fields, "\t")
}

// alignmentFixedFields is the number of mandatory fields in an alignment
// record; optional tags follow.
const alignmentFixedFields = 11

// rewriteAlignmentRecord substitutes inside the query name (first field)
// and the RG:Z: tag value of one alignment record.
func rewriteAlignmentRecord(body, oldID, newID string) string {
	fields := strings.Split(body, "\t")
	fields[0] = strings.ReplaceAll(fields[0], oldID, newID)
	for i := alignmentFixedFields; i < len(fields); i++ {
		if value, ok := strings.CutPrefix(fields[i], "RG:Z:"); ok {
			fields[i] = "RG:Z:" + strings.ReplaceAll(value, oldID, newID)
		}
	}
	return strings.Join(fields, "\t")
}

// splitNewline separates a line's body from its trailing newline, if any,
// so a final unterminated line round-trips byte-identically.
func splitNewline(line string) (body, newline string) {
	if strings.HasSuffix(line, "\n") {
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

// eachLine streams r line by line, tolerating an unterminated final line.
func eachLine(r io.Reader, fn func(line string) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			if ferr := fn(line); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
