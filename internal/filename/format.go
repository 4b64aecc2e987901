// Package filename models the structured file names of the data
// repository. Each file family has its own naming convention: the field
// separator, which leading fields carry identity and where the file lives
// inside a batch directory all vary per format, so the variability is
// expressed as a capability each format implements rather than as
// format-name conditionals in callers.
package filename

import (
	"errors"
	"path/filepath"

	"github.com/anonymise-pipeline/internal/domain"
)

// Suffixes and batch subdirectories of the known file families. The
// variant suffix assumes the unfiltered VCF naming; see DESIGN.md.
const (
	sequenceSuffix       = "fastq.gz"
	alignmentSuffix      = "merge.dedup.realign.recal.bam"
	alignmentIndexSuffix = "merge.dedup.realign.recal.bai"
	variantSuffix        = "merge.dedup.realign.recal.vcf"

	batchesDirName  = "batches"
	sequenceDirName = "data"
	analysisDirName = "analysis"
	alignDirName    = "align"
	variantDirName  = "variants"
)

// ErrFormatMismatch signals that a path does not belong to the expected
// format. It is a skip-this-file condition, not a program error.
var ErrFormatMismatch = errors.New("filename does not match format")

// Format describes one file family's naming convention.
type Format interface {
	// Name identifies the format (used for logging and rewriter lookup).
	Name() string
	// Suffix is the fixed filename ending that marks the format.
	Suffix() string
	// Separator splits the filename into fields.
	Separator() string
	// BatchDir is the format's directory inside a batch.
	BatchDir(root, batch string) string
	// BatchSpan returns the field range holding the composite batch token,
	// if the format carries one in its filenames.
	BatchSpan() (start, end int, ok bool)
}

// The known formats.
var (
	Sequence       Format = sequenceFormat{}
	Alignment      Format = alignmentFormat{}
	AlignmentIndex Format = alignmentIndexFormat{}
	Variant        Format = variantFormat{}
)

// ForFileType returns the formats a requested file type covers. An
// alignment request includes the index files that sit alongside the
// alignments.
func ForFileType(t domain.FileType) []Format {
	switch t {
	case domain.FileTypeFastq:
		return []Format{Sequence}
	case domain.FileTypeBAM:
		return []Format{Alignment, AlignmentIndex}
	case domain.FileTypeVCF:
		return []Format{Variant}
	default:
		return nil
	}
}

// sequenceFormat is the fastq.gz family, with underscore-separated fields:
// SAMPLEID_AGRF_111_HHMN7BCXX_TAAGGCGA_L001_R1.fastq.gz. Fields 1-2 form
// the composite batch token (positional, not content-matched).
type sequenceFormat struct{}

func (sequenceFormat) Name() string      { return "sequence" }
func (sequenceFormat) Suffix() string    { return sequenceSuffix }
func (sequenceFormat) Separator() string { return "_" }
func (sequenceFormat) BatchDir(root, batch string) string {
	return filepath.Join(root, batchesDirName, batch, sequenceDirName)
}
func (sequenceFormat) BatchSpan() (int, int, bool) { return 1, 2, true }

// alignmentFormat is the recalibrated alignment family, with
// dot-separated fields: SAMPLEID.merge.dedup.realign.recal.bam.
type alignmentFormat struct{}

func (alignmentFormat) Name() string      { return "alignment" }
func (alignmentFormat) Suffix() string    { return alignmentSuffix }
func (alignmentFormat) Separator() string { return "." }
func (alignmentFormat) BatchDir(root, batch string) string {
	return filepath.Join(root, batchesDirName, batch, analysisDirName, alignDirName)
}
func (alignmentFormat) BatchSpan() (int, int, bool) { return 0, 0, false }

// alignmentIndexFormat is the index sitting alongside each alignment.
type alignmentIndexFormat struct{}

func (alignmentIndexFormat) Name() string      { return "alignment-index" }
func (alignmentIndexFormat) Suffix() string    { return alignmentIndexSuffix }
func (alignmentIndexFormat) Separator() string { return "." }
func (alignmentIndexFormat) BatchDir(root, batch string) string {
	return filepath.Join(root, batchesDirName, batch, analysisDirName, alignDirName)
}
func (alignmentIndexFormat) BatchSpan() (int, int, bool) { return 0, 0, false }

// variantFormat is the variant-call family, dot-separated.
type variantFormat struct{}

func (variantFormat) Name() string      { return "variant" }
func (variantFormat) Suffix() string    { return variantSuffix }
func (variantFormat) Separator() string { return "." }
func (variantFormat) BatchDir(root, batch string) string {
	return filepath.Join(root, batchesDirName, batch, analysisDirName, variantDirName)
}
func (variantFormat) BatchSpan() (int, int, bool) { return 0, 0, false }
