package filename

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymise-pipeline/internal/domain"
)

func TestParse_RejectsWrongSuffix(t *testing.T) {
	_, err := Parse("/repo/batches/001/data/S1_AGRF_024_HG3JKBCXX_CGTACTAG_L001_R1.fastq.gz", Alignment)
	assert.ErrorIs(t, err, ErrFormatMismatch)

	_, err = Parse("/repo/batches/001/analysis/align/S1.merge.dedup.realign.recal.bai", Alignment)
	assert.ErrorIs(t, err, ErrFormatMismatch)
}

func TestAlignment_SampleIDRoundTrip(t *testing.T) {
	record, err := Parse("/repo/batches/001/analysis/align/S1.merge.dedup.realign.recal.bam", Alignment)
	require.NoError(t, err)

	assert.Equal(t, "S1", record.SampleID())

	record.ReplaceSampleID("4821")
	assert.Equal(t, "4821.merge.dedup.realign.recal.bam", record.Name())
	assert.Equal(t, "4821", record.SampleID())
}

func TestSequence_SampleIDAndBatchSpan(t *testing.T) {
	record, err := Parse("/repo/batches/001/data/S1_AGRF_024_HG3JKBCXX_CGTACTAG_L001_R1.fastq.gz", Sequence)
	require.NoError(t, err)

	assert.Equal(t, "S1", record.SampleID())

	start, end, ok := Sequence.BatchSpan()
	require.True(t, ok)
	span, err := record.FieldSpan(start, end)
	require.NoError(t, err)
	assert.Equal(t, "AGRF_024", span)

	record.ReplaceSampleID("4821")
	require.NoError(t, record.ReplaceFields(start, end, "qz7k2"))
	assert.Equal(t, "4821_qz7k2_HG3JKBCXX_CGTACTAG_L001_R1.fastq.gz", record.Name())
}

func TestReplaceFields_SingleField(t *testing.T) {
	record, err := Parse("S1_AGRF_024_HG3JKBCXX_CGTACTAG_L001_R1.fastq.gz", Sequence)
	require.NoError(t, err)

	require.NoError(t, record.ReplaceFields(3, 3, "XXXX"))
	assert.Equal(t, "S1_AGRF_024_XXXX_CGTACTAG_L001_R1.fastq.gz", record.Name())
}

func TestReplaceFields_OutOfRange(t *testing.T) {
	record, err := Parse("S1.merge.dedup.realign.recal.bam", Alignment)
	require.NoError(t, err)

	err = record.ReplaceFields(3, 99, "x")
	require.Error(t, err)
	assert.Equal(t, domain.CategoryBadFilename.ExitCode(), domain.ExitCode(err))
}

func TestForFileType(t *testing.T) {
	assert.Equal(t, []Format{Sequence}, ForFileType(domain.FileTypeFastq))
	assert.Equal(t, []Format{Alignment, AlignmentIndex}, ForFileType(domain.FileTypeBAM))
	assert.Equal(t, []Format{Variant}, ForFileType(domain.FileTypeVCF))
	assert.Nil(t, ForFileType(domain.FileType("cram")))
}

func TestObfuscator_StableWithinRun(t *testing.T) {
	obfuscator := NewObfuscator()

	first := obfuscator.Token("AGRF_024")
	second := obfuscator.Token("AGRF_024")
	other := obfuscator.Token("AGRF_025")

	assert.Equal(t, first, second, "same original span must map to the same token")
	assert.NotEqual(t, first, other)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{5}$`), first)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{5}$`), other)
}
