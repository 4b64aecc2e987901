package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymise-pipeline/internal/domain"
	"github.com/anonymise-pipeline/internal/filename"
)

const variantInput = "##fileformat=VCFv4.2\n" +
	"##SAMPLE=<ID=S1,Description=\"patient S1\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\n" +
	"chr1\t10000\trs123\tA\tG\t50\tPASS\tDP=30;ANN=S1_context\tGT\t0/1\n" +
	"chr1\t10055\t.\tC\tT\t40\tPASS\tDP=28\tGT\t1/1\n"

func TestVariant_RewritesHeaderOnly(t *testing.T) {
	var out strings.Builder
	require.NoError(t, Variant(strings.NewReader(variantInput), &out, "S1", "4821"))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.Equal(t, "##SAMPLE=<ID=4821,Description=\"patient 4821\">", lines[1])
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t4821", lines[2])

	// Data lines are byte-identical even though one contains the old id.
	assert.Equal(t, "chr1\t10000\trs123\tA\tG\t50\tPASS\tDP=30;ANN=S1_context\tGT\t0/1", lines[3])
	assert.Equal(t, "chr1\t10055\t.\tC\tT\t40\tPASS\tDP=28\tGT\t1/1", lines[4])
}

func TestForFormat(t *testing.T) {
	assert.NotNil(t, ForFormat(filename.Alignment))
	assert.NotNil(t, ForFormat(filename.Variant))
	assert.Nil(t, ForFormat(filename.Sequence))
	assert.Nil(t, ForFormat(filename.AlignmentIndex))
}

func TestFile_RewritesToNewPath(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "S1.merge.dedup.realign.recal.vcf")
	out := filepath.Join(dir, "4821.merge.dedup.realign.recal.vcf")
	require.NoError(t, os.WriteFile(in, []byte(variantInput), 0644))

	require.NoError(t, File(Variant, in, out, "S1", "4821"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ID=4821")
	assert.Contains(t, string(data), "ANN=S1_context")
}

func TestFile_NilFuncCopiesUnchanged(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.fastq.gz")
	out := filepath.Join(dir, "out.fastq.gz")
	payload := []byte{0x1f, 0x8b, 0x08, 0x00, 'S', '1'}
	require.NoError(t, os.WriteFile(in, payload, 0644))

	require.NoError(t, File(nil, in, out, "S1", "4821"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestFile_MissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	err := File(Variant, filepath.Join(dir, "missing.vcf"), filepath.Join(dir, "out.vcf"), "S1", "4821")
	require.Error(t, err)
	assert.Equal(t, domain.CategoryResource.ExitCode(), domain.ExitCode(err))
}
