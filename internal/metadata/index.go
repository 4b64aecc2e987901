// Package metadata reads the per-batch sample registries of the data
// repository and selects the samples in scope for a request.
//
// Sample metadata lives in <root>/batches/<batch>/samples.txt. Batch
// directories are named with digits only; any all-digit directory name is
// treated as a batch (no field-width validation, documented assumption).
package metadata

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/anonymise-pipeline/internal/domain"
)

const (
	// BatchesDirName is the fixed repository subdirectory holding batches.
	BatchesDirName = "batches"
	// SamplesFileName is the tab-delimited registry inside each batch.
	SamplesFileName = "samples.txt"
	// ExtractFileName is the metadata extract written per request.
	ExtractFileName = "samples.out.txt"
)

// Headings is the fixed, ordered column set of the sample registry. The
// order is significant: the metadata extract must reproduce it exactly for
// downstream compatibility.
var Headings = []string{
	"Batch", "Sample_ID", "DNA_Tube_ID", "Sex",
	"DNA_Concentration", "DNA_Volume", "DNA_Quantity", "DNA_Quality",
	"DNA_Date", "Cohort", "Sample_Type", "Fastq_Files",
	"Prioritised_Genes", "Consanguinity", "Variants_File",
	"Pedigree_File", "Ethnicity", "VariantCall_Group",
	"Capture_Date", "Sequencing_Date", "Mean_Coverage",
	"Duplicate_Percentage", "Machine_ID", "DNA_Extraction_Lab",
	"Sequencing_Lab", "Exome_Capture", "Library_Preparation",
	"Barcode_Pool_Size", "Read_Type", "Machine_Type",
	"Sequencing_Chemistry", "Sequencing_Software",
	"Demultiplex_Software", "Hospital_Centre",
	"Sequencing_Contact", "Pipeline_Contact", "Notes",
}

// Sample is one registry row, keyed by column heading.
type Sample map[string]string

// ID returns the sample's stable identifier.
func (s Sample) ID() string { return s["Sample_ID"] }

// Batch returns the batch the sample belongs to.
func (s Sample) Batch() string { return s["Batch"] }

// Cohort returns the clinical cohort the sample belongs to.
func (s Sample) Cohort() string { return s["Cohort"] }

// Index is the set of samples in scope for a request, with the distinct
// batches and sample ids they cover.
type Index struct {
	Samples   []Sample
	Batches   []string
	SampleIDs map[string]bool

	log *logrus.Logger
}

// Load walks the repository's batch directories and returns every sample
// whose cohort is in the requested set. Cohort tokens that match no sample
// simply select nothing; they are not an error.
func Load(log *logrus.Logger, root string, cohorts []string) (*Index, error) {
	requested := make(map[string]bool, len(cohorts))
	for _, cohort := range cohorts {
		requested[cohort] = true
	}

	batchesDir := filepath.Join(root, BatchesDirName)
	entries, err := os.ReadDir(batchesDir)
	if err != nil {
		return nil, domain.WrapError(domain.CategoryResource, err, "cannot list batches directory %s", batchesDir)
	}

	index := &Index{SampleIDs: make(map[string]bool), log: log}
	batches := make(map[string]bool)
	for _, entry := range entries {
		if !entry.IsDir() || !isBatchName(entry.Name()) {
			continue
		}
		registry := filepath.Join(batchesDir, entry.Name(), SamplesFileName)
		samples, err := readRegistry(registry, requested)
		if err != nil {
			return nil, err
		}
		index.Samples = append(index.Samples, samples...)
	}
	for _, sample := range index.Samples {
		if !batches[sample.Batch()] {
			batches[sample.Batch()] = true
			index.Batches = append(index.Batches, sample.Batch())
		}
		index.SampleIDs[sample.ID()] = true
	}

	log.WithFields(logrus.Fields{
		"cohorts": cohorts,
		"samples": len(index.Samples),
		"batches": len(index.Batches),
	}).Info("Sample metadata loaded")
	return index, nil
}

// FilterConsent is the consent-filtering hook. The consent-file format and
// its filtering semantics are a known gap in this pipeline: the hook
// refines nothing and says so loudly, rather than masking the gap with
// invented semantics.
func (i *Index) FilterConsent(consentSource string, allowed []domain.DisclosureCategory) {
	i.log.WithFields(logrus.Fields{
		"consent_source": consentSource,
		"allowed":        allowed,
	}).Warn("Consent filtering is NOT implemented; the sample set has not been refined by consent")
}

// isBatchName reports whether a directory name identifies a batch. Batch
// names are all digits and nothing else.
func isBatchName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// readRegistry parses one tab-delimited samples.txt and keeps rows whose
// Cohort is requested.
func readRegistry(path string, cohorts map[string]bool) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.WrapError(domain.CategoryResource, err, "cannot open sample registry %s", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, domain.WrapError(domain.CategoryResource, err, "cannot parse sample registry %s", path)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	var samples []Sample
	for _, row := range rows[1:] {
		sample := make(Sample, len(header))
		for i, heading := range header {
			if i < len(row) {
				sample[heading] = row[i]
			}
		}
		if cohorts[sample.Cohort()] {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}
