package metadata

import (
	"encoding/csv"
	"os"

	"github.com/anonymise-pipeline/internal/domain"
)

// WriteExtract writes the metadata extract: the fixed header row followed
// by one row per sample, columns in Headings order. transform, if non-nil,
// is applied to each sample before writing (the anonymised path uses it to
// substitute surrogate identifiers); the stored samples are not modified.
func WriteExtract(path string, samples []Sample, transform func(Sample) Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot create metadata extract %s", path)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = '\t'

	if err := writer.Write(Headings); err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot write metadata extract %s", path)
	}
	for _, sample := range samples {
		if transform != nil {
			sample = transform(sample)
		}
		row := make([]string, len(Headings))
		for i, heading := range Headings {
			row[i] = sample[heading]
		}
		if err := writer.Write(row); err != nil {
			return domain.WrapError(domain.CategoryResource, err, "cannot write metadata extract %s", path)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return domain.WrapError(domain.CategoryResource, err, "cannot write metadata extract %s", path)
	}
	return nil
}
