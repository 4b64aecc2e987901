// Package locator finds the repository files in scope for a request.
package locator

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/anonymise-pipeline/internal/domain"
	"github.com/anonymise-pipeline/internal/filename"
)

// Locator lists batch directories and keeps the files whose sample id is
// in scope. Batch directories routinely hold files of several formats, so
// names that do not parse under the expected format are excluded silently.
type Locator struct {
	log  *logrus.Logger
	root string
}

// New creates a locator over the repository root.
func New(log *logrus.Logger, root string) *Locator {
	return &Locator{log: log, root: root}
}

// Locate returns, for one requested file type, every file in the given
// batches whose extracted sample id is in sampleIDs. A missing batch
// directory is a resource failure; a non-matching filename is not.
func (l *Locator) Locate(fileType domain.FileType, batches []string, sampleIDs map[string]bool) ([]*filename.Record, error) {
	if fileType == domain.FileTypeVCF {
		// The variants directory convention has not been confirmed against
		// the pipeline that writes it; see DESIGN.md.
		l.log.Warn("Variant file discovery assumes the analysis/variants layout and the unfiltered VCF suffix")
	}

	var records []*filename.Record
	for _, format := range filename.ForFileType(fileType) {
		for _, batch := range batches {
			dir := format.BatchDir(l.root, batch)
			l.log.WithFields(logrus.Fields{
				"format": format.Name(),
				"dir":    dir,
			}).Info("Searching for files")

			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, domain.WrapError(domain.CategoryResource, err, "cannot list batch directory %s", dir)
			}
			for _, entry := range entries {
				if entry.IsDir() {
					continue
				}
				record, err := filename.Parse(filepath.Join(dir, entry.Name()), format)
				if errors.Is(err, filename.ErrFormatMismatch) {
					l.log.WithField("file", entry.Name()).Debug("Skipping file of another format")
					continue
				}
				if err != nil {
					return nil, err
				}
				if sampleIDs[record.SampleID()] {
					records = append(records, record)
				}
			}
		}
	}
	return records, nil
}
