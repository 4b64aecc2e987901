// Package assembler composes the pipeline components into the per-request
// output bundle: either symlinks to re-identifiable data or anonymised
// copies, plus the metadata extract and checksum sidecars.
package assembler

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anonymise-pipeline/internal/checksum"
	"github.com/anonymise-pipeline/internal/domain"
	"github.com/anonymise-pipeline/internal/filename"
	"github.com/anonymise-pipeline/internal/locator"
	"github.com/anonymise-pipeline/internal/metadata"
	"github.com/anonymise-pipeline/internal/rewrite"
)

// SurrogateAllocator issues the run's sample-id mapping.
type SurrogateAllocator interface {
	Allocate(ctx context.Context, sampleIDs []string) (map[string]int64, error)
}

// Assembler produces the output bundle for one request.
type Assembler struct {
	log        *logrus.Logger
	outputRoot string
	locator    *locator.Locator
	allocator  SurrogateAllocator
	summer     checksum.Summer
}

// New creates an assembler writing request bundles under outputRoot.
func New(log *logrus.Logger, outputRoot string, loc *locator.Locator, alloc SurrogateAllocator, summer checksum.Summer) *Assembler {
	return &Assembler{
		log:        log,
		outputRoot: outputRoot,
		locator:    loc,
		allocator:  alloc,
		summer:     summer,
	}
}

// Run assembles the bundle for the application. The requested
// identifiability has already been validated against the policy table.
// Re-running for the same application id and request id fails: the output
// directory is the request's durable record and is never overwritten.
func (a *Assembler) Run(ctx context.Context, app *domain.Application, index *metadata.Index) error {
	log := a.log.WithFields(logrus.Fields{
		"application":     app.String(),
		"identifiability": app.Identifiability,
		"run_id":          uuid.New().String(),
	})

	outDir, err := a.createRequestDir(app)
	if err != nil {
		return err
	}

	var records []*filename.Record
	for _, fileType := range app.RequestedFileTypes() {
		located, err := a.locator.Locate(fileType, index.Batches, index.SampleIDs)
		if err != nil {
			return err
		}
		records = append(records, located...)
	}
	log.WithField("files", len(records)).Info("Candidate files located")

	var outputs []string
	var transform func(metadata.Sample) metadata.Sample
	switch app.Identifiability {
	case domain.ReIdentifiable:
		outputs, err = a.linkOriginals(outDir, records)
	case domain.Anonymised:
		outputs, transform, err = a.anonymise(ctx, outDir, records, index)
	default:
		err = domain.NewError(domain.CategoryIncompatible,
			"identifiability %q does not select a deliverable data path", app.Identifiability)
	}
	if err != nil {
		return err
	}

	extract := filepath.Join(outDir, metadata.ExtractFileName)
	if err := metadata.WriteExtract(extract, index.Samples, transform); err != nil {
		return err
	}

	for _, output := range outputs {
		if err := a.summer.Sum(ctx, output); err != nil {
			return err
		}
	}

	log.WithFields(logrus.Fields{
		"output_dir": outDir,
		"outputs":    len(outputs),
	}).Info("Request bundle assembled")
	return nil
}

// createRequestDir creates <output root>/<application id>/<request id>.
// An existing request directory is a fatal collision, not something to
// merge into.
func (a *Assembler) createRequestDir(app *domain.Application) (string, error) {
	path := filepath.Join(a.outputRoot, app.ApplicationID, app.RequestID)
	if _, err := os.Stat(path); err == nil {
		return "", domain.NewError(domain.CategoryDirectory,
			"request directory %s already exists; refusing to overwrite", path)
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", domain.WrapError(domain.CategoryDirectory, err, "failed to make directory %s", path)
	}
	return path, nil
}

// linkOriginals symlinks each located file into the bundle unchanged.
func (a *Assembler) linkOriginals(outDir string, records []*filename.Record) ([]string, error) {
	outputs := make([]string, 0, len(records))
	for _, record := range records {
		link := filepath.Join(outDir, record.Name())
		if err := os.Symlink(record.Path(), link); err != nil {
			return nil, domain.WrapError(domain.CategoryResource, err, "cannot link %s", record.Path())
		}
		outputs = append(outputs, link)
	}
	return outputs, nil
}

// anonymise allocates surrogate ids for every in-scope sample, then
// renames and rewrites each located file. The returned transform applies
// the same substitution to the metadata extract rows.
func (a *Assembler) anonymise(ctx context.Context, outDir string, records []*filename.Record, index *metadata.Index) ([]string, func(metadata.Sample) metadata.Sample, error) {
	sampleIDs := make([]string, 0, len(index.SampleIDs))
	for id := range index.SampleIDs {
		sampleIDs = append(sampleIDs, id)
	}
	mapping, err := a.allocator.Allocate(ctx, sampleIDs)
	if err != nil {
		return nil, nil, err
	}

	obfuscator := filename.NewObfuscator()
	outputs := make([]string, 0, len(records))
	for _, record := range records {
		// Renaming mutates the record, so the source path and id must be
		// taken before it.
		inPath := record.Path()
		oldID := record.SampleID()
		surrogate, ok := mapping[oldID]
		if !ok {
			return nil, nil, domain.NewError(domain.CategoryUnmapped,
				"sample id %q from %s has no surrogate mapping", oldID, inPath)
		}
		newID := strconv.FormatInt(surrogate, 10)

		outName, err := anonymisedName(record, newID, obfuscator)
		if err != nil {
			return nil, nil, err
		}
		outPath := filepath.Join(outDir, outName)
		if err := rewrite.File(rewrite.ForFormat(record.Format()), inPath, outPath, oldID, newID); err != nil {
			return nil, nil, err
		}
		outputs = append(outputs, outPath)
	}

	transform := func(sample metadata.Sample) metadata.Sample {
		surrogate, ok := mapping[sample.ID()]
		if !ok {
			return sample
		}
		newID := strconv.FormatInt(surrogate, 10)
		anonymised := make(metadata.Sample, len(sample))
		for column, value := range sample {
			anonymised[column] = strings.ReplaceAll(value, sample.ID(), newID)
		}
		return anonymised
	}
	return outputs, transform, nil
}

// anonymisedName rewrites a record's filename: the sample id becomes the
// surrogate, and formats carrying a composite batch token get it replaced
// by the run-scoped obfuscated token.
func anonymisedName(record *filename.Record, newID string, obfuscator *filename.Obfuscator) (string, error) {
	record.ReplaceSampleID(newID)
	if start, end, ok := record.Format().BatchSpan(); ok {
		span, err := record.FieldSpan(start, end)
		if err != nil {
			return "", err
		}
		if err := record.ReplaceFields(start, end, obfuscator.Token(span)); err != nil {
			return "", err
		}
	}
	return record.Name(), nil
}
