package study

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/logging"
)

// metadataCodes are the parse failures that skip a study instead of failing the run.
var metadataCodes = []errors.ErrorCode{
	errors.ErrCodePhenotypeMalformed,
	errors.ErrCodePhenotypeName,
	errors.ErrCodeHPO,
	errors.ErrCodeParsingSex,
	errors.ErrCodeAge,
	errors.ErrCodeRelationship,
	errors.ErrCodeTechnicalMalformed,
	errors.ErrCodeUnknownPlatform,
	errors.ErrCodeTechnicalAssociation,
}

// Validate inspects a study directory. It returns a nil Tree, after logging
// the reason, when the study has to be skipped.
func Validate(ctx context.Context, dir string, ulog *logging.UnifiedLogger) (*Tree, error) {
	name := filepath.Base(dir)
	tree := &Tree{
		Name:     name,
		Datasets: make(map[string][]string),
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read study directory").
			WithDetail("study", dir)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !entry.IsDir() {
			if entry.Name() != TechnicalFile && entry.Name() != PedigreeFile {
				ulog.Warn("%s is not a directory", path).Log(ctx)
			}
			continue
		}

		files, err := datasetFiles(ctx, path, ulog)
		if err != nil {
			return nil, err
		}
		if len(files) > MaxFilesPerDataset {
			ulog.Warn("Upload of %s skipped: Dataset %s contains too many fastq files: max allowed files are %d per dataset",
				name, entry.Name(), MaxFilesPerDataset).Field("study", name).Log(ctx)
			return nil, nil
		}
		if len(files) > 0 {
			tree.Datasets[entry.Name()] = files
			tree.DatasetOrder = append(tree.DatasetOrder, entry.Name())
		}
	}

	if len(tree.Datasets) == 0 {
		ulog.Warn("Upload of %s skipped: No files found for upload in: %s", name, dir).Field("study", name).Log(ctx)
		return nil, nil
	}

	pedigree := filepath.Join(dir, PedigreeFile)
	if isFile(pedigree) {
		f, err := os.Open(pedigree)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to open pedigree file").
				WithDetail("path", pedigree)
		}
		phenotypes, relationships, err := ParsePedigree(f, tree.Datasets)
		f.Close()
		if err != nil {
			return skipOnMetadataError(ctx, ulog, name, err)
		}
		tree.Phenotypes = phenotypes
		tree.Relationships = relationships
	}

	technical := filepath.Join(dir, TechnicalFile)
	if isFile(technical) {
		f, err := os.Open(technical)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to open technical file").
				WithDetail("path", technical)
		}
		technicals, err := ParseTechnical(f, tree.Datasets)
		f.Close()
		if err != nil {
			return skipOnMetadataError(ctx, ulog, name, err)
		}
		tree.Technicals = technicals
	}

	return tree, nil
}

// datasetFiles lists the uploadable files of one dataset directory.
func datasetFiles(ctx context.Context, dir string, ulog *logging.UnifiedLogger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read dataset directory").
			WithDetail("dataset", dir)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to stat dataset file").
				WithDetail("path", path)
		}

		regular := info.Mode().IsRegular()
		empty := info.Size() < 1
		fastq := strings.HasSuffix(entry.Name(), FastqSuffix)
		if regular && !empty && fastq {
			files = append(files, path)
			continue
		}

		ulog.Warn("File %s skipped", path).Log(ctx)
		ulog.Debug("skipped because is not a file? %t, skipped because is empty? %t, has the correct file extension (%s)? %t",
			!regular, empty, FastqSuffix, fastq).Log(ctx)
	}
	return files, nil
}

func skipOnMetadataError(ctx context.Context, ulog *logging.UnifiedLogger, name string, err error) (*Tree, error) {
	nigErr, ok := errors.As(err)
	if !ok {
		return nil, err
	}
	for _, code := range metadataCodes {
		if nigErr.Code == code {
			ulog.Warn("Upload of %s skipped: %s", name, nigErr.Message).
				Field("study", name).
				Field("code", string(nigErr.Code)).
				Log(ctx)
			return nil, nil
		}
	}
	return nil, err
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
