package study

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/nig-upload/testutil"
)

func TestValidate(t *testing.T) {
	root := t.TempDir()
	st := testutil.NewStudy(t, root, "S1").
		Dataset("D1", "D1_R1.fastq.gz", "D1_R2.fastq.gz", "notes.txt").
		Dataset("D2", "D2.fastq.gz").
		Dataset("empty").
		Pedigree(pedigreeHeader, "F1\tD1\tD2\t-\tM\t-\t-\t-", "F1\tD2\t-\t-\tF\t-\t-\t-").
		Technical("T1\t01/01/2020\tIllumina\tkit").
		File("README.md", "hello")
	testutil.WriteFile(t, filepath.Join(st.Dir, "D2", "zero.fastq.gz"), "")

	logs := testutil.NewLogCapture(t)
	tree, err := Validate(logs.Ctx, st.Dir, logs.Logger)
	require.NoError(t, err)
	require.NotNil(t, tree)

	assert.Equal(t, "S1", tree.Name)
	assert.Empty(t, tree.StudyUUID)
	assert.Equal(t, []string{"D1", "D2"}, tree.DatasetNames())
	assert.Equal(t, []string{
		filepath.Join(st.Dir, "D1", "D1_R1.fastq.gz"),
		filepath.Join(st.Dir, "D1", "D1_R2.fastq.gz"),
	}, tree.Datasets["D1"])
	assert.Len(t, tree.Datasets["D2"], 1)
	assert.Len(t, tree.Phenotypes, 2)
	assert.Equal(t, Relationships{"D1": {"D2"}}, tree.Relationships)
	require.Len(t, tree.Technicals, 1)
	assert.Equal(t, "T1", tree.Technicals[0].Name)

	pretty := logs.Pretty.String()
	assert.Contains(t, pretty, "notes.txt skipped")
	assert.Contains(t, pretty, "zero.fastq.gz skipped")
	assert.Contains(t, pretty, "README.md is not a directory")
	assert.NotContains(t, pretty, "pedigree.txt is not a directory")
}

func TestValidateSkips(t *testing.T) {
	tests := []struct {
		name    string
		build   func(b *testutil.StudyBuilder)
		message string
	}{
		{
			name: "no files",
			build: func(b *testutil.StudyBuilder) {
				b.Dataset("D1", "readme.txt")
			},
			message: "No files found for upload in",
		},
		{
			name: "too many fastq",
			build: func(b *testutil.StudyBuilder) {
				b.Dataset("D1", "a.fastq.gz", "b.fastq.gz", "c.fastq.gz")
			},
			message: "Dataset D1 contains too many fastq files",
		},
		{
			name: "malformed pedigree",
			build: func(b *testutil.StudyBuilder) {
				b.Dataset("D1", "a.fastq.gz").Pedigree("F1\tD1\t-\t-\tX")
			},
			message: "Can't parse X sex for D1",
		},
		{
			name: "malformed technical",
			build: func(b *testutil.StudyBuilder) {
				b.Dataset("D1", "a.fastq.gz").Technical("T1\t01/01/2020\tNanopore\tkit")
			},
			message: "Platform has to be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.NewStudy(t, t.TempDir(), "S1")
			tt.build(b)

			logs := testutil.NewLogCapture(t)
			tree, err := Validate(logs.Ctx, b.Dir, logs.Logger)
			require.NoError(t, err)
			assert.Nil(t, tree)
			assert.Contains(t, logs.Pretty.String(), "Upload of S1 skipped")
			assert.Contains(t, logs.Pretty.String(), tt.message)
		})
	}
}

func TestValidateMissingDirectory(t *testing.T) {
	logs := testutil.NewLogCapture(t)
	_, err := Validate(logs.Ctx, filepath.Join(t.TempDir(), "missing"), logs.Logger)
	require.Error(t, err)
}

func TestValidateIgnoresMetadataDirectory(t *testing.T) {
	b := testutil.NewStudy(t, t.TempDir(), "S1").Dataset("D1", "a.fastq.gz")
	require.NoError(t, os.MkdirAll(filepath.Join(b.Dir, PedigreeFile), 0o755))

	logs := testutil.NewLogCapture(t)
	tree, err := Validate(logs.Ctx, b.Dir, logs.Logger)
	require.NoError(t, err)
	require.NotNil(t, tree)
	assert.Empty(t, tree.Phenotypes)
}
