package upload

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/pkg/api"
	"github.com/grovetools/nig-upload/pkg/study"
	"github.com/grovetools/nig-upload/testutil"
)

// scriptedPrompter answers confirmations in order and declines once exhausted.
type scriptedPrompter struct {
	answers  []bool
	messages []string
}

func (p *scriptedPrompter) Confirm(_ context.Context, message string) (bool, error) {
	p.messages = append(p.messages, message)
	if len(p.answers) == 0 {
		return false, nil
	}
	answer := p.answers[0]
	p.answers = p.answers[1:]
	return answer, nil
}

type recordingProgress struct {
	started []string
	total   int64
	sent    int64
	done    int
}

func (p *recordingProgress) Start(name string, total int64) {
	p.started = append(p.started, name)
	p.total += total
}
func (p *recordingProgress) Add(n int64) { p.sent += n }
func (p *recordingProgress) Done()       { p.done++ }

func newTestUploader(t *testing.T, srv *testutil.FakeServer, prompter Prompter, opts ...Option) (*Uploader, *testutil.LogCapture) {
	t.Helper()

	client := api.New(srv.URL,
		api.WithHTTPClient(srv.Client()),
		api.WithIPClient(srv.Client()),
		api.WithRetry(1, 0),
	).WithToken(testutil.FakeToken)
	logs := testutil.NewLogCapture(t)
	return New(client, prompter, logs.Logger, opts...), logs
}

func testOptions(srv *testutil.FakeServer, studyDir string) Options {
	return Options{
		Study:        studyDir,
		ChunkSizeMB:  1,
		ChunkRetries: 2,
		IPServiceURL: srv.IPServiceURL(),
	}
}

func countRequests(srv *testutil.FakeServer, route string) int {
	n := 0
	for _, r := range srv.Requests() {
		if r == route {
			n++
		}
	}
	return n
}

func TestRunNewStudy(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	progress := &recordingProgress{}
	u, logs := newTestUploader(t, srv, &scriptedPrompter{}, WithProgress(progress))

	b := testutil.NewStudy(t, t.TempDir(), "S1").
		Dataset("D1", "D1_R1.fastq.gz", "D1_R2.fastq.gz").
		Dataset("D2", "D2.fastq.gz").
		Pedigree(
			"#family\tindividual\tfather\tmother\tsex\tage\tbirthplace\thpo",
			"F1\tD1\tD2\t-\tM\t10\tItaly\tHP:0000001",
			"F1\tD2\t-\t-\tF\t40\t-\t-",
		).
		Technical("T1\t01/01/2020\tIllumina\tkit")

	require.NoError(t, u.Run(logs.Ctx, testOptions(srv, b.Dir)))

	st, ok := srv.Study("S1")
	require.True(t, ok)
	require.Len(t, st.Datasets, 2)
	require.Len(t, st.Phenotypes, 2)
	require.Len(t, st.Technicals, 1)

	d1, _ := st.Phenotype("D1")
	d2, _ := st.Phenotype("D2")
	assert.Equal(t, "male", d1.Sex)
	assert.Equal(t, "10", d1.Age)
	assert.Equal(t, "1", d1.BirthPlace)
	assert.JSONEq(t, `["HP:0000001"]`, d1.HPO)
	assert.Equal(t, [][2]string{{d1.UUID, d2.UUID}}, srv.Relationships())
	assert.Equal(t, "2020-01-01", st.Technicals[0].SequencingDate)

	for _, name := range []string{"D1", "D2"} {
		d, ok := st.Dataset(name)
		require.True(t, ok, name)
		assert.Equal(t, api.StatusUploadCompleted, d.Status)
		assert.Equal(t, st.Technicals[0].UUID, d.Technical)
		p, _ := st.Phenotype(name)
		assert.Equal(t, p.UUID, d.Phenotype)
		for _, f := range d.Files {
			assert.Equal(t, testutil.FastqContent, string(f.Data))
			assert.Equal(t, "gzip", f.MimeType)
			assert.Equal(t, "uploaded", f.Status)
		}
	}
	d, _ := st.Dataset("D1")
	assert.Len(t, d.Files, 2)

	assert.Equal(t, []string{"D1_R1.fastq.gz", "D1_R2.fastq.gz", "D2.fastq.gz"}, progress.started)
	assert.Equal(t, progress.total, progress.sent)
	assert.Equal(t, 3, progress.done)

	pretty := logs.Pretty.String()
	assert.Contains(t, pretty, "Your IP address is "+testutil.FakeIP)
	assert.Contains(t, pretty, "Successfully created study S1")
	assert.Contains(t, pretty, "Successfully set UPLOAD COMPLETED to D2")
	assert.Contains(t, pretty, "Upload successfully completed in 1 second")
}

func TestRunUsesRecordedIP(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	u, logs := newTestUploader(t, srv, &scriptedPrompter{})
	b := testutil.NewStudy(t, t.TempDir(), "S1").Dataset("D1", "a.fastq.gz")

	opts := testOptions(srv, b.Dir)
	opts.PublicIP = testutil.FakeIP
	require.NoError(t, u.Run(logs.Ctx, opts))

	assert.Zero(t, countRequests(srv, "GET /ip"))
	assert.NotContains(t, logs.Pretty.String(), "Your IP address")
}

func TestRunSkipsIdenticalExistingStudy(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	studyUUID := srv.AddStudy("S1")
	srv.AddDataset(studyUUID, "D1", api.StatusUploadCompleted, nil)

	prompter := &scriptedPrompter{}
	u, logs := newTestUploader(t, srv, prompter)
	b := testutil.NewStudy(t, t.TempDir(), "S1").Dataset("D1", "a.fastq.gz")

	require.NoError(t, u.Run(logs.Ctx, testOptions(srv, b.Dir)))

	assert.Empty(t, prompter.messages)
	assert.Contains(t, logs.Pretty.String(), "Study S1 already exists: skipped")
	assert.Zero(t, countRequests(srv, "POST /api/study/{study}/datasets"))
}

func TestRunAbortsWhenDeclined(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	studyUUID := srv.AddStudy("S1")
	srv.AddDataset(studyUUID, "D1", api.StatusUploadCompleted, nil)

	prompter := &scriptedPrompter{answers: []bool{false}}
	u, logs := newTestUploader(t, srv, prompter)
	b := testutil.NewStudy(t, t.TempDir(), "S1").
		Dataset("D1", "a.fastq.gz").
		Dataset("D2", "b.fastq.gz")

	err := u.Run(logs.Ctx, testOptions(srv, b.Dir))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAborted, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Upload of already existing Study S1 has been aborted by the user")
	assert.Contains(t, logs.Pretty.String(), "Study S1 already exists but its datasets differ")
	require.Len(t, prompter.messages, 1)
}

func TestRunUpdatesExistingStudy(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	studyUUID := srv.AddStudy("S1")
	srv.AddDataset(studyUUID, "D1", api.StatusUploadCompleted, map[string]string{"D1.fastq.gz": "uploaded"})
	existingPhenotype := srv.AddPhenotype(studyUUID, "D1")
	existingTechnical := srv.AddTechnical(studyUUID, "T1")

	prompter := &scriptedPrompter{answers: []bool{true, true}}
	u, logs := newTestUploader(t, srv, prompter)
	b := testutil.NewStudy(t, t.TempDir(), "S1").
		Dataset("D1", "D1.fastq.gz").
		Dataset("D2", "D2.fastq.gz").
		Pedigree("F1\tD1\t-\t-\tM", "F1\tD2\tD1\t-\tF").
		Technical("#name\tdate\tplatform\tkit\tdataset", "T1\t01/01/2020\tIllumina\tkit\tD1,D2")

	require.NoError(t, u.Run(logs.Ctx, testOptions(srv, b.Dir)))

	require.Len(t, prompter.messages, 2)
	assert.Contains(t, prompter.messages[1], "The following datasets are missing from the Study S1 and will be uploaded: [D2]")
	assert.Contains(t, prompter.messages[1], "The following phenotypes are missing from the Study S1 and will be uploaded: [D2]")
	assert.Contains(t, prompter.messages[1], "The following technicals are missing from the Study S1 and will be uploaded: []")

	st, _ := srv.Study("S1")
	require.Len(t, st.Datasets, 2)
	d2, ok := st.Dataset("D2")
	require.True(t, ok)
	p2, ok := st.Phenotype("D2")
	require.True(t, ok)
	assert.Equal(t, p2.UUID, d2.Phenotype)
	assert.Equal(t, existingTechnical, d2.Technical)
	assert.Equal(t, api.StatusUploadCompleted, d2.Status)
	assert.Equal(t, [][2]string{{p2.UUID, existingPhenotype}}, srv.Relationships())

	assert.Zero(t, countRequests(srv, "POST /api/study"))
	assert.Zero(t, countRequests(srv, "POST /api/study/{study}/technicals"))
	assert.Len(t, st.Phenotypes, 2)

	pretty := logs.Pretty.String()
	assert.Contains(t, pretty, "Dataset D1 already existing: it will not be updated")
	assert.Contains(t, pretty, "Phenotype D1 already existing: it will not be updated")
	assert.Contains(t, pretty, "Technical T1 already existing: it will not be updated")
}

func TestRunStopsOnServerError(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	srv.SetStatus("POST /api/study", 500)
	u, logs := newTestUploader(t, srv, &scriptedPrompter{})
	b := testutil.NewStudy(t, t.TempDir(), "S1").Dataset("D1", "a.fastq.gz")

	err := u.Run(logs.Ctx, testOptions(srv, b.Dir))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceCreation, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Study creation failed")
}

func TestRunUnknownBirthPlace(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	u, logs := newTestUploader(t, srv, &scriptedPrompter{})
	b := testutil.NewStudy(t, t.TempDir(), "S1").
		Dataset("D1", "a.fastq.gz").
		Pedigree("#family\tindividual\tfather\tmother\tsex\tage\tbirthplace", "F1\tD1\t-\t-\tM\t-\tAtlantis")

	err := u.Run(logs.Ctx, testOptions(srv, b.Dir))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGeodata, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Error for phenotype D1: Atlantis birth place not found")
}

func TestRunSkipsInvalidStudies(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	u, logs := newTestUploader(t, srv, &scriptedPrompter{})

	root := t.TempDir()
	testutil.NewStudy(t, root, "bad").Dataset("D1", "a.fastq.gz").Pedigree("F1\tD1\t-\t-\tunknown")
	testutil.NewStudy(t, root, "good").Dataset("D1", "a.fastq.gz")

	opts := testOptions(srv, "")
	opts.StudiesDir = root
	require.NoError(t, u.Run(logs.Ctx, opts))

	_, ok := srv.Study("bad")
	assert.False(t, ok)
	_, ok = srv.Study("good")
	assert.True(t, ok)
	assert.Contains(t, logs.Pretty.String(), "Upload of bad skipped")
}

func TestCollectStudies(t *testing.T) {
	root := t.TempDir()
	testutil.NewStudy(t, root, "S1")
	testutil.NewStudy(t, root, "S2")
	testutil.WriteFile(t, filepath.Join(root, "notes.txt"), "x")

	studies, err := CollectStudies(Options{StudiesDir: root})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "S1"), filepath.Join(root, "S2")}, studies)

	studies, err = CollectStudies(Options{Study: filepath.Join(root, "S1"), StudiesDir: root})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "S1")}, studies)

	_, err = CollectStudies(Options{Study: filepath.Join(root, "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The specified study does not exists")

	_, err = CollectStudies(Options{StudiesDir: filepath.Join(root, "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The specified directory containing the studies directories does not exists")

	empty := t.TempDir()
	_, err = CollectStudies(Options{StudiesDir: empty})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No studies found in "+empty)
}

func TestOptionsValidate(t *testing.T) {
	opts := Options{Study: "s"}
	require.NoError(t, opts.Validate())
	assert.Equal(t, DefaultChunkSizeMB, opts.ChunkSizeMB)
	assert.Equal(t, api.DefaultIPService, opts.IPServiceURL)

	tests := []struct {
		name string
		opts Options
		msg  string
	}{
		{"no study", Options{}, "A path to a study or to a directory of studies has to be specified"},
		{"chunk too large", Options{Study: "s", ChunkSizeMB: 17}, "The specified chunk size is too large: 17"},
		{"negative chunk", Options{Study: "s", ChunkSizeMB: -1}, "The specified chunk size is invalid: -1"},
		{"negative retries", Options{Study: "s", ChunkRetries: -1}, "The specified chunk retries are invalid: -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func newTree(name string, datasets ...string) *study.Tree {
	tree := &study.Tree{Name: name, Datasets: make(map[string][]string)}
	for _, d := range datasets {
		tree.Datasets[d] = []string{filepath.Join("/studies", name, d, d+".fastq.gz")}
		tree.DatasetOrder = append(tree.DatasetOrder, d)
	}
	return tree
}

func TestUpdateTreeErrors(t *testing.T) {
	tests := []struct {
		name    string
		tree    func() *study.Tree
		code    errors.ErrorCode
		message string
	}{
		{
			name:    "study not on the server",
			tree:    func() *study.Tree { return newTree("S9", "D1") },
			code:    errors.ErrCodeRetrieveExistingStudy,
			message: "Study S9 is supposed to be already existing but it can't be found",
		},
		{
			name: "new phenotype of an existing dataset",
			tree: func() *study.Tree {
				tree := newTree("S1", "D1", "D2")
				tree.Phenotypes = []study.Phenotype{{Name: "D1", Sex: "male"}}
				return tree
			},
			code:    errors.ErrCodePhenotypeName,
			message: "Phenotype D1 has to be created but is not related to any dataset already to be uploaded",
		},
		{
			name: "new technical of existing datasets only",
			tree: func() *study.Tree {
				tree := newTree("S1", "D1", "D2")
				tree.Technicals = []study.Technical{
					{Name: "T1", Platform: "Illumina", Datasets: []string{"D2"}},
					{Name: "T2", Platform: "Illumina", Datasets: []string{"D1"}},
				}
				return tree
			},
			code:    errors.ErrCodeTechnicalAssociation,
			message: "Technical T2 has to be created but is not related to any dataset already to be uploaded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewFakeServer(t)
			studyUUID := srv.AddStudy("S1")
			srv.AddDataset(studyUUID, "D1", api.StatusUploadCompleted, nil)
			u, logs := newTestUploader(t, srv, &scriptedPrompter{})

			updated, err := u.UpdateTree(logs.Ctx, tt.tree())
			require.Error(t, err)
			assert.Nil(t, updated)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestUpdateTreeReportsIncompleteDataset(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	studyUUID := srv.AddStudy("S1")
	srv.AddDataset(studyUUID, "D1", "", map[string]string{
		"D1_R1.fastq.gz": api.FileStatusUploaded,
		"D1_R2.fastq.gz": "importing",
	})
	u, logs := newTestUploader(t, srv, &scriptedPrompter{})

	tree := newTree("S1", "D1", "D2")
	tree.Datasets["D1"] = []string{"/studies/S1/D1/D1_R1.fastq.gz", "/studies/S1/D1/D1_R2.fastq.gz", "/studies/S1/D1/D1_R3.fastq.gz"}

	updated, err := u.UpdateTree(logs.Ctx, tree)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, []string{"D2"}, updated.DatasetNames())
	assert.Equal(t, 1, countRequests(srv, "GET /api/dataset/{dataset}/files"))

	pretty := logs.Pretty.String()
	assert.Contains(t, pretty, "Dataset D1 is not checked as ready to be analyzed")
	assert.NotContains(t, pretty, "File D1_R1.fastq.gz in Dataset D1")
	assert.Contains(t, pretty, "File D1_R2.fastq.gz in Dataset D1 wasn't correctly uploaded: Please check")
	assert.Contains(t, pretty, "File D1_R3.fastq.gz in Dataset D1 wasn't correctly uploaded: Please check")
	assert.Contains(t, pretty, "Dataset D1 already existing: it will not be updated")
}

func TestUpdateTreeWithoutRemoteDatasets(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	studyUUID := srv.AddStudy("S1")
	existingTechnical := srv.AddTechnical(studyUUID, "T1")
	u, logs := newTestUploader(t, srv, &scriptedPrompter{})

	tree := newTree("S1", "D1", "D2")
	tree.Technicals = []study.Technical{{Name: "T1", Platform: "Illumina"}}

	updated, err := u.UpdateTree(logs.Ctx, tree)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, studyUUID, updated.StudyUUID)
	assert.Equal(t, []string{"D1", "D2"}, updated.DatasetNames())
	require.Len(t, updated.Technicals, 1)
	assert.Equal(t, existingTechnical, updated.Technicals[0].UUID)
	assert.Empty(t, updated.PendingTechnicals())
	assert.NotContains(t, logs.Pretty.String(), "skipped")
}
