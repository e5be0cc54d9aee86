package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/testutil"
)

func TestLogin(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv)
	ctx := context.Background()

	token, err := c.Login(ctx, testutil.FakeUsername, testutil.FakePassword, testutil.FakeTOTP)
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeToken, token)

	_, err = c.Login(ctx, testutil.FakeUsername, "wrong", testutil.FakeTOTP)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeLoginFailed, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Code: 401")
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestRequestsRequireToken(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv)

	_, err := c.ListStudies(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeResourceRetrieving, errors.GetCode(err))

	nigErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, nigErr.Details["status"])
}

func TestStudyAndDatasetLifecycle(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv).WithToken(testutil.FakeToken)
	ctx := context.Background()

	studyUUID, err := c.CreateStudy(ctx, "S1")
	require.NoError(t, err)

	studies, err := c.ListStudies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Study{{Name: "S1", UUID: studyUUID}}, studies)

	datasetUUID, err := c.CreateDataset(ctx, studyUUID, "D1")
	require.NoError(t, err)

	datasets, err := c.ListDatasets(ctx, studyUUID)
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "D1", datasets[0].Name)
	assert.Empty(t, datasets[0].Status)

	phenotypeUUID, err := c.CreatePhenotype(ctx, studyUUID, PhenotypeInput{Name: "D1", Sex: "male"})
	require.NoError(t, err)
	technicalUUID, err := c.CreateTechnical(ctx, studyUUID, TechnicalInput{
		Name:           "T1",
		SequencingDate: "2021-03-01",
		Platform:       "Illumina",
		EnrichmentKit:  "kit",
	})
	require.NoError(t, err)

	require.NoError(t, c.AssignPhenotype(ctx, datasetUUID, phenotypeUUID))
	require.NoError(t, c.AssignTechnical(ctx, datasetUUID, technicalUUID))
	require.NoError(t, c.SetDatasetStatus(ctx, datasetUUID, StatusUploadCompleted))

	st, ok := srv.Study("S1")
	require.True(t, ok)
	d, ok := st.Dataset("D1")
	require.True(t, ok)
	assert.Equal(t, phenotypeUUID, d.Phenotype)
	assert.Equal(t, technicalUUID, d.Technical)
	assert.Equal(t, StatusUploadCompleted, d.Status)
	assert.Equal(t, "Illumina", st.Technicals[0].Platform)
	assert.Equal(t, "2021-03-01", st.Technicals[0].SequencingDate)

	phenotypes, err := c.ListPhenotypes(ctx, studyUUID)
	require.NoError(t, err)
	assert.Equal(t, []Resource{{Name: "D1", UUID: phenotypeUUID}}, phenotypes)

	technicals, err := c.ListTechnicals(ctx, studyUUID)
	require.NoError(t, err)
	assert.Equal(t, []Resource{{Name: "T1", UUID: technicalUUID}}, technicals)
}

func TestCreatePhenotypeForm(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv).WithToken(testutil.FakeToken)
	ctx := context.Background()
	studyUUID := srv.AddStudy("S1")

	age := 42
	_, err := c.CreatePhenotype(ctx, studyUUID, PhenotypeInput{
		Name:       "D1",
		Sex:        "female",
		Age:        &age,
		BirthPlace: "1",
		HPO:        []string{"HP:0000001", "HP:0000002"},
	})
	require.NoError(t, err)
	_, err = c.CreatePhenotype(ctx, studyUUID, PhenotypeInput{Name: "D2", Sex: "male"})
	require.NoError(t, err)

	st, _ := srv.Study("S1")
	p, ok := st.Phenotype("D1")
	require.True(t, ok)
	assert.Equal(t, "female", p.Sex)
	assert.Equal(t, "42", p.Age)
	assert.Equal(t, "1", p.BirthPlace)
	assert.JSONEq(t, `["HP:0000001","HP:0000002"]`, p.HPO)

	p, ok = st.Phenotype("D2")
	require.True(t, ok)
	assert.Empty(t, p.Age)
	assert.Empty(t, p.BirthPlace)
	assert.Empty(t, p.HPO)
}

func TestBirthPlaces(t *testing.T) {
	tests := []struct {
		name   string
		schema []map[string]any
		want   map[string]string
		errMsg string
	}{
		{
			name: "default schema with mixed option shapes",
			want: map[string]string{"1": "Italy", "2": "France"},
		},
		{
			name: "unrelated fields with lists and numbers",
			schema: []map[string]any{
				{"key": "sex", "options": map[string]string{"male": "male"}},
				{"key": "hpo", "options": []any{}},
				{"key": "age", "options": map[string]int{"min": 0}},
				{"key": "birth_place", "options": map[string]string{"1": "Rome"}},
			},
			want: map[string]string{"1": "Rome"},
		},
		{
			name:   "no birth place field",
			schema: []map[string]any{{"key": "name"}, {"key": "hpo", "options": []any{}}},
			want:   map[string]string{},
		},
		{
			name:   "null birth place options",
			schema: []map[string]any{{"key": "birth_place", "options": nil}},
			want:   map[string]string{},
		},
		{
			name:   "malformed birth place options",
			schema: []map[string]any{{"key": "birth_place", "options": []string{"Rome"}}},
			errMsg: "Can't retrieve geodata list: malformed birth place options",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewFakeServer(t)
			if tt.schema != nil {
				srv.SetSchema(tt.schema...)
			}
			c := newTestClient(srv).WithToken(testutil.FakeToken)
			studyUUID := srv.AddStudy("S1")

			places, err := c.BirthPlaces(context.Background(), studyUUID)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeResourceRetrieving, errors.GetCode(err))
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, places)
		})
	}
}

func TestCreateRelationship(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv).WithToken(testutil.FakeToken)
	ctx := context.Background()
	studyUUID := srv.AddStudy("S1")
	child := srv.AddPhenotype(studyUUID, "child")
	father := srv.AddPhenotype(studyUUID, "father")

	require.NoError(t, c.CreateRelationship(ctx, child, father))
	assert.Equal(t, [][2]string{{child, father}}, srv.Relationships())

	err := c.CreateRelationship(ctx, child, "unknown")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRelationship, errors.GetCode(err))
}

func TestEndpointErrorCodes(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv).WithToken(testutil.FakeToken)
	ctx := context.Background()
	studyUUID := srv.AddStudy("S1")
	datasetUUID := srv.AddDataset(studyUUID, "D1", "", nil)

	tests := []struct {
		route string
		call  func() error
		code  errors.ErrorCode
	}{
		{"POST /api/study", func() error { _, err := c.CreateStudy(ctx, "S2"); return err }, errors.ErrCodeResourceCreation},
		{"GET /api/study/{study}/datasets", func() error { _, err := c.ListDatasets(ctx, studyUUID); return err }, errors.ErrCodeResourceRetrieving},
		{"GET /api/dataset/{dataset}/files", func() error { _, err := c.ListDatasetFiles(ctx, datasetUUID); return err }, errors.ErrCodeResourceRetrieving},
		{"PUT /api/dataset/{dataset}", func() error { return c.AssignPhenotype(ctx, datasetUUID, "p") }, errors.ErrCodeResourceAssignation},
		{"PATCH /api/dataset/{dataset}", func() error { return c.SetDatasetStatus(ctx, datasetUUID, StatusUploadCompleted) }, errors.ErrCodeResourceModification},
		{"POST /api/dataset/{dataset}/files/upload", func() error { return c.InitUpload(ctx, datasetUUID, FileInfo{Name: "a.fastq.gz", Size: 1}) }, errors.ErrCodeUploadInit},
		{"PUT /api/dataset/{dataset}/files/upload/{name}", func() error {
			_, err := c.UploadChunk(ctx, datasetUUID, "a.fastq.gz", "bytes 0-1/1", []byte("a"))
			return err
		}, errors.ErrCodeUpload},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			srv.SetStatus(tt.route, http.StatusInternalServerError)
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			assert.Contains(t, err.Error(), "Code: 500")
		})
	}
}

func TestChunkedUpload(t *testing.T) {
	srv := testutil.NewFakeServer(t)
	c := newTestClient(srv).WithToken(testutil.FakeToken)
	ctx := context.Background()
	studyUUID := srv.AddStudy("S1")
	datasetUUID := srv.AddDataset(studyUUID, "D1", "", nil)

	require.NoError(t, c.InitUpload(ctx, datasetUUID, FileInfo{
		Name:         "a.fastq.gz",
		MimeType:     "gzip",
		Size:         6,
		LastModified: 1700000000,
	}))

	done, err := c.UploadChunk(ctx, datasetUUID, "a.fastq.gz", "bytes 0-4/6", []byte("abcd"))
	require.NoError(t, err)
	assert.False(t, done)

	done, err = c.UploadChunk(ctx, datasetUUID, "a.fastq.gz", "bytes 4-6/6", []byte("ef"))
	require.NoError(t, err)
	assert.True(t, done)

	files, err := c.ListDatasetFiles(ctx, datasetUUID)
	require.NoError(t, err)
	assert.Equal(t, []File{{Name: "a.fastq.gz", Status: FileStatusUploaded}}, files)

	st, _ := srv.Study("S1")
	d, _ := st.Dataset("D1")
	f, ok := d.File("a.fastq.gz")
	require.True(t, ok)
	assert.Equal(t, "abcdef", string(f.Data))
	assert.Equal(t, "gzip", f.MimeType)
	assert.Equal(t, "1700000000", f.LastModified)
}
