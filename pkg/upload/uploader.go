package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/logging"
	"github.com/grovetools/nig-upload/pkg/api"
	"github.com/grovetools/nig-upload/pkg/profiling"
	"github.com/grovetools/nig-upload/pkg/study"
)

const (
	// DefaultChunkSizeMB is the default and largest accepted chunk size.
	DefaultChunkSizeMB = 16
	// MaxChunkSizeMB is the largest chunk the server accepts.
	MaxChunkSizeMB = 16
	// DefaultChunkRetries bounds the retries of one chunk after a network failure.
	DefaultChunkRetries = 5
)

// API is the part of the NIG API an upload run needs. *api.Client implements it.
type API interface {
	PublicIP(ctx context.Context, serviceURL string) (string, error)
	ListStudies(ctx context.Context) ([]api.Study, error)
	CreateStudy(ctx context.Context, name string) (string, error)
	ListDatasets(ctx context.Context, studyUUID string) ([]api.Dataset, error)
	ListDatasetFiles(ctx context.Context, datasetUUID string) ([]api.File, error)
	ListPhenotypes(ctx context.Context, studyUUID string) ([]api.Resource, error)
	ListTechnicals(ctx context.Context, studyUUID string) ([]api.Resource, error)
	BirthPlaces(ctx context.Context, studyUUID string) (map[string]string, error)
	CreatePhenotype(ctx context.Context, studyUUID string, p api.PhenotypeInput) (string, error)
	CreateRelationship(ctx context.Context, childUUID, parentUUID string) error
	CreateTechnical(ctx context.Context, studyUUID string, t api.TechnicalInput) (string, error)
	CreateDataset(ctx context.Context, studyUUID, name string) (string, error)
	AssignPhenotype(ctx context.Context, datasetUUID, phenotypeUUID string) error
	AssignTechnical(ctx context.Context, datasetUUID, technicalUUID string) error
	SetDatasetStatus(ctx context.Context, datasetUUID, status string) error
	InitUpload(ctx context.Context, datasetUUID string, info api.FileInfo) error
	UploadChunk(ctx context.Context, datasetUUID, filename, contentRange string, data []byte) (bool, error)
}

// Prompter asks the user for a yes/no answer.
type Prompter interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// Progress follows the bytes sent for one file.
type Progress interface {
	Start(name string, total int64)
	Add(n int64)
	Done()
}

// Options configure a run.
type Options struct {
	// Study is a single study directory.
	Study string
	// StudiesDir holds one study per sub-directory. Ignored when Study is set.
	StudiesDir string
	// ChunkSizeMB is the size of one upload block in MiB.
	ChunkSizeMB int
	// ChunkRetries bounds the retries of a chunk after a network error.
	ChunkRetries int
	// IPServiceURL echoes the public address of this host.
	IPServiceURL string
	// PublicIP is the address recorded before login. Queried when empty.
	PublicIP string
}

// Validate checks the options and applies defaults.
func (o *Options) Validate() error {
	if o.Study == "" && o.StudiesDir == "" {
		return errors.InvalidInput("A path to a study or to a directory of studies has to be specified")
	}
	if o.ChunkSizeMB == 0 {
		o.ChunkSizeMB = DefaultChunkSizeMB
	}
	if o.ChunkSizeMB > MaxChunkSizeMB {
		return errors.InvalidInput(fmt.Sprintf("The specified chunk size is too large: %d", o.ChunkSizeMB)).
			WithDetail("chunk_size", o.ChunkSizeMB)
	}
	if o.ChunkSizeMB < 0 {
		return errors.InvalidInput(fmt.Sprintf("The specified chunk size is invalid: %d", o.ChunkSizeMB)).
			WithDetail("chunk_size", o.ChunkSizeMB)
	}
	if o.ChunkRetries < 0 {
		return errors.InvalidInput(fmt.Sprintf("The specified chunk retries are invalid: %d", o.ChunkRetries))
	}
	if o.IPServiceURL == "" {
		o.IPServiceURL = api.DefaultIPService
	}
	return nil
}

// Uploader runs uploads against one server.
type Uploader struct {
	client   API
	prompter Prompter
	logger   *logging.UnifiedLogger
	progress Progress
	opts     Options
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithProgress reports file transfers to p.
func WithProgress(p Progress) Option {
	return func(u *Uploader) {
		u.progress = p
	}
}

// New creates an uploader. client must be authenticated.
func New(client API, prompter Prompter, logger *logging.UnifiedLogger, opts ...Option) *Uploader {
	u := &Uploader{
		client:   client,
		prompter: prompter,
		logger:   logger,
		progress: nopProgress{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CollectStudies returns the study directories selected by opts.
func CollectStudies(opts Options) ([]string, error) {
	if opts.Study != "" {
		if _, err := os.Stat(opts.Study); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidInput,
				fmt.Sprintf("The specified study does not exists: %s", opts.Study)).
				WithDetail("study", opts.Study)
		}
		return []string{opts.Study}, nil
	}

	entries, err := os.ReadDir(opts.StudiesDir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput,
			fmt.Sprintf("The specified directory containing the studies directories does not exists: %s", opts.StudiesDir)).
			WithDetail("studies", opts.StudiesDir)
	}
	var studies []string
	for _, entry := range entries {
		if entry.IsDir() {
			studies = append(studies, filepath.Join(opts.StudiesDir, entry.Name()))
		}
	}
	if len(studies) == 0 {
		return nil, errors.InvalidInput(fmt.Sprintf("No studies found in %s", opts.StudiesDir)).
			WithDetail("studies", opts.StudiesDir)
	}
	return studies, nil
}

// Run uploads every study selected by opts.
func (u *Uploader) Run(ctx context.Context, opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	u.opts = opts

	studies, err := CollectStudies(opts)
	if err != nil {
		return err
	}

	if u.opts.PublicIP == "" {
		ip, err := u.client.PublicIP(ctx, u.opts.IPServiceURL)
		if err != nil {
			return err
		}
		u.opts.PublicIP = ip
		u.logger.Success("Your IP address is %s", ip).Field("ip", ip).Log(ctx)
	}

	remote, err := u.client.ListStudies(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]string, len(remote))
	for _, s := range remote {
		existing[s.Name] = s.UUID
	}

	for _, dir := range studies {
		if err := u.runStudy(ctx, dir, existing); err != nil {
			return err
		}
	}
	return nil
}

// runStudy validates one study directory and uploads what the server misses.
func (u *Uploader) runStudy(ctx context.Context, dir string, existing map[string]string) error {
	name := filepath.Base(dir)
	defer profiling.Start("study %s", name).Stop()

	uuid, isExisting := existing[name]
	if isExisting {
		proceed, err := u.checkExisting(ctx, dir, uuid)
		if err != nil {
			return err
		}
		if !proceed {
			return nil
		}
	}

	tree, err := study.Validate(ctx, dir, u.logger)
	if err != nil {
		return err
	}
	if tree == nil {
		return nil
	}

	if isExisting {
		tree, err = u.UpdateTree(ctx, tree)
		if err != nil {
			return err
		}
		if tree == nil {
			return nil
		}
		ok, err := u.prompter.Confirm(ctx, updateSummary(tree))
		if err != nil {
			return err
		}
		if !ok {
			return errors.Aborted(name)
		}
	}

	return u.UploadStudy(ctx, tree)
}

// checkExisting decides whether an already existing study is uploaded again.
func (u *Uploader) checkExisting(ctx context.Context, dir, uuid string) (bool, error) {
	name := filepath.Base(dir)

	local, err := localDatasets(dir)
	if err != nil {
		return false, err
	}
	datasets, err := u.client.ListDatasets(ctx, uuid)
	if err != nil {
		return false, err
	}
	remote := make([]string, 0, len(datasets))
	for _, d := range datasets {
		remote = append(remote, d.Name)
	}

	if sameSet(local, remote) {
		u.logger.Warn("Study %s already exists: skipped", name).Field("study", name).Log(ctx)
		return false, nil
	}

	u.logger.Warn("Study %s already exists but its datasets differ from the already uploaded", name).
		Field("study", name).Log(ctx)
	ok, err := u.prompter.Confirm(ctx, "Continue the upload anyway? Note that the already existing datasets, "+
		"technicals and samples of this study will not be updated")
	if err != nil {
		return false, err
	}
	if !ok {
		return false, errors.Aborted(name)
	}
	return true, nil
}

func updateSummary(tree *study.Tree) string {
	return fmt.Sprintf("The following datasets are missing from the Study %s and will be uploaded: %v. "+
		"The following phenotypes are missing from the Study %s and will be uploaded: %v. "+
		"The following technicals are missing from the Study %s and will be uploaded: %v. "+
		"Proceed with the uploading?",
		tree.Name, tree.DatasetNames(),
		tree.Name, tree.PendingPhenotypes(),
		tree.Name, tree.PendingTechnicals())
}

func localDatasets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read study directory").
			WithDetail("study", dir)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func sameSet(a, b []string) bool {
	set := func(list []string) []string {
		seen := make(map[string]bool, len(list))
		var out []string
		for _, v := range list {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
		sort.Strings(out)
		return out
	}
	sa, sb := set(a), set(b)
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Add(int64)           {}
func (nopProgress) Done()               {}
