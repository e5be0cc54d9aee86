package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/grovetools/nig-upload/cli"
	"github.com/grovetools/nig-upload/config"
	"github.com/grovetools/nig-upload/errors"
	"github.com/grovetools/nig-upload/logging"
	"github.com/grovetools/nig-upload/pkg/api"
	"github.com/grovetools/nig-upload/pkg/profiling"
	"github.com/grovetools/nig-upload/pkg/upload"
	"github.com/grovetools/nig-upload/util/pathutil"
)

type uploadFlags struct {
	study        string
	studies      string
	url          string
	username     string
	password     string
	certfile     string
	certPassword string
	totp         string
	chunkSize    int
	chunkRetries int
	ipService    string
	yes          bool
}

// uploadRunner holds what an upload run needs besides its flags.
// Nil clients select the default transports.
type uploadRunner struct {
	httpClient *http.Client
	ipClient   *http.Client
	prompter   *cli.Prompter
	progress   bool
}

// NewUploadCmd creates the upload command.
func NewUploadCmd() *cobra.Command {
	return newUploadCmd(&uploadRunner{
		progress: isatty.IsTerminal(os.Stderr.Fd()),
	})
}

func newUploadCmd(r *uploadRunner) *cobra.Command {
	f := &uploadFlags{}

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload one or more studies to a NIG server",
		Long: `Validate local study directories and upload them to a NIG server.

A study is a directory of datasets, each holding one or two .fastq.gz files,
with optional pedigree and technical metadata files. Studies that already
exist on the server are completed with the datasets still missing, after
confirmation.

Missing credentials are asked interactively. Server URL, username,
certificate path and chunk settings can also come from nig-upload.yml.`,
		Example: `# upload one study
nig-upload upload --study ./studies/S1 --url nig.example.org --certfile ~/nig.p12

# upload every study of a directory without confirmations
nig-upload upload --studies ./studies --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.run(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.study, "study", "", "Path to the study")
	flags.StringVar(&f.studies, "studies", "", "Path to the main folder containing the studies directories")
	flags.StringVar(&f.url, "url", "", "Server URL")
	flags.StringVar(&f.username, "username", "", "Your username")
	flags.StringVar(&f.password, "pwd", "", "Your password")
	flags.StringVar(&f.certfile, "certfile", "", "Path of the certificate file")
	flags.StringVar(&f.certPassword, "certpwd", "", "Password of the certificate")
	flags.StringVar(&f.totp, "totp", "", "2FA TOTP code")
	flags.IntVar(&f.chunkSize, "chunk-size", config.DefaultChunkSize, "Upload chunk size in MB")
	flags.IntVar(&f.chunkRetries, "chunk-retries", config.DefaultChunkRetries, "Retries of a chunk after a network error")
	flags.StringVar(&f.ipService, "ip-service", config.DefaultIPService, "Service echoing your public IP address")
	flags.BoolVarP(&f.yes, "yes", "y", false, "Answer yes to every confirmation")

	return cmd
}

// applyConfig fills the flags left unset from cfg.
func (f *uploadFlags) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	if f.url == "" {
		f.url = cfg.URL
	}
	if f.username == "" {
		f.username = cfg.Username
	}
	if f.certfile == "" {
		f.certfile = cfg.Certfile
	}
	if !cmd.Flags().Changed("chunk-size") {
		f.chunkSize = cfg.ChunkSize
	}
	if !cmd.Flags().Changed("chunk-retries") {
		f.chunkRetries = cfg.Retries()
	}
	if !cmd.Flags().Changed("ip-service") {
		f.ipService = cfg.IPService
	}
}

func expandPaths(paths ...*string) error {
	for _, p := range paths {
		expanded, err := pathutil.Expand(*p)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid path").WithDetail("path", *p)
		}
		*p = expanded
	}
	return nil
}

func (r *uploadRunner) run(cmd *cobra.Command, f *uploadFlags) error {
	ctx := logging.WithWriter(cmd.Context(), cmd.OutOrStdout())
	ulog := cli.GetLogger(cmd, "upload")

	cfg, err := cli.LoadConfig(cmd, cli.NewLogger(cli.GetOptions(cmd).Verbose))
	if err != nil {
		return err
	}
	f.applyConfig(cmd, cfg)

	if f.study == "" && f.studies == "" {
		return errors.InvalidInput("A path to a study or to a directory of studies has to be specified")
	}

	prompter := r.prompter
	if prompter == nil {
		prompter = cli.NewPrompter(f.yes)
	}
	if err := prompter.Fill(ctx,
		cli.PromptField{Title: "Server URL", Value: &f.url},
		cli.PromptField{Title: "Your username", Value: &f.username},
		cli.PromptField{Title: "Your password", Value: &f.password, Secret: true},
		cli.PromptField{Title: "Path of your certificate", Value: &f.certfile},
		cli.PromptField{Title: "Password of your certificate", Value: &f.certPassword, Secret: true},
		cli.PromptField{Title: "2FA TOTP", Value: &f.totp},
	); err != nil {
		return err
	}

	baseURL := api.NormalizeURL(f.url)

	if err := expandPaths(&f.study, &f.studies, &f.certfile); err != nil {
		return err
	}
	if _, err := os.Stat(f.certfile); err != nil {
		return errors.CertificateNotFound(f.certfile)
	}

	if f.chunkSize > upload.MaxChunkSizeMB {
		return errors.InvalidInput(fmt.Sprintf("The specified chunk size is too large: %d", f.chunkSize)).
			WithDetail("chunk_size", f.chunkSize)
	}
	if f.chunkSize <= 0 {
		return errors.InvalidInput(fmt.Sprintf("The specified chunk size is invalid: %d", f.chunkSize)).
			WithDetail("chunk_size", f.chunkSize)
	}

	cert, err := api.LoadCertificate(f.certfile, f.certPassword)
	if err != nil {
		return err
	}

	opts := []api.Option{
		api.WithCertificate(cert),
		api.WithTimeout(cfg.TimeoutDuration()),
		api.WithRetry(cfg.Retry.MaxAttempts, cfg.Retry.WaitDuration()),
		api.WithLogger(logging.NewLogger("api")),
	}
	if r.httpClient != nil {
		opts = append(opts, api.WithHTTPClient(r.httpClient))
	}
	if r.ipClient != nil {
		opts = append(opts, api.WithIPClient(r.ipClient))
	}
	client := api.New(baseURL, opts...)

	login := profiling.Start("login")
	ip, err := client.PublicIP(ctx, f.ipService)
	if err != nil {
		return err
	}
	ulog.Success("Your IP address is %s", ip).Field("ip", ip).Log(ctx)

	token, err := client.Login(ctx, f.username, f.password, f.totp)
	login.Stop()
	if err != nil {
		return err
	}
	ulog.Success("Successfully logged in").Field("url", baseURL).Field("username", f.username).Log(ctx)

	uploader := upload.New(client.WithToken(token), prompter, ulog,
		upload.WithProgress(cli.NewProgressBar(cmd.ErrOrStderr(), r.progress)))

	return uploader.Run(ctx, upload.Options{
		Study:        f.study,
		StudiesDir:   f.studies,
		ChunkSizeMB:  f.chunkSize,
		ChunkRetries: f.chunkRetries,
		IPServiceURL: f.ipService,
		PublicIP:     ip,
	})
}
