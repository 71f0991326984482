package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/fundingdeploy/internal/app"
	"github.com/dmitrijs2005/fundingdeploy/internal/config"
	"github.com/dmitrijs2005/fundingdeploy/internal/deploy"
	"github.com/dmitrijs2005/fundingdeploy/internal/logging"
	"github.com/dmitrijs2005/fundingdeploy/internal/models"
	"github.com/dmitrijs2005/fundingdeploy/internal/ui"
	"github.com/spf13/cobra"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

type runner interface {
	TokenURIs(ctx context.Context) ([]string, error)
	Deploy(ctx context.Context) (*deploy.Result, error)
	History(ctx context.Context) (models.Run, []models.Deployment, error)
	Close() error
}

// newRunner is a seam for tests.
var newRunner = func(cfg *config.Config, logger logging.Logger) runner {
	return app.NewApp(cfg, logger)
}

type options struct {
	configPath string
	reportPath string

	cfg    *config.Config
	logger logging.Logger
}

// NewRootCommand builds the fundingdeploy command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}

	root := &cobra.Command{
		Use:   "fundingdeploy",
		Short: "Publish token metadata and deploy the funding NFT and DAO",
		Long: ui.StyleTitle.Render("fundingdeploy") + " deploys a governance NFT and the DAO bound to it.\n\n" +
			"With UPLOAD_TO_PINATA=true the images in IMAGES_DIR are pinned first and\n" +
			"their metadata URIs become the NFT's constructor argument.",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: o.load,
		RunE:              o.runDeploy,
	}
	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "JSON or YAML config file")
	root.Flags().StringVar(&o.reportPath, "report", "", "also write the JSON report to this file")

	root.AddCommand(
		&cobra.Command{
			Use:   "token-uris",
			Short: "Run only the upload pipeline and print the token URIs as JSON",
			Args:  cobra.NoArgs,
			RunE:  o.runTokenURIs,
		},
		&cobra.Command{
			Use:   "history",
			Short: "Show the last recorded run for the configured network",
			Args:  cobra.NoArgs,
			RunE:  o.runHistory,
		},
		&cobra.Command{
			Use:     "version",
			Short:   "Display version information",
			Aliases: []string{"v"},
			Args:    cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				w := cmd.OutOrStdout()
				fmt.Fprintln(w, ui.Field("Version", Version))
				fmt.Fprintln(w, ui.Field("Commit", GitCommit))
				fmt.Fprintln(w, ui.Field("Build Date", BuildDate))
			},
		},
	)
	return root
}

func (o *options) load(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = logging.New(cmd.ErrOrStderr(), logging.ParseLevel(cfg.LogLevel))
	return nil
}

func (o *options) withRunner(cmd *cobra.Command, fn func(r runner) error) error {
	r := newRunner(o.cfg, o.logger)
	defer func() {
		if err := r.Close(); err != nil {
			o.logger.Warn(cmd.Context(), "release resources", "error", err)
		}
	}()
	return fn(r)
}

func (o *options) runDeploy(cmd *cobra.Command, _ []string) error {
	if o.cfg.PrivateKey == "" && isTerminal(stdinFd()) {
		key, err := promptPrivateKey(cmd.ErrOrStderr())
		if err != nil {
			return fmt.Errorf("read private key: %w", err)
		}
		o.cfg.PrivateKey = key
	}

	return o.withRunner(cmd, func(r runner) error {
		res, err := r.Deploy(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.ErrOrStderr(), ui.DeploySummary(res))

		report := NewReport(res)
		if o.reportPath != "" {
			if err := saveReport(o.reportPath, report); err != nil {
				return fmt.Errorf("save report: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.FormatInfo("report written to "+o.reportPath))
		}
		return writeJSON(cmd.OutOrStdout(), report)
	})
}

func (o *options) runTokenURIs(cmd *cobra.Command, _ []string) error {
	return o.withRunner(cmd, func(r runner) error {
		uris, err := r.TokenURIs(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), uris)
	})
}

func (o *options) runHistory(cmd *cobra.Command, _ []string) error {
	return o.withRunner(cmd, func(r runner) error {
		run, deps, err := r.History(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.History(run, deps))
		return nil
	})
}

// Execute runs the command line with the process arguments. The error has
// already been printed to stderr when it is returned.
func Execute(ctx context.Context) error {
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, ui.FormatError(err.Error()))
	}
	return err
}
