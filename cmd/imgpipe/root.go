package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-pipeline/internal/codec"
	"github.com/ironsheep/image-pipeline/internal/config"
	"github.com/ironsheep/image-pipeline/internal/pipeline"
	"github.com/ironsheep/image-pipeline/internal/server"
)

// exitStatus carries a pipeline's exit status out of a command.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// app holds the streams the commands use.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfgFile string
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "imgpipe [options ...] file [ [options ...] file ...] [options ...] file",
		Short: "Run a command-line image pipeline",
		Long: `imgpipe applies a sequence of options to a list of images, the way a
shell pipeline applies commands to a stream:

  imgpipe -size 100x100 xc:red ( rose: -rotate -90 ) +append out.miff

Arguments that are not options are read as images and the last argument
names the output. "(" and ")" group images, "{" and "}" scope settings.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "configuration file (default $IMGPIPE_CONFIG or ~/.config/imgpipe/config.yaml)")

	root.AddCommand(a.runCmd(), a.scriptCmd(), a.serveCmd(), a.listCmd(), a.versionCmd())
	return root
}

// execute runs args. Arguments that do not start with a command name are
// a pipeline.
func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	if len(args) > 0 && !isCommand(root, args[0]) {
		args = append([]string{"run"}, args...)
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func isCommand(root *cobra.Command, arg string) bool {
	switch arg {
	case "help", "completion", "-h", "--help", "--version":
		return true
	}
	if strings.HasPrefix(arg, "--config") {
		return true
	}
	for _, c := range root.Commands() {
		if c.Name() == arg || c.HasAlias(arg) {
			return true
		}
	}
	return false
}

func (a *app) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "run [options ...] file ... output",
		Short:              "Run a pipeline given as arguments (the default command)",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd.Context(), args)
		},
	}
}

func (a *app) scriptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "script file",
		Short: "Run a pipeline script; \"-\" reads standard input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			c := a.newCLI(cmd.Context(), cfg)
			defer c.Close()
			c.ProcessScriptFile(args[0])
			return status(c)
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve pipelines over MCP on standard input and output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log := a.logger(cfg)
			log.Debugf("imgpipe MCP server %s (built %s, commit %s)", Version, BuildTime, GitCommit)
			srv := server.New(cfg, log, Version)
			if err := srv.Run(cmd.Context(), a.stdin, a.stdout); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list [category]",
		Short:     "List options, formats, colors or the keywords of a category",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: pipeline.Categories(),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := "list"
			if len(args) == 1 {
				category = args[0]
			}
			return pipeline.ListCategory(a.stdout, category)
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "imgpipe %s\n", Version)
			fmt.Fprintf(a.stdout, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
		},
	}
}

// runPipeline runs args with implicit reads and writes the final list to
// the last argument. "-list category" alone only lists.
func (a *app) runPipeline(ctx context.Context, args []string) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	c := a.newCLI(ctx, cfg)
	defer c.Close()

	switch {
	case len(args) == 2 && args[0] == "-list":
		c.Option(args[0], args[1], "")
	case len(args) < 2:
		return fmt.Errorf("missing an input image and an output file (try \"imgpipe help\")")
	default:
		c.ProcessCommandOptions(args, pipeline.ProcessImplicitRead|pipeline.ProcessImplicitWrite)
	}
	return status(c)
}

func (a *app) config() (*config.Config, error) {
	path := a.cfgFile
	if path == "" {
		path = config.Path()
	}
	return config.Load(path)
}

func (a *app) logger(cfg *config.Config) *pipeline.Logger {
	log := pipeline.NewLogger(a.stderr)
	log.SetDebug(cfg.Debug())
	return log
}

func (a *app) newCLI(ctx context.Context, cfg *config.Config) *pipeline.CLI {
	cd := codec.New(nil)
	cd.Stdin = a.stdin
	cd.Stdout = a.stdout

	opts := cfg.Options()
	opts.Codec = cd
	opts.Logger = a.logger(cfg)
	opts.Stdout = a.stdout
	opts.Stderr = a.stderr
	return pipeline.New(ctx, opts)
}

func status(c *pipeline.CLI) error {
	if s := c.ExitStatus(); s != 0 {
		return exitStatus(s)
	}
	return nil
}

// signalContext is cancelled on interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
