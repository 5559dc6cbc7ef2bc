package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ormasoftchile/sjsh/internal/logging"
	"github.com/ormasoftchile/sjsh/pkg/client"
	"github.com/ormasoftchile/sjsh/pkg/config"
	"github.com/ormasoftchile/sjsh/pkg/lineedit"
	"github.com/ormasoftchile/sjsh/pkg/render"
	"github.com/ormasoftchile/sjsh/pkg/scope"
	"github.com/ormasoftchile/sjsh/pkg/shell"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigFile = "sjsh.yaml"

var (
	configPath  string
	historyPath string
	logLevel    string
)

func main() {
	config.LoadDotEnv(".env")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "sjsh",
	Short:        "Interactive shell for the 3scale admin API",
	Long:         "sjsh is a line-oriented shell to browse 3scale hosts and services and send admin API requests.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("history") {
		cfg.HistoryFile = historyPath
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level)

	timeout, err := cfg.RequestTimeout()
	if err != nil {
		return err
	}
	clientOpts := []client.Option{client.WithLogger(logger)}
	if cfg.UserAgent != "" {
		clientOpts = append(clientOpts, client.WithUserAgent(cfg.UserAgent))
	}
	api, err := client.New(timeout, clientOpts...)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	out := cmd.OutOrStdout()
	color := render.ColorEnabled(cfg.Color, out)
	root := scope.NewRoot(scope.Env{API: api, Color: color, Logger: logger})
	for _, h := range cfg.Hosts {
		if _, _, _, err := root.AddHost(h.URL, h.Token); err != nil {
			return fmt.Errorf("config host: %w", err)
		}
	}

	reader, err := newReader(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "sjsh %s (build: %s) %s/%s\n", version, commit, runtime.GOOS, runtime.GOARCH)
	fmt.Fprintln(out, "Type 'help' for commands, Ctrl-D to quit.")

	sh := shell.New(root, reader,
		shell.WithOutput(out),
		shell.WithStyles(render.NewStyles(out, color)),
		shell.WithLogger(logger),
		shell.WithWidth(terminalWidth()),
	)
	runErr := sh.Run(cmd.Context())
	sh.Close()
	return shutdownError(runErr, reader.Close())
}

// shutdownError reports both a loop failure and a failure to close the
// reader, which for the editor means the history was not saved.
func shutdownError(runErr, closeErr error) error {
	if closeErr != nil {
		closeErr = fmt.Errorf("save history: %w", closeErr)
	}
	return errors.Join(runErr, closeErr)
}

type lineReader interface {
	shell.LineReader
	io.Closer
}

// newReader picks the interactive editor on a terminal and a plain scanner
// for piped input.
func newReader(cfg *config.Config, logger *slog.Logger) (lineReader, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return lineedit.NewScanner(os.Stdin), nil
	}
	ed, err := lineedit.New(lineedit.Config{
		HistoryFile:  cfg.HistoryFile,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("line editor: %w", err)
	}
	return ed, nil
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w
	}
	return 80
}

// loadConfig reads --config when given, otherwise the optional default file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flags().Changed("config") {
		return config.Load(configPath, true)
	}
	return config.Load(defaultConfigFile, false)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate the configuration file",
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration JSON Schema to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := config.GenerateJSONSchema()
		if err != nil {
			return fmt.Errorf("generate schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [sjsh.yaml]",
	Short: "Validate a configuration file against the schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := defaultConfigFile
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := config.Load(path, true)
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Validation failed: %d error(s)\n\n", len(cfgErr.Errors))
			for i, e := range cfgErr.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %d. %s\n", i+1, e.Message)
				if e.Path != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "     at: %s\n", e.Path)
				}
			}
			return fmt.Errorf("validation failed with %d error(s)", len(cfgErr.Errors))
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d hosts)\n", path, len(cfg.Hosts))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sjsh %s (build: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", defaultConfigFile, "Path to the YAML configuration file")
	rootCmd.Flags().StringVar(&historyPath, "history", config.DefaultHistoryFile, "Path to the input history file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	configCmd.AddCommand(configSchemaCmd)
	configCmd.AddCommand(configValidateCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
