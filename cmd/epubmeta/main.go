package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/epubmeta/internal/opf"
)

const (
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

type cliOptions struct {
	BookPath   string
	OutputPath string
	DryRun     bool
	Logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epubmeta",
		Short: "Read and edit EPUB metadata",
		Long: `epubmeta reads and edits the metadata of EPUB e-books: title,
authors, subjects, identifiers, dates, series and the cover image.

Changes are written back in place unless --output names another file.
Other archive members are copied without recompression.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("log-level", defaultLogLevel, "Log level: debug|info|warn|error")
	flags.String("log-format", defaultLogFormat, "Log format: text|json")
	flags.Bool("verbose", false, "Enable verbose logging (same as --log-level debug)")

	cmd.AddCommand(
		newShowCmd(),
		newSetCmd(),
		newAuthorsCmd(),
		newSubjectsCmd(),
		newCoverCmd(),
		newTocCmd(),
		newDumpCmd(),
		newApplyCmd(),
		newCleanCmd(),
		newKepubCmd(),
	)
	return cmd
}

// addWriteFlags registers the flags of commands that modify the book.
func addWriteFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output file path (default: modify the book in place)")
	cmd.Flags().Bool("dry-run", false, "Apply the changes in memory only and report the result")
}

func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	if len(args) == 0 {
		return cliOptions{}, fmt.Errorf("missing book path")
	}
	opts := cliOptions{BookPath: args[0]}

	if f := cmd.Flags().Lookup("output"); f != nil {
		opts.OutputPath = f.Value.String()
	}
	if cmd.Flags().Lookup("dry-run") != nil {
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	if opts.OutputPath != "" && opts.DryRun {
		return cliOptions{}, fmt.Errorf("--output and --dry-run are mutually exclusive")
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	logLevel = strings.ToLower(logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return cliOptions{}, fmt.Errorf("invalid --log-level %q: must be debug, info, warn or error", logLevel)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logLevel = "debug"
	}

	logFormat, _ := cmd.Flags().GetString("log-format")
	logFormat = strings.ToLower(logFormat)
	if logFormat != "text" && logFormat != "json" {
		return cliOptions{}, fmt.Errorf("invalid --log-format %q: must be text or json", logFormat)
	}

	opts.Logger = buildLogger(cmd.ErrOrStderr(), logLevel, logFormat)
	return opts, nil
}

func buildLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openBook opens the book named by the first argument.
func openBook(cmd *cobra.Command, args []string) (*opf.Book, cliOptions, error) {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return nil, opts, err
	}
	book, err := opf.Open(opts.BookPath, opf.WithLogger(opts.Logger))
	if err != nil {
		return nil, opts, fmt.Errorf("failed to open %s: %w", opts.BookPath, err)
	}
	return book, opts, nil
}

// editBook opens the book, applies edit and writes the result according to
// --output and --dry-run.
func editBook(cmd *cobra.Command, args []string, edit func(*opf.Book, cliOptions) error) error {
	book, opts, err := openBook(cmd, args)
	if err != nil {
		return err
	}

	if err := edit(book, opts); err != nil {
		book.Close()
		return err
	}

	switch {
	case opts.DryRun:
		opts.Logger.Info("dry run, no changes written", "book", opts.BookPath)
		return book.Close()
	case opts.OutputPath != "":
		if err := book.SaveAs(opts.OutputPath); err != nil {
			book.Close()
			return fmt.Errorf("failed to save %s: %w", opts.OutputPath, err)
		}
		opts.Logger.Info("saved", "output", opts.OutputPath)
	default:
		if err := book.Save(); err != nil {
			book.Close()
			return fmt.Errorf("failed to save %s: %w", opts.BookPath, err)
		}
		opts.Logger.Info("saved", "book", opts.BookPath)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
