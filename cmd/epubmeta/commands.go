package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/epubmeta/internal/coverimg"
	"github.com/yuanying/epubmeta/internal/opf"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <book.epub>",
		Short: "Show the book's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := openBook(cmd, args)
			if err != nil {
				return err
			}
			defer book.Close()

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data, err := book.Snapshot()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			return printMetadata(cmd.OutOrStdout(), book.Package)
		},
	}
	cmd.Flags().Bool("json", false, "Print metadata as JSON")
	return cmd
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <book.epub> [<key>=<value>...]",
		Short: "Set scalar metadata fields",
		Long: `Set scalar metadata fields. An empty value removes the field.
With --ensure-uuid, a random urn:uuid identifier is assigned when the book
has none.

Keys: ` + strings.Join(fieldKeys(), ", "),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ensureUUID, _ := cmd.Flags().GetBool("ensure-uuid")
			if len(args) == 1 && !ensureUUID {
				return fmt.Errorf("nothing to set: give key=value pairs or --ensure-uuid")
			}
			assignments, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return editBook(cmd, args, func(book *opf.Book, opts cliOptions) error {
				for _, a := range assignments {
					if err := a.field.Set(book.Package, a.value); err != nil {
						return fmt.Errorf("failed to set %s: %w", a.field.Key, err)
					}
					opts.Logger.Debug("set field", "key", a.field.Key, "value", a.value)
				}
				if ensureUUID {
					id, err := book.EnsureUUID()
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
	cmd.Flags().Bool("ensure-uuid", false, "Assign a random unique identifier when the book has none and print it")
	addWriteFlags(cmd)
	return cmd
}

type assignment struct {
	field opf.Field
	value string
}

func parseAssignments(args []string) ([]assignment, error) {
	out := make([]assignment, 0, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid assignment %q: want key=value", arg)
		}
		f, ok := opf.FieldByKey(strings.TrimSpace(key))
		if !ok {
			return nil, fmt.Errorf("unknown field %q: must be one of %s", key, strings.Join(fieldKeys(), ", "))
		}
		out = append(out, assignment{field: f, value: value})
	}
	return out, nil
}

func fieldKeys() []string {
	keys := make([]string, 0, len(opf.Fields))
	for _, f := range opf.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func newAuthorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authors <book.epub> [name, name...]",
		Short: "Show or replace the authors",
		Long: `Without a list, print the authors as "file-as<TAB>name".
With a comma separated list, replace all authors; use --file-as to give
sort keys in the same order.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearAll, _ := cmd.Flags().GetBool("clear")
			if len(args) == 1 && !clearAll {
				book, _, err := openBook(cmd, args)
				if err != nil {
					return err
				}
				defer book.Close()
				for _, a := range book.Authors() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.FileAs, a.Name)
				}
				return nil
			}

			var names []string
			if len(args) == 2 {
				names = opf.SplitList(args[1])
			}
			fileAs, _ := cmd.Flags().GetStringArray("file-as")
			if len(fileAs) > 0 && len(fileAs) != len(names) {
				return fmt.Errorf("--file-as has %d entries for %d authors", len(fileAs), len(names))
			}

			authors := make([]opf.Author, len(names))
			for i, name := range names {
				authors[i] = opf.Author{FileAs: name, Name: name}
				if len(fileAs) > 0 {
					authors[i].FileAs = strings.TrimSpace(fileAs[i])
				}
			}
			return editBook(cmd, args, func(book *opf.Book, _ cliOptions) error {
				return book.SetAuthors(authors)
			})
		},
	}
	cmd.Flags().Bool("clear", false, "Remove all authors")
	cmd.Flags().StringArray("file-as", nil, "Sort key for each given author, in order (repeatable)")
	addWriteFlags(cmd)
	return cmd
}

func newSubjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subjects <book.epub> [subject, subject...]",
		Short: "Show or replace the subjects",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clearAll, _ := cmd.Flags().GetBool("clear")
			if len(args) == 1 && !clearAll {
				book, _, err := openBook(cmd, args)
				if err != nil {
					return err
				}
				defer book.Close()
				for _, s := range book.Subjects() {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				}
				return nil
			}

			list := ""
			if len(args) == 2 {
				list = args[1]
			}
			return editBook(cmd, args, func(book *opf.Book, _ cliOptions) error {
				return book.SetSubjectsString(list)
			})
		},
	}
	cmd.Flags().Bool("clear", false, "Remove all subjects")
	addWriteFlags(cmd)
	return cmd
}

func newCoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Show, replace, remove or extract the cover image",
	}

	show := &cobra.Command{
		Use:   "show <book.epub>",
		Short: "Show where the cover image is declared",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := openBook(cmd, args)
			if err != nil {
				return err
			}
			defer book.Close()
			return printCover(cmd.OutOrStdout(), book.Package)
		},
	}

	set := &cobra.Command{
		Use:   "set <book.epub> <image>",
		Short: "Replace the cover image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			imgOpts, err := readCoverOptions(cmd)
			if err != nil {
				return err
			}
			input, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read cover image: %w", err)
			}
			img, err := coverimg.Prepare(input, imgOpts)
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}

			return editBook(cmd, args[:1], func(book *opf.Book, opts cliOptions) error {
				if img.Warning != "" {
					opts.Logger.Warn("cover image", "warning", img.Warning)
				}
				opts.Logger.Debug("prepared cover", "mime", img.MIME, "width", img.Width, "height", img.Height, "size", len(img.Data))
				return book.SetCoverFile(img.Data, img.MIME)
			})
		},
	}
	set.Flags().Int("max-width", 0, "Downscale covers wider than this (0 = keep)")
	set.Flags().Int("max-height", 0, "Downscale covers taller than this (0 = keep)")
	set.Flags().Int("quality", coverimg.DefaultJPEGQuality, "JPEG quality when re-encoding (60-100)")
	set.Flags().Int("max-size", 0, "Target maximum cover size in KB (0 = no limit)")
	addWriteFlags(set)

	clearCmd := &cobra.Command{
		Use:   "clear <book.epub>",
		Short: "Remove the cover image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editBook(cmd, args, func(book *opf.Book, _ cliOptions) error {
				return book.ClearCover()
			})
		},
	}
	addWriteFlags(clearCmd)

	extract := &cobra.Command{
		Use:   "extract <book.epub> <output>",
		Short: "Write the cover image to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, opts, err := openBook(cmd, args[:1])
			if err != nil {
				return err
			}
			defer book.Close()

			img, err := book.Cover()
			if err != nil {
				return err
			}
			if !img.Found {
				return fmt.Errorf("%s has no cover", args[0])
			}
			if err := os.WriteFile(args[1], img.Data, 0o644); err != nil {
				return fmt.Errorf("failed to write cover: %w", err)
			}
			opts.Logger.Info("extracted cover", "path", img.Path, "mime", img.MIME, "output", args[1])
			return nil
		},
	}

	cmd.AddCommand(show, set, clearCmd, extract)
	return cmd
}

func readCoverOptions(cmd *cobra.Command) (coverimg.Options, error) {
	maxWidth, _ := cmd.Flags().GetInt("max-width")
	maxHeight, _ := cmd.Flags().GetInt("max-height")
	quality, _ := cmd.Flags().GetInt("quality")
	maxSize, _ := cmd.Flags().GetInt("max-size")

	if maxWidth < 0 {
		return coverimg.Options{}, fmt.Errorf("invalid --max-width %d: must be >= 0", maxWidth)
	}
	if maxHeight < 0 {
		return coverimg.Options{}, fmt.Errorf("invalid --max-height %d: must be >= 0", maxHeight)
	}
	if quality < 60 || quality > 100 {
		return coverimg.Options{}, fmt.Errorf("invalid --quality %d: must be between 60 and 100", quality)
	}
	if maxSize < 0 {
		return coverimg.Options{}, fmt.Errorf("invalid --max-size %d: must be >= 0", maxSize)
	}

	return coverimg.Options{
		MaxWidth:    maxWidth,
		MaxHeight:   maxHeight,
		JPEGQuality: quality,
		MaxFileSize: maxSize * 1024,
	}, nil
}

func newTocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toc <book.epub>",
		Short: "Print the table of contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := openBook(cmd, args)
			if err != nil {
				return err
			}
			defer book.Close()

			toc, err := book.Toc()
			if err != nil {
				return err
			}
			return printToc(cmd.OutOrStdout(), toc)
		},
	}
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <book.epub>",
		Short: "Print the package document or the manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			book, _, err := openBook(cmd, args)
			if err != nil {
				return err
			}
			defer book.Close()

			if manifest, _ := cmd.Flags().GetBool("manifest"); manifest {
				return printManifest(cmd.OutOrStdout(), book.ManifestItems())
			}
			data, err := book.Serialize()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Bool("manifest", false, "Print the manifest instead of the package document")
	return cmd
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <book.epub> <patch.json|->",
		Short: "Apply a JSON metadata patch",
		Long: `Apply a JSON object of metadata fields, as printed by "show --json".
Absent keys are left alone; null or "" removes a field.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch []byte
			var err error
			if args[1] == "-" {
				patch, err = io.ReadAll(cmd.InOrStdin())
			} else {
				patch, err = os.ReadFile(args[1])
			}
			if err != nil {
				return fmt.Errorf("failed to read patch: %w", err)
			}
			return editBook(cmd, args[:1], func(book *opf.Book, _ cliOptions) error {
				return book.ApplyPatch(patch)
			})
		},
	}
	addWriteFlags(cmd)
	return cmd
}

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <book.epub>",
		Short: "Remove iTunes metadata files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editBook(cmd, args, func(book *opf.Book, opts cliOptions) error {
				removed, err := book.CleanITunes()
				opts.Logger.Info("removed iTunes files", "count", removed)
				return err
			})
		},
	}
	addWriteFlags(cmd)
	return cmd
}

func newKepubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kepub <book.epub>",
		Short: "Mark the cover for Kobo readers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editBook(cmd, args, func(book *opf.Book, opts cliOptions) error {
				if !book.UpdateForKepub() {
					opts.Logger.Warn("book has no cover", "book", opts.BookPath)
				}
				return nil
			})
		},
	}
	addWriteFlags(cmd)
	return cmd
}
