package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuanying/epubmeta/internal/opf"
)

func printMetadata(w io.Writer, pkg *opf.Package) error {
	fmt.Fprintf(w, "package: %s\n", pkg.Path())
	for _, f := range opf.Fields {
		value := f.Get(pkg)
		switch f.Key {
		case "description":
			value = pkg.DescriptionText()
		case "language":
			if value != "" {
				if name := pkg.LanguageName(); name != value {
					value = fmt.Sprintf("%s (%s)", value, name)
				}
			}
		}
		if value == "" {
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", f.Key, value)
	}

	authors := pkg.Authors()
	names := make([]string, len(authors))
	for i, a := range authors {
		names[i] = a.Name
	}
	if len(names) > 0 {
		fmt.Fprintf(w, "authors: %s\n", strings.Join(names, ", "))
	}
	if subjects := pkg.Subjects(); len(subjects) > 0 {
		fmt.Fprintf(w, "subjects: %s\n", strings.Join(subjects, ", "))
	}

	res := pkg.ResolveCover()
	switch res.Outcome {
	case opf.CoverFound:
		_, err := fmt.Fprintf(w, "cover: %s (%s)\n", res.Item.Path, res.Item.MIME)
		return err
	case opf.CoverDanglingPointer:
		_, err := fmt.Fprintf(w, "cover: %s (dangling)\n", res.ID)
		return err
	}
	return nil
}

func printCover(w io.Writer, pkg *opf.Package) error {
	res := pkg.ResolveCover()
	fmt.Fprintf(w, "pointer: %s\n", res.Outcome)
	if res.ID != "" {
		fmt.Fprintf(w, "id: %s\n", res.ID)
	}
	if res.Outcome == opf.CoverFound {
		fmt.Fprintf(w, "path: %s\nmime: %s\nexists: %t\n", res.Item.Path, res.Item.MIME, res.Item.Exists)
	}

	if items := pkg.CoverImageItems(); len(items) > 1 {
		paths := make([]string, len(items))
		for i, item := range items {
			paths[i] = item.Path
		}
		fmt.Fprintf(w, "warning: %d manifest items declare cover-image: %s\n", len(items), strings.Join(paths, ", "))
	}

	if detected := pkg.DetectCover(); detected != nil {
		_, err := fmt.Fprintf(w, "detected: %s (by %s)\n", detected.Path, detected.Method)
		return err
	}
	_, err := fmt.Fprintln(w, "detected: none")
	return err
}

func printToc(w io.Writer, toc []opf.TocEntry) error {
	for _, entry := range toc {
		indent := strings.Repeat("  ", entry.Depth)
		if _, err := fmt.Fprintf(w, "%s%s\t%s\n", indent, entry.Title, entry.Src); err != nil {
			return err
		}
	}
	return nil
}

func printManifest(w io.Writer, items []opf.FileInfo) error {
	for _, item := range items {
		mark := ""
		if !item.Exists {
			mark = " (missing)"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s%s\n", item.ID, item.MIME, item.Path, mark); err != nil {
			return err
		}
	}
	return nil
}
