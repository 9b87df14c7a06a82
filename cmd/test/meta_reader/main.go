// Test program for package metadata access
//
// Usage:
//   go run ./cmd/test/meta_reader/main.go <epub-file-path>
//
// Example:
//   go run ./cmd/test/meta_reader/main.go ~/Downloads/sample.epub
//
// This program will:
// - Open the EPUB file
// - Load the package document
// - Display scalar metadata, authors and subjects
// - Summarize the manifest
// - Show the cover pointer and the detected cover image
// - Print the table of contents
// - Print the metadata snapshot as JSON

package main

import (
	"fmt"
	"os"

	"github.com/yuanying/epubmeta/internal/opf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <epub-file-path>\n", os.Args[0])
		os.Exit(1)
	}

	epubPath := os.Args[1]

	fmt.Println("=== EPUB Metadata Reader Test ===")
	fmt.Printf("File: %s\n\n", epubPath)

	book, err := opf.Open(epubPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening EPUB: %v\n", err)
		os.Exit(1)
	}
	defer book.Close()

	fmt.Printf("✓ EPUB opened successfully\n")
	fmt.Printf("Package document: %s\n\n", book.Path())

	fmt.Println("--- Metadata ---")
	for _, f := range opf.Fields {
		if v := f.Get(book.Package); v != "" {
			fmt.Printf("%-18s %s\n", f.Key+":", v)
		}
	}
	fmt.Printf("%-18s %s\n", "language name:", book.LanguageName())
	if text := book.DescriptionText(); text != "" {
		fmt.Printf("%-18s %s\n", "description text:", text)
	}

	if authors := book.Authors(); len(authors) > 0 {
		fmt.Println("Authors:")
		for i, a := range authors {
			fmt.Printf("  %d. %s (file-as: %s)\n", i+1, a.Name, a.FileAs)
		}
	}
	if subjects := book.Subjects(); len(subjects) > 0 {
		fmt.Println("Subjects:")
		for i, s := range subjects {
			fmt.Printf("  %d. %s\n", i+1, s)
		}
	}

	items := book.ManifestItems()
	fmt.Printf("\n--- Manifest ---\n")
	fmt.Printf("Total items: %d\n\n", len(items))

	mediaTypes := make(map[string]int)
	missing := 0
	for _, item := range items {
		mediaTypes[item.MIME]++
		if !item.Exists {
			missing++
		}
	}
	fmt.Println("Items by media type:")
	for mediaType, count := range mediaTypes {
		fmt.Printf("  %s: %d\n", mediaType, count)
	}
	fmt.Printf("Items missing from the archive: %d\n", missing)

	fmt.Printf("\n--- Cover ---\n")
	res := book.ResolveCover()
	fmt.Printf("Pointer: %s\n", res.Outcome)
	if res.Outcome == opf.CoverFound {
		fmt.Printf("Cover Image: %s (%s)\n", res.Item.Path, res.Item.MIME)
	}
	if detected := book.DetectCover(); detected != nil {
		fmt.Printf("Detected: %s (by %s)\n", detected.Path, detected.Method)
	} else {
		fmt.Println("Detected: (not found)")
	}

	fmt.Printf("\n--- Navigation ---\n")
	toc, err := book.Toc()
	if err != nil {
		fmt.Printf("No table of contents: %v\n", err)
	} else {
		for _, entry := range toc {
			indent := "  "
			if entry.Depth > 0 {
				indent = "    "
			}
			fmt.Printf("%s%s -> %s\n", indent, entry.Title, entry.File.Path)
		}
	}

	fmt.Printf("\n--- Snapshot ---\n")
	snapshot, err := book.Snapshot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(snapshot))

	fmt.Println("\n=== Test Completed Successfully ===")
}
