package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsCommand = &cobra.Command{
	Use:    "docs <dir>",
	Short:  "Generate Markdown reference pages for every command",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE:   runDocs,
}

func init() {
	rootCmd.AddCommand(docsCommand)
}

// header is prepended to each page so the pages render as one section.
const header = `---
title: %s
---
`

func runDocs(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create docs directory: %w", err)
	}
	rootCmd.DisableAutoGenTag = true
	if err := doc.GenMarkdownTreeCustom(rootCmd, dir, filePrepender, linkHandler); err != nil {
		return fmt.Errorf("failed to generate docs: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "📚 Docs written to %s\n", dir)
	return nil
}

func filePrepender(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), path.Ext(filename))
	return fmt.Sprintf(header, strings.ReplaceAll(base, "_", " "))
}

func linkHandler(filename string) string {
	return strings.TrimSuffix(filename, path.Ext(filename))
}
