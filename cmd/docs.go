package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// docType codes whether the command is the root or a child
type docType int

const (
	root docType = iota
	child
)

// meta is for describing the position/info for a command doc page
type meta struct {
	docType  docType
	title    string
	navOrder int
	parent   string
}

// map from the base Markdown file name to its build meta
var metaMap = map[string]meta{
	"homa":            {root, "homa", 0, ""},
	"homa_sparsecore": {child, "sparsecore", 0, "homa"},
	"homa_homologs":   {child, "homologs", 1, "homa"},
	"homa_config":     {child, "config", 2, "homa"},
}

// docsCmd writes Markdown documentation of the commands
var docsCmd = &cobra.Command{
	Use:    "docs [dir]",
	Short:  "Write Markdown docs of the commands",
	Hidden: true,
	Args:   cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "./docs"
		if len(args) > 0 {
			dir = args[0]
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		RootCmd.DisableAutoGenTag = true
		return doc.GenMarkdownTreeCustom(RootCmd, dir, filePrepender, linkHandler)
	},
}

// filePrepender adds YAML headings that are required by the just-the-docs theme
// https://github.com/spf13/cobra/blob/master/doc/md_docs.md
func filePrepender(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, path.Ext(name))
	m, ok := metaMap[base]
	if !ok {
		return ""
	}

	switch m.docType {
	case root:
		return fmt.Sprintf(rootPage, m.title, m.navOrder)
	case child:
		return fmt.Sprintf(childPage, m.title, m.parent, m.navOrder)
	}
	return ""
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, path.Ext(name))

	if base == "homa" {
		return "/"
	}
	return base
}

func init() {
	RootCmd.AddCommand(docsCmd)
}
