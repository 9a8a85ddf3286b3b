// nolint
package main

import (
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alecthomas/hcl"
	"github.com/alecthomas/kong"

	"github.com/cashapp/bootstrap/recipe"
)

var cli struct {
	Weight int    `default:"401"`
	Dest   string `arg:"" type:"existingdir" required:""`
}

func main() {
	ctx := kong.Parse(&cli, kong.Description("Generate reference documentation for the recipe format."))
	path := filepath.Join(cli.Dest, "recipe.md")
	fmt.Println(path)
	w, err := os.Create(path)
	ctx.FatalIfErrorf(err)
	defer w.Close()
	err = writeRecipeDocs(w, cli.Weight)
	ctx.FatalIfErrorf(err)
}

func writeRecipeDocs(w io.Writer, weight int) error {
	schema, err := hcl.Schema(&recipe.Recipe{})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, `+++
title = "<recipe>.hcl"
weight = %d
+++

A recipe lists the native packages a project needs and the dependencies to build from source, in order.

`, weight)
	writeEntries(w, "", schema.Entries)
	return writeBlocks(w, "", schema.Entries)
}

// Blocks are documented depth first, titled by their path from the root, eg. "build > platform".
func writeBlocks(w io.Writer, parent string, entries []*hcl.Entry) error {
	for _, block := range sortedBlocks(entries) {
		path := block.Name
		if parent != "" {
			path = parent + " > " + block.Name
		}
		fmt.Fprintf(w, "\n## %s\n\n%s\n", blockTitle(path, block), html.EscapeString(strings.Join(block.Comments, "\n")))
		writeEntries(w, path, block.Body)
		if err := writeBlocks(w, path, block.Body); err != nil {
			return err
		}
	}
	return nil
}

func sortedBlocks(entries []*hcl.Entry) []*hcl.Block {
	var blocks []*hcl.Block
	for _, entry := range entries {
		if entry.Block != nil {
			blocks = append(blocks, entry.Block)
		}
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Name < blocks[j].Name
	})
	return blocks
}

func blockTitle(path string, block *hcl.Block) string {
	title := path
	for _, label := range block.Labels {
		title += " <" + label + ">"
	}
	return title
}

func anchor(path string) string {
	return strings.ReplaceAll(path, " > ", "--")
}

func writeEntries(w io.Writer, parent string, entries []*hcl.Entry) {
	var attrs []*hcl.Attribute
	for _, entry := range entries {
		if entry.Attribute != nil {
			attrs = append(attrs, entry.Attribute)
		}
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].Key < attrs[j].Key
	})

	if blocks := sortedBlocks(entries); len(blocks) > 0 {
		fmt.Fprintf(w, `
| Block  | Description |
|--------|-------------|
`)
		for _, block := range blocks {
			path := block.Name
			if parent != "" {
				path = parent + " > " + block.Name
			}
			description := block.Name
			for _, label := range block.Labels {
				description += " <" + label + ">"
			}
			description += " { … }"
			fmt.Fprintf(w, "| [`%s`](#%s) | %s |\n",
				description,
				anchor(path),
				html.EscapeString(strings.Join(block.Comments, " ")))
		}
	}

	if len(attrs) > 0 {
		fmt.Fprintf(w, `
| Attribute | Type | Description |
|-----------|------|-------------|
`)
		for _, attr := range attrs {
			typ := attr.Value.String()
			if attr.Optional {
				typ += "?"
			}
			fmt.Fprintf(w, "| `%s` | `%s` | %s |\n",
				attr.Key,
				typ,
				html.EscapeString(strings.Join(attr.Comments, " ")))
		}
	}
}
