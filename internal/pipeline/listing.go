package pipeline

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/image/colornames"

	"github.com/ironsheep/image-pipeline/internal/codec"
	ops "github.com/ironsheep/image-pipeline/internal/imaging"
	"github.com/ironsheep/image-pipeline/internal/registry"
)

// ListCategory writes the entries of a -list category to w. The "list"
// category names every category.
func ListCategory(w io.Writer, category string) error {
	rows, err := categoryRows(category)
	if err != nil {
		return err
	}
	width := 0
	for _, r := range rows {
		width = max(width, runewidth.StringWidth(r[0]))
	}
	for _, r := range rows {
		line := r[0]
		if len(r) > 1 {
			line = runewidth.FillRight(r[0], width+2) + strings.Join(r[1:], "  ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// Categories returns the names ListCategory accepts.
func Categories() []string {
	names := append([]string{"color", "command", "format", "list", "option"}, registry.Vocabularies()...)
	sort.Strings(names)
	return names
}

func categoryRows(category string) ([][]string, error) {
	name := strings.ToLower(category)
	var rows [][]string
	one := func(words []string) [][]string {
		for _, w := range words {
			rows = append(rows, []string{w})
		}
		return rows
	}
	switch name {
	case "list":
		return one(Categories()), nil
	case "option", "command":
		for _, o := range registry.All() {
			arity := fmt.Sprint(o.Arity)
			if o.PlusArity != o.Arity {
				arity += fmt.Sprintf("/+%d", o.PlusArity)
			}
			rows = append(rows, []string{o.Name, arity, o.Flags.String()})
		}
		return rows, nil
	case "color":
		names := append([]string(nil), colornames.Names...)
		sort.Strings(names)
		for _, n := range names {
			c := colornames.Map[n]
			rows = append(rows, []string{n, ops.FormatColor(color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A})})
		}
		return rows, nil
	case "format":
		for _, f := range codec.Formats() {
			rows = append(rows, []string{f.Name, formatMode(f), f.Description})
		}
		return rows, nil
	case "compose":
		return one(ops.ComposeOperators()), nil
	}
	for _, v := range registry.Vocabularies() {
		if strings.EqualFold(v, name) {
			words, _ := registry.Vocabulary(v)
			return one(words), nil
		}
	}
	return nil, badKeyword("list", category)
}

// formatMode is the "rw+" capability column of -list format.
func formatMode(f codec.Format) string {
	mode := []byte("---")
	if f.Read {
		mode[0] = 'r'
	}
	if f.Write {
		mode[1] = 'w'
	}
	if f.Multi {
		mode[2] = '+'
	}
	return string(mode)
}
