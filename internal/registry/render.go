package registry

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/specialistvlad/nodereg/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// title upper-cases the first letter of each word. A Caser keeps state, so
// each call gets its own.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// RenderNodeList returns the human-readable listing of every node type.
func (r *Registry) RenderNodeList() string {
	snap := r.store.Snapshot()

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODULE\tNODE TYPE\tLABEL\tCATEGORY\tSTATE")
	for _, m := range snap.Modules {
		if m.Err != "" {
			fmt.Fprintf(w, "%s\t-\t-\t-\tFailed: %s\n", m.Name, m.Err)
			continue
		}
		for _, nt := range m.NodeTypes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.Name, nt.Name, label(nt), dash(nt.Category), stateText(nt))
		}
	}
	w.Flush()
	return b.String()
}

// RenderModule returns the human-readable description of one module.
func (r *Registry) RenderModule(name string) (string, bool) {
	m, ok := r.store.GetModule(name)
	if !ok {
		return "", false
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s", m.Name)
	if m.Version != "" {
		fmt.Fprintf(&b, " %s", m.Version)
	}
	b.WriteString("\n")
	if m.Description != "" {
		fmt.Fprintf(&b, "%s\n", m.Description)
	}
	if m.Err != "" {
		fmt.Fprintf(&b, "Failed to load: %s\n", m.Err)
	}
	for _, nt := range m.NodeTypes {
		fmt.Fprintf(&b, " - %s (%s): %s\n", nt.Name, label(nt), stateText(nt))
	}
	return b.String(), true
}

// label falls back to a title-cased form of the node type name.
func label(nt model.NodeType) string {
	if nt.Label != "" {
		return nt.Label
	}
	return title(strings.ReplaceAll(nt.Name, "-", " "))
}

func stateText(nt model.NodeType) string {
	s := title(nt.State().String())
	if nt.State() == model.StateError {
		s += ": " + nt.Err()
	}
	return s
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
