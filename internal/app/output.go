package app

import (
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/devinit/internal/bringup"
	"github.com/specialistvlad/devinit/internal/devgraph"
	"gopkg.in/yaml.v3"
)

type orderEntry struct {
	Position int      `json:"position" yaml:"position"`
	ID       int16    `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

func orderEntries(graph *devgraph.Graph) []orderEntry {
	var entries []orderEntry
	for i, id := range graph.InitializationOrder() {
		name, _ := graph.ComponentName(id)
		entry := orderEntry{Position: i + 1, ID: int16(id), Name: name}
		rec, _ := graph.Record(id)
		for _, dep := range rec.Requires {
			depName, _ := graph.ComponentName(dep)
			entry.Requires = append(entry.Requires, depName)
		}
		entries = append(entries, entry)
	}
	return entries
}

// writeOrder prints the initialization order in the configured format.
func (a *App) writeOrder(graph *devgraph.Graph) error {
	entries := orderEntries(graph)

	switch a.config.Output {
	case "json":
		enc := json.NewEncoder(a.outW)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		data, err := yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to format order: %w", err)
		}
		_, err = a.outW.Write(data)
		return err
	default:
		for _, e := range entries {
			if _, err := fmt.Fprintf(a.outW, "%3d  [%d] %s\n", e.Position, e.ID, e.Name); err != nil {
				return err
			}
		}
		return nil
	}
}

// writeResults prints one line per component of a bring-up.
func (a *App) writeResults(results []bringup.Result) error {
	for _, r := range results {
		line := fmt.Sprintf("%-9s [%d] %s attempts=%d duration=%s", r.Outcome, r.ID, r.Name, r.Attempts, r.Duration)
		if r.Err != nil {
			line += fmt.Sprintf(" error=%q", r.Err.Error())
		}
		if _, err := fmt.Fprintln(a.outW, line); err != nil {
			return err
		}
	}
	return nil
}
