package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"

	"github.com/speedrun-hq/liberator/pkg/clusters"
	"github.com/speedrun-hq/liberator/pkg/models"
)

// Format is a report serialization format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(value)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("invalid report format %q, must be 'json' or 'yaml'", value)
}

// Entry is one asset result with its explorer link
type Entry struct {
	Label       string            `json:"asset" yaml:"asset"`
	Kind        models.AssetKind  `json:"kind" yaml:"kind"`
	Amount      string            `json:"amount" yaml:"amount"`
	State       models.AssetState `json:"state" yaml:"state"`
	Attempts    int               `json:"attempts" yaml:"attempts"`
	Signature   string            `json:"signature,omitempty" yaml:"signature,omitempty"`
	ExplorerURL string            `json:"explorer_url,omitempty" yaml:"explorer_url,omitempty"`
	Error       string            `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the presentation view of a run
type Report struct {
	ID          string             `json:"id" yaml:"id"`
	Cluster     clusters.Cluster   `json:"cluster" yaml:"cluster"`
	Source      string             `json:"source,omitempty" yaml:"source,omitempty"`
	Destination string             `json:"destination" yaml:"destination"`
	Status      models.RunStatus   `json:"status" yaml:"status"`
	Stage       models.Stage       `json:"stage,omitempty" yaml:"stage,omitempty"`
	Message     string             `json:"message" yaml:"message"`
	AbortReason models.AbortReason `json:"abort_reason,omitempty" yaml:"abort_reason,omitempty"`
	Progress    *models.Progress   `json:"progress,omitempty" yaml:"progress,omitempty"`
	Successes   int                `json:"successes" yaml:"successes"`
	Failures    int                `json:"failures" yaml:"failures"`
	Results     []Entry            `json:"results" yaml:"results"`
	StartedAt   string             `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	FinishedAt  string             `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Build converts a run snapshot into a report
func Build(snapshot models.Snapshot, cluster clusters.Cluster, source, destination string) Report {
	successes, failures := snapshot.Counts()
	r := Report{
		ID:          snapshot.ID,
		Cluster:     cluster,
		Source:      source,
		Destination: destination,
		Status:      snapshot.Status,
		Stage:       snapshot.Stage,
		Message:     snapshot.Message,
		AbortReason: snapshot.AbortReason,
		Progress:    snapshot.Progress,
		Successes:   successes,
		Failures:    failures,
		Results:     make([]Entry, 0, len(snapshot.Results)),
	}
	if !snapshot.StartedAt.IsZero() {
		r.StartedAt = snapshot.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	if !snapshot.FinishedAt.IsZero() {
		r.FinishedAt = snapshot.FinishedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	for _, result := range snapshot.Results {
		r.Results = append(r.Results, Entry{
			Label:       result.Label,
			Kind:        result.Asset.Kind,
			Amount:      result.Asset.DisplayAmount().String(),
			State:       result.State,
			Attempts:    result.Attempts,
			Signature:   result.Signature,
			ExplorerURL: clusters.ExplorerTxURL(cluster, result.Signature),
			Error:       result.Error,
		})
	}
	return r
}

// Write serializes the report in the given format
func Write(w io.Writer, r Report, format Format) error {
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(r); err != nil {
			return fmt.Errorf("failed to encode json report: %w", err)
		}
		return nil
	}
}

// WriteFile writes the report to path
func WriteFile(path string, r Report, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	if err := Write(file, r, format); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// RenderResults prints the results as an aligned table
func RenderResults(w io.Writer, r Report) error {
	table := uitable.New()
	table.MaxColWidth = 100
	table.Wrap = true
	table.RightAlign(1)

	table.AddRow("ASSET", "AMOUNT", "STATE", "ATTEMPTS", "DETAILS")
	for _, entry := range r.Results {
		details := entry.ExplorerURL
		if entry.State != models.StateSuccess {
			details = entry.Error
		}
		table.AddRow(entry.Label, entry.Amount, strings.ToUpper(string(entry.State)), entry.Attempts, details)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}

// RenderWorklist prints a planned worklist as an aligned table
func RenderWorklist(w io.Writer, worklist models.Worklist) error {
	table := uitable.New()
	table.MaxColWidth = 60
	table.RightAlign(2)

	table.AddRow("#", "ASSET", "AMOUNT", "PROGRAM", "SOURCE ACCOUNT")
	for i, asset := range worklist {
		program, account := "system", ""
		if asset.Holding != nil {
			program = asset.Holding.Namespace.String()
			account = asset.Holding.SourceAccount.String()
		}
		table.AddRow(i+1, asset.Label(), asset.DisplayAmount().String(), program, account)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}
