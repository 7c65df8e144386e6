// Package output renders solve results for people and for machines.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iwvelando/payment-allocator/internal/allocator"
	"github.com/iwvelando/payment-allocator/pkg/constants"
	"github.com/iwvelando/payment-allocator/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MethodAmount is one method's share, with the amount fixed to two digits.
type MethodAmount struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

// ScenarioSummary describes how one strategy fared.
type ScenarioSummary struct {
	Strategy string `json:"strategy"`
	Total    string `json:"total,omitempty"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

// AllocationView is how a single order of the winning scenario was paid.
type AllocationView struct {
	OrderID  string         `json:"orderId"`
	Rule     string         `json:"rule"`
	Total    string         `json:"total"`
	Payments []MethodAmount `json:"payments"`
}

// Report is the serializable form of a solution.
type Report struct {
	RunID       string            `json:"runId,omitempty"`
	Winner      string            `json:"winner"`
	Total       string            `json:"total"`
	Spent       []MethodAmount    `json:"spent"`
	Scenarios   []ScenarioSummary `json:"scenarios"`
	Allocations []AllocationView  `json:"allocations"`
	Warnings    []string          `json:"warnings,omitempty"`
	Duration    string            `json:"duration,omitempty"`
}

// BuildReport flattens a solution. Spent amounts follow the configured method order.
func BuildReport(s *allocator.Solution, warnings []string) Report {
	report := Report{
		Winner:      s.Winner.Strategy,
		Total:       format.Fixed(s.Winner.Total),
		Spent:       make([]MethodAmount, 0, len(s.MethodIDs)),
		Scenarios:   make([]ScenarioSummary, 0, len(s.Outcomes)),
		Allocations: make([]AllocationView, 0, len(s.Winner.Allocations)),
		Warnings:    warnings,
	}
	for _, id := range s.MethodIDs {
		report.Spent = append(report.Spent, MethodAmount{ID: id, Amount: format.Fixed(s.Winner.Spent[id])})
	}
	for _, o := range s.Outcomes {
		summary := ScenarioSummary{Strategy: o.Strategy, Duration: o.Duration.Round(time.Microsecond).String()}
		if o.Err != nil {
			summary.Error = o.Err.Error()
		} else {
			summary.Total = format.Fixed(o.Result.Total)
		}
		report.Scenarios = append(report.Scenarios, summary)
	}
	for _, a := range s.Winner.Allocations {
		view := AllocationView{OrderID: a.OrderID, Rule: string(a.Rule), Total: format.Fixed(a.Total())}
		for _, p := range a.Payments {
			view.Payments = append(view.Payments, MethodAmount{ID: p.MethodID, Amount: format.Fixed(p.Amount)})
		}
		report.Allocations = append(report.Allocations, view)
	}
	return report
}

// Write renders the solution in the named output format.
func Write(w io.Writer, outputFormat string, s *allocator.Solution, warnings []string) error {
	switch outputFormat {
	case constants.OutputFormatPlain, "":
		return PlainFormat(w, s)
	case constants.OutputFormatPretty:
		return PrettyFormat(w, s, warnings)
	case constants.OutputFormatCSV:
		return CsvFormat(w, s)
	case constants.OutputFormatJSON:
		return JSONFormat(w, BuildReport(s, warnings))
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PlainFormat prints one "<method> <amount>" line per payment method.
func PlainFormat(w io.Writer, s *allocator.Solution) error {
	for _, id := range s.MethodIDs {
		if _, err := fmt.Fprintf(w, "%s %s\n", id, format.Fixed(s.Winner.Spent[id])); err != nil {
			return err
		}
	}
	return nil
}

// PrettyFormat outputs a human-readable rather than machine-readable summary.
func PrettyFormat(w io.Writer, s *allocator.Solution, warnings []string) error {
	p := message.NewPrinter(language.English)
	report := BuildReport(s, warnings)

	_, _ = p.Fprintf(w, "--- Cheapest scenario: %s, total %s ---\n", report.Winner, format.Grouped(s.Winner.Total))
	_, _ = p.Fprintf(w, "Method          | Spent\n")
	_, _ = p.Fprintf(w, "______          | _____\n")
	for _, m := range report.Spent {
		_, _ = p.Fprintf(w, "%-15s | %s\n", m.ID, format.Grouped(s.Winner.Spent[m.ID]))
	}

	_, _ = p.Fprintf(w, "\n--- Scenarios ---\n")
	for _, sc := range report.Scenarios {
		if sc.Error != "" {
			_, _ = p.Fprintf(w, "%-15s | failed: %s\n", sc.Strategy, sc.Error)
			continue
		}
		_, _ = p.Fprintf(w, "%-15s | %s\n", sc.Strategy, sc.Total)
	}

	_, _ = p.Fprintf(w, "\n--- Allocations (%d orders) ---\n", len(report.Allocations))
	for _, a := range report.Allocations {
		_, _ = p.Fprintf(w, "%s (%s) %s:", a.OrderID, a.Rule, a.Total)
		for _, pay := range a.Payments {
			_, _ = p.Fprintf(w, " %s=%s", pay.ID, pay.Amount)
		}
		_, _ = p.Fprintf(w, "\n")
	}

	if len(warnings) > 0 {
		_, _ = p.Fprintf(w, "\n--- Warnings ---\n")
		for _, warning := range warnings {
			_, _ = p.Fprintf(w, "- %s\n", warning)
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format, one row per method.
func CsvFormat(w io.Writer, s *allocator.Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"method", "spent"}); err != nil {
		return err
	}
	for _, id := range s.MethodIDs {
		if err := cw.Write([]string{id, format.Fixed(s.Winner.Spent[id])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// JSONFormat writes the report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
