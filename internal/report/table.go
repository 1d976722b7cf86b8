package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/darmiel/polsim/internal/core"
)

// WriteTable renders every transition as one table row, denials first.
func WriteTable(w io.Writer, report *core.ImpactReport) error {
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Identity", "Resource", "Action", "Change", "Why", "Line"})

	appendCohort := func(cohort *core.Cohort, paint func(a ...any) string) {
		for _, id := range cohort.Identities() {
			for _, tr := range cohort.Transitions(id) {
				t.AppendRow(table.Row{id, tr.Resource, tr.Action, paint(tr.Change), tr.Why, tr.Line})
			}
		}
	}
	appendCohort(report.Denied, red)
	if !report.Denied.IsEmpty() && !report.Permitted.IsEmpty() {
		t.AppendSeparator()
	}
	appendCohort(report.Permitted, green)

	t.AppendFooter(table.Row{
		"", "", "",
		fmt.Sprintf("%d denied", report.Denied.Count()),
		fmt.Sprintf("%d permitted", report.Permitted.Count()),
		fmt.Sprintf("%d skipped", len(report.Skipped)),
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Why", WidthMax: 60},
		{Name: "Line", Align: text.AlignRight},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}
