package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/darmiel/polsim/internal/core"
)

// WriteText renders the report as the plain-text impact analysis.
// Only newly denied identities carry a reason; newly permitted ones list the granted actions.
func WriteText(w io.Writer, report *core.ImpactReport) error {
	out := bufio.NewWriter(w)

	fmt.Fprint(out, "## 📜 Policy Impact Analysis\n\n")
	fmt.Fprint(out, "### If I roll out this new policy, who is likely to get denied access and why?\n")

	if report.Denied.IsEmpty() {
		fmt.Fprint(out, "No users are likely to be newly denied access.\n")
	} else {
		for _, id := range report.Denied.Identities() {
			fmt.Fprintf(out, " - User %s:\n", id)
			for _, t := range report.Denied.Transitions(id) {
				fmt.Fprintf(out, "   - For %s on %s: %s\n", t.Action, t.Resource, t.Why)
			}
		}
	}

	if !report.Permitted.IsEmpty() {
		fmt.Fprint(out, "\n### Who is likely to gain access?\n")
		for _, id := range report.Permitted.Identities() {
			fmt.Fprintf(out, " - User %s will newly gain access for:\n", id)
			for _, t := range report.Permitted.Transitions(id) {
				fmt.Fprintf(out, "   - %s on %s\n", t.Action, t.Resource)
			}
		}
	}

	return out.Flush()
}
