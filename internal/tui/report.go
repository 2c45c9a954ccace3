package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/totto/penpot-wizard-sub002/internal/domain/testcase"
)

// RenderReport renders a validation report for the terminal.
func RenderReport(title string, r *testcase.Report) string {
	var b strings.Builder
	for i, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(&b, "%s %d. %s\n", errorStyle.Render("ERROR"), i+1, o.Case.Query)
			fmt.Fprintf(&b, "      %s\n", mutedStyle.Render(o.Err.Error()))
		case o.Passed:
			fmt.Fprintf(&b, "%s  %d. %s %s\n", passStyle.Render("PASS"), i+1, o.Case.Query,
				mutedStyle.Render(fmt.Sprintf("(rank %d, %s)", o.MatchRank, o.MatchedBy)))
		default:
			fmt.Fprintf(&b, "%s  %d. %s\n", failStyle.Render("FAIL"), i+1, o.Case.Query)
			fmt.Fprintf(&b, "      expected %s\n", o.Case.ExpectedPath)
			if len(o.Candidates) == 0 {
				b.WriteString(mutedStyle.Render("      no results") + "\n")
			}
			for j, c := range o.Candidates {
				b.WriteString(mutedStyle.Render(fmt.Sprintf("      %d) %s", j+1, c)) + "\n")
			}
		}
	}

	summaryStyle := passStyle
	if r.Failed() {
		summaryStyle = failStyle
	}
	summary := summaryStyle.Render(fmt.Sprintf("%d/%d passed", r.PassedCount(), r.Total()))
	if n := r.ErroredCount(); n > 0 {
		summary += errorStyle.Render(fmt.Sprintf(", %d errored", n))
	}
	summary += mutedStyle.Render(fmt.Sprintf("  run %s · %s", r.RunID, r.Duration.Round(time.Millisecond)))

	return boxStyle.Render(titleStyle.Render(title)+"\n\n"+strings.TrimRight(b.String(), "\n")) + "\n" + summary + "\n"
}
