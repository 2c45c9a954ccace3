package validation

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/totto/penpot-wizard-sub002/internal/domain/testcase"
)

// WriteReport prints a plain-text report: one line per case, then a summary.
func WriteReport(w io.Writer, r *testcase.Report) error {
	var b strings.Builder
	for i, o := range r.Outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(&b, "ERROR %d. %q: %v\n", i+1, o.Case.Query, o.Err)
		case o.Passed:
			fmt.Fprintf(&b, "PASS  %d. %q -> %s (rank %d, %s)\n",
				i+1, o.Case.Query, o.Case.ExpectedPath, o.MatchRank, o.MatchedBy)
		default:
			fmt.Fprintf(&b, "FAIL  %d. %q -> expected %s\n", i+1, o.Case.Query, o.Case.ExpectedPath)
			if len(o.Candidates) == 0 {
				b.WriteString("      no results\n")
			}
			for j, c := range o.Candidates {
				fmt.Fprintf(&b, "      %d) %s\n", j+1, c)
			}
		}
	}
	fmt.Fprintf(&b, "\n%d/%d passed", r.PassedCount(), r.Total())
	if n := r.ErroredCount(); n > 0 {
		fmt.Fprintf(&b, ", %d errored", n)
	}
	fmt.Fprintf(&b, " (run %s, %s)\n", r.RunID, r.Duration.Round(time.Millisecond))
	_, err := io.WriteString(w, b.String())
	return err
}
