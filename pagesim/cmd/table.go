package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/sarchlab/pagesim/paging"
)

var (
	faultColor = color.New(color.FgRed, color.Bold)
	hitColor   = color.New(color.FgGreen)
	titleColor = color.New(color.Bold)
)

func pagesString(pages []paging.Page) string {
	s := make([]string, len(pages))
	for i, p := range pages {
		s[i] = p.String()
	}

	return "[" + strings.Join(s, " ") + "]"
}

func printTrace(w io.Writer, policy paging.Policy, numFrames int, res *paging.Result) {
	titleColor.Fprintf(w, "%s with %d frames and a %d-entry TLB\n",
		policy, numFrames, paging.TLBSize)

	buf := new(bytes.Buffer)
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPage\tMemory\tStatus\tEvicted\tTLB\tTLB Contents")

	for i, s := range res.MemoryStates {
		evicted := "-"
		if s.Evicted != nil {
			evicted = s.Evicted.String()
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i, s.CurrentPage, pagesString(s.Memory), s.Status, evicted,
			s.TLBStatus, pagesString(s.TLBContents))
	}

	tw.Flush()

	fmt.Fprint(w, colorizeStatuses(buf.String()))

	fmt.Fprintf(w, "Page faults: %d\nTLB hits: %d\n",
		res.PageFaults, res.TLBHits)
}

// colorizeStatuses colors an already aligned table, so escape codes never
// count toward column widths. Both statuses contain a space, which page
// identifiers cannot, so only status cells match.
func colorizeStatuses(table string) string {
	table = strings.ReplaceAll(table,
		string(paging.PageFault), faultColor.Sprint(paging.PageFault))
	table = strings.ReplaceAll(table,
		string(paging.TLBHit), hitColor.Sprint(paging.TLBHit))

	return table
}

func printComparison(w io.Writer, numFrames int, comparisons []paging.Comparison) {
	titleColor.Fprintf(w, "Comparison with %d frames and a %d-entry TLB\n",
		numFrames, paging.TLBSize)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Algorithm\tPage Faults\tTLB Hits\tFault Rate")

	for _, c := range comparisons {
		rate := float64(c.Result.PageFaults) /
			float64(len(c.Result.MemoryStates))
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n",
			c.Policy, c.Result.PageFaults, c.Result.TLBHits, rate)
	}

	tw.Flush()
}
