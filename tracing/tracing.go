// Package tracing provides hooks that observe simulation runs and turn them
// into logs, database records or counters.
package tracing

import (
	"strings"

	"github.com/sarchlab/pagesim/paging"
)

func joinPages(pages []paging.Page) string {
	s := make([]string, len(pages))
	for i, p := range pages {
		s[i] = p.String()
	}

	return strings.Join(s, " ")
}

func evictedString(step paging.Step) string {
	if step.Evicted == nil {
		return "-"
	}

	return step.Evicted.String()
}
