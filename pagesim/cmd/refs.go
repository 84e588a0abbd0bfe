package cmd

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/sarchlab/pagesim/paging"
)

// parseReferenceString splits on commas and white space. Integer tokens
// become numeric pages and everything else symbolic pages.
func parseReferenceString(s string) []paging.Page {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	pages := make([]paging.Page, len(fields))
	for i, f := range fields {
		pages[i] = paging.ParsePage(f)
	}

	return pages
}

func readReferenceString(inline, filename string) ([]paging.Page, error) {
	switch {
	case inline != "" && filename != "":
		return nil, fmt.Errorf("--refs and --file cannot be used together")
	case filename != "":
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, err
		}

		return parseReferenceString(string(data)), nil
	default:
		return parseReferenceString(inline), nil
	}
}
