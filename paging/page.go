// Package paging simulates page replacement in main memory together with a
// small FIFO Translation Lookaside Buffer (TLB).
//
// A run walks a reference string once. For each access the TLB is consulted
// first, then main memory. A page fault on a full memory asks the active
// Policy for a victim, and the victim is invalidated in the TLB before the
// new page is loaded. Every access produces a Step; the ordered steps and the
// fault and TLB hit counters form the Result.
package paging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// A Page is an opaque page identifier taken verbatim from a reference string.
// It is either numeric or symbolic. Two pages are the same page only if both
// the kind and the value match, so the number 1 and the string "1" differ.
type Page struct {
	id      string
	numeric bool
}

// NumPage returns a numeric page.
func NumPage(n int) Page {
	return Page{id: strconv.Itoa(n), numeric: true}
}

// SymPage returns a symbolic page.
func SymPage(s string) Page {
	return Page{id: s}
}

// ParsePage converts a token from a textual reference string into a page.
// Tokens that parse as decimal numbers become numeric pages.
func ParsePage(token string) Page {
	token = strings.TrimSpace(token)

	if id, ok := canonicalNumber(token); ok {
		return Page{id: id, numeric: true}
	}

	return SymPage(token)
}

// Pages converts integers into numeric pages.
func Pages(ns ...int) []Page {
	pages := make([]Page, len(ns))
	for i, n := range ns {
		pages[i] = NumPage(n)
	}

	return pages
}

var numberPattern = regexp.MustCompile(
	`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d{1,3})?$`)

// canonicalNumber gives every spelling of one number the same text. Integral
// values keep all their digits, so 1, 1.0, 1e0 and -0 vs 0 compare equal while
// large integers never merge.
func canonicalNumber(token string) (string, bool) {
	if !numberPattern.MatchString(token) {
		return "", false
	}

	f, _, err := big.ParseFloat(token, 10, 4096, big.ToNearestEven)
	if err != nil {
		return "", false
	}

	if f.IsInt() {
		i, _ := f.Int(nil)
		return i.String(), true
	}

	return f.Text('f', -1), true
}

// IsNumeric tells if the page was given as a number.
func (p Page) IsNumeric() bool {
	return p.numeric
}

// String returns the identifier as it appears in the reference string.
func (p Page) String() string {
	return p.id
}

// MarshalJSON writes numeric pages as JSON numbers and symbolic pages as JSON
// strings.
func (p Page) MarshalJSON() ([]byte, error) {
	if p.numeric {
		return []byte(p.id), nil
	}

	return json.Marshal(p.id)
}

// UnmarshalJSON accepts a JSON number or a JSON string.
func (p *Page) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*p = SymPage(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("page must be a number or a string, got %s", data)
	}

	id, ok := canonicalNumber(n.String())
	if !ok {
		return fmt.Errorf("page number %s is out of range", n)
	}

	*p = Page{id: id, numeric: true}

	return nil
}
