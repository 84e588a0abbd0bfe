package paging

import (
	"encoding/json"
	"fmt"
)

// Policy selects how a victim page is chosen when main memory is full.
type Policy int

// Supported policies.
const (
	FIFO Policy = iota
	LRU
	Optimal
)

// Policies lists every supported policy in presentation order.
var Policies = []Policy{FIFO, LRU, Optimal}

var policyNames = map[Policy]string{
	FIFO:    "FIFO",
	LRU:     "LRU",
	Optimal: "Optimal",
}

// ParsePolicy converts an algorithm name to a Policy. Names are matched
// exactly.
func ParsePolicy(name string) (Policy, error) {
	for p, n := range policyNames {
		if n == name {
			return p, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, name)
}

// String returns the algorithm name.
func (p Policy) String() string {
	name, ok := policyNames[p]
	if !ok {
		return fmt.Sprintf("Policy(%d)", int(p))
	}

	return name
}

// Valid tells if p is one of the supported policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// VictimFinder returns the victim finder that implements the policy.
func (p Policy) VictimFinder() (VictimFinder, error) {
	switch p {
	case FIFO:
		return NewFIFOVictimFinder(), nil
	case LRU:
		return NewLRUVictimFinder(), nil
	case Optimal:
		return NewOptimalVictimFinder(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, p)
	}
}

// MarshalJSON writes the algorithm name.
func (p Policy) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPolicy, p)
	}

	return json.Marshal(p.String())
}

// UnmarshalJSON reads an algorithm name.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPolicy, data)
	}

	policy, err := ParsePolicy(name)
	if err != nil {
		return err
	}

	*p = policy

	return nil
}
