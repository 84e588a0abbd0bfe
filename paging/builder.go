package paging

import (
	"fmt"

	"github.com/sarchlab/pagesim/hooking"
)

// A Builder can build Simulators.
type Builder struct {
	policy    Policy
	numFrames int
}

// MakeBuilder returns a Builder with FIFO replacement over 3 frames.
func MakeBuilder() Builder {
	return Builder{
		policy:    FIFO,
		numFrames: 3,
	}
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(p Policy) Builder {
	b.policy = p
	return b
}

// WithNumFrames sets the number of frames in main memory.
func (b Builder) WithNumFrames(n int) Builder {
	b.numFrames = n
	return b
}

// Build creates a Simulator. It fails with ErrInvalidPolicy or
// ErrInvalidCapacity when the configuration cannot describe a simulation.
func (b Builder) Build(name string) (*Simulator, error) {
	if b.numFrames <= 0 {
		return nil, fmt.Errorf(
			"%w: frame count must be positive, got %d",
			ErrInvalidCapacity, b.numFrames)
	}

	victimFinder, err := b.policy.VictimFinder()
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		policy:       b.policy,
		numFrames:    b.numFrames,
		victimFinder: victimFinder,
	}

	return s, nil
}
