package field

import "fmt"

// Slot names one of the two field textures.
type Slot int

const (
	Front Slot = iota
	Back
)

func (s Slot) Other() Slot { return 1 - s }

func (s Slot) String() string {
	if s == Back {
		return "back"
	}
	return "front"
}

type StepKind int

const (
	StepClear StepKind = iota
	StepAccumulate
)

// Step is one compute dispatch. Clear steps only write Dst.
type Step struct {
	Kind   StepKind
	Bundle int
	Src    Slot
	Dst    Slot
}

// Plan is the dispatch sequence for one field build: a clear into Front
// followed by one accumulate per bundle, alternating source and destination.
type Plan struct {
	Steps []Step
}

func NewPlan(bundles int) Plan {
	order := make([]int, bundles)
	for i := range order {
		order[i] = i
	}
	p, _ := NewPlanOrder(order)
	return p
}

// NewPlanOrder builds a plan visiting bundles in the given order. order must
// be a permutation of 0..len(order)-1.
func NewPlanOrder(order []int) (Plan, error) {
	seen := make([]bool, len(order))
	for _, b := range order {
		if b < 0 || b >= len(order) || seen[b] {
			return Plan{}, fmt.Errorf("bundle order %v is not a permutation", order)
		}
		seen[b] = true
	}

	steps := make([]Step, 0, len(order)+1)
	steps = append(steps, Step{Kind: StepClear, Src: Front, Dst: Front})
	src := Front
	for _, b := range order {
		steps = append(steps, Step{Kind: StepAccumulate, Bundle: b, Src: src, Dst: src.Other()})
		src = src.Other()
	}
	return Plan{Steps: steps}, nil
}

// Final is the slot holding the finished field.
func (p Plan) Final() Slot {
	if len(p.Steps) == 0 {
		return Front
	}
	return p.Steps[len(p.Steps)-1].Dst
}

func (p Plan) Bundles() int {
	if len(p.Steps) == 0 {
		return 0
	}
	return len(p.Steps) - 1
}
