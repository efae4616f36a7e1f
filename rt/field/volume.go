package field

import (
	"github.com/chewxy/math32"

	"github.com/gekko3d/particlesdf/rt/particles"
)

// Volume executes field plans on the CPU with the same kernels as
// compute.wgsl. It backs the static field mode and offline tooling.
type Volume struct {
	Grid  Grid
	slots [2][]float32
}

func NewVolume(g Grid) *Volume {
	return &Volume{
		Grid:  g,
		slots: [2][]float32{make([]float32, g.Len()), make([]float32, g.Len())},
	}
}

func (v *Volume) Data(s Slot) []float32 {
	return v.slots[s]
}

func (v *Volume) At(s Slot, x, y, z int) float32 {
	return v.slots[s][v.Grid.Index(x, y, z)]
}

// Clear is cs_clear.
func (v *Volume) Clear(dst Slot) {
	d := v.slots[dst]
	for i := range d {
		d[i] = MaxDistance
	}
}

// Accumulate is cs_accumulate for one bundle.
func (v *Volume) Accumulate(src, dst Slot, bundle []particles.Particle) {
	if src == dst {
		panic("field: accumulate source and destination alias")
	}
	in, out := v.slots[src], v.slots[dst]
	g := v.Grid
	for z := 0; z < g.Resolution[2]; z++ {
		for y := 0; y < g.Resolution[1]; y++ {
			for x := 0; x < g.Resolution[0]; x++ {
				i := g.Index(x, y, z)
				out[i] = math32.Min(in[i], BundleDistance(g.VoxelCenter(x, y, z), bundle))
			}
		}
	}
}

// Run executes plan against the bundles of ps and returns the final slot.
func (v *Volume) Run(plan Plan, layout BundleLayout, ps []particles.Particle) Slot {
	for _, st := range plan.Steps {
		switch st.Kind {
		case StepClear:
			v.Clear(st.Dst)
		case StepAccumulate:
			v.Accumulate(st.Src, st.Dst, layout.Bundle(ps, st.Bundle))
		}
	}
	return plan.Final()
}

// Build clears and accumulates every full bundle of ps in order.
func Build(g Grid, layout BundleLayout, ps []particles.Particle) []float32 {
	v := NewVolume(g)
	final := v.Run(NewPlan(layout.Count(len(ps))), layout, ps)
	return v.Data(final)
}

// BundleDistance is the signed distance from p to the nearest sphere surface
// in bundle.
func BundleDistance(p [3]float32, bundle []particles.Particle) float32 {
	d := MaxDistance
	for _, b := range bundle {
		dx := p[0] - b.Position[0]
		dy := p[1] - b.Position[1]
		dz := p[2] - b.Position[2]
		d = math32.Min(d, math32.Sqrt(dx*dx+dy*dy+dz*dz)-b.Radius)
	}
	return d
}
