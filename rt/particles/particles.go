// Package particles generates the particle sets folded into the distance field.
package particles

import (
	"fmt"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

type Particle struct {
	Position mgl32.Vec3
	Radius   float32
}

// RadiusRange is an inclusive radius interval.
type RadiusRange struct {
	Min, Max float32
}

var (
	GridRadius   = RadiusRange{Min: 0.05, Max: 0.1}
	RandomRadius = RadiusRange{Min: 0.025, Max: 0.05}
)

func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (r RadiusRange) sample(rng *rand.Rand) float32 {
	return r.Min + rng.Float32()*(r.Max-r.Min)
}

// Grid places one particle at each cell center of an nx*ny*nz lattice
// spanning the unit cube centred at the origin.
func Grid(nx, ny, nz int, radius RadiusRange, rng *rand.Rand) []Particle {
	size := mgl32.Vec3{float32(nx), float32(ny), float32(nz)}
	out := make([]Particle, 0, nx*ny*nz)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				p := mgl32.Vec3{
					(float32(x)+0.5)/size[0] - 0.5,
					(float32(y)+0.5)/size[1] - 0.5,
					(float32(z)+0.5)/size[2] - 0.5,
				}
				out = append(out, Particle{Position: p, Radius: radius.sample(rng)})
			}
		}
	}
	return out
}

// Random scatters n particles uniformly inside [lo, hi]^3.
func Random(n int, lo, hi float32, radius RadiusRange, rng *rand.Rand) []Particle {
	out := make([]Particle, n)
	for i := range out {
		out[i] = Particle{
			Position: mgl32.Vec3{
				lo + rng.Float32()*(hi-lo),
				lo + rng.Float32()*(hi-lo),
				lo + rng.Float32()*(hi-lo),
			},
			Radius: radius.sample(rng),
		}
	}
	return out
}

// Validate reports the first particle with a non-positive radius.
func Validate(ps []Particle) error {
	for i, p := range ps {
		if !(p.Radius > 0) {
			return fmt.Errorf("particle %d: radius %v must be positive", i, p.Radius)
		}
	}
	return nil
}
