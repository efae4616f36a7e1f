package field

import (
	"math/rand/v2"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/particlesdf/rt/particles"
)

func mustGrid(t *testing.T, n int, lo, hi float32) Grid {
	t.Helper()
	g, err := NewGrid([3]int{n, n, n}, mgl32.Vec3{lo, lo, lo}, mgl32.Vec3{hi, hi, hi})
	require.NoError(t, err)
	return g
}

func mustLayout(t *testing.T, per int) BundleLayout {
	t.Helper()
	l, err := NewBundleLayout(per, ParticleSize)
	require.NoError(t, err)
	return l
}

func TestGrid(t *testing.T) {
	g := mustGrid(t, 8, -1, 1)
	assert.Equal(t, 512, g.Len())
	assert.Equal(t, mgl32.Vec3{0.25, 0.25, 0.25}, g.VoxelSize())
	assert.Equal(t, mgl32.Vec3{-0.875, -0.875, -0.875}, g.VoxelCenter(0, 0, 0))
	assert.Equal(t, 1+8*(2+8*3), g.Index(1, 2, 3))

	x, y, z := g.Dispatch(Workgroup)
	assert.Equal(t, [3]uint32{1, 2, 4}, [3]uint32{x, y, z})

	g2, err := NewGrid([3]int{9, 5, 3}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	require.NoError(t, err)
	x, y, z = g2.Dispatch(Workgroup)
	assert.Equal(t, [3]uint32{2, 2, 2}, [3]uint32{x, y, z})

	_, err = NewGrid([3]int{0, 1, 1}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	assert.Error(t, err)
	_, err = NewGrid([3]int{1, 1, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{1, 1, 1})
	assert.Error(t, err)
}

func TestClearWritesSentinel(t *testing.T) {
	v := NewVolume(mustGrid(t, 4, 0, 1))
	v.Clear(Back)
	for _, d := range v.Data(Back) {
		assert.Equal(t, MaxDistance, d)
	}
}

func TestEmptyBuild(t *testing.T) {
	g := mustGrid(t, 4, 0, 1)
	data := Build(g, mustLayout(t, 32), nil)
	for _, d := range data {
		assert.Equal(t, MaxDistance, d)
	}
}

func TestSingleParticle(t *testing.T) {
	g := mustGrid(t, 8, -1, 1)
	const r = 0.1
	center := g.VoxelCenter(3, 3, 3)
	ps := []particles.Particle{{Position: center, Radius: r}}

	v := NewVolume(g)
	final := v.Run(NewPlan(1), mustLayout(t, 1), ps)
	assert.Equal(t, Back, final)

	assert.InDelta(t, -r, v.At(final, 3, 3, 3), 1e-6)
	// two voxels along x is 0.5 away
	assert.InDelta(t, 0.5-r, v.At(final, 5, 3, 3), 1e-6)
	d := g.VoxelCenter(6, 1, 3).Sub(center).Len()
	assert.InDelta(t, d-r, v.At(final, 6, 1, 3), 1e-5)
}

func TestAccumulateAliasPanics(t *testing.T) {
	v := NewVolume(mustGrid(t, 2, 0, 1))
	assert.Panics(t, func() { v.Accumulate(Front, Front, nil) })
}

func TestParticleGridInsideVoxels(t *testing.T) {
	const r = 0.08
	ps := particles.Grid(8, 8, 8, particles.RadiusRange{Min: r, Max: r}, particles.NewRand(1))
	require.Len(t, ps, 512)

	g := mustGrid(t, 20, -0.5, 0.5)
	data := Build(g, mustLayout(t, 32), ps)

	inside := 0
	for z := 0; z < g.Resolution[2]; z++ {
		for y := 0; y < g.Resolution[1]; y++ {
			for x := 0; x < g.Resolution[0]; x++ {
				c := g.VoxelCenter(x, y, z)
				nearest := float32(MaxDistance)
				for _, p := range ps {
					nearest = math32.Min(nearest, c.Sub(p.Position).Len())
				}
				if nearest <= r {
					inside++
					assert.LessOrEqual(t, data[g.Index(x, y, z)], float32(1e-6), "voxel %d,%d,%d", x, y, z)
				}
			}
		}
	}
	assert.Positive(t, inside)
}

func TestTrailingParticleExcluded(t *testing.T) {
	g := mustGrid(t, 8, -1, 1)
	l := mustLayout(t, 32)
	rng := particles.NewRand(7)
	ps := particles.Random(32, -0.9, -0.1, particles.RandomRadius, rng)
	// the 33rd sits where nothing else is
	ps = append(ps, particles.Particle{Position: mgl32.Vec3{0.6, 0.6, 0.6}, Radius: 0.3})

	full := Build(g, l, ps)
	assert.Equal(t, Build(g, l, ps[:32]), full)

	// a 33rd particle would make this voxel negative
	assert.Positive(t, full[g.Index(6, 6, 6)])
}

func TestOrderIndependence(t *testing.T) {
	g := mustGrid(t, 10, -1, 1)
	rng := particles.NewRand(42)
	ps := particles.Random(48, -0.8, 0.8, particles.RandomRadius, rng)
	l := mustLayout(t, 8)
	want := Build(g, l, ps)

	shuffle := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 5; i++ {
		order := shuffle.Perm(l.Count(len(ps)))
		plan, err := NewPlanOrder(order)
		require.NoError(t, err)
		v := NewVolume(g)
		final := v.Run(plan, l, ps)
		assert.Equal(t, want, v.Data(final), "order %v", order)
	}

	// different bundle partitions of the same set
	for _, per := range []int{1, 3, 16, 48} {
		assert.Equal(t, want, Build(g, mustLayout(t, per), ps), "per=%d", per)
	}

	// particle order within the set
	rev := make([]particles.Particle, len(ps))
	for i, p := range ps {
		rev[len(ps)-1-i] = p
	}
	assert.Equal(t, want, Build(g, l, rev))
}
