package field

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxDistance is the sentinel written by the clear pass. It stays well inside
// the half-float range of the field textures.
const MaxDistance float32 = 1000

// Workgroup is the compute workgroup size declared in compute.wgsl.
var Workgroup = [3]uint32{8, 4, 2}

// Grid maps voxel indices to world space. Voxel centers sit at
// Min + (i + 0.5) * (Max - Min) / Resolution.
type Grid struct {
	Resolution [3]int
	Min        mgl32.Vec3
	Max        mgl32.Vec3
}

func NewGrid(res [3]int, min, max mgl32.Vec3) (Grid, error) {
	for i := 0; i < 3; i++ {
		if res[i] <= 0 {
			return Grid{}, fmt.Errorf("grid resolution %v must be positive", res)
		}
		if !(max[i] > min[i]) {
			return Grid{}, fmt.Errorf("grid bounds %v..%v are empty", min, max)
		}
	}
	return Grid{Resolution: res, Min: min, Max: max}, nil
}

func (g Grid) Len() int {
	return g.Resolution[0] * g.Resolution[1] * g.Resolution[2]
}

// Index is x-fastest, matching texture row layout.
func (g Grid) Index(x, y, z int) int {
	return x + g.Resolution[0]*(y+g.Resolution[1]*z)
}

func (g Grid) VoxelSize() mgl32.Vec3 {
	d := g.Max.Sub(g.Min)
	return mgl32.Vec3{
		d[0] / float32(g.Resolution[0]),
		d[1] / float32(g.Resolution[1]),
		d[2] / float32(g.Resolution[2]),
	}
}

func (g Grid) VoxelCenter(x, y, z int) mgl32.Vec3 {
	s := g.VoxelSize()
	return mgl32.Vec3{
		g.Min[0] + (float32(x)+0.5)*s[0],
		g.Min[1] + (float32(y)+0.5)*s[1],
		g.Min[2] + (float32(z)+0.5)*s[2],
	}
}

// Dispatch is the workgroup count covering the grid for a workgroup size.
func (g Grid) Dispatch(wg [3]uint32) (x, y, z uint32) {
	div := func(n int, w uint32) uint32 { return (uint32(n) + w - 1) / w }
	return div(g.Resolution[0], wg[0]), div(g.Resolution[1], wg[1]), div(g.Resolution[2], wg[2])
}
