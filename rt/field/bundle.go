package field

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/particlesdf/rt/particles"
)

// ParticleSize is the byte size of one particle: vec3<f32> position + f32 radius.
const ParticleSize = 16

const DefaultParticlesPerBundle = 32

var ErrInvalidLayout = errors.New("invalid bundle layout")

// BundleLayout describes how particles are packed into the storage buffer so
// that each bundle starts on a dynamic-offset boundary.
type BundleLayout struct {
	ParticlesPerBundle int
	Stride             uint32 // bytes between bundle starts
}

// NewBundleLayout rounds the bundle byte size up to alignment, which must be
// the device's minimum storage buffer offset alignment (a power of two).
func NewBundleLayout(particlesPerBundle int, alignment uint32) (BundleLayout, error) {
	if particlesPerBundle <= 0 {
		return BundleLayout{}, fmt.Errorf("%w: %d particles per bundle", ErrInvalidLayout, particlesPerBundle)
	}
	if alignment == 0 || alignment&(alignment-1) != 0 {
		return BundleLayout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, alignment)
	}
	size := uint32(particlesPerBundle * ParticleSize)
	stride := (size + alignment - 1) &^ (alignment - 1)
	return BundleLayout{ParticlesPerBundle: particlesPerBundle, Stride: stride}, nil
}

// BindingSize is the byte range visible to one dispatch.
func (l BundleLayout) BindingSize() uint64 {
	return uint64(l.ParticlesPerBundle * ParticleSize)
}

// Count is the number of full bundles in n particles.
func (l BundleLayout) Count(n int) int {
	return n / l.ParticlesPerBundle
}

func (l BundleLayout) Offset(bundle int) uint32 {
	return uint32(bundle) * l.Stride
}

// BufferSize is the storage buffer size for n particles. Never zero so an
// empty set can still be bound.
func (l BundleLayout) BufferSize(n int) uint64 {
	c := l.Count(n)
	if c == 0 {
		return uint64(l.Stride)
	}
	return uint64(c) * uint64(l.Stride)
}

// Truncate drops particles past the last full bundle.
func (l BundleLayout) Truncate(ps []particles.Particle) []particles.Particle {
	return ps[:l.Count(len(ps))*l.ParticlesPerBundle]
}

// Bundle returns the particles of bundle i.
func (l BundleLayout) Bundle(ps []particles.Particle, i int) []particles.Particle {
	start := i * l.ParticlesPerBundle
	return ps[start : start+l.ParticlesPerBundle]
}

// Pack lays out full bundles at Stride intervals, little endian, zero padded.
func (l BundleLayout) Pack(ps []particles.Particle) []byte {
	buf := make([]byte, l.BufferSize(len(ps)))
	for b := 0; b < l.Count(len(ps)); b++ {
		base := int(l.Offset(b))
		for j, p := range l.Bundle(ps, b) {
			o := base + j*ParticleSize
			binary.LittleEndian.PutUint32(buf[o:], math.Float32bits(p.Position[0]))
			binary.LittleEndian.PutUint32(buf[o+4:], math.Float32bits(p.Position[1]))
			binary.LittleEndian.PutUint32(buf[o+8:], math.Float32bits(p.Position[2]))
			binary.LittleEndian.PutUint32(buf[o+12:], math.Float32bits(p.Radius))
		}
	}
	return buf
}
