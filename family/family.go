// Package family implements the tag family registry (spec.md §3, §6,
// §10): immutable records of a family's bit-grid size, correction radius,
// border width, and codeword list, plus a process-wide registry mirroring
// the teacher's codec.Register/codec.Get pattern (codec/registry.go) so
// callers can add custom families without threading a table through every
// call site.
package family

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-apriltag/apriltag/family/tables"
)

// Errors returned by this package.
var (
	ErrUnknownFamily = errors.New("family: unrecognised name")
	ErrInvalidBorder = errors.New("family: border must be >= 0")
)

// BorderPolarity re-exports tables.BorderPolarity for callers that only
// import this package.
type BorderPolarity = tables.BorderPolarity

const (
	BorderBlack = tables.BorderBlack
	BorderWhite = tables.BorderWhite
)

// TagFamily is an immutable record of one tag family's geometry and
// codebook (spec.md §3). Border is the only mutable field post
// construction, per spec.md's data model note.
type TagFamily struct {
	Name           string
	D              int // bits per side
	H              int // correction radius
	Border         int
	BorderPolarity BorderPolarity
	Codes          []uint64
}

// NBits returns the number of payload bits (D*D).
func (f *TagFamily) NBits() int { return f.D * f.D }

// New constructs the built-in family identified by name, generating its
// codebook deterministically (spec.md §6: family_create). Returns
// ErrUnknownFamily for an unrecognised name, matching the language-neutral
// API's "Unrecognised name returns null."
func New(name string) (*TagFamily, error) {
	p, ok := tables.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	codes := tables.GenerateCodebook(uint(p.D*p.D), p.MinHamming, p.NCodes, p.Seed)
	return &TagFamily{
		Name:           p.Name,
		D:              p.D,
		H:              (p.MinHamming - 1) / 2,
		Border:         p.Border,
		BorderPolarity: p.BorderPolarity,
		Codes:          codes,
	}, nil
}

// WithBorder returns a copy of f with Border overridden, per spec.md's
// "border (mutable post-construction; default 1)" and the detector_add_family
// "border" config option (spec.md §6).
func (f *TagFamily) WithBorder(border int) (*TagFamily, error) {
	if border < 0 {
		return nil, ErrInvalidBorder
	}
	cp := *f
	cp.Border = border
	return &cp, nil
}

// BestMatch finds the codeword with minimum Hamming distance to code,
// returning its index and that distance. Ties keep the first (lowest
// index) match, matching the teacher's deterministic-iteration-order
// registry lookups.
func (f *TagFamily) BestMatch(code uint64) (index int, hamming int) {
	best := -1
	bestDist := f.NBits() + 1
	for i, c := range f.Codes {
		d := popcount(code ^ c)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, bestDist
}

func popcount(v uint64) int {
	count := 0
	for v != 0 {
		v &= v - 1
		count++
	}
	return count
}

// RotateCW returns the codeword obtained by rotating the D x D bit grid 90
// degrees clockwise, used by the decoder's 4-rotation search (spec.md
// §4.6). Bit index i*D+j addresses row i (top to bottom), column j (left
// to right).
func (f *TagFamily) RotateCW(code uint64) uint64 {
	d := f.D
	var out uint64
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			bit := (code >> uint(i*d+j)) & 1
			ni, nj := j, d-1-i
			out |= bit << uint(ni*d+nj)
		}
	}
	return out
}

// Registry is a named collection of tag families, mirroring
// codec.Registry's name-keyed sync.RWMutex map (codec/registry.go).
type Registry struct {
	mu       sync.RWMutex
	families map[string]*TagFamily
}

var defaultRegistry = &Registry{families: make(map[string]*TagFamily)}

// RegisterFamily adds f to the process-wide registry under f.Name.
func RegisterFamily(f *TagFamily) { defaultRegistry.Register(f) }

// LookupFamily retrieves a previously registered family by name.
func LookupFamily(name string) (*TagFamily, error) { return defaultRegistry.Get(name) }

// ListFamilies returns all registered families.
func ListFamilies() []*TagFamily { return defaultRegistry.List() }

// Register adds f under f.Name.
func (r *Registry) Register(f *TagFamily) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.families == nil {
		r.families = make(map[string]*TagFamily)
	}
	r.families[f.Name] = f
}

// Get retrieves a family by name.
func (r *Registry) Get(name string) (*TagFamily, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, name)
	}
	return f, nil
}

// List returns all registered families.
func (r *Registry) List() []*TagFamily {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TagFamily, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f)
	}
	return out
}
