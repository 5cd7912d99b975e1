// Package decode implements bit sampling and codeword matching against a
// tag family's codebook (spec.md §4.6): interior grid sampling via the
// quad's homography, border-polarity validation, the 4-rotation search,
// and the decision-margin soft-decision score.
package decode

import (
	"errors"
	"math"

	"github.com/go-apriltag/apriltag/family"
	"github.com/go-apriltag/apriltag/internal/imagebuf"
	"github.com/go-apriltag/apriltag/internal/quad"
	"github.com/go-apriltag/apriltag/internal/threshold"
)

// Errors returned by this package. These are all spec.md §7 TransientReject
// conditions: candidates are silently dropped, never surfaced to the caller.
var (
	ErrBorderMismatch  = errors.New("decode: border polarity check failed")
	ErrHammingTooLarge = errors.New("decode: minimum Hamming distance exceeds family radius")
)

// MinBorderMatchFraction is the spec.md §4.6 75% threshold.
const MinBorderMatchFraction = 0.75

// Result is a successful decode against one tag family.
type Result struct {
	FamilyName     string
	ID             int
	Hamming        int
	Rotation       int // winning rotation, 0-3, quarter turns CW
	DecisionMargin float64
	Code           uint64
}

// cellCenter returns the canonical coordinate of grid cell (i, j) in a
// (d + 2*border)-wide grid, where i, j range over [-border, d+border-1]
// (spec.md §4.6's formula generalised to cover the border ring).
func cellCenter(i, j, d, border int) (x, y float64) {
	n := float64(d + 2*border)
	x = (2*float64(i) - float64(d) + 1) / n
	y = (2*float64(j) - float64(d) + 1) / n
	return
}

// sample projects a canonical coordinate through the quad's homography,
// offsets the result by (offX, offY) image pixels, and bilinearly samples
// the source image, returning the raw intensity and the local DARK/LIGHT
// threshold midpoint from the reused tile bounds. The offset supports
// refine_decode's per-grid perturbation search (spec.md §4.7).
func sample(q *quad.Quad, img *imagebuf.Image8, th *threshold.Image, cx, cy, offX, offY float64) (value, mid float64) {
	x, y := q.Project(cx, cy)
	x += offX
	y += offY
	value = img.BilinearSample(x, y)
	px := clampInt(int(x+0.5), 0, th.Width-1)
	py := clampInt(int(y+0.5), 0, th.Height-1)
	mn, mx := th.TileBounds(px, py)
	mid = (float64(mn) + float64(mx)) / 2
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Decode samples q's interior grid against f's geometry, validates the
// border, packs the payload bits, searches the 4 grid rotations against
// f's codebook, and returns the winning Result. TransientReject conditions
// (border mismatch, hamming beyond f.H) are reported via the returned
// error; callers drop the candidate silently (spec.md §7).
func Decode(q *quad.Quad, f *family.TagFamily, img *imagebuf.Image8, th *threshold.Image) (*Result, error) {
	return DecodeOffset(q, f, img, th, 0, 0)
}

// DecodeOffset behaves like Decode but shifts every sample point by
// (offX, offY) image pixels before sampling, letting refine_decode probe
// nearby sampling grids without duplicating the bit-packing logic
// (spec.md §4.7: "perturb each bit's sample center by ±1 pixel").
func DecodeOffset(q *quad.Quad, f *family.TagFamily, img *imagebuf.Image8, th *threshold.Image, offX, offY float64) (*Result, error) {
	d := f.D
	border := f.Border

	// Border ring check.
	var borderMatches, borderTotal int
	expectDark := f.BorderPolarity == family.BorderBlack
	for i := -border; i < d+border; i++ {
		for j := -border; j < d+border; j++ {
			if i >= 0 && i < d && j >= 0 && j < d {
				continue // interior payload cell, not border
			}
			cx, cy := cellCenter(i, j, d, border)
			value, mid := sample(q, img, th, cx, cy, offX, offY)
			isDark := value <= mid
			borderTotal++
			if isDark == expectDark {
				borderMatches++
			}
		}
	}
	if borderTotal > 0 && float64(borderMatches)/float64(borderTotal) < MinBorderMatchFraction {
		return nil, ErrBorderMismatch
	}

	// Payload bits: bit index i*d+j, 1 == dark.
	bitVals := make([]float64, d*d)
	bitMid := make([]float64, d*d)
	var code uint64
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			cx, cy := cellCenter(i, j, d, border)
			value, mid := sample(q, img, th, cx, cy, offX, offY)
			idx := i*d + j
			bitVals[idx] = value
			bitMid[idx] = mid
			if value <= mid {
				code |= 1 << uint(idx)
			}
		}
	}

	best := searchRotations(f, code)

	if best.dist > f.H {
		return nil, ErrHammingTooLarge
	}

	margin := decisionMargin(f, bitVals, bitMid, d, best)

	return &Result{
		FamilyName:     f.Name,
		ID:             best.idx,
		Hamming:        best.dist,
		Rotation:       best.rotation,
		DecisionMargin: margin,
		Code:           best.code,
	}, nil
}

type rotationMatch struct {
	rotation int
	code     uint64
	idx      int
	dist     int
}

// searchRotations tries all 4 quarter-turn rotations of the sampled
// codeword against f's codebook and keeps the globally best match
// (spec.md §4.6).
func searchRotations(f *family.TagFamily, code uint64) rotationMatch {
	best := rotationMatch{dist: f.NBits() + 1}
	rotated := code
	for r := 0; r < 4; r++ {
		idx, dist := f.BestMatch(rotated)
		if dist < best.dist {
			best = rotationMatch{rotation: r, code: rotated, idx: idx, dist: dist}
		}
		rotated = f.RotateCW(rotated)
	}
	return best
}

// decisionMargin implements the glossary's "soft-decision confidence: a
// signed score separating the best matching codeword from the best
// non-matching one" (spec.md §4.6). Each bit contributes
// |sampled-threshold|, signed by whether it agrees with the codeword under
// test.
func decisionMargin(f *family.TagFamily, bitVals, bitMid []float64, d int, best rotationMatch) float64 {
	matchScore := codeScore(best.code, bitVals, bitMid, d)

	// Best non-matching codeword: second-best overall match at the
	// winning rotation, excluding the winner itself.
	nonMatchIdx := -1
	nonMatchDist := f.NBits() + 1
	for i, c := range f.Codes {
		if i == best.idx {
			continue
		}
		dist := popcountXOR(best.code, c)
		if dist < nonMatchDist {
			nonMatchDist = dist
			nonMatchIdx = i
		}
	}
	if nonMatchIdx < 0 {
		return matchScore
	}
	nonMatchScore := codeScore(f.Codes[nonMatchIdx], bitVals, bitMid, d)
	return matchScore - nonMatchScore
}

func codeScore(code uint64, bitVals, bitMid []float64, d int) float64 {
	score := 0.0
	for idx := 0; idx < d*d; idx++ {
		expectDark := (code>>uint(idx))&1 == 1
		conf := math.Abs(bitVals[idx] - bitMid[idx])
		sampledDark := bitVals[idx] <= bitMid[idx]
		if sampledDark == expectDark {
			score += conf
		} else {
			score -= conf
		}
	}
	return score
}

func popcountXOR(a, b uint64) int {
	v := a ^ b
	count := 0
	for v != 0 {
		v &= v - 1
		count++
	}
	return count
}
