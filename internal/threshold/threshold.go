// Package threshold implements the per-tile adaptive thresholder (spec.md
// §4.1): a three-valued classification of each pixel into DARK, LIGHT, or
// SKIP based on smoothed per-tile min/max intensity.
package threshold

import "github.com/go-apriltag/apriltag/internal/imagebuf"

// Label is the three-valued classification of a thresholded pixel.
type Label uint8

const (
	// Skip marks a tile with insufficient contrast; the pixel is a
	// wildcard that neither starts nor breaks an edge.
	Skip Label = iota
	Dark
	Light
)

// DefaultTileSize is the tile edge length used post-decimation (spec §4.1: T≈4).
const DefaultTileSize = 4

// DefaultMinContrast is the minimum (max-min) tile contrast required to
// avoid SKIP classification.
const DefaultMinContrast = 5

// Image is the thresholded output: one Label per pixel of the source image,
// plus the per-tile (min,max) used to produce it (reused later by the
// decoder for border/bit classification).
type Image struct {
	Width, Height int
	Labels        []Label
	TileSize      int
	TilesX        int
	TilesY        int
	TileMin       []uint8 // TilesX*TilesY, post 3x3-smoothing
	TileMax       []uint8
}

func (t *Image) tileIndex(tx, ty int) int { return ty*t.TilesX + tx }

// At returns the label at (x, y).
func (t *Image) At(x, y int) Label {
	return t.Labels[y*t.Width+x]
}

// TileBounds returns the smoothed (min, max) for the tile containing pixel
// (x, y); used by the decoder to classify sampled bit intensities using the
// same local reference the segmentation stage used.
func (t *Image) TileBounds(x, y int) (min, max uint8) {
	tx := x / t.TileSize
	ty := y / t.TileSize
	if tx >= t.TilesX {
		tx = t.TilesX - 1
	}
	if ty >= t.TilesY {
		ty = t.TilesY - 1
	}
	idx := t.tileIndex(tx, ty)
	return t.TileMin[idx], t.TileMax[idx]
}

// Adaptive computes the three-valued threshold image for src using tiles of
// tileSize and a minimum contrast of minContrast (spec.md §4.1).
func Adaptive(src *imagebuf.Image8, tileSize, minContrast int) *Image {
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	tilesX := (src.Width + tileSize - 1) / tileSize
	tilesY := (src.Height + tileSize - 1) / tileSize

	rawMin := make([]uint8, tilesX*tilesY)
	rawMax := make([]uint8, tilesX*tilesY)
	for i := range rawMin {
		rawMin[i] = 255
		rawMax[i] = 0
	}

	for y := 0; y < src.Height; y++ {
		ty := y / tileSize
		row := src.Row(y)
		for x := 0; x < src.Width; x++ {
			tx := x / tileSize
			idx := ty*tilesX + tx
			v := row[x]
			if v < rawMin[idx] {
				rawMin[idx] = v
			}
			if v > rawMax[idx] {
				rawMax[idx] = v
			}
		}
	}

	// Smooth min/max across the 3x3 tile neighbourhood: min-of-mins,
	// max-of-maxes (spec.md §4.1).
	smoothMin := make([]uint8, tilesX*tilesY)
	smoothMax := make([]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			mn := uint8(255)
			mx := uint8(0)
			for dy := -1; dy <= 1; dy++ {
				ny := ty + dy
				if ny < 0 || ny >= tilesY {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := tx + dx
					if nx < 0 || nx >= tilesX {
						continue
					}
					idx := ny*tilesX + nx
					if rawMin[idx] < mn {
						mn = rawMin[idx]
					}
					if rawMax[idx] > mx {
						mx = rawMax[idx]
					}
				}
			}
			idx := ty*tilesX + tx
			smoothMin[idx] = mn
			smoothMax[idx] = mx
		}
	}

	out := &Image{
		Width:    src.Width,
		Height:   src.Height,
		Labels:   make([]Label, src.Width*src.Height),
		TileSize: tileSize,
		TilesX:   tilesX,
		TilesY:   tilesY,
		TileMin:  smoothMin,
		TileMax:  smoothMax,
	}

	for y := 0; y < src.Height; y++ {
		ty := y / tileSize
		row := src.Row(y)
		for x := 0; x < src.Width; x++ {
			tx := x / tileSize
			idx := ty*tilesX + tx
			mn, mx := smoothMin[idx], smoothMax[idx]
			outIdx := y*src.Width + x
			if int(mx)-int(mn) < minContrast {
				out.Labels[outIdx] = Skip
				continue
			}
			mid := (int(mn) + int(mx)) / 2
			if int(row[x]) > mid {
				out.Labels[outIdx] = Light
			} else {
				out.Labels[outIdx] = Dark
			}
		}
	}

	return out
}
