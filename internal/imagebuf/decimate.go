package imagebuf

// Decimate downsamples src by the integer factor using nearest-neighbour
// sampling. factor must be >= 1; factor == 1 returns src unchanged.
func Decimate(src *Image8, factor int) (*Image8, error) {
	if factor <= 0 {
		return nil, ErrInvalidDimensions
	}
	if factor == 1 {
		return src, nil
	}
	w := src.Width / factor
	h := src.Height / factor
	if w < 1 || h < 1 {
		return nil, ErrInvalidDimensions
	}
	dst, err := NewImage8(w, h)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		sy := y * factor
		srow := src.Row(sy)
		drow := dst.Row(y)
		for x := 0; x < w; x++ {
			drow[x] = srow[x*factor]
		}
	}
	return dst, nil
}
