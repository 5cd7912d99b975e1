package tables

// BorderPolarity selects which side of a tag's border ring is expected to
// be the dark bit (spec.md §9, open question on non-default families).
type BorderPolarity int

const (
	BorderBlack BorderPolarity = iota
	BorderWhite
)

// Params describes one built-in tag family's fixed geometry and codebook
// generation inputs (spec.md §6's registry names, §3's TagFamily record).
type Params struct {
	Name           string
	D              int // bits per side
	MinHamming     int // minimum pairwise Hamming distance across the codebook
	NCodes         int
	Border         int
	BorderPolarity BorderPolarity
	Seed           uint64
}

// Builtin lists the six registry names spec.md §6 requires family_create
// to recognise. NCodes for the larger families is scaled down from their
// well-known upstream sizes (tag36h11 ships 587 codes upstream) to keep
// generation time and codebook size bounded for a generated-not-supplied
// table; see tables.GenerateCodebook's doc comment.
var Builtin = []Params{
	{Name: "tag16h5", D: 4, MinHamming: 5, NCodes: 30, Border: 1, BorderPolarity: BorderBlack, Seed: 0x7461673136683500},
	{Name: "tag25h7", D: 5, MinHamming: 7, NCodes: 60, Border: 1, BorderPolarity: BorderBlack, Seed: 0x7461673235683700},
	{Name: "tag25h9", D: 5, MinHamming: 9, NCodes: 35, Border: 1, BorderPolarity: BorderBlack, Seed: 0x7461673235683900},
	{Name: "tag36h10", D: 6, MinHamming: 10, NCodes: 120, Border: 1, BorderPolarity: BorderBlack, Seed: 0x7461673336683130},
	{Name: "tag36h11", D: 6, MinHamming: 11, NCodes: 120, Border: 1, BorderPolarity: BorderBlack, Seed: 0x7461673336683131},
	{Name: "tag36artoolkit", D: 6, MinHamming: 9, NCodes: 64, Border: 1, BorderPolarity: BorderWhite, Seed: 0x746167333661726b},
}

// Lookup returns the parameters for name, or ok=false if unrecognised.
func Lookup(name string) (Params, bool) {
	for _, p := range Builtin {
		if p.Name == name {
			return p, true
		}
	}
	return Params{}, false
}
