package kinds

const (
	length   = 64
	idLength = 8
	depthMax = length / idLength
	idMask   = (1 << idLength) - 1
)

// Kind packs id into the low byte and appends every distinct id found in
// bases, one byte per level, so a kind carries its whole ancestry.
func Kind(id uint64, bases ...uint64) uint64 {
	kind := id & idMask
	depth := 0
	seen := map[uint64]bool{}
	for _, base := range bases {
		for level := 0; level < depthMax; level++ {
			baseId := (base >> (idLength * level)) & idMask
			if baseId == 0 {
				break
			}
			if seen[baseId] {
				continue
			}
			seen[baseId] = true
			depth++
			if depth >= depthMax {
				return kind
			}
			kind |= baseId << (idLength * depth)
		}
	}
	return kind
}

// IsKind reports whether kind is, or descends from, any of bases.
func IsKind(kind uint64, bases ...uint64) bool {
	for _, base := range bases {
		baseId := base & idMask
		if baseId == 0 {
			continue
		}
		for level := 0; level < depthMax; level++ {
			if (kind>>(idLength*level))&idMask == baseId {
				return true
			}
		}
	}
	return false
}

var (
	Null        = Kind(0)
	Element     = Kind(1)
	Subsystem   = Kind(2, Element)
	Command     = Kind(3, Element)
	Lambda      = Kind(4, Command)
	Instant     = Kind(5, Lambda)
	Run         = Kind(6, Lambda)
	Wait        = Kind(7, Lambda)
	WaitUntil   = Kind(8, Lambda)
	Callback    = Kind(9, Command)
	Composite   = Kind(10, Command)
	Group       = Kind(11, Composite)
	Sequential  = Kind(12, Group)
	Parallel    = Kind(13, Group)
	Race        = Kind(14, Parallel)
	Deadline    = Kind(15, Parallel)
	Conditional = Kind(16, Composite)
)
