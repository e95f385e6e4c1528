package model

// Footprint is the rectangular canvas extent a node occupies, used for
// AABB collision resolution. Sizes are fixed per level with a couple of
// kind-specific bumps so the table stays small and deterministic.
type Footprint struct {
	W, H float64
}

// Half returns the half extents.
func (f Footprint) Half() (float64, float64) {
	return f.W / 2, f.H / 2
}

var footprintByLevel = [MaxLevel + 1]Footprint{
	LevelRoot:        {W: 160, H: 72},
	LevelPerson:      {W: 130, H: 60},
	LevelCategory:    {W: 110, H: 52},
	LevelSubcategory: {W: 96, H: 44},
	LevelDocument:    {W: 84, H: 38},
	LevelRootDoc:     {W: 84, H: 38},
}

// NodeFootprint returns the collision rectangle for a node of the given
// level and kind. Out-of-range levels clamp to the nearest valid level so
// malformed data degrades to a drawable box instead of a panic.
func NodeFootprint(level int, kind Kind) Footprint {
	if level < LevelRoot {
		level = LevelRoot
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	f := footprintByLevel[level]
	switch kind {
	case KindPet:
		// Pets render with an avatar badge and need a wider box.
		f.W += 16
	case KindFolder:
		f.H += 6
	}
	return f
}
