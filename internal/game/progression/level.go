package progression

import "math"

// MaxLevel is the highest attainable level.
const MaxLevel = 10

// MaxTicks is the length of the tick-based experience track.
const MaxTicks = 10

// defaultBase is used when a caller passes a non-positive base unit.
const defaultBase = 2000

// bandFloors are the lower bounds of levels 1..10 as multiples of the base unit.
var bandFloors = [MaxLevel]float64{0, 1, 2, 4, 8, 16, 32, 62.5, 125, 250}

// LevelProgress is the level reached by an experience total and the percentage
// of the way through that level's band.
type LevelProgress struct {
	Level    int
	Progress int
}

// Level maps an experience total onto the ten-band curve scaled by base.
//
// Precondition: none; negative xp is treated as 0 and base <= 0 as 2000.
// Postcondition: 1 <= Level <= 10; 0 <= Progress <= 100; Progress is 100 at level 10.
func Level(xp, base int) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	if base <= 0 {
		base = defaultBase
	}
	x := float64(xp)
	b := float64(base)
	for i := MaxLevel - 1; i >= 0; i-- {
		floor := bandFloors[i] * b
		if x < floor {
			continue
		}
		if i == MaxLevel-1 {
			return LevelProgress{Level: MaxLevel, Progress: 100}
		}
		width := (bandFloors[i+1] - bandFloors[i]) * b
		return LevelProgress{
			Level:    i + 1,
			Progress: int(math.Floor((x - floor) / width * 100)),
		}
	}
	return LevelProgress{Level: 1}
}

// LevelFloor returns the experience needed to reach level under base.
//
// Postcondition: Returns 0 for level <= 1; levels above MaxLevel use the level 10 floor.
func LevelFloor(level, base int) int {
	if base <= 0 {
		base = defaultBase
	}
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return int(math.Ceil(bandFloors[level-1] * float64(base)))
}

// TickProgress converts a tick count on the simple experience track into a
// display percentage. Ticks are clamped to [0, MaxTicks].
func TickProgress(ticks int) int {
	return ClampTicks(ticks) * 10
}

// ClampTicks bounds ticks to [0, MaxTicks].
func ClampTicks(ticks int) int {
	if ticks < 0 {
		return 0
	}
	if ticks > MaxTicks {
		return MaxTicks
	}
	return ticks
}
