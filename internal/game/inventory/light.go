package inventory

// Token light animations.
const (
	AnimationTorch = "torch"
	AnimationNone  = "none"
)

// Emission is the light an actor's token should give off.
type Emission struct {
	Dim       float64 `yaml:"dim" json:"dim"`
	Bright    float64 `yaml:"bright" json:"bright"`
	Animation string  `yaml:"animation" json:"animation"`
	Speed     int     `yaml:"speed" json:"speed"`
	Intensity int     `yaml:"intensity" json:"intensity"`
}

// Extinguished is the emission of an actor carrying no lit light source.
func Extinguished() Emission {
	return Emission{Animation: AnimationNone, Speed: 5, Intensity: 5}
}

// BrightestLight picks the lit, carried light source with the widest dim radius.
// On equal radii the later item wins.
//
// Postcondition: Returns Extinguished() and false when no light source is lit.
func BrightestLight(items []Item) (Emission, bool) {
	var best *Item
	for i := range items {
		it := &items[i]
		if it.Category != CategoryLightSource || !it.Light.Lit || it.Dropped {
			continue
		}
		if best == nil || it.Light.DimRadius >= best.Light.DimRadius {
			best = it
		}
	}
	if best == nil {
		return Extinguished(), false
	}
	return Emission{
		Dim:       best.Light.DimRadius,
		Bright:    best.Light.BrightRadius,
		Animation: AnimationTorch,
		Speed:     best.Light.Speed,
		Intensity: best.Light.Intensity,
	}, true
}
