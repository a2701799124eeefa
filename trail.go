package comet

import "math"

// trail is the follow-the-leader chain behind the head. Segment 0 chases
// the smoothed head position, segment i chases segment i-1.
type trail struct {
	pos     []Vec2
	damping []float64 // per-reference-frame coefficient of each segment
	falloff []float64 // (i+1)/(n+1), fixed per segment
}

func newTrail(cfg Config) trail {
	n := cfg.Segments
	t := trail{
		pos:     make([]Vec2, n),
		damping: make([]float64, n),
		falloff: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		t.pos[i] = cfg.Origin
		t.damping[i] = cfg.SegmentDamping(i)
		t.falloff[i] = float64(i+1) / float64(n+1)
	}
	return t
}

// advance moves every segment one step toward its leader. frames is the
// number of reference frames the step covers.
func (t *trail) advance(head Vec2, frames float64) {
	leader := head
	for i := range t.pos {
		k := frameCoefficient(t.damping[i], frames)
		t.pos[i] = t.pos[i].Add(leader.Sub(t.pos[i]).Scale(k))
		leader = t.pos[i]
	}
}

// render writes the segment transforms for a head with the given angle and
// stretch into out, which must have one slot per segment.
func (t *trail) render(out []Transform, angle, stretch float64, cfg *Config) {
	for i, p := range t.pos {
		f := t.falloff[i]
		s := 1 + (stretch-1)*(1-f)*cfg.SegmentStretchInfluence
		out[i] = Transform{
			X:          p.X,
			Y:          p.Y,
			Rotation:   angle,
			ScaleAlong: s,
			ScalePerp:  1 / s,
			Opacity:    cfg.SegmentOpacity * (1 - f),
		}
	}
}

// frameCoefficient rescales a per-reference-frame smoothing coefficient c to
// a step covering frames reference frames, so that n steps of 1/n frames
// move exactly as far as one full frame. A single frame uses c unchanged.
func frameCoefficient(c, frames float64) float64 {
	if frames == 1 {
		return c
	}
	return 1 - math.Pow(1-c, frames)
}
