// Package deco is the recalculation engine behind the planner. It replays the
// entered waypoints through a Bühlmann ZHL-16C tissue model with gradient
// factors, schedules the ascent to the surface and accounts for the gas each
// cylinder gives.
package deco

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/dsh2/subsurface/internal/dive"
	"github.com/dsh2/subsurface/internal/planner"
)

// Sentinel errors returned by Recalculate.
var (
	ErrNoPoints    = errors.New("deco: plan has no waypoints")
	ErrNoCylinders = errors.New("deco: no cylinders")
	ErrUnknownGas  = errors.New("deco: waypoint gas is not carried by any cylinder")
	ErrDecoTooLong = errors.New("deco: decompression exceeds the time limit")
)

const (
	stopStep    = 3000 // mm between stop levels
	stopSeconds = 60   // stop time increment
	// substep bounds the exposure interval of the tissue integration.
	substep = 10.0
	// maxDeco bounds the total stop time of one ascent.
	maxDeco = 48 * 3600
)

// Engine implements planner.Engine. The zero value is ready to use.
type Engine struct{}

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

var _ planner.Engine = (*Engine)(nil)

// Recalculate replays plan over cylinders. With plan.Deco the ascent is
// scheduled with decompression stops; otherwise a direct ascent closes a
// profile that ends below the surface.
func (e *Engine) Recalculate(plan *planner.DivePlan, cylinders []dive.Cylinder) (*planner.Result, error) {
	if plan == nil || len(plan.Points) == 0 {
		return nil, ErrNoPoints
	}
	if len(cylinders) == 0 {
		return nil, ErrNoCylinders
	}

	s := newSim(plan, cylinders)
	first, err := s.cylinderFor(plan.Points[0].Gas)
	if err != nil {
		return nil, err
	}
	s.cyl = first
	s.setpoint = plan.Points[0].Setpoint
	s.sample(false)

	var depthTime float64
	for i, p := range plan.Points {
		idx, err := s.cylinderFor(p.Gas)
		if err != nil {
			return nil, err
		}
		s.cyl = idx
		s.setpoint = p.Setpoint
		from := s.depth
		if i == 0 && plan.Settings.DropStoneMode && p.Depth > 0 {
			desc := travelSeconds(p.Depth, plan.Settings.DescRate)
			if desc < float64(p.Duration) {
				s.apply(leg{from: 0, to: p.Depth, seconds: desc}, plan.Settings.BottomSAC)
				s.sample(false)
				s.apply(leg{from: p.Depth, to: p.Depth, seconds: float64(p.Duration) - desc}, plan.Settings.BottomSAC)
				s.sample(p.Entered)
				depthTime += float64(p.Depth) * (float64(p.Duration) - desc/2)
				continue
			}
		}
		s.apply(leg{from: from, to: p.Depth, seconds: float64(p.Duration)}, plan.Settings.BottomSAC)
		s.sample(p.Entered)
		depthTime += float64(from+p.Depth) / 2 * float64(p.Duration)
	}

	avg := s.depth
	if t := s.clock; t > 0 {
		avg = int(depthTime / t)
	}

	var stops []planner.DataPoint
	if s.depth > 0 {
		if plan.Deco {
			stops, err = s.decompress(avg)
			if err != nil {
				return nil, err
			}
		} else {
			stops = s.surface(avg)
		}
	}

	res := &planner.Result{
		Samples:   s.samples,
		Stops:     stops,
		Cylinders: s.finishCylinders(),
	}
	res.Notes = notes(plan, res, s.used)
	return res, nil
}

// sim is the running state of one recalculation.
type sim struct {
	settings planner.Settings
	mode     dive.Mode
	salinity int

	cyls []dive.Cylinder
	used []float64 // surface ml breathed per cylinder

	tis      tissues
	clock    float64 // seconds
	depth    int     // mm
	cyl      int
	setpoint int

	samples []dive.Sample
}

func newSim(plan *planner.DivePlan, cylinders []dive.Cylinder) *sim {
	s := &sim{
		settings: plan.Settings,
		mode:     plan.Mode,
		salinity: plan.Salinity,
		cyls:     slices.Clone(cylinders),
		used:     make([]float64, len(cylinders)),
	}
	s.tis = saturated(s.pressure(0))
	return s
}

// pressure returns the ambient pressure in bar at depth mm.
func (s *sim) pressure(depth int) float64 {
	return float64(dive.DepthToPressure(depth, s.settings.SurfacePressure, s.salinity)) / 1000
}

func (s *sim) cylinderFor(gas dive.GasMix) (int, error) {
	idx := dive.FindGas(s.cyls, gas)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownGas, gas.Name())
	}
	return idx, nil
}

func (s *sim) now() int {
	return int(math.Round(s.clock))
}

func (s *sim) sample(manual bool) {
	s.samples = append(s.samples, dive.Sample{
		Time:     s.now(),
		Depth:    s.depth,
		Cylinder: s.cyl,
		Setpoint: s.setpoint,
		Manual:   manual,
	})
}

// leg is a linear depth change over a time span.
type leg struct {
	from, to int
	seconds  float64
}

// expose integrates t over l breathing cylinder cyl.
func (s *sim) expose(t *tissues, l leg, cyl, setpoint int) {
	if l.seconds <= 0 {
		return
	}
	gas := s.cyls[cyl].Gas
	fO2, fHe := float64(gas.O2)/1000, float64(gas.He)/1000
	sp := float64(setpoint) / 1000
	steps := int(math.Ceil(l.seconds / substep))
	dt := l.seconds / float64(steps)
	for i := range steps {
		mid := float64(l.from) + float64(l.to-l.from)*(float64(i)+0.5)/float64(steps)
		n2, he := inspired(s.pressure(int(mid)), fO2, fHe, sp)
		t.load(dt, n2, he)
	}
}

// apply moves the diver along l, loading tissues and drawing gas at sac
// ml/min from the current cylinder. Closed circuit legs draw no gas.
func (s *sim) apply(l leg, sac int) {
	s.expose(&s.tis, l, s.cyl, s.setpoint)
	if s.setpoint == 0 && l.seconds > 0 {
		avg := s.pressure((l.from + l.to) / 2)
		s.used[s.cyl] += float64(sac) * avg * l.seconds / 60
	}
	s.clock += l.seconds
	s.depth = l.to
}

// travelSeconds is the time to cover dist mm at rate mm/min.
func travelSeconds(dist, rate int) float64 {
	if dist <= 0 || rate <= 0 {
		return 0
	}
	return float64(dist) * 60 / float64(rate)
}

// ascentRate picks the ascent rate for depth given the average depth so far.
func (s *sim) ascentRate(depth, avg int) int {
	switch {
	case depth*4 > avg*3:
		return s.settings.AscRate75
	case depth*2 > avg:
		return s.settings.AscRate50
	case depth > 6000:
		return s.settings.AscRateStops
	default:
		return s.settings.AscRateLast6m
	}
}

// ascentLegs splits an ascent into one meter pieces so every piece travels
// at the rate of its depth band.
func (s *sim) ascentLegs(from, to, avg int) []leg {
	var legs []leg
	for d := from; d > to; {
		next := max(to, (d-1)/1000*1000)
		legs = append(legs, leg{from: d, to: next, seconds: travelSeconds(d-next, s.ascentRate(d, avg))})
		d = next
	}
	return legs
}

// canAscend reports whether the tissues tolerate an ascent to depth under
// gradient factor gf.
func (s *sim) canAscend(to, avg int, gf float64) bool {
	t := s.tis
	for _, l := range s.ascentLegs(s.depth, to, avg) {
		s.expose(&t, l, s.cyl, s.setpoint)
	}
	return t.ceiling(gf) <= s.pressure(to)+1e-9
}

func (s *sim) ascend(to, avg int) {
	for _, l := range s.ascentLegs(s.depth, to, avg) {
		s.apply(l, s.settings.DecoSAC)
	}
}

// nextLevel returns the stop level above depth, or 0 once the last stop is
// passed.
func (s *sim) nextLevel(depth int) int {
	last := stopStep
	if s.settings.LastStop6m {
		last = 2 * stopStep
	}
	next := (depth - 1) / stopStep * stopStep
	if next < last {
		return 0
	}
	return next
}

// bestGas returns the cylinder with the richest oxygen mix whose pO2 at depth
// stays within the deco limit, or the current cylinder if none is richer.
func (s *sim) bestGas(depth int) int {
	best := s.cyl
	amb := s.pressure(depth)
	limit := float64(s.settings.DecoPO2) / 1000
	for i, c := range s.cyls {
		if float64(c.Gas.O2)/1000*amb > limit+1e-9 {
			continue
		}
		cur := s.cyls[best].Gas
		if c.Gas.O2 > cur.O2 || (c.Gas.O2 == cur.O2 && c.Gas.He < cur.He) {
			best = i
		}
	}
	return best
}

// emitter collects computed waypoints from the running clock.
type emitter struct {
	s      *sim
	last   int
	points []planner.DataPoint
}

func (e *emitter) emit() {
	now := e.s.now()
	e.points = append(e.points, planner.DataPoint{
		Depth:    e.s.depth,
		Duration: now - e.last,
		Gas:      e.s.cyls[e.s.cyl].Gas,
		Setpoint: e.s.setpoint,
	})
	e.s.sample(false)
	e.last = now
}

// surface ascends without stops.
func (s *sim) surface(avg int) []planner.DataPoint {
	e := &emitter{s: s, last: s.now()}
	s.ascend(0, avg)
	e.emit()
	return e.points
}

// decompress schedules the ascent from the current depth. A trial ascent
// under GF high decides whether stops are needed at all. Otherwise the first
// stop is the deepest level the GF low ceiling forbids leaving, and the
// gradient factor then slides linearly to GF high at the surface.
func (s *sim) decompress(avg int) ([]planner.DataPoint, error) {
	gfLow := float64(s.settings.GFLow) / 100
	gfHigh := float64(s.settings.GFHigh) / 100
	if s.canAscend(0, avg, gfHigh) {
		return s.surface(avg), nil
	}

	surface := s.pressure(0)
	firstStop := 0
	gfAt := func(depth int) float64 {
		if firstStop == 0 {
			return gfLow
		}
		pFirst := s.pressure(firstStop)
		if pFirst <= surface {
			return gfHigh
		}
		return gfHigh - (gfHigh-gfLow)*(s.pressure(depth)-surface)/(pFirst-surface)
	}

	e := &emitter{s: s, last: s.now()}
	bottom := s.depth
	held := 0
	for s.depth > 0 {
		if s.depth < bottom && s.setpoint == 0 {
			if best := s.bestGas(s.depth); best != s.cyl {
				if s.now() > e.last {
					e.emit()
				}
				s.cyl = best
			}
		}

		next := s.nextLevel(s.depth)
		if s.canAscend(next, avg, gfAt(next)) {
			s.ascend(next, avg)
			continue
		}
		if firstStop == 0 {
			firstStop = s.depth
		}
		if s.now() > e.last {
			e.emit()
		}
		stop := 0
		for !s.canAscend(next, avg, gfAt(next)) {
			s.apply(leg{from: s.depth, to: s.depth, seconds: stopSeconds}, s.settings.DecoSAC)
			stop += stopSeconds
			held += stopSeconds
			if held > maxDeco {
				return nil, ErrDecoTooLong
			}
		}
		if stop > 0 {
			e.emit()
		}
		s.ascend(next, avg)
	}
	e.emit()
	return e.points, nil
}

// finishCylinders writes end pressures from the gas drawn. Pressures never
// go below zero.
func (s *sim) finishCylinders() []dive.Cylinder {
	out := slices.Clone(s.cyls)
	for i := range out {
		start := out[i].StartPressure
		if start <= 0 {
			start = out[i].WorkingPressure
		}
		out[i].StartPressure = start
		if out[i].SizeML <= 0 {
			out[i].EndPressure = start
			continue
		}
		drop := int(math.Round(s.used[i] / float64(out[i].SizeML) * 1000))
		out[i].EndPressure = max(start-drop, 0)
	}
	return out
}
