package planner

import (
	"fmt"
	"time"
)

// updateSettings applies mutate to a copy of the settings and keeps the
// result only if it validates.
func (c *Controller) updateSettings(mutate func(*Settings)) error {
	s := c.settings
	mutate(&s)
	if err := s.Validate(); err != nil {
		return fmt.Errorf("planner: settings: %w", err)
	}
	if s == c.settings {
		return nil
	}
	c.settings = s
	c.SetRecalc(true)
	c.EmitDataChanged()
	return nil
}

// SetSettings replaces every setting at once.
func (c *Controller) SetSettings(s Settings) error {
	return c.updateSettings(func(p *Settings) { *p = s })
}

// SetGFHigh sets the gradient factor applied at the surface, in percent.
func (c *Controller) SetGFHigh(gf int) error {
	return c.updateSettings(func(s *Settings) { s.GFHigh = gf })
}

// SetGFLow sets the gradient factor applied at the first stop, in percent.
func (c *Controller) SetGFLow(gf int) error {
	return c.updateSettings(func(s *Settings) { s.GFLow = gf })
}

// SetSurfacePressure sets the ambient pressure at the surface in mbar.
func (c *Controller) SetSurfacePressure(mbar int) error {
	return c.updateSettings(func(s *Settings) { s.SurfacePressure = mbar })
}

// SetBottomSAC sets the bottom gas consumption in ml/min.
func (c *Controller) SetBottomSAC(sac int) error {
	return c.updateSettings(func(s *Settings) { s.BottomSAC = sac })
}

// SetDecoSAC sets the gas consumption during the ascent in ml/min.
func (c *Controller) SetDecoSAC(sac int) error {
	return c.updateSettings(func(s *Settings) { s.DecoSAC = sac })
}

// SetAscRate75 sets the ascent rate (mm/min) below 75% of the average depth.
func (c *Controller) SetAscRate75(rate int) error {
	return c.updateSettings(func(s *Settings) { s.AscRate75 = rate })
}

// SetAscRate50 sets the ascent rate (mm/min) between 75% and 50% of the
// average depth.
func (c *Controller) SetAscRate50(rate int) error {
	return c.updateSettings(func(s *Settings) { s.AscRate50 = rate })
}

// SetAscRateStops sets the ascent rate (mm/min) between stops.
func (c *Controller) SetAscRateStops(rate int) error {
	return c.updateSettings(func(s *Settings) { s.AscRateStops = rate })
}

// SetAscRateLast6m sets the ascent rate (mm/min) for the last 6 m.
func (c *Controller) SetAscRateLast6m(rate int) error {
	return c.updateSettings(func(s *Settings) { s.AscRateLast6m = rate })
}

// SetDescRate sets the descent rate in mm/min.
func (c *Controller) SetDescRate(rate int) error {
	return c.updateSettings(func(s *Settings) { s.DescRate = rate })
}

// SetBottomPO2 sets the pO2 limit (mbar) for bottom gases.
func (c *Controller) SetBottomPO2(po2 int) error {
	return c.updateSettings(func(s *Settings) { s.BottomPO2 = po2 })
}

// SetDecoPO2 sets the pO2 limit (mbar) used when picking deco gases.
func (c *Controller) SetDecoPO2(po2 int) error {
	return c.updateSettings(func(s *Settings) { s.DecoPO2 = po2 })
}

// SetStartTime anchors the plan to a wall-clock time.
func (c *Controller) SetStartTime(t time.Time) error {
	return c.updateSettings(func(s *Settings) { s.StartTime = t })
}

// SetLastStop6m moves the last deco stop from 3 m to 6 m.
func (c *Controller) SetLastStop6m(v bool) {
	_ = c.updateSettings(func(s *Settings) { s.LastStop6m = v })
}

// SetDropStoneMode starts the bottom time on arrival at depth instead of at
// the surface.
func (c *Controller) SetDropStoneMode(v bool) {
	_ = c.updateSettings(func(s *Settings) { s.DropStoneMode = v })
}

// SetVerbatim writes the plan notes as sentences instead of a table.
func (c *Controller) SetVerbatim(v bool) {
	_ = c.updateSettings(func(s *Settings) { s.Verbatim = v })
}

// SetDisplayRuntime shows the runtime column in the notes. The display
// toggles only change how the notes are worded; the profile is the same.
func (c *Controller) SetDisplayRuntime(v bool) {
	_ = c.updateSettings(func(s *Settings) { s.DisplayRuntime = v })
}

// SetDisplayDuration shows the segment duration column in the notes.
func (c *Controller) SetDisplayDuration(v bool) {
	_ = c.updateSettings(func(s *Settings) { s.DisplayDuration = v })
}

// SetDisplayTransitions lists ascents and descents as their own lines.
func (c *Controller) SetDisplayTransitions(v bool) {
	_ = c.updateSettings(func(s *Settings) { s.DisplayTransitions = v })
}
