package deco

import "math"

// waterVapour is the alveolar water vapour pressure in bar.
const waterVapour = 0.0627

// airN2 is the nitrogen fraction of air used to saturate tissues at the
// surface.
const airN2 = 0.7902

const compartments = 16

// ZHL-16C coefficients, half-times in minutes.
var (
	n2HalfTime = [compartments]float64{5.0, 8.0, 12.5, 18.5, 27.0, 38.3, 54.3, 77.0, 109.0, 146.0, 187.0, 239.0, 305.0, 390.0, 498.0, 635.0}
	n2A        = [compartments]float64{1.1696, 1.0, 0.8618, 0.7562, 0.62, 0.5043, 0.441, 0.4, 0.375, 0.35, 0.3295, 0.3065, 0.2835, 0.261, 0.248, 0.2327}
	n2B        = [compartments]float64{0.5578, 0.6514, 0.7222, 0.7825, 0.8126, 0.8434, 0.8693, 0.8910, 0.9092, 0.9222, 0.9319, 0.9403, 0.9477, 0.9544, 0.9602, 0.9653}
	heHalfTime = [compartments]float64{1.88, 3.02, 4.72, 6.99, 10.21, 14.48, 20.53, 29.11, 41.20, 55.19, 70.69, 90.34, 115.29, 147.42, 188.24, 240.03}
	heA        = [compartments]float64{1.6189, 1.383, 1.1919, 1.0458, 0.922, 0.8205, 0.7305, 0.6502, 0.595, 0.5545, 0.5333, 0.5189, 0.5181, 0.5176, 0.5172, 0.5119}
	heB        = [compartments]float64{0.4770, 0.5747, 0.6527, 0.7223, 0.7582, 0.7957, 0.8279, 0.8553, 0.8757, 0.8903, 0.8997, 0.9073, 0.9122, 0.9171, 0.9217, 0.9267}
)

// tissues holds the inert gas partial pressures (bar) of every compartment.
// It is a value type; copying it snapshots the model.
type tissues struct {
	n2 [compartments]float64
	he [compartments]float64
}

// saturated returns tissues in equilibrium with air at the given surface
// pressure.
func saturated(surface float64) tissues {
	var t tissues
	for i := range t.n2 {
		t.n2[i] = (surface - waterVapour) * airN2
	}
	return t
}

// inspired returns the inspired N2 and He pressures at ambient pressure amb
// breathing fractions fO2/fHe. A non-zero setpoint (bar) models a closed
// circuit loop holding pO2 constant with the gas as diluent.
func inspired(amb, fO2, fHe, setpoint float64) (n2, he float64) {
	dry := max(amb-waterVapour, 0)
	fN2 := max(1-fO2-fHe, 0)
	if setpoint <= 0 {
		return dry * fN2, dry * fHe
	}
	inert := max(dry-setpoint, 0)
	if fN2+fHe == 0 {
		return 0, 0
	}
	return inert * fN2 / (fN2 + fHe), inert * fHe / (fN2 + fHe)
}

// load exposes the tissues for seconds at constant inspired pressures.
func (t *tissues) load(seconds, pN2, pHe float64) {
	minutes := seconds / 60
	for i := range t.n2 {
		t.n2[i] += (pN2 - t.n2[i]) * (1 - math.Exp(-minutes*math.Ln2/n2HalfTime[i]))
		t.he[i] += (pHe - t.he[i]) * (1 - math.Exp(-minutes*math.Ln2/heHalfTime[i]))
	}
}

// ceiling returns the lowest tolerated ambient pressure (bar) under gradient
// factor gf (0..1).
func (t *tissues) ceiling(gf float64) float64 {
	var c float64
	for i := range t.n2 {
		p := t.n2[i] + t.he[i]
		if p <= 0 {
			continue
		}
		a := (n2A[i]*t.n2[i] + heA[i]*t.he[i]) / p
		b := (n2B[i]*t.n2[i] + heB[i]*t.he[i]) / p
		c = max(c, (p-gf*a)/(gf/b+1-gf))
	}
	return c
}
