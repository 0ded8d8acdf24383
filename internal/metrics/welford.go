package metrics

import "math"

// WelfordState holds running mean and variance using Welford's online
// algorithm, so per-hour samples never need to be summed twice.
type WelfordState struct {
	Count int     // number of observations
	Mean  float64 // running mean
	M2    float64 // sum of squared differences from the mean
}

// Update adds a new observation.
// Reference: https://en.wikipedia.org/wiki/Algorithms_for_calculating_variance#Welford's_online_algorithm
func (w *WelfordState) Update(newValue float64) {
	w.Count++
	delta := newValue - w.Mean
	w.Mean += delta / float64(w.Count)
	delta2 := newValue - w.Mean
	w.M2 += delta * delta2
}

// Variance returns the population variance, 0 with fewer than 2 observations
func (w *WelfordState) Variance() float64 {
	if w.Count < 2 {
		return 0
	}
	return w.M2 / float64(w.Count)
}

// StdDev returns the population standard deviation
func (w *WelfordState) StdDev() float64 {
	return math.Sqrt(w.Variance())
}
