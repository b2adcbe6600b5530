package media

// Peaks folds raw samples into the given number of display buckets, each
// holding the peak absolute amplitude of its slice, normalized to 0..1.
// Fewer samples than buckets yields one bucket per sample; no samples
// yields an empty slice.
func Peaks(samples []float64, buckets int) []float64 {
	if len(samples) == 0 || buckets <= 0 {
		return nil
	}
	if buckets > len(samples) {
		buckets = len(samples)
	}

	out := make([]float64, buckets)
	max := 0.0
	per := len(samples) / buckets
	for i := 0; i < buckets; i++ {
		start := i * per
		end := start + per
		if i == buckets-1 {
			end = len(samples)
		}
		peak := 0.0
		for _, s := range samples[start:end] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		out[i] = peak
		if peak > max {
			max = peak
		}
	}

	if max > 0 {
		for i := range out {
			out[i] /= max
		}
	}
	return out
}
