package stats

import (
	"encoding/json"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// zCritical95 is the two-sided normal critical value for a 95% interval.
const zCritical95 = 1.96

// Metric is a float64 that marshals NaN and infinities as JSON null. Degenerate
// strata (n = 0, or n = 1 for stddev-based intervals) produce NaN cells rather
// than aborting the report; JSON has no NaN literal, so those cells render as
// null. Text renderers print them as "NaN".
type Metric float64

func (m Metric) MarshalJSON() ([]byte, error) {
	f := float64(m)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Interval is a 95% confidence interval presented as explicit bounds.
type Interval struct {
	Lower Metric `json:"lower"`
	Upper Metric `json:"upper"`
}

// Percentile computes the q-th continuous percentile (q in [0,1]) with linear
// interpolation between order statistics: position q*(n-1) in the sorted
// sample. Returns NaN for an empty sample.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// MeanStdDev returns the sample mean and the unbiased (n-1 denominator)
// standard deviation. An empty sample yields NaN for both; a single
// observation yields a NaN standard deviation.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(values, nil)
}

// WaldCI returns the 95% Wald interval for a proportion p out of n, in
// percentage points around 100*p. The margin is 1.96*sqrt(p(1-p)/n)*100.
// n = 0 yields NaN bounds; n = 1 yields a zero-width interval, since the
// binomial variance p(1-p)/n is defined there.
func WaldCI(p float64, n int) Interval {
	margin := zCritical95 * math.Sqrt(p*(1-p)/float64(n)) * 100
	pct := p * 100
	return Interval{Lower: Metric(pct - margin), Upper: Metric(pct + margin)}
}

// NormalCI returns the 95% normal-approximation interval for a sample mean:
// mean ± 1.96*stddev/sqrt(n). With n < 2 the unbiased stddev is NaN and the
// bounds are NaN.
func NormalCI(mean, stddev float64, n int) Interval {
	margin := zCritical95 * stddev / math.Sqrt(float64(n))
	return Interval{Lower: Metric(mean - margin), Upper: Metric(mean + margin)}
}
