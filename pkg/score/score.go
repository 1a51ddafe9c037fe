package score

import (
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/oddmeter/oddmeter/pkg/lm"
)

const (
	// Weirdness curve parameters. Perplexity is unbounded and heavy-tailed:
	// ln(perplexity+1) compresses it to a slow-growing scale, the exponent
	// spreads mid-range sentences across more of the visible band, and the
	// multiplier with the final clamp lands ordinary sentence perplexities
	// (single digits to low tens) in a readable 0-100 range.
	weirdnessExponent = 1.7
	weirdnessScale    = 11.0

	// WeirdnessMax is the score ceiling.
	WeirdnessMax = 100
)

// ErrInsufficientData indicates the provider returned zero tokens, so no
// perplexity can be estimated.
var ErrInsufficientData = errors.New("no token logprobs to estimate perplexity from")

// Perplexity reduces an ordered token logprob sequence to a single
// estimate: exp(-avgLogProb). The result is always strictly positive and
// finite, and equals exactly 1 when the average logprob is 0. No score cap
// is applied here; extreme averages legitimately produce very large values,
// clamped downstream by [Weirdness].
func Perplexity(probs []lm.TokenLogProb) (float64, error) {
	if len(probs) == 0 {
		return 0, ErrInsufficientData
	}

	sum := 0.0
	for _, p := range probs {
		// Tokens without a reported logprob (the first prefill token has
		// none) count as 0. Lenient on purpose: rejecting them would fail
		// every real provider response.
		if p.LogProb != nil {
			sum += *p.LogProb
		}
	}

	avg := sum / float64(len(probs))
	pp := math.Exp(-avg)
	if math.IsInf(pp, 1) {
		// Exp overflows for averages below about -709.8, and JSON cannot
		// encode +Inf. Saturate to the largest finite value instead.
		pp = math.MaxFloat64
	}

	slog.Debug("perplexity estimated", "tokens", len(probs), "avg_logprob", avg, "perplexity", pp)

	return pp, nil
}

// Weirdness maps a positive perplexity value to an integer score in
// [0, 100]. Monotonically non-decreasing in perplexity; half-way scores
// round away from zero.
func Weirdness(perplexity float64) int {
	if perplexity <= 0 {
		return 0
	}
	raw := math.Pow(math.Log(perplexity+1), weirdnessExponent) * weirdnessScale
	// Ceiling check before the int conversion; int(+Inf) is
	// implementation-defined.
	if raw >= float64(WeirdnessMax) {
		return WeirdnessMax
	}
	return clamp(int(math.Round(raw)), 0, WeirdnessMax)
}

// WordCount counts whitespace-separated words in the trimmed input.
// Independent of the provider's tokenization.
func WordCount(sentence string) int {
	return len(strings.Fields(sentence))
}

func clamp(val, floor, ceil int) int {
	if val < floor {
		return floor
	}
	if val > ceil {
		return ceil
	}
	return val
}
