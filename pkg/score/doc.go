// Package score implements the sentence weirdness scoring model: token
// log-probabilities reduced to a perplexity estimate, then mapped to a
// bounded 0-100 display score. It exposes [Scorer], [Result],
// [Perplexity], [Weirdness], and [WordCount].
package score
