package blast

// Uniform is a seeded source of uniform draws in [0, 1). *math/rand.Rand
// satisfies it.
type Uniform interface {
	Float64() float64
}

// Weight is the relative prior of a hit being sampled. A nil Weight is
// uniform across hits.
type Weight func(h Hit) float64

// Probabilities returns the chance for each hit to be sampled: its share of
// the total weight, scaled by the number of homologs wanted per query
// (budget / totalQueries), capped at one.
func Probabilities(hits []Hit, budget, totalQueries int, weight Weight) []float64 {
	probs := make([]float64, len(hits))
	if len(hits) == 0 || totalQueries <= 0 {
		return probs
	}

	total := 0.0
	for i, h := range hits {
		probs[i] = 1.0
		if weight != nil {
			probs[i] = weight(h)
		}
		total += probs[i]
	}
	if total <= 0 {
		return make([]float64, len(hits))
	}

	perQuery := float64(budget) / float64(totalQueries)
	for i := range probs {
		probs[i] = probs[i] / total * perQuery
		if probs[i] > 1 {
			probs[i] = 1
		}
	}
	return probs
}

// Sample draws a subset of a query's hits. Each hit is kept independently
// with its probability from Probabilities, one draw per hit in order.
func Sample(hits []Hit, budget, totalQueries int, rng Uniform, weight Weight) []Hit {
	sampled := []Hit{}
	for i, p := range Probabilities(hits, budget, totalQueries, weight) {
		if rng.Float64() < p {
			sampled = append(sampled, hits[i])
		}
	}
	return sampled
}
