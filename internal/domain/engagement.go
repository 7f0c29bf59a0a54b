package domain

// EngagementMultiplier averages the bucketed upvote and comment multipliers
// per spec.md 4.2 ("average of bucketed upvote and comment multipliers").
// Buckets are deliberately coarse: this is a sentiment weight, not a metric.
func EngagementMultiplier(upvotes, comments int) float64 {
	return (bucketMultiplier(upvotes, upvoteBuckets) + bucketMultiplier(comments, commentBuckets)) / 2
}

type bucket struct {
	min  int
	mult float64
}

var upvoteBuckets = []bucket{
	{0, 0.8},
	{10, 0.9},
	{50, 1.0},
	{200, 1.15},
	{1000, 1.3},
}

var commentBuckets = []bucket{
	{0, 0.8},
	{5, 0.9},
	{25, 1.0},
	{100, 1.15},
	{500, 1.3},
}

func bucketMultiplier(n int, buckets []bucket) float64 {
	mult := buckets[0].mult
	for _, b := range buckets {
		if n >= b.min {
			mult = b.mult
		}
	}
	return mult
}
