package domain

import "math"

// RatingStats summarises the top-level ratings of one product
type RatingStats struct {
	Total        int         `json:"total"`
	Average      float64     `json:"average"`
	RatingCounts map[int]int `json:"ratingCounts"`
}

// ComputeRatingStats builds the histogram and the mean rounded to one decimal,
// halves away from zero. An empty input yields a zero average and five empty
// buckets.
func ComputeRatingStats(ratings []int) RatingStats {
	stats := RatingStats{
		Total:        len(ratings),
		RatingCounts: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}
	if len(ratings) == 0 {
		return stats
	}
	sum := 0
	for _, r := range ratings {
		sum += r
		if _, ok := stats.RatingCounts[r]; ok {
			stats.RatingCounts[r]++
		}
	}
	avg := float64(sum) / float64(len(ratings))
	stats.Average = math.Round(avg*10) / 10
	return stats
}
