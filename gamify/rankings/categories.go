package rankings

import "github.com/openpack/gamify/gamify/database/models"

// Weights is the contribution of each category to the global score.
// The values sum to 1.0; changing them reshapes the global leaderboard
// on the next wholesale recompute without touching stored entries.
var Weights = map[models.RankingCategory]float64{
	models.CategoryTotalXP:          0.30,
	models.CategoryItemsCollected:   0.25,
	models.CategoryPacksOpened:      0.15,
	models.CategoryMarketplaceSales: 0.15,
	models.CategoryLegendaryItems:   0.10,
	models.CategoryWeeklyActive:     0.05,
}

// WeightSum is the denominator of the weighted average. Kept explicit
// so a future partial-category configuration stays well-defined.
func WeightSum() float64 {
	var sum float64
	for _, w := range Weights {
		sum += w
	}
	return sum
}
