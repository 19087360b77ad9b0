// Package rating computes star-rating averages and badge classifications.
// The same functions run in the backend when a listing is served and in the
// client when a listing is decoded, so both sides always agree.
package rating

import (
	"fmt"

	"github.com/julianstephens/menuboard/internal/constants"
	"github.com/julianstephens/menuboard/internal/logger"
	"github.com/julianstephens/menuboard/internal/models"
)

// Summary is the aggregate of a menu item's ratings.
type Summary struct {
	Average float64
	Count   int
	Badge   models.Badge
}

// HasRatings distinguishes "no ratings" from an average of zero.
func (s Summary) HasRatings() bool {
	return s.Count > 0
}

// DisplayAverage renders the average the way the storefront shows it.
func (s Summary) DisplayAverage() string {
	if !s.HasRatings() {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", s.Average)
}

// Aggregate returns the mean stars and badge for ratings. The mean is 0 when
// ratings is empty. Stars are summed as integers before a single division so
// the result does not depend on input order.
func Aggregate(ratings []models.Rating) Summary {
	if len(ratings) == 0 {
		return Summary{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Stars
	}
	avg := float64(sum) / float64(len(ratings))
	return Summary{
		Average: avg,
		Count:   len(ratings),
		Badge:   Classify(avg, len(ratings)),
	}
}

// Classify applies the badge rule, first match wins:
// Top Rated needs average >= 4.5 with at least 3 ratings,
// Popular needs average >= 4.0.
func Classify(average float64, count int) models.Badge {
	switch {
	case average >= constants.TopRatedMinAverage && count >= constants.TopRatedMinCount:
		return models.BadgeTopRated
	case average >= constants.PopularMinAverage:
		return models.BadgePopular
	default:
		return models.BadgeNone
	}
}

// Apply fills the embedded aggregate fields of item from its raw ratings.
func Apply(item *models.MenuItem) Summary {
	s := Aggregate(item.Ratings)
	item.AverageRating = s.Average
	item.Badge = s.Badge
	return s
}

// Reconcile recomputes the aggregate of a served item and overwrites the
// server's values when they disagree. It reports whether they matched.
func Reconcile(item *models.MenuItem) bool {
	served := item.Badge
	servedAvg := item.AverageRating
	s := Apply(item)
	if served != s.Badge || servedAvg != s.Average {
		logger.Warn("Served rating aggregate disagrees with local computation",
			"menu_id", item.ID,
			"served_badge", string(served),
			"local_badge", string(s.Badge),
			"served_average", servedAvg,
			"local_average", s.Average,
		)
		return false
	}
	return true
}
