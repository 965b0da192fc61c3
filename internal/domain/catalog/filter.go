package catalog

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/medico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceBand is one of the storefront's price filter buckets. Bands are half-open: [Min, Max).
type PriceBand string

const (
	PriceUnder25 PriceBand = "under25"
	Price25To50  PriceBand = "25to50"
	Price50To100 PriceBand = "50to100"
	PriceOver100 PriceBand = "over100"
)

var priceBandBounds = map[PriceBand][2]int64{
	PriceUnder25: {0, 25},
	Price25To50:  {25, 50},
	Price50To100: {50, 100},
	PriceOver100: {100, -1},
}

// Bounds returns the inclusive lower bound and the exclusive upper bound; hasMax is false for the open band
func (b PriceBand) Bounds() (lower, upper decimal.Decimal, hasMax bool) {
	bounds := priceBandBounds[b]
	lower = decimal.NewFromInt(bounds[0])
	if bounds[1] < 0 {
		return lower, decimal.Zero, false
	}
	return lower, decimal.NewFromInt(bounds[1]), true
}

// Contains reports whether price falls in the band
func (b PriceBand) Contains(price decimal.Decimal) bool {
	lower, upper, hasMax := b.Bounds()
	if price.LessThan(lower) {
		return false
	}
	return !hasMax || price.LessThan(upper)
}

// Sort orders a product listing
type Sort string

const (
	SortPriceAsc   Sort = "price_asc"
	SortPriceDesc  Sort = "price_desc"
	SortRatingDesc Sort = "rating_desc"
	SortRatingAsc  Sort = "rating_asc"

	defaultSortKey = SortPriceAsc
)

// Filter narrows a product listing. Values within one dimension are OR-combined,
// dimensions are AND-combined.
type Filter struct {
	Categories []string
	PriceBands []PriceBand
	MinRatings []int
	Search     string
	Sort       Sort
}

// ParseFilter builds a Filter from the storefront's comma-separated query values
func ParseFilter(category, price, rating, sortKey, search string) (Filter, error) {
	f := Filter{
		Categories: splitCSV(category),
		Search:     strings.TrimSpace(search),
		Sort:       defaultSortKey,
	}

	for _, p := range splitCSV(price) {
		band := PriceBand(p)
		if _, ok := priceBandBounds[band]; !ok {
			return Filter{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown price range %q", p))
		}
		f.PriceBands = append(f.PriceBands, band)
	}

	for _, r := range splitCSV(rating) {
		stars, err := strconv.Atoi(r)
		if err != nil || stars < 1 || stars > 5 {
			return Filter{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown rating %q", r))
		}
		f.MinRatings = append(f.MinRatings, stars)
	}

	if sortKey != "" {
		switch s := Sort(sortKey); s {
		case SortPriceAsc, SortPriceDesc, SortRatingDesc, SortRatingAsc:
			f.Sort = s
		default:
			return Filter{}, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Unknown sort %q", sortKey))
		}
	}
	return f, nil
}

// MinRating is the loosest rating threshold selected, or 0 when unfiltered
func (f Filter) MinRating() int {
	lowest := 0
	for _, r := range f.MinRatings {
		if lowest == 0 || r < lowest {
			lowest = r
		}
	}
	return lowest
}

// Matches reports whether item passes every dimension of the filter
func (f Filter) Matches(item *Item) bool {
	if len(f.Categories) > 0 && !containsFold(f.Categories, item.Category) {
		return false
	}
	if len(f.PriceBands) > 0 {
		in := false
		for _, b := range f.PriceBands {
			if b.Contains(item.Price) {
				in = true
				break
			}
		}
		if !in {
			return false
		}
	}
	if threshold := f.MinRating(); threshold > 0 && item.Rating < float64(threshold) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(item.Name), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Apply filters and sorts items without modifying the input slice
func (f Filter) Apply(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	SortItems(out, f.Sort)
	return out
}

// SortItems orders items in place; ties keep their id order
func SortItems(items []*Item, s Sort) {
	less := func(a, b *Item) int {
		switch s {
		case SortPriceDesc:
			return b.Price.Cmp(a.Price)
		case SortRatingDesc:
			return compareFloat(b.Rating, a.Rating)
		case SortRatingAsc:
			return compareFloat(a.Rating, b.Rating)
		default:
			return a.Price.Cmp(b.Price)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if c := less(items[i], items[j]); c != 0 {
			return c < 0
		}
		return items[i].ID < items[j].ID
	})
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func containsFold(values []string, v string) bool {
	for _, x := range values {
		if strings.EqualFold(x, v) {
			return true
		}
	}
	return false
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
