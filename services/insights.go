package services

import (
	"math/big"

	"property-agent/models"
	"property-agent/utils"
)

// InsightService computes the headline metrics of a result.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate counts listings, averages the prices that can be read and finds
// the most common property type. Ties go to the type seen first.
func (s *InsightService) Generate(listings []models.Listing) models.Insights {
	ins := models.Insights{
		TotalProperties: len(listings),
		MostCommonType:  "Unknown",
		TypeCounts:      make(map[string]int),
	}
	if len(listings) == 0 {
		return ins
	}

	// Single prices fit in int64; their sum may not.
	total := new(big.Int)
	var order []string
	for _, l := range listings {
		if v, ok := PriceValue(l.Price); ok {
			total.Add(total, big.NewInt(v))
			ins.PricedListings++
		} else if l.Price != "" {
			s.logger.Debug("[insights] Unreadable price %q for %s", l.Price, l.Address)
		}

		t := normaliseType(l.PropertyType)
		if ins.TypeCounts[t] == 0 {
			order = append(order, t)
		}
		ins.TypeCounts[t]++
	}

	if ins.PricedListings > 0 {
		ins.AveragePrice = new(big.Int).Quo(total, big.NewInt(int64(ins.PricedListings))).Int64()
	}

	best := 0
	for _, t := range order {
		if c := ins.TypeCounts[t]; c > best {
			best = c
			ins.MostCommonType = t
		}
	}
	return ins
}
