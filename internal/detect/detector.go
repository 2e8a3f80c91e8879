package detect

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/horeca-group/horeca-cli/internal/model"
)

// Detection is one brand found in source material.
type Detection struct {
	Brand      string  `json:"brand"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"` // 0-100
}

// Detector finds catalog brands in free-form source material. The material
// is whatever an upstream producer extracted: menu text, a review corpus,
// or a photo transcription.
type Detector interface {
	DetectBrands(ctx context.Context, material string, catalog *Catalog) ([]Detection, error)
}

// BestEffort runs a detector and treats any failure as an empty result.
// Detection is advisory: a failed call must never abort ingestion or
// analysis of the remaining venues, so the error is logged and swallowed.
func BestEffort(ctx context.Context, d Detector, material string, catalog *Catalog) []Detection {
	found, err := d.DetectBrands(ctx, material, catalog)
	if err != nil {
		zap.L().Warn("brand detection failed, continuing with empty result", zap.Error(err))
		return nil
	}
	return found
}

// Gaps returns the catalog brands not present in the detections, as product
// gaps ordered by category weight descending then brand name ascending.
// Gap confidence mirrors how certain we are the brand is absent; keyword
// detection can only assert absence weakly, so gaps carry the fixed
// confidence the caller supplies.
func Gaps(catalog *Catalog, found []Detection, confidence float64) []model.ProductGap {
	present := make(map[string]bool, len(found))
	for _, d := range found {
		present[d.Brand] = true
	}

	var gaps []model.ProductGap
	for _, cat := range catalog.Categories {
		for _, b := range cat.Brands {
			if !present[b.Name] {
				gaps = append(gaps, model.ProductGap{
					Brand:      b.Name,
					Category:   cat.Name,
					Confidence: confidence,
				})
			}
		}
	}

	sortGaps(catalog, gaps)
	return gaps
}

// TopOpportunities filters gaps by business-rule fit and returns at most n,
// in priority order. Bars and cafes skew to beer, soft drinks, and spirits;
// budget venues (price level 1-2) are limited to mainstream brands.
func TopOpportunities(catalog *Catalog, gaps []model.ProductGap, businessType model.BusinessType, priceLevel *int, n int) []model.ProductGap {
	filtered := make([]model.ProductGap, 0, len(gaps))
	for _, g := range gaps {
		if businessType == model.BusinessTypeBar || businessType == model.BusinessTypeCafe {
			if g.Category == "wine" {
				continue
			}
		}
		if priceLevel != nil && *priceLevel <= 2 && !mainstreamBrands[g.Brand] {
			continue
		}
		filtered = append(filtered, g)
	}

	sortGaps(catalog, filtered)
	if len(filtered) > n {
		filtered = filtered[:n]
	}
	return filtered
}

// mainstreamBrands are the volume brands pitched to budget venues.
var mainstreamBrands = map[string]bool{
	"Heineken":      true,
	"Coca-Cola":     true,
	"San Miguel":    true,
	"Mahou":         true,
	"Estrella Damm": true,
}

func sortGaps(catalog *Catalog, gaps []model.ProductGap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		wi, wj := catalog.CategoryWeight(gaps[i].Category), catalog.CategoryWeight(gaps[j].Category)
		if wi != wj {
			return wi > wj
		}
		return gaps[i].Brand < gaps[j].Brand
	})
}
