package detect

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// KeywordDetector finds brands by accent-insensitive substring matching over
// the source material. It is pure text mining: cheap, offline, and the
// baseline every venue gets even when the LLM detector is disabled.
type KeywordDetector struct{}

// NewKeywordDetector creates a KeywordDetector.
func NewKeywordDetector() *KeywordDetector {
	return &KeywordDetector{}
}

// DetectBrands scans the material for each catalog brand's keywords.
// Confidence is the fraction of the brand's keywords present, scaled to
// 0-100. Matching folds case and diacritics on both sides, so "jagermeister"
// on a menu matches the "Jägermeister" keyword and vice versa.
func (d *KeywordDetector) DetectBrands(_ context.Context, material string, catalog *Catalog) ([]Detection, error) {
	haystack := foldText(material)

	var found []Detection
	for _, cat := range catalog.Categories {
		for _, brand := range cat.Brands {
			matches := 0
			for _, kw := range brand.Keywords {
				if strings.Contains(haystack, foldText(kw)) {
					matches++
				}
			}
			if matches == 0 {
				continue
			}
			confidence := float64(matches) / float64(len(brand.Keywords)) * 100
			if confidence > 100 {
				confidence = 100
			}
			found = append(found, Detection{
				Brand:      brand.Name,
				Category:   cat.Name,
				Confidence: confidence,
			})
		}
	}
	return found, nil
}

// foldText lowercases and strips diacritics for matching.
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
