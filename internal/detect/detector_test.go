package detect

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horeca-group/horeca-cli/internal/model"
)

func TestKeywordDetector_FindsBrands(t *testing.T) {
	material := `CARTA DE BEBIDAS
	Caña Mahou 2,50
	Heineken botella 3,00
	Coca-Cola / Fanta 2,20`

	found, err := NewKeywordDetector().DetectBrands(context.Background(), material, DefaultCatalog())
	require.NoError(t, err)

	brands := make(map[string]Detection)
	for _, d := range found {
		brands[d.Brand] = d
	}
	assert.Contains(t, brands, "Mahou")
	assert.Contains(t, brands, "Heineken")
	assert.Contains(t, brands, "Coca-Cola")
	assert.Contains(t, brands, "Fanta")
	assert.NotContains(t, brands, "Cruzcampo")

	assert.Equal(t, "beer", brands["Mahou"].Category)
	assert.Greater(t, brands["Heineken"].Confidence, 0.0)
	assert.LessOrEqual(t, brands["Heineken"].Confidence, 100.0)
}

func TestKeywordDetector_AccentInsensitive(t *testing.T) {
	catalog := DefaultCatalog()
	detector := NewKeywordDetector()

	// Menu omits the umlaut; the keyword carries it.
	found, err := detector.DetectBrands(context.Background(), "chupito de jagermeister 3€", catalog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Jägermeister", found[0].Brand)

	// Menu carries the tilde variant.
	found, err = detector.DetectBrands(context.Background(), "copa de Albariño", catalog)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Albariño", found[0].Brand)
}

func TestKeywordDetector_EmptyMaterial(t *testing.T) {
	found, err := NewKeywordDetector().DetectBrands(context.Background(), "", DefaultCatalog())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestGaps_DisjointFromFound(t *testing.T) {
	catalog := DefaultCatalog()
	found := []Detection{
		{Brand: "Mahou", Category: "beer", Confidence: 100},
		{Brand: "Coca-Cola", Category: "soft_drinks", Confidence: 100},
	}

	gaps := Gaps(catalog, found, 50)

	for _, g := range gaps {
		assert.NotEqual(t, "Mahou", g.Brand)
		assert.NotEqual(t, "Coca-Cola", g.Brand)
		assert.Equal(t, 50.0, g.Confidence)
	}
	assert.Len(t, gaps, len(catalog.BrandNames())-2)
}

func TestGaps_PriorityOrder(t *testing.T) {
	catalog := DefaultCatalog()
	gaps := Gaps(catalog, nil, 50)

	// Beer (weight 4) leads, spirits (weight 1) trail; within a category
	// brands sort by name.
	assert.Equal(t, "beer", gaps[0].Category)
	assert.Equal(t, "Alhambra", gaps[0].Brand)
	assert.Equal(t, "spirits", gaps[len(gaps)-1].Category)
}

func TestTopOpportunities_BarSkipsWine(t *testing.T) {
	catalog := DefaultCatalog()
	gaps := Gaps(catalog, nil, 50)

	top := TopOpportunities(catalog, gaps, model.BusinessTypeBar, nil, 5)
	require.Len(t, top, 5)
	for _, g := range top {
		assert.NotEqual(t, "wine", g.Category)
	}
}

func TestTopOpportunities_BudgetVenueMainstreamOnly(t *testing.T) {
	catalog := DefaultCatalog()
	gaps := Gaps(catalog, nil, 50)
	level := 1

	top := TopOpportunities(catalog, gaps, model.BusinessTypeRestaurant, &level, 10)
	require.NotEmpty(t, top)
	for _, g := range top {
		assert.True(t, mainstreamBrands[g.Brand], "%s is not a mainstream brand", g.Brand)
	}
}

func TestBestEffort_SwallowsErrors(t *testing.T) {
	found := BestEffort(context.Background(), failingDetector{}, "menu", DefaultCatalog())
	assert.Nil(t, found)
}

type failingDetector struct{}

func (failingDetector) DetectBrands(context.Context, string, *Catalog) ([]Detection, error) {
	return nil, assert.AnError
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog("/nonexistent/catalog.yaml")
	assert.Error(t, err)
}

func TestLoadCatalog_RoundTrip(t *testing.T) {
	path := t.TempDir() + "/catalog.yaml"
	yaml := `categories:
  - name: beer
    weight: 4
    brands:
      - name: Heineken
        keywords: [heineken]
`
	require.NoError(t, writeFile(path, yaml))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Categories, 1)
	assert.Equal(t, 4, c.CategoryWeight("beer"))
	assert.Equal(t, []string{"Heineken"}, c.BrandNames())
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
