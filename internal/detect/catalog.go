// Package detect finds brand products in venue source material (menu text,
// photo transcriptions) and derives the gaps a salesperson can sell into.
package detect

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Brand is one trackable brand with the keywords that identify it.
type Brand struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Category groups brands and carries a sales-priority weight: when ranking
// gaps, higher-weight categories come first.
type Category struct {
	Name   string  `yaml:"name"`
	Weight int     `yaml:"weight"`
	Brands []Brand `yaml:"brands"`
}

// Catalog is the full set of tracked brands for a market.
type Catalog struct {
	Categories []Category `yaml:"categories"`
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "detect: read catalog %s", path)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrapf(err, "detect: parse catalog %s", path)
	}
	if len(c.Categories) == 0 {
		return nil, eris.Errorf("detect: catalog %s has no categories", path)
	}
	return &c, nil
}

// DefaultCatalog returns the built-in Spanish hospitality market catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Categories: []Category{
			{
				Name:   "beer",
				Weight: 4,
				Brands: []Brand{
					{Name: "Heineken", Keywords: []string{"heineken"}},
					{Name: "Estrella Damm", Keywords: []string{"estrella damm", "estrella"}},
					{Name: "Mahou", Keywords: []string{"mahou"}},
					{Name: "San Miguel", Keywords: []string{"san miguel"}},
					{Name: "Cruzcampo", Keywords: []string{"cruzcampo", "cruz campo"}},
					{Name: "Amstel", Keywords: []string{"amstel"}},
					{Name: "Corona", Keywords: []string{"corona"}},
					{Name: "Alhambra", Keywords: []string{"alhambra"}},
				},
			},
			{
				Name:   "soft_drinks",
				Weight: 3,
				Brands: []Brand{
					{Name: "Coca-Cola", Keywords: []string{"coca cola", "coca-cola", "cocacola"}},
					{Name: "Pepsi", Keywords: []string{"pepsi"}},
					{Name: "Fanta", Keywords: []string{"fanta"}},
					{Name: "Aquarius", Keywords: []string{"aquarius"}},
					{Name: "Nestea", Keywords: []string{"nestea"}},
					{Name: "Red Bull", Keywords: []string{"red bull", "redbull"}},
				},
			},
			{
				Name:   "wine",
				Weight: 2,
				Brands: []Brand{
					{Name: "Rioja", Keywords: []string{"rioja"}},
					{Name: "Ribera del Duero", Keywords: []string{"ribera del duero", "ribera"}},
					{Name: "Albariño", Keywords: []string{"albariño", "albarino"}},
					{Name: "Verdejo", Keywords: []string{"verdejo"}},
					{Name: "Cava", Keywords: []string{"cava"}},
				},
			},
			{
				Name:   "spirits",
				Weight: 1,
				Brands: []Brand{
					{Name: "Absolut", Keywords: []string{"absolut"}},
					{Name: "Jägermeister", Keywords: []string{"jägermeister", "jagermeister"}},
					{Name: "Licor 43", Keywords: []string{"licor 43", "cuarenta y tres"}},
					{Name: "Baileys", Keywords: []string{"baileys"}},
				},
			},
		},
	}
}

// CategoryWeight returns the sales-priority weight for a category name,
// or 0 for unknown categories.
func (c *Catalog) CategoryWeight(name string) int {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat.Weight
		}
	}
	return 0
}

// BrandNames returns every brand name in the catalog.
func (c *Catalog) BrandNames() []string {
	var names []string
	for _, cat := range c.Categories {
		for _, b := range cat.Brands {
			names = append(names, b.Name)
		}
	}
	return names
}
