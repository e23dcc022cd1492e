package catalog

import (
	"github.com/nanobananary/studio-api/internal/models"
	pkgerrors "github.com/nanobananary/studio-api/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Transformations returns the catalog in display order.
func Transformations() []models.Transformation {
	return transformations
}

// Find looks a transformation up by key, including the items of categories.
func Find(key string) (models.Transformation, error) {
	t, ok := lo.Find(flatten(transformations), func(t models.Transformation) bool {
		return t.Key == key && len(t.Items) == 0
	})
	if !ok {
		return models.Transformation{}, pkgerrors.ErrTransformationNotFound
	}
	return t, nil
}

func flatten(list []models.Transformation) []models.Transformation {
	return lo.FlatMap(list, func(t models.Transformation, _ int) []models.Transformation {
		if len(t.Items) == 0 {
			return []models.Transformation{t}
		}
		return append([]models.Transformation{t}, flatten(t.Items)...)
	})
}

var packages = []models.ChargePackage{
	{ID: "basic", Price: decimal.NewFromInt(10), Credits: 800},
	{ID: "standard", Price: decimal.NewFromInt(20), Credits: 1600, Popular: true},
	{ID: "premium", Price: decimal.NewFromInt(50), Credits: 4000},
	{ID: "ultimate", Price: decimal.NewFromInt(100), Credits: 8000},
}

func Packages() []models.ChargePackage {
	return packages
}

// CreditsFor converts a payment amount into credits: the package amount when
// it matches one, otherwise floor(amount * perUnit).
func CreditsFor(amount decimal.Decimal, perUnit int64) int64 {
	if pkg, ok := lo.Find(packages, func(p models.ChargePackage) bool { return p.Price.Equal(amount) }); ok {
		return pkg.Credits
	}
	return amount.Mul(decimal.NewFromInt(perUnit)).Floor().IntPart()
}
