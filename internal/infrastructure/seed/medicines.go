// Package seed fills an empty catalog with plausible medicines for local
// development and demos.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	drugTypes = []string{"Tablet", "Capsule", "Syrup", "Ointment", "Drops", "Injection"}

	suffixes = []string{"ol", "ine", "afen", "cillin", "zole", "mab", "pril", "statin"}

	strengths = []string{"100mg", "200mg", "250mg", "500mg", "5ml", "10ml"}
)

// Generator builds medicines from a seeded faker so runs are reproducible
type Generator struct {
	faker      *gofakeit.Faker
	categories []string
}

// NewGenerator creates a generator. A zero seed picks a random one.
func NewGenerator(seed uint64, categories []string) *Generator {
	if len(categories) == 0 {
		categories = catalog.DefaultCategories
	}
	return &Generator{faker: gofakeit.New(seed), categories: categories}
}

// Medicine returns one unsaved catalog item with a generated id
func (g *Generator) Medicine() (*catalog.Item, error) {
	f := g.faker
	stem := strings.ToLower(f.LetterN(uint(f.IntRange(3, 5))))
	name := fmt.Sprintf("%s%s%s %s",
		strings.ToUpper(stem[:1]), stem[1:],
		f.RandomString(suffixes),
		f.RandomString(strengths),
	)
	price := decimal.NewFromFloat(f.Float64Range(2, 250)).Round(2)

	item, err := catalog.NewItem("", name, price)
	if err != nil {
		return nil, err
	}
	item.Description = f.Sentence(12)
	item.Category = f.RandomString(g.categories)
	item.Manufacturer = f.Company()
	item.DrugType = f.RandomString(drugTypes)
	if err := item.SetStock(f.IntRange(0, 500)); err != nil {
		return nil, err
	}
	if err := item.Rate(float64(f.IntRange(0, 50)) / 10); err != nil {
		return nil, err
	}
	return item, nil
}

// Result counts what a Seed run wrote
type Result struct {
	Categories int
	Medicines  int
}

// Seed writes the categories (skipping existing ones) and n medicines
func Seed(ctx context.Context, items catalog.Repository, categories catalog.CategoryRepository, g *Generator, n int, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result

	for _, name := range g.categories {
		c, err := catalog.NewCategory(name)
		if err != nil {
			return res, err
		}
		if err := categories.SaveCategory(ctx, c); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				continue
			}
			return res, fmt.Errorf("failed to save category %q: %w", name, err)
		}
		res.Categories++
	}

	for i := 0; i < n; i++ {
		item, err := g.Medicine()
		if err != nil {
			return res, err
		}
		if err := items.Save(ctx, item); err != nil {
			return res, fmt.Errorf("failed to save medicine %q: %w", item.Name, err)
		}
		logger.Debug("Seeded medicine", zap.String("id", item.ID), zap.String("name", item.Name))
		res.Medicines++
	}
	return res, nil
}
