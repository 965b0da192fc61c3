// Package selection serves a signed-in shopper's saved medicine selection and its invoice preview.
package selection

import (
	"context"
	"strings"

	"github.com/medico/backend/internal/domain/catalog"
	"github.com/medico/backend/internal/domain/checkout"
	"github.com/medico/backend/internal/infrastructure/logger"
	"github.com/medico/backend/internal/infrastructure/money"
	"go.uber.org/zap"
)

// InvoiceLine is one known selected item
type InvoiceLine struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Price          float64 `json:"price"`
	FormattedPrice string  `json:"formatted_price"`
}

// View is a selection with its invoice preview. ItemIDs may include ids the catalog no longer has.
type View struct {
	ItemIDs        []string      `json:"medicineIds"`
	Lines          []InvoiceLine `json:"lines"`
	Total          float64       `json:"total"`
	FormattedTotal string        `json:"formatted_total"`
	Currency       string        `json:"currency"`
}

// Service loads a selection once per call, mutates it and saves it once
type Service struct {
	store     checkout.SelectionStore
	catalog   catalog.Repository
	formatter *money.Formatter
	logger    *zap.Logger
}

// NewService creates a selection Service
func NewService(store checkout.SelectionStore, repo catalog.Repository, formatter *money.Formatter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, catalog: repo, formatter: formatter, logger: log.Named("selection")}
}

// Get returns owner's selection and invoice
func (s *Service) Get(ctx context.Context, owner string) (*View, error) {
	sel, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, sel)
}

// Toggle adds id when absent and removes it when present
func (s *Service) Toggle(ctx context.Context, owner, id string) (*View, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, checkout.ErrInvalidSelection
	}
	sel, err := s.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	added := sel.Toggle(id)
	if err := s.store.Save(ctx, owner, sel); err != nil {
		return nil, err
	}
	logger.Enrich(ctx, s.logger).Debug("Selection toggled",
		zap.String("medicine_id", id),
		zap.Bool("added", added),
		zap.Int("size", sel.Len()),
	)
	return s.view(ctx, sel)
}

// Clear empties owner's selection, typically after checkout
func (s *Service) Clear(ctx context.Context, owner string) error {
	return s.store.Save(ctx, owner, checkout.NewSelection())
}

func (s *Service) view(ctx context.Context, sel *checkout.Selection) (*View, error) {
	ids := sel.IDs()
	var index catalog.Index
	if len(ids) > 0 {
		items, err := s.catalog.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		index = catalog.NewIndex(items)
	}

	invoice := checkout.BuildInvoice(sel, index)
	v := &View{
		ItemIDs:  ids,
		Lines:    make([]InvoiceLine, 0, len(invoice.Lines)),
		Total:    invoice.Total.InexactFloat64(),
		Currency: s.formatter.Code(),
	}
	for _, line := range invoice.Lines {
		v.Lines = append(v.Lines, InvoiceLine{
			ID:             line.ItemID,
			Name:           line.Name,
			Price:          line.Price.InexactFloat64(),
			FormattedPrice: s.formatter.Format(line.Price),
		})
	}
	v.FormattedTotal = s.formatter.Format(invoice.Total)
	return v, nil
}
