package checkout

import (
	"github.com/medico/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// InvoiceLine is one selected item that exists in the catalog
type InvoiceLine struct {
	ItemID string
	Name   string
	Price  decimal.Decimal
}

// Invoice previews what a selection costs
type Invoice struct {
	Lines []InvoiceLine
	Total decimal.Decimal
}

// ComputeTotal sums the unit prices of selected items present in the catalog.
// Unknown ids contribute nothing.
func ComputeTotal(sel *Selection, index catalog.Index) decimal.Decimal {
	return BuildInvoice(sel, index).Total
}

// BuildInvoice lists the known selected items in selection order
func BuildInvoice(sel *Selection, index catalog.Index) Invoice {
	inv := Invoice{Total: decimal.Zero}
	if sel == nil {
		return inv
	}
	for _, id := range sel.IDs() {
		item, ok := index.Lookup(id)
		if !ok {
			continue
		}
		inv.Lines = append(inv.Lines, InvoiceLine{ItemID: item.ID, Name: item.Name, Price: item.Price})
		inv.Total = inv.Total.Add(item.Price)
	}
	return inv
}
