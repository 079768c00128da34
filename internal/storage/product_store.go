package storage

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/ProductImport/internal/core"
)

const insertProduct = `
INSERT INTO product_data (
	product_name, product_desc, product_code, stock, cost, added_at, discontinued_at
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

// ProductStore writes products one statement at a time. Each Save commits on
// its own, so a failed row never affects rows saved before or after it.
type ProductStore struct {
	db DBTX
}

// NewProductStore creates a store on db (usually a *pgxpool.Pool).
func NewProductStore(db DBTX) *ProductStore {
	return &ProductStore{db: db}
}

// Save inserts p. The error text is reported verbatim for the skipped row.
func (s *ProductStore) Save(ctx context.Context, p core.Product) error {
	stock, err := ToPgInt4(p.Stock)
	if err != nil {
		return fmt.Errorf("insert product %q: stock: %w", p.Code, err)
	}
	addedAt := p.AddedAt
	tag, err := s.db.Exec(ctx, insertProduct,
		ToPgText(p.Name),
		ToPgText(p.Description),
		ToPgText(p.Code),
		stock,
		ToPgNumeric(p.Cost),
		ToPgTimestamptz(&addedAt),
		ToPgTimestamptz(p.DiscontinuedAt),
	)
	if err != nil {
		return fmt.Errorf("insert product %q: %w", p.Code, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("insert product %q: %d rows affected", p.Code, tag.RowsAffected())
	}
	return nil
}

var _ core.Persister = (*ProductStore)(nil)
