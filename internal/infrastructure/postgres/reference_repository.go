package postgres

import (
	"context"

	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/internal/domain/repository"
)

var (
	_ repository.FinancialClosingRepository = (*FinancialClosingRepo)(nil)
	_ repository.ItemRepository             = (*ItemRepo)(nil)
	_ repository.TermRepository             = (*TermRepo)(nil)
	_ repository.SettingRepository          = (*SettingRepo)(nil)
)

// FinancialClosingRepo cierres contables (sólo lectura para el motor).
type FinancialClosingRepo struct {
	q Querier
}

func NewFinancialClosingRepository(q Querier) *FinancialClosingRepo {
	return &FinancialClosingRepo{q: q}
}

// Latest cierre con la fecha más reciente de la unidad, o ErrNotFound.
func (r *FinancialClosingRepo) Latest(ctx context.Context, unitID string) (*entity.FinancialClosing, error) {
	var c entity.FinancialClosing
	var createdBy *string
	err := r.q.QueryRow(ctx, `
		SELECT id, unit_id, entry_date, created_by, created_at
		FROM financial_closings WHERE unit_id = $1
		ORDER BY entry_date DESC
		LIMIT 1`, unitID,
	).Scan(&c.ID, &c.UnitID, &c.EntryDate, &createdBy, &c.CreatedAt)
	if err != nil {
		return nil, mapError("latest financial closing", err)
	}
	c.CreatedBy = derefString(createdBy)
	c.EntryDate = utc(c.EntryDate)
	c.CreatedAt = utc(c.CreatedAt)
	return &c, nil
}

// ItemRepo ítems, categorías y unidades de medida.
type ItemRepo struct {
	q Querier
}

func NewItemRepository(q Querier) *ItemRepo {
	return &ItemRepo{q: q}
}

func (r *ItemRepo) GetMultipleUom(ctx context.Context, id string) (*entity.MultipleUom, error) {
	var u entity.MultipleUom
	err := r.q.QueryRow(ctx, `
		SELECT id, item_id, name, conversion_qty FROM multiple_uoms WHERE id = $1`, id,
	).Scan(&u.ID, &u.ItemID, &u.Name, &u.ConversionQty)
	if err != nil {
		return nil, mapError("get multiple uom", err)
	}
	return &u, nil
}

// GetItem ítem de la unidad con las cuentas de su categoría.
func (r *ItemRepo) GetItem(ctx context.Context, unitID, itemID string) (*entity.Item, error) {
	var it entity.Item
	var categoryID, stock, cogs, sales *string
	err := r.q.QueryRow(ctx, `
		SELECT i.id, i.unit_id, i.name, i.category_id, i.manual_cost,
			c.stock_account_id, c.cogs_account_id, c.sales_account_id
		FROM items i
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE i.unit_id = $1 AND i.id = $2`, unitID, itemID,
	).Scan(&it.ID, &it.UnitID, &it.Name, &categoryID, &it.ManualCost, &stock, &cogs, &sales)
	if err != nil {
		return nil, mapError("get item", err)
	}
	it.CategoryID = derefString(categoryID)
	it.Accounts = entity.CategoryAccounts{
		StockAccountID: derefString(stock),
		CogsAccountID:  derefString(cogs),
		SalesAccountID: derefString(sales),
	}
	return &it, nil
}

// TermRepo condiciones de pago.
type TermRepo struct {
	q Querier
}

func NewTermRepository(q Querier) *TermRepo {
	return &TermRepo{q: q}
}

func (r *TermRepo) GetByID(ctx context.Context, id string) (*entity.Term, error) {
	var t entity.Term
	err := r.q.QueryRow(ctx, `SELECT id, name, period_days FROM terms WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.PeriodDays)
	if err != nil {
		return nil, mapError("get term", err)
	}
	return &t, nil
}

// SettingRepo configuración general por unidad.
type SettingRepo struct {
	q Querier
}

func NewSettingRepository(q Querier) *SettingRepo {
	return &SettingRepo{q: q}
}

func (r *SettingRepo) GetByUnit(ctx context.Context, unitID string) (*entity.UnitSetting, error) {
	var s entity.UnitSetting
	var taxOut, taxIn *string
	err := r.q.QueryRow(ctx, `
		SELECT unit_id, costing_method, tax_out_account_id, tax_in_account_id
		FROM unit_settings WHERE unit_id = $1`, unitID,
	).Scan(&s.UnitID, &s.CostingMethod, &taxOut, &taxIn)
	if err != nil {
		return nil, mapError("get unit setting", err)
	}
	s.TaxOutAccountID = derefString(taxOut)
	s.TaxInAccountID = derefString(taxIn)
	return &s, nil
}
