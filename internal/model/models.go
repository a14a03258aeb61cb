package model

// All returns every persisted model in dependency order, for AutoMigrate on
// the embedded store.
func All() []any {
	return []any{
		&Client{},
		&Product{},
		&Phone{},
		&Repair{},
		&RepairPart{},
		&Sale{},
		&SaleItem{},
		&Payment{},
		&StockMovement{},
	}
}
