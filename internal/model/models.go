package model

// All lists every persisted model, in migration order.
func All() []any {
	return []any{
		&Privilege{}, &Role{}, &User{},
		&Category{}, &Product{}, &Customer{},
		&Invoice{}, &InvoiceItem{}, &StockTransaction{},
		&OTPChallenge{},
	}
}
