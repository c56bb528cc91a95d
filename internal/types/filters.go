package types

// Filters is the structured form of a search taken from flags, HTTP parameters or tool
// arguments. Zero values are unset. All set filters must hold.
type Filters struct {
	LoanID      string `json:"loan_id,omitempty"`
	Customer    string `json:"customer,omitempty"`
	Status      string `json:"status,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	ProductType string `json:"product_type,omitempty"`
	Servicer    string `json:"servicer,omitempty"`
	State       string `json:"state,omitempty"`
	Address     string `json:"address,omitempty"`

	MinAmount *float64 `json:"min_amount,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
	MinRate   *float64 `json:"min_rate,omitempty"`
	MaxRate   *float64 `json:"max_rate,omitempty"`

	OriginatedFrom *Date `json:"originated_from,omitempty"`
	OriginatedTo   *Date `json:"originated_to,omitempty"`
}

// IsEmpty reports whether no filter is set
func (f Filters) IsEmpty() bool {
	return f == Filters{}
}
