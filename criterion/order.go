package criterion

// Order is an ORDER BY term.
type Order struct {
	Field string
	Desc  bool
	// Fold orders text case-insensitively.
	Fold bool
}

// Asc orders by field ascending.
func Asc(field string) Order { return Order{Field: field} }

// Desc orders by field descending.
func Desc(field string) Order { return Order{Field: field, Desc: true} }

// CaseInsensitive returns o ordering text without regard to case.
func (o Order) CaseInsensitive() Order {
	o.Fold = true
	return o
}

// Direction returns ASC or DESC.
func (o Order) Direction() string {
	if o.Desc {
		return "DESC"
	}
	return "ASC"
}
