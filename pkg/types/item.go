package types

// Item is one sellable item as returned by the ERP item search.
type Item struct {
	Code  string  `json:"item_id"`
	Name  string  `json:"item_name"`
	Stock float64 `json:"stock"`
	Price Money   `json:"std_price"`
}
