package types

import "fmt"

// CartLine is one item row inside the in-progress order. Field tags follow
// the ERP wire contract.
type CartLine struct {
	ItemCode    string   `json:"xitem"`
	Description string   `json:"xdesc"`
	Quantity    int      `json:"xqty"`
	UnitPrice   Money    `json:"xprice"`
	RowOrder    int      `json:"xroword"`
	EntryDate   string   `json:"xdate"`
	LineSerial  string   `json:"xsl"`
	Latitude    *float64 `json:"xlat"`
	Longitude   *float64 `json:"xlong"`
	LineTotal   Money    `json:"xlinetotal"`
}

// Cart is the single in-progress order for the active session.
type Cart struct {
	BusinessUnit    int        `json:"zid"`
	CustomerCode    string     `json:"xcus"`
	CustomerName    string     `json:"xcusname"`
	CustomerAddress string     `json:"xcusadd"`
	Lines           []CartLine `json:"items"`
}

// LineIndex returns the position of the line with the given item code, or -1.
func (c Cart) LineIndex(itemCode string) int {
	for i, line := range c.Lines {
		if line.ItemCode == itemCode {
			return i
		}
	}
	return -1
}

// Total sums the line totals.
func (c Cart) Total() Money {
	var total Money
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

// Order is a finalized cart waiting in the durable queue. Same wire shape as
// Cart; queued orders are immutable except for deletion.
type Order Cart

// Key identifies a queued order before any server id exists: business unit,
// customer code and the first line's serial.
func (o Order) Key() string {
	if len(o.Lines) == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%s:%s", o.BusinessUnit, o.CustomerCode, o.Lines[0].LineSerial)
}

// Total sums the line totals.
func (o Order) Total() Money {
	return Cart(o).Total()
}

// OrderConfirmation is one server-confirmed document from a bulk submission.
type OrderConfirmation struct {
	Document     string `json:"xdoc"`
	CustomerCode string `json:"xcus"`
}
