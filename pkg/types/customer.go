package types

// CustomerPayload is the ERP's denormalized customer row, used both by the
// live search endpoints and the sync pull.
type CustomerPayload struct {
	BusinessUnit int    `json:"zid"`
	Code         string `json:"xcus"`
	OrgName      string `json:"xorg"`
	Address      string `json:"xadd1"`
	City         string `json:"xcity"`
	State        string `json:"xstate"`
	Mobile       string `json:"xmobile"`
	TaxNumber    string `json:"xtaxnum"`
	Salesman     string `json:"xsp"`
	Salesman1    string `json:"xsp1"`
	Salesman2    string `json:"xsp2"`
	Salesman3    string `json:"xsp3"`
}
