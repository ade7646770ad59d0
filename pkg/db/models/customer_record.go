package models

// CustomerRecord is the locally cached denormalized customer row. The
// natural key (zid, xcus) makes sync upserts insert-or-replace.
type CustomerRecord struct {
	BusinessUnit int    `gorm:"column:zid;primaryKey;autoIncrement:false"`
	Code         string `gorm:"column:xcus;primaryKey"`
	OrgName      string `gorm:"column:xorg"`
	Address      string `gorm:"column:xadd1"`
	City         string `gorm:"column:xcity"`
	State        string `gorm:"column:xstate"`
	Mobile       string `gorm:"column:xmobile"`
	TaxNumber    string `gorm:"column:xtaxnum"`
	Salesman     string `gorm:"column:xsp"`
	Salesman1    string `gorm:"column:xsp1"`
	Salesman2    string `gorm:"column:xsp2"`
	Salesman3    string `gorm:"column:xsp3"`
}

// TableName keeps the table name the sync contract expects.
func (CustomerRecord) TableName() string {
	return "customer"
}
