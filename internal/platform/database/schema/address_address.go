// Copyright (c) 2026 Addressbook. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// AddressTable represents the 'address.address' table
type AddressTable struct {
	Table     string
	ID        string
	OwnerID   string
	Street    string
	City      string
	Postcode  string
	Country   string
	CreatedAt string
	UpdatedAt string

	// UniqueKey is the unique index over (ownerid, street, city, country).
	UniqueKey string
	// UniqueKeyTarget is the ON CONFLICT target matching UniqueKey's expressions.
	UniqueKeyTarget string
}

// Address is the schema definition for address.address
var Address = AddressTable{
	Table:     "address.address",
	ID:        "id",
	OwnerID:   "ownerid",
	Street:    "street",
	City:      "city",
	Postcode:  "postcode",
	Country:   "country",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	UniqueKey: "address_owner_street_city_country_key",

	UniqueKeyTarget: "(ownerid, md5(street), md5(city), md5(country))",
}

// Columns returns all standard column names
func (t AddressTable) Columns() []string {
	return []string{t.ID, t.OwnerID, t.Street, t.City, t.Postcode, t.Country, t.CreatedAt, t.UpdatedAt}
}
