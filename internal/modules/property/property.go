package property

import "time"

// Type is the kind of dwelling a listing offers.
type Type string

const (
	TypeFlat  Type = "flat"
	TypeVilla Type = "villa"
	TypeHouse Type = "house"
)

// Valid reports whether t is a known property type.
func (t Type) Valid() bool {
	switch t {
	case TypeFlat, TypeVilla, TypeHouse:
		return true
	}
	return false
}

// Property is a listing published by a seller.
type Property struct {
	ID            int64     `db:"id"`
	OwnerID       string    `db:"owner_id"`
	Type          Type      `db:"ptype"`
	City          string    `db:"city"`
	NumberOfRooms int       `db:"number_of_rooms"`
	Area          float64   `db:"area"`
	LocationText  string    `db:"location_text"`
	Price         float64   `db:"price"`
	IsForRent     bool      `db:"is_for_rent"`
	Details       *string   `db:"details"`
	Latitude      *float64  `db:"latitude"`
	Longitude     *float64  `db:"longitude"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`

	Facilities []Facility `db:"-"`
	Images     []Image    `db:"-"`
}

// Facility is an amenity from the fixed catalogue.
type Facility struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type Image struct {
	ID         int64     `db:"id"`
	PropertyID int64     `db:"property_id"`
	ImageURL   string    `db:"image_url"`
	Caption    *string   `db:"caption"`
	CreatedAt  time.Time `db:"created_at"`
}

// Ordering values accepted by List.
const (
	OrderPriceAsc  = "price"
	OrderPriceDesc = "-price"
	OrderAreaAsc   = "area"
	OrderAreaDesc  = "-area"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListFilter narrows and orders the public listing. Zero values mean "any".
type ListFilter struct {
	City      string
	Type      Type
	IsForRent *bool
	Search    string
	Ordering  string
	Page      int
	PageSize  int
}

func (f *ListFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// Page is one page of listings.
type Page struct {
	Items    []Property
	Total    int
	Page     int
	PageSize int
}
