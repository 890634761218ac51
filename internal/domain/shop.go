package domain

// Shop represents a shop in the catalog
type Shop struct {
	ID           int64          `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	CreatedAt    Date           `json:"createdAt" db:"created_at"`
	InVacations  bool           `json:"inVacations" db:"in_vacations"`
	NbProducts   int64          `json:"nbProducts" db:"nb_products"`
	OpeningHours []OpeningHours `json:"openingHours" db:"-"`
}

// OpeningHours is one opening slot of a shop. A shop owns its slots; they
// are created and destroyed only together with the shop.
type OpeningHours struct {
	Day     Weekday   `json:"day" db:"day"`
	OpenAt  TimeOfDay `json:"openAt" db:"open_at"`
	CloseAt TimeOfDay `json:"closeAt" db:"close_at"`
}
