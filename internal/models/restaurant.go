package models

// Candidate is a restaurant returned by the recommendation matcher. It is a
// snapshot: the dialog references candidates but never changes them.
type Candidate struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	PriceRange  string  `json:"priceRange"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
	Location    string  `json:"location"`
	Phone       string  `json:"phone,omitempty"`
	Rationale   string  `json:"reason"`
}

// RestaurantRef is the part of a restaurant a reservation needs to carry around.
type RestaurantRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category,omitempty"`
	PriceRange string `json:"priceRange,omitempty"`
	Location   string `json:"location,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

func (c Candidate) Ref() RestaurantRef {
	return RestaurantRef{
		ID:         c.ID,
		Name:       c.Name,
		Category:   c.Category,
		PriceRange: c.PriceRange,
		Location:   c.Location,
		Phone:      c.Phone,
	}
}
