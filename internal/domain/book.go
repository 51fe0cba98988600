package domain

// Book is a single catalog item as the storefront sees it. AvailableStock is
// the catalog's last known availability and may be zero when unknown.
type Book struct {
	BookID         int64   `json:"bookId"`
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	Price          float64 `json:"price"`
	ImageURL       string  `json:"imageUrl"`
	AvailableStock int     `json:"availableStock"`
}
