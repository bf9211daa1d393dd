package variants

import "time"

type variantsPage struct {
	Variants []apiVariant `json:"variants"`
	Count    int          `json:"count"`
	Offset   int          `json:"offset"`
	Limit    int          `json:"limit"`
}

type apiVariant struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	SKU       *string     `json:"sku"` // null for variants without one
	ProductID string      `json:"product_id"`
	UpdatedAt *time.Time  `json:"updated_at"`
	Product   *apiProduct `json:"product"`
}

type apiProduct struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle"`
}
