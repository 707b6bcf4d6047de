package dto

type CreatePointOfSaleRequest struct {
	Number       int    `json:"number" validate:"required,min=1,max=99999"`
	Name         string `json:"name"`
	IsProduction bool   `json:"is_production"`
}

type UpdatePointOfSaleRequest struct {
	Name         *string `json:"name"`
	IsProduction *bool   `json:"is_production"`
	IsActive     *bool   `json:"is_active"`
}

type PointOfSaleResponse struct {
	ID           string `json:"id"`
	Number       int    `json:"number"`
	Name         string `json:"name"`
	IsProduction bool   `json:"is_production"`
	IsActive     bool   `json:"is_active"`
	CreatedAt    string `json:"created_at"`
}
