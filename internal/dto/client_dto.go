package dto

type CreateClientRequest struct {
	TaxID        string  `json:"tax_id"        validate:"required,min=7,max=13"`
	TaxIDType    string  `json:"tax_id_type"   validate:"required"`
	Name         string  `json:"name"          validate:"required,min=2"`
	Email        *string `json:"email"         validate:"omitempty,email"`
	Address      *string `json:"address"`
	IVACondition int     `json:"iva_condition" validate:"required,min=1"`
}

type UpdateClientRequest struct {
	TaxID        *string `json:"tax_id"        validate:"omitempty,min=7,max=13"`
	TaxIDType    *string `json:"tax_id_type"`
	Name         *string `json:"name"          validate:"omitempty,min=2"`
	Email        *string `json:"email"         validate:"omitempty,email"`
	Address      *string `json:"address"`
	IVACondition *int    `json:"iva_condition" validate:"omitempty,min=1"`
}

type ClientResponse struct {
	ID           string  `json:"id"`
	TaxID        string  `json:"tax_id"`
	TaxIDType    string  `json:"tax_id_type"`
	Name         string  `json:"name"`
	Email        *string `json:"email"`
	Address      *string `json:"address"`
	IVACondition int     `json:"iva_condition"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
}
