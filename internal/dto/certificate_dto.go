package dto

// CreateCertificateRequest uploads a PEM certificate + private key pair.
// The key material is validated (parse, expiry, key-pair match) before insert
// and is never echoed back in any response.
type CreateCertificateRequest struct {
	CUIT         string  `json:"cuit"         validate:"required,len=11,numeric"`
	Certificate  string  `json:"certificate"  validate:"required"`
	PrivateKey   string  `json:"private_key"  validate:"required"`
	Passphrase   *string `json:"passphrase"`
	IsProduction bool    `json:"is_production"`
}

type CertificateResponse struct {
	ID           string `json:"id"`
	CUIT         string `json:"cuit"`
	IsProduction bool   `json:"is_production"`
	ExpiresAt    string `json:"expires_at"`
	IsActive     bool   `json:"is_active"`
	Subject      string `json:"subject,omitempty"`
	Issuer       string `json:"issuer,omitempty"`
	CreatedAt    string `json:"created_at"`
}
