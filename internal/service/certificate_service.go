package service

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CertificateInfo is the parsed identity of an uploaded X.509 certificate.
type CertificateInfo struct {
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	SerialNumber string    `json:"serial_number"`
	ValidFrom    time.Time `json:"valid_from"`
	ValidTo      time.Time `json:"valid_to"`
	Fingerprint  string    `json:"fingerprint"`
}

// ─── Pure validation helpers ─────────────────────────────────────────────────

// ParseCertificate decodes a PEM certificate and extracts its identity fields.
func ParseCertificate(certPEM string) (*CertificateInfo, error) {
	cert, err := parseX509(certPEM)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(cert.Raw)
	return &CertificateInfo{
		Subject:      cert.Subject.String(),
		Issuer:       cert.Issuer.String(),
		SerialNumber: cert.SerialNumber.String(),
		ValidFrom:    cert.NotBefore,
		ValidTo:      cert.NotAfter,
		Fingerprint:  hex.EncodeToString(sum[:]),
	}, nil
}

// ValidateCertificate checks the certificate's validity window against now.
func ValidateCertificate(certPEM string) error {
	cert, err := parseX509(certPEM)
	if err != nil {
		return err
	}
	now := time.Now()
	if now.Before(cert.NotBefore) {
		return ErrCertificateNotYetValid
	}
	if now.After(cert.NotAfter) {
		return ErrCertificateExpired
	}
	return nil
}

// ValidatePrivateKey checks that the PEM parses into a usable signing key.
func ValidatePrivateKey(keyPEM string, passphrase *string) error {
	_, err := parseSigner(keyPEM, passphrase)
	return err
}

// ValidateKeyPair reports whether the private key matches the certificate's
// public key, established by signing a probe and verifying the signature.
// A mismatch returns false without an error; only unparseable input errors.
func ValidateKeyPair(certPEM, keyPEM string, passphrase *string) (bool, error) {
	cert, err := parseX509(certPEM)
	if err != nil {
		return false, err
	}
	signer, err := parseSigner(keyPEM, passphrase)
	if err != nil {
		return false, err
	}

	digest := sha256.Sum256([]byte("test-data"))
	sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return false, nil
	}

	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig) == nil, nil
	case *ecdsa.PublicKey:
		return ecdsa.VerifyASN1(pub, digest[:], sig), nil
	default:
		return false, nil
	}
}

// Ordered by specificity: an explicit CUIT marker, then the serial number
// field, then any bare 11-digit run anywhere in the subject.
var cuitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`CUIT\s*(\d{11})`),
	regexp.MustCompile(`serialNumber=(\d{11})`),
	regexp.MustCompile(`(\d{11})`),
}

// ExtractCUIT pulls the 11-digit CUIT out of the certificate subject when the
// authority embedded one. Best effort: returns nil when no pattern matches.
func ExtractCUIT(certPEM string) *string {
	cert, err := parseX509(certPEM)
	if err != nil {
		return nil
	}
	subject := cert.Subject.String()
	if cert.Subject.SerialNumber != "" {
		subject += " serialNumber=" + cert.Subject.SerialNumber
	}
	for _, re := range cuitPatterns {
		if m := re.FindStringSubmatch(subject); m != nil {
			cuit := m[1]
			return &cuit
		}
	}
	return nil
}

func parseX509(certPEM string) (*x509.Certificate, error) {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: not a PEM certificate", ErrInvalidCertificate)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}
	return cert, nil
}

func parseSigner(keyPEM string, passphrase *string) (crypto.Signer, error) {
	block, _ := pem.Decode([]byte(keyPEM))
	if block == nil {
		return nil, fmt.Errorf("%w: not a PEM private key", ErrInvalidPrivateKey)
	}

	der := block.Bytes
	if x509.IsEncryptedPEMBlock(block) {
		if passphrase == nil {
			return nil, fmt.Errorf("%w: key is encrypted and no passphrase was given", ErrInvalidPrivateKey)
		}
		decrypted, err := x509.DecryptPEMBlock(block, []byte(*passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: wrong passphrase", ErrInvalidPrivateKey)
		}
		der = decrypted
	}

	if key, err := x509.ParsePKCS8PrivateKey(der); err == nil {
		if signer, ok := key.(crypto.Signer); ok {
			return signer, nil
		}
		return nil, fmt.Errorf("%w: unsupported key type", ErrInvalidPrivateKey)
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, fmt.Errorf("%w: unrecognized key format", ErrInvalidPrivateKey)
}

// ─── Service ─────────────────────────────────────────────────────────────────

type CertificateService interface {
	// CreateCertificate validates the uploaded pair and stores it, deactivating
	// any previously active certificate for the same (user, cuit, environment).
	CreateCertificate(ctx context.Context, userID uuid.UUID, req dto.CreateCertificateRequest) (*dto.CertificateResponse, error)
	ListCertificates(ctx context.Context, userID uuid.UUID) ([]dto.CertificateResponse, error)
	// ActiveCertificate resolves the certificate used to sign auth requests.
	// An expired certificate is deactivated on the spot and treated as absent.
	ActiveCertificate(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) (*model.Certificate, error)
	// IssuerCUIT resolves the CUIT the user invoices under in the given
	// environment, taken from their newest active certificate.
	IssuerCUIT(ctx context.Context, userID uuid.UUID, isProduction bool) (string, error)
	DeactivateCertificate(ctx context.Context, userID, id uuid.UUID) error
	ExpiringSoon(ctx context.Context, userID uuid.UUID, days int) ([]dto.CertificateResponse, error)
}

type certificateService struct {
	repo repository.CertificateRepository
}

func NewCertificateService(repo repository.CertificateRepository) CertificateService {
	return &certificateService{repo: repo}
}

func (s *certificateService) CreateCertificate(ctx context.Context, userID uuid.UUID, req dto.CreateCertificateRequest) (*dto.CertificateResponse, error) {
	info, err := ParseCertificate(req.Certificate)
	if err != nil {
		return nil, err
	}
	if err := ValidateCertificate(req.Certificate); err != nil {
		return nil, err
	}
	if err := ValidatePrivateKey(req.PrivateKey, req.Passphrase); err != nil {
		return nil, err
	}
	match, err := ValidateKeyPair(req.Certificate, req.PrivateKey, req.Passphrase)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, fmt.Errorf("%w: certificate and private key do not match", ErrInvalidInput)
	}

	if extracted := ExtractCUIT(req.Certificate); extracted != nil && *extracted != req.CUIT {
		log.Warn().
			Str("user_id", userID.String()).
			Str("declared_cuit", req.CUIT).
			Str("certificate_cuit", *extracted).
			Msg("certificate CUIT does not match the declared CUIT")
	}

	metaRaw, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	meta := string(metaRaw)

	if err := s.repo.DeactivateActive(ctx, userID, req.CUIT, req.IsProduction); err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		UserID:         userID,
		CUIT:           req.CUIT,
		CertificatePEM: req.Certificate,
		PrivateKeyPEM:  req.PrivateKey,
		Passphrase:     req.Passphrase,
		IsProduction:   req.IsProduction,
		ExpiresAt:      info.ValidTo,
		IsActive:       true,
		Metadata:       &meta,
	}
	if err := s.repo.Create(ctx, cert); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("cuit", req.CUIT).
		Bool("production", req.IsProduction).
		Time("expires_at", cert.ExpiresAt).
		Msg("certificate registered")

	return certificateToResponse(cert), nil
}

func (s *certificateService) ListCertificates(ctx context.Context, userID uuid.UUID) ([]dto.CertificateResponse, error) {
	certs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CertificateResponse, len(certs))
	for i := range certs {
		resp[i] = *certificateToResponse(&certs[i])
	}
	return resp, nil
}

func (s *certificateService) ActiveCertificate(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) (*model.Certificate, error) {
	cert, err := s.repo.FindActive(ctx, userID, cuit, isProduction)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCertificate
		}
		return nil, err
	}
	if time.Now().After(cert.ExpiresAt) {
		log.Warn().
			Str("certificate_id", cert.ID.String()).
			Str("cuit", cuit).
			Time("expired_at", cert.ExpiresAt).
			Msg("active certificate expired, deactivating")
		if err := s.repo.Deactivate(ctx, cert.ID); err != nil {
			return nil, err
		}
		return nil, ErrNoCertificate
	}
	return cert, nil
}

func (s *certificateService) IssuerCUIT(ctx context.Context, userID uuid.UUID, isProduction bool) (string, error) {
	cert, err := s.repo.FindActiveForEnvironment(ctx, userID, isProduction)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNoCertificate
		}
		return "", err
	}
	return cert.CUIT, nil
}

func (s *certificateService) DeactivateCertificate(ctx context.Context, userID, id uuid.UUID) error {
	cert, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if cert.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *certificateService) ExpiringSoon(ctx context.Context, userID uuid.UUID, days int) ([]dto.CertificateResponse, error) {
	if days < 1 {
		days = 30
	}
	certs, err := s.repo.ExpiringSoon(ctx, userID, time.Duration(days)*24*time.Hour)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.CertificateResponse, len(certs))
	for i := range certs {
		resp[i] = *certificateToResponse(&certs[i])
	}
	return resp, nil
}

func certificateToResponse(c *model.Certificate) *dto.CertificateResponse {
	resp := &dto.CertificateResponse{
		ID:           c.ID.String(),
		CUIT:         c.CUIT,
		IsProduction: c.IsProduction,
		ExpiresAt:    c.ExpiresAt.Format(time.RFC3339),
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
	if c.Metadata != nil {
		var info CertificateInfo
		if err := json.Unmarshal([]byte(*c.Metadata), &info); err == nil {
			resp.Subject = info.Subject
			resp.Issuer = info.Issuer
		}
	}
	return resp
}
