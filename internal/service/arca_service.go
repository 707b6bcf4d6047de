package service

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/cache"
	"github.com/lorenzotomasdiez/ArcAPI/internal/infra"
	"github.com/lorenzotomasdiez/ArcAPI/internal/refdata"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// tokenLifetime is the validity window WSAA grants on a login ticket.
const tokenLifetime = 12 * time.Hour

// ArcaService owns the authenticated channel to the tax authority: token
// acquisition (with caching) and invoice submission.
type ArcaService interface {
	// GetAuthToken returns a valid WSAA token for the user's CUIT, reusing the
	// cached one when still valid. A miss triggers the full sign-and-exchange:
	// build the login ticket request, sign it with the active certificate's key,
	// exchange it at WSAA.
	GetAuthToken(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) (*infra.AuthToken, error)
	// InvalidateToken drops the cached token so the next call re-authenticates.
	InvalidateToken(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) error
	// ValidateRequest checks the submission payload shape before it leaves.
	ValidateRequest(req *infra.InvoiceRequest) error
	// Submit sends the invoice to WSFE. A rejection is a normal result, not an
	// error; transport failures surface as ErrGatewayUnavailable.
	Submit(ctx context.Context, token *infra.AuthToken, cuit string, req *infra.InvoiceRequest, isProduction bool) (*infra.SubmissionResult, error)
}

type arcaService struct {
	certs     CertificateService
	exchanger infra.TokenExchanger
	submitter infra.InvoiceSubmitter
	tokens    cache.TokenCache
}

func NewArcaService(certs CertificateService, exchanger infra.TokenExchanger, submitter infra.InvoiceSubmitter, tokens cache.TokenCache) ArcaService {
	return &arcaService{certs: certs, exchanger: exchanger, submitter: submitter, tokens: tokens}
}

// loginTicketRequest is the TRA document signed and exchanged at WSAA.
type loginTicketRequest struct {
	XMLName xml.Name `xml:"loginTicketRequest"`
	Version string   `xml:"version,attr"`
	Header  struct {
		UniqueID       int64  `xml:"uniqueId"`
		GenerationTime string `xml:"generationTime"`
		ExpirationTime string `xml:"expirationTime"`
	} `xml:"header"`
	Service string `xml:"service"`
}

func tokenCacheKey(userID uuid.UUID, cuit string, isProduction bool) string {
	env := "test"
	if isProduction {
		env = "prod"
	}
	return fmt.Sprintf("%s_%s_%s", userID, cuit, env)
}

func (s *arcaService) GetAuthToken(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) (*infra.AuthToken, error) {
	key := tokenCacheKey(userID, cuit, isProduction)

	cached, err := s.tokens.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("token cache read failed, re-authenticating")
	}
	if cached != nil && time.Now().Before(cached.ExpiresAt) {
		return cached, nil
	}

	cert, err := s.certs.ActiveCertificate(ctx, userID, cuit, isProduction)
	if err != nil {
		return nil, err
	}

	signer, err := parseSigner(cert.PrivateKeyPEM, cert.Passphrase)
	if err != nil {
		return nil, err
	}

	signedTRA, err := buildSignedTRA(signer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	token, err := s.exchanger.RequestToken(ctx, signedTRA, isProduction)
	if err != nil {
		log.Error().Err(err).
			Str("cuit", cuit).
			Bool("production", isProduction).
			Msg("token exchange failed")
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	if ttl := time.Until(token.ExpiresAt); ttl > 0 {
		if err := s.tokens.Put(ctx, key, token, ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("token cache write failed")
		}
	}

	log.Info().Str("cuit", cuit).Bool("production", isProduction).
		Time("expires_at", token.ExpiresAt).Msg("auth token obtained")
	return token, nil
}

func (s *arcaService) InvalidateToken(ctx context.Context, userID uuid.UUID, cuit string, isProduction bool) error {
	return s.tokens.Delete(ctx, tokenCacheKey(userID, cuit, isProduction))
}

// buildSignedTRA renders the login ticket request, signs its SHA-256 digest
// and packs document + signature as base64(tra + "\n" + signature).
func buildSignedTRA(signer crypto.Signer) (string, error) {
	now := time.Now()
	tra := loginTicketRequest{Version: "1.0", Service: "wsfe"}
	tra.Header.UniqueID = now.Unix()
	tra.Header.GenerationTime = now.Format(time.RFC3339)
	tra.Header.ExpirationTime = now.Add(tokenLifetime).Format(time.RFC3339)

	doc, err := xml.MarshalIndent(tra, "", "  ")
	if err != nil {
		return "", err
	}
	doc = append([]byte(xml.Header), doc...)

	digest := sha256.Sum256(doc)
	sig, err := signer.Sign(rand.Reader, digest[:], crypto.SHA256)
	if err != nil {
		return "", err
	}

	payload := append(doc, '\n')
	payload = append(payload, sig...)
	return base64.StdEncoding.EncodeToString(payload), nil
}

func (s *arcaService) ValidateRequest(req *infra.InvoiceRequest) error {
	switch {
	case req.InvoiceType < 1:
		return fmt.Errorf("%w: invoice type must be positive", ErrInvalidSubmission)
	case req.PointOfSale < 1:
		return fmt.Errorf("%w: point of sale must be positive", ErrInvalidSubmission)
	case !refdata.IsValidConcept(req.Concept):
		return fmt.Errorf("%w: concept must be 1, 2 or 3", ErrInvalidSubmission)
	case req.ClientDocumentType < 1 || req.ClientDocumentNumber == "":
		return fmt.Errorf("%w: client document is required", ErrInvalidSubmission)
	case !req.TotalAmount.IsPositive():
		return fmt.Errorf("%w: total amount must be greater than zero", ErrInvalidSubmission)
	case len(req.Items) == 0:
		return fmt.Errorf("%w: at least one item is required", ErrInvalidSubmission)
	}
	if req.Concept == refdata.ConceptServices || req.Concept == refdata.ConceptMixed {
		if req.ServiceFrom == nil || req.ServiceTo == nil {
			return fmt.Errorf("%w: service dates are required for service invoices", ErrInvalidSubmission)
		}
	}
	return nil
}

func (s *arcaService) Submit(ctx context.Context, token *infra.AuthToken, cuit string, req *infra.InvoiceRequest, isProduction bool) (*infra.SubmissionResult, error) {
	if err := s.ValidateRequest(req); err != nil {
		return nil, err
	}
	result, err := s.submitter.SubmitInvoice(ctx, token, cuit, req, isProduction)
	if err != nil {
		log.Error().Err(err).
			Str("cuit", cuit).
			Int("invoice_type", req.InvoiceType).
			Int64("number", req.Number).
			Msg("invoice submission failed")
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return result, nil
}
