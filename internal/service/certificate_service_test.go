package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/lorenzotomasdiez/ArcAPI/internal/dto"
	"github.com/lorenzotomasdiez/ArcAPI/internal/model"
	"github.com/lorenzotomasdiez/ArcAPI/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── test key material ────────────────────────────────────────────────────────

type certOptions struct {
	commonName   string
	serialNumber string
	notBefore    time.Time
	notAfter     time.Time
}

func defaultCertOptions() certOptions {
	return certOptions{
		commonName:   "ACME SA",
		serialNumber: "CUIT 20123456789",
		notBefore:    time.Now().Add(-time.Hour),
		notAfter:     time.Now().Add(365 * 24 * time.Hour),
	}
}

// generateCertificate builds a self-signed certificate + key pair in PEM.
func generateCertificate(t *testing.T, opts certOptions) (certPEM, keyPEM string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   opts.commonName,
			SerialNumber: opts.serialNumber,
		},
		NotBefore:             opts.notBefore,
		NotAfter:              opts.notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM
}

// ── in-memory CertificateRepository stub ─────────────────────────────────────

type stubCertificateRepo struct {
	certs map[uuid.UUID]*model.Certificate
}

func newStubCertificateRepo() *stubCertificateRepo {
	return &stubCertificateRepo{certs: make(map[uuid.UUID]*model.Certificate)}
}

func (r *stubCertificateRepo) Create(_ context.Context, c *model.Certificate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	cloned := *c
	r.certs[c.ID] = &cloned
	return nil
}

func (r *stubCertificateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Certificate, error) {
	c, ok := r.certs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCertificateRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Certificate, error) {
	var out []model.Certificate
	for _, c := range r.certs {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCertificateRepo) FindActive(_ context.Context, userID uuid.UUID, cuit string, isProduction bool) (*model.Certificate, error) {
	var best *model.Certificate
	for _, c := range r.certs {
		if c.UserID == userID && c.CUIT == cuit && c.IsProduction == isProduction && c.IsActive {
			if best == nil || c.ExpiresAt.After(best.ExpiresAt) {
				best = c
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *stubCertificateRepo) FindActiveForEnvironment(_ context.Context, userID uuid.UUID, isProduction bool) (*model.Certificate, error) {
	var best *model.Certificate
	for _, c := range r.certs {
		if c.UserID == userID && c.IsProduction == isProduction && c.IsActive {
			if best == nil || c.CreatedAt.After(best.CreatedAt) {
				best = c
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *stubCertificateRepo) DeactivateActive(_ context.Context, userID uuid.UUID, cuit string, isProduction bool) error {
	for _, c := range r.certs {
		if c.UserID == userID && c.CUIT == cuit && c.IsProduction == isProduction {
			c.IsActive = false
		}
	}
	return nil
}

func (r *stubCertificateRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if c, ok := r.certs[id]; ok {
		c.IsActive = false
	}
	return nil
}

func (r *stubCertificateRepo) ExpiringSoon(_ context.Context, userID uuid.UUID, within time.Duration) ([]model.Certificate, error) {
	now := time.Now()
	var out []model.Certificate
	for _, c := range r.certs {
		if c.UserID == userID && c.IsActive && c.ExpiresAt.After(now) && c.ExpiresAt.Before(now.Add(within)) {
			out = append(out, *c)
		}
	}
	return out, nil
}

var _ repository.CertificateRepository = (*stubCertificateRepo)(nil)

// ── pure helper tests ────────────────────────────────────────────────────────

func TestParseCertificate(t *testing.T) {
	certPEM, _ := generateCertificate(t, defaultCertOptions())

	info, err := ParseCertificate(certPEM)
	require.NoError(t, err)
	assert.Contains(t, info.Subject, "ACME SA")
	assert.Len(t, info.Fingerprint, 64)
	assert.True(t, info.ValidTo.After(info.ValidFrom))
}

func TestParseCertificate_Garbage(t *testing.T) {
	_, err := ParseCertificate("not a certificate")
	assert.ErrorIs(t, err, ErrInvalidCertificate)
}

func TestValidateCertificate_Expired(t *testing.T) {
	opts := defaultCertOptions()
	opts.notBefore = time.Now().Add(-48 * time.Hour)
	opts.notAfter = time.Now().Add(-24 * time.Hour)
	certPEM, _ := generateCertificate(t, opts)

	assert.ErrorIs(t, ValidateCertificate(certPEM), ErrCertificateExpired)
}

func TestValidateCertificate_NotYetValid(t *testing.T) {
	opts := defaultCertOptions()
	opts.notBefore = time.Now().Add(24 * time.Hour)
	opts.notAfter = time.Now().Add(48 * time.Hour)
	certPEM, _ := generateCertificate(t, opts)

	assert.ErrorIs(t, ValidateCertificate(certPEM), ErrCertificateNotYetValid)
}

func TestValidatePrivateKey_Garbage(t *testing.T) {
	assert.ErrorIs(t, ValidatePrivateKey("not a key", nil), ErrInvalidPrivateKey)
}

func TestValidateKeyPair(t *testing.T) {
	certPEM, keyPEM := generateCertificate(t, defaultCertOptions())
	_, otherKeyPEM := generateCertificate(t, defaultCertOptions())

	match, err := ValidateKeyPair(certPEM, keyPEM, nil)
	require.NoError(t, err)
	assert.True(t, match)

	// Mismatch is a result, not an error
	match, err = ValidateKeyPair(certPEM, otherKeyPEM, nil)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestExtractCUIT(t *testing.T) {
	certPEM, _ := generateCertificate(t, defaultCertOptions())

	cuit := ExtractCUIT(certPEM)
	require.NotNil(t, cuit)
	assert.Equal(t, "20123456789", *cuit)
}

func TestExtractCUIT_SerialNumberBeatsDigitsInName(t *testing.T) {
	opts := defaultCertOptions()
	opts.commonName = "Sucursal 12345678901"
	opts.serialNumber = "20999888777"
	certPEM, _ := generateCertificate(t, opts)

	cuit := ExtractCUIT(certPEM)
	require.NotNil(t, cuit)
	assert.Equal(t, "20999888777", *cuit)
}

func TestExtractCUIT_Absent(t *testing.T) {
	opts := defaultCertOptions()
	opts.serialNumber = ""
	opts.commonName = "No Tax Id Here"
	certPEM, _ := generateCertificate(t, opts)

	assert.Nil(t, ExtractCUIT(certPEM))
}

// ── service tests ────────────────────────────────────────────────────────────

func TestCreateCertificate_DeactivatesPrevious(t *testing.T) {
	repo := newStubCertificateRepo()
	svc := NewCertificateService(repo)
	userID := uuid.New()

	certPEM, keyPEM := generateCertificate(t, defaultCertOptions())
	first, err := svc.CreateCertificate(context.Background(), userID, dto.CreateCertificateRequest{
		CUIT: "20123456789", Certificate: certPEM, PrivateKey: keyPEM,
	})
	require.NoError(t, err)

	certPEM2, keyPEM2 := generateCertificate(t, defaultCertOptions())
	second, err := svc.CreateCertificate(context.Background(), userID, dto.CreateCertificateRequest{
		CUIT: "20123456789", Certificate: certPEM2, PrivateKey: keyPEM2,
	})
	require.NoError(t, err)

	firstID, _ := uuid.Parse(first.ID)
	stored, err := repo.FindByID(context.Background(), firstID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "previous certificate must be deactivated")

	secondID, _ := uuid.Parse(second.ID)
	stored, err = repo.FindByID(context.Background(), secondID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestCreateCertificate_KeyMismatch(t *testing.T) {
	repo := newStubCertificateRepo()
	svc := NewCertificateService(repo)

	certPEM, _ := generateCertificate(t, defaultCertOptions())
	_, otherKeyPEM := generateCertificate(t, defaultCertOptions())

	_, err := svc.CreateCertificate(context.Background(), uuid.New(), dto.CreateCertificateRequest{
		CUIT: "20123456789", Certificate: certPEM, PrivateKey: otherKeyPEM,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, repo.certs)
}

func TestActiveCertificate_None(t *testing.T) {
	svc := NewCertificateService(newStubCertificateRepo())

	_, err := svc.ActiveCertificate(context.Background(), uuid.New(), "20123456789", false)
	assert.ErrorIs(t, err, ErrNoCertificate)
}

func TestActiveCertificate_ExpiredIsDeactivated(t *testing.T) {
	repo := newStubCertificateRepo()
	svc := NewCertificateService(repo)
	userID := uuid.New()

	expired := &model.Certificate{
		UserID:         userID,
		CUIT:           "20123456789",
		CertificatePEM: "pem",
		PrivateKeyPEM:  "key",
		ExpiresAt:      time.Now().Add(-time.Hour),
		IsActive:       true,
	}
	require.NoError(t, repo.Create(context.Background(), expired))

	_, err := svc.ActiveCertificate(context.Background(), userID, "20123456789", false)
	assert.ErrorIs(t, err, ErrNoCertificate)

	stored, err := repo.FindByID(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "expired certificate must be soft-deactivated")
}

func TestIssuerCUIT(t *testing.T) {
	repo := newStubCertificateRepo()
	svc := NewCertificateService(repo)
	userID := uuid.New()

	_, err := svc.IssuerCUIT(context.Background(), userID, false)
	require.ErrorIs(t, err, ErrNoCertificate)

	require.NoError(t, repo.Create(context.Background(), &model.Certificate{
		UserID: userID, CUIT: "20123456789",
		ExpiresAt: time.Now().Add(time.Hour), IsActive: true,
	}))

	cuit, err := svc.IssuerCUIT(context.Background(), userID, false)
	require.NoError(t, err)
	assert.Equal(t, "20123456789", cuit)
}

func TestDeactivateCertificate_Ownership(t *testing.T) {
	repo := newStubCertificateRepo()
	svc := NewCertificateService(repo)
	owner := uuid.New()

	cert := &model.Certificate{
		UserID: owner, CUIT: "20123456789",
		ExpiresAt: time.Now().Add(time.Hour), IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), cert))

	err := svc.DeactivateCertificate(context.Background(), uuid.New(), cert.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	require.NoError(t, svc.DeactivateCertificate(context.Background(), owner, cert.ID))
	stored, _ := repo.FindByID(context.Background(), cert.ID)
	assert.False(t, stored.IsActive)
}
