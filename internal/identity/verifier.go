package identity

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "codeberg.org/tetherlabs/authgw/internal/errors"
	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"
)

const (
	signingKeysCacheKey = "signing_keys"
	signingKeysTTL      = 1 * time.Hour
)

type VerifierConfig struct {
	CertsURL string // provider endpoint serving kid -> PEM certificate
	Issuer   string
	Audience string
}

// Verifier validates inbound bearer tokens against the identity provider's
// published signing certificates and produces a verified claims set. Signature,
// issuer, audience and expiry checks are delegated to the JWT library; the
// provider rotates certificates, so the parsed keys are cached with a TTL.
type Verifier struct {
	config     VerifierConfig
	httpClient *http.Client
	keys       *gocache.Cache
}

func NewVerifier(config VerifierConfig) *Verifier {
	return &Verifier{
		config:     config,
		httpClient: identityHTTPClient,
		keys:       gocache.New(signingKeysTTL, 2*signingKeysTTL),
	}
}

// Verify validates a bearer token and returns its claims. Empty tokens fail
// with missing_credential, expired signatures with expired_credential, and
// every other parse or signature failure with invalid_credential. No side
// effects on failure.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if token == "" {
		return nil, apperrors.MissingCredential()
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.config.Issuer),
		jwt.WithAudience(v.config.Audience),
		jwt.WithExpirationRequired(),
	)

	mapClaims := jwt.MapClaims{}

	parsed, err := parser.ParseWithClaims(token, mapClaims, v.keyFunc(ctx))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ExpiredCredential()
		}

		return nil, apperrors.InvalidCredential("").WithDetails(err.Error())
	}

	if !parsed.Valid {
		return nil, apperrors.InvalidCredential("")
	}

	subject, _ := mapClaims["sub"].(string)
	if subject == "" {
		return nil, apperrors.InvalidCredential("credential is missing a subject")
	}

	email, _ := mapClaims["email"].(string)
	emailVerified, _ := mapClaims["email_verified"].(bool)
	expiry, _ := mapClaims.GetExpirationTime() // presence enforced by the parser
	extra := make(map[string]any, len(mapClaims))

	for k, val := range mapClaims {
		extra[k] = val
	}

	claims := &Claims{
		SubjectID:     subject,
		Email:         email,
		EmailVerified: emailVerified,
		Extra:         extra,
	}

	if expiry != nil {
		claims.ExpiresAt = expiry.Time
	}

	return claims, nil
}

// resolves the signing key named by the token's kid header
func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header is missing a key id")
		}

		keys, err := v.signingKeys(ctx)
		if err != nil {
			return nil, err
		}

		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("unknown signing key id %q", kid)
		}

		return key, nil
	}
}

// fetches the provider's signing certificates, serving from cache while fresh
func (v *Verifier) signingKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	if cached, ok := v.keys.Get(signingKeysCacheKey); ok {
		return cached.(map[string]*rsa.PublicKey), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.CertsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create certs request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing certificates: %w", err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signing certificates request returned http %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, fmt.Errorf("failed to decode signing certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))

	for kid, pemCert := range certs {
		key, err := parseCertificateKey(pemCert)
		if err != nil {
			return nil, fmt.Errorf("failed to parse certificate %q: %w", kid, err)
		}

		keys[kid] = key
	}

	if len(keys) == 0 {
		return nil, fmt.Errorf("provider returned no signing certificates")
	}

	v.keys.Set(signingKeysCacheKey, keys, signingKeysTTL)

	return keys, nil
}

// extracts the RSA public key from a PEM-encoded X.509 certificate
func parseCertificateKey(pemCert string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, err
	}

	key, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate does not carry an RSA public key")
	}

	return key, nil
}
