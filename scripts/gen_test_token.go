// Local development helper: generates a throwaway signing keypair, writes the
// matching certs JSON (serve it with any static file server and point
// IDENTITY_CERTS_URL at it), and mints a signed ID token the gateway's
// verifier accepts.
//
// Usage: go run scripts/gen_test_token.go [certs-output-path]
package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log"
	"math/big"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	issuer := envOr("IDENTITY_ISSUER", "https://securetoken.example/dev-project")
	audience := envOr("IDENTITY_AUDIENCE", "dev-project")

	certsPath := "testdata/certs.json"
	if len(os.Args) > 1 {
		certsPath = os.Args[1]
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().Unix()),
		Subject:      pkix.Name{CommonName: "tether-auth dev signing cert"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		log.Fatalf("Failed to create certificate: %v", err)
	}

	kid := fmt.Sprintf("dev-key-%d", time.Now().Unix())
	pemCert := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))

	certs, err := json.MarshalIndent(map[string]string{kid: pemCert}, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode certs: %v", err)
	}

	if err := os.WriteFile(certsPath, certs, 0o644); err != nil {
		log.Fatalf("Failed to write certs file: %v", err)
	}
	fmt.Printf("✅ Wrote signing certs to %s\n", certsPath)

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":            issuer,
		"aud":            audience,
		"sub":            "test-user-123",
		"email":          "test@tether.dev",
		"email_verified": true,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	})
	token.Header["kid"] = kid

	signed, err := token.SignedString(key)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("\n🔑 Test ID Token:\n%s\n\n", signed)
	fmt.Printf("Export this token for testing:\nexport TEST_TOKEN=\"%s\"\n", signed)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
