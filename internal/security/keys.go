package security

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrInvalidKey is returned when PEM or key type is invalid.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnsupportedKey is returned for keys that cannot sign RS256 or ES256 tokens.
	ErrUnsupportedKey = fmt.Errorf("%w: only RSA and ECDSA P-256 keys are supported", ErrInvalidKey)
	// ErrKeyMismatch is returned when the configured public key is not the private key's.
	ErrKeyMismatch = fmt.Errorf("%w: public key does not match private key", ErrInvalidKey)
)

// LoadPEM returns inline PEM from s, or reads the file s names. Environment variables
// often carry PEM with literal \n sequences; those are turned into newlines.
func LoadPEM(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidKey
	}
	if strings.HasPrefix(s, "-----BEGIN") {
		return []byte(strings.ReplaceAll(s, `\n`, "\n")), nil
	}
	return os.ReadFile(s)
}

// ParsePrivateKey parses a PEM-encoded private key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePrivateKey(s string) (crypto.Signer, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, ErrInvalidKey
		}
		return signer, nil
	case "EC PRIVATE KEY":
		return x509.ParseECPrivateKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// ParsePublicKey parses a PEM-encoded public key (RSA or ECDSA). s may be inline PEM or a file path.
func ParsePublicKey(s string) (crypto.PublicKey, error) {
	pemBytes, err := LoadPEM(s)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	switch block.Type {
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	default:
		return nil, ErrInvalidKey
	}
}

// KeyAlg returns "RS256" for RSA and "ES256" for ECDSA P-256; empty otherwise.
func KeyAlg(pub crypto.PublicKey) string {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return "RS256"
	case *ecdsa.PublicKey:
		if k.Curve == elliptic.P256() {
			return "ES256"
		}
	}
	return ""
}

// ParseKeyPair parses the verification key and, when privatePEM is set, the signing key.
// An empty publicPEM falls back to the public half of the private key. When both are
// given they must belong together.
func ParseKeyPair(privatePEM, publicPEM string) (crypto.Signer, crypto.PublicKey, error) {
	var signer crypto.Signer
	if strings.TrimSpace(privatePEM) != "" {
		s, err := ParsePrivateKey(privatePEM)
		if err != nil {
			return nil, nil, err
		}
		signer = s
	}
	var pub crypto.PublicKey
	switch {
	case strings.TrimSpace(publicPEM) != "":
		p, err := ParsePublicKey(publicPEM)
		if err != nil {
			return nil, nil, err
		}
		pub = p
	case signer != nil:
		pub = signer.Public()
	default:
		return nil, nil, ErrInvalidKey
	}
	if KeyAlg(pub) == "" {
		return nil, nil, ErrUnsupportedKey
	}
	if signer != nil {
		own, ok := signer.Public().(interface{ Equal(crypto.PublicKey) bool })
		if !ok || !own.Equal(pub) {
			return nil, nil, ErrKeyMismatch
		}
	}
	return signer, pub, nil
}
