// Package tlsconfig builds the *tls.Config the acceptor (C7) wraps a
// listener with: certificate/key loaded from PEM files, TLS 1.0/1.1
// disabled, compression disabled, and ALPN advertising h2 then
// http/1.1 — spec.md §4.7's external collaborator at the core's TLS
// boundary. Grounded on the teacher's ConfigureServer (server.go:
// appending npnProto to TLSConfig.NextProtos before serving), adapted
// from NPN to ALPN's NextProtos field (the same struct field does both
// in crypto/tls) and generalized to also read a PEM passphrase.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"

	"go.uber.org/multierr"
)

// NextProtos is the ALPN protocol list spec.md §4.7 mandates: h2 tried
// first, falling back to http/1.1.
var NextProtos = []string{"h2", "http/1.1"}

// FromPEM loads a certificate and private key from PEM files and returns
// a *tls.Config ready for the acceptor: TLS 1.2 minimum (disabling 1.0
// and 1.1), compression disabled (crypto/tls never implements TLS-level
// compression, so this is documentation, not a field), and ALPN set to
// NextProtos. password, if non-empty, decrypts a PEM-encrypted key
// (deprecated by Go's pem package but still a common deployment shape
// for keys generated by older tooling).
func FromPEM(certFile, keyFile, password string) (*tls.Config, error) {
	certPEM, err1 := os.ReadFile(certFile)
	keyPEM, err2 := os.ReadFile(keyFile)
	if err := multierr.Combine(err1, err2); err != nil {
		return nil, err
	}

	if password != "" {
		keyPEM, err1 = decryptPEM(keyPEM, password)
		if err1 != nil {
			return nil, err1
		}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		NextProtos:   append([]string(nil), NextProtos...),
	}, nil
}

func decryptPEM(keyPEM []byte, password string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, x509.IncorrectPasswordError
	}
	//lint:ignore SA1019 deprecated but still the only stdlib path for legacy encrypted PEM keys.
	der, err := x509.DecryptPEMBlock(block, []byte(password))
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
