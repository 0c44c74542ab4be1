package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/muurk/printlink/internal/logging"
	"go.uber.org/zap"
)

// TLSOptions controls how the printer's certificate is checked.
type TLSOptions struct {
	// InsecureSkipVerify accepts any certificate. Printers ship self-signed
	// certificates, so this is the default.
	InsecureSkipVerify bool

	// CAFile is a PEM bundle to verify against. Setting it enables verification.
	CAFile string

	// ServerName overrides the name checked against the certificate.
	ServerName string
}

// NewTLSConfig creates the client TLS configuration for printer connections.
func NewTLSConfig(opts TLSOptions) (*tls.Config, error) {
	config := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: opts.ServerName,

		// Log handshake details at debug level
		VerifyConnection: func(cs tls.ConnectionState) error {
			logging.Debug("TLS handshake",
				zap.String("server_name", cs.ServerName),
				zap.String("version", tls.VersionName(cs.Version)),
				zap.String("cipher_suite", tls.CipherSuiteName(cs.CipherSuite)),
			)
			return nil
		},
	}

	if opts.CAFile == "" {
		config.InsecureSkipVerify = opts.InsecureSkipVerify
		logging.Debug("TLS configuration created",
			zap.Bool("verify", !config.InsecureSkipVerify),
		)
		return config, nil
	}

	pem, err := os.ReadFile(opts.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
	}
	config.RootCAs = pool

	logging.Debug("TLS configuration created from CA file",
		zap.String("ca_file", opts.CAFile),
	)

	return config, nil
}

// TLSInfo returns human-readable TLS configuration information
func TLSInfo(config *tls.Config) map[string]interface{} {
	return map[string]interface{}{
		"min_version": tls.VersionName(config.MinVersion),
		"verify":      !config.InsecureSkipVerify,
		"custom_ca":   config.RootCAs != nil,
		"server_name": config.ServerName,
	}
}
