// Package trust builds the TLS configuration of the REST API client: the
// system roots plus any configured CA bundle.
package trust

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/darksworm/backoffice/pkg/errors"
)

// Options configures certificate loading
type Options struct {
	CACertFile string // PEM bundle
	CACertDir  string // directory of *.pem or *.crt files
	// Insecure skips server verification entirely
	Insecure bool
}

// IsZero reports whether opts asks for nothing beyond the defaults
func (o Options) IsZero() bool { return o == Options{} }

// LoadPool creates a certificate pool with system roots plus optional
// extras. SSL_CERT_FILE and SSL_CERT_DIR fill in unset options; SSL_CERT_DIR
// may hold several directories separated by colons.
func LoadPool(opts Options) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}

	add := func(src string, pem []byte) error {
		if ok := pool.AppendCertsFromPEM(pem); !ok {
			return fmt.Errorf("no valid certificates found in %s", src)
		}
		return nil
	}

	if f := first(opts.CACertFile, os.Getenv("SSL_CERT_FILE")); f != "" {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert file %s: %w", f, err)
		}
		if err := add(f, b); err != nil {
			return nil, err
		}
	}

	if d := first(opts.CACertDir, os.Getenv("SSL_CERT_DIR")); d != "" {
		explicit := opts.CACertDir != ""
		dirs := strings.Split(d, ":")
		for _, dir := range dirs {
			dir = strings.TrimSpace(dir)
			if dir == "" {
				continue
			}
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				// a single configured directory must exist; lists skip gaps
				if explicit && len(dirs) == 1 {
					return nil, fmt.Errorf("failed to load certificates from directory %s: %w", dir, err)
				}
				continue
			}
			err := filepath.WalkDir(dir, func(p string, e fs.DirEntry, werr error) error {
				if werr != nil {
					return werr
				}
				if e.IsDir() || !hasSuffix(p, ".pem", ".crt") {
					return nil
				}
				b, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("failed to read CA cert file %s: %w", p, err)
				}
				return add(p, b)
			})
			if err != nil {
				return nil, fmt.Errorf("failed to load certificates from directory %s: %w", dir, err)
			}
		}
	}
	return pool, nil
}

// TLSConfig assembles the client TLS configuration for opts. It returns
// nil when opts is zero so callers keep the transport default.
func TLSConfig(opts Options) (*tls.Config, error) {
	if opts.IsZero() && os.Getenv("SSL_CERT_FILE") == "" && os.Getenv("SSL_CERT_DIR") == "" {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if opts.Insecure {
		cfg.InsecureSkipVerify = true
	} else {
		pool, err := LoadPool(opts)
		if err != nil {
			return nil, tlsError(err)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func tlsError(err error) *apperrors.AppError {
	return apperrors.ConfigError("TLS_SETUP_FAILED", "Could not load API certificates").
		WithCause(err).
		WithUserAction("Check the ca_cert and ca_dir settings under [api]")
}

// first returns the first non-blank string
func first(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// hasSuffix checks for any of the suffixes, ignoring case
func hasSuffix(s string, suff ...string) bool {
	s = strings.ToLower(s)
	for _, x := range suff {
		if strings.HasSuffix(s, x) {
			return true
		}
	}
	return false
}
