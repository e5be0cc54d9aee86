package api

import (
	"crypto/tls"
	"os"

	"github.com/grovetools/nig-upload/errors"
	"software.sslmate.com/src/go-pkcs12"
)

// LoadCertificate decodes a PKCS#12 (.pfx/.p12) bundle holding the client key,
// its certificate and an optional CA chain.
func LoadCertificate(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tls.Certificate{}, errors.CertificateNotFound(path)
		}
		return tls.Certificate{}, errors.Wrap(err, errors.ErrCodeCertificateInvalid, "failed to read certificate").
			WithDetail("path", path)
	}

	key, leaf, caCerts, err := pkcs12.DecodeChain(data, password)
	if err != nil {
		return tls.Certificate{}, errors.Wrap(err, errors.ErrCodeCertificateInvalid, "failed to decode certificate").
			WithDetail("path", path)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, ca := range caCerts {
		cert.Certificate = append(cert.Certificate, ca.Raw)
	}
	return cert, nil
}
