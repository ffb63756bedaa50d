// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"crypto/tls"
	"errors"

	"golang.org/x/crypto/pkcs12"
)

// Credentials holds the material used to serve HTTPS. Either PFX, a
// PKCS#12 archive protected by Passphrase, or the PEM encoded Cert and
// Key pair must be set. PFX takes precedence when both are.
type Credentials struct {
	Cert       []byte
	Key        []byte
	PFX        []byte
	Passphrase string
}

var errNoCertificate = errors.New("either pfx or cert and key must be set")

// TLSConfig builds the [tls.Config] for serving with creds.
func TLSConfig(creds Credentials) (*tls.Config, error) {
	cert, err := certificate(creds)
	if err != nil {
		return nil, ConfigurationError{
			Cause: errors.Join(ErrInvalidCredentials, err),
		}
	}
	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
	}
	return cfg, nil
}

func certificate(creds Credentials) (tls.Certificate, error) {
	if len(creds.PFX) > 0 {
		key, leaf, err := pkcs12.Decode(creds.PFX, creds.Passphrase)
		if err != nil {
			return tls.Certificate{}, err
		}
		cert := tls.Certificate{
			Certificate: [][]byte{leaf.Raw},
			PrivateKey:  key,
			Leaf:        leaf,
		}
		return cert, nil
	}
	if len(creds.Cert) == 0 || len(creds.Key) == 0 {
		return tls.Certificate{}, errNoCertificate
	}
	return tls.X509KeyPair(creds.Cert, creds.Key)
}
