// Package activitypub serves the actor and outbox stubs that remote servers
// fetch after a WebFinger lookup.
package activitypub

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// DefaultKeyBits is the size of the instance key.
const DefaultKeyBits = 2048

// Keys is the instance key pair advertised on every actor.
type Keys struct {
	private *rsa.PrivateKey
	pem     string
}

// GenerateKeys creates a fresh RSA key pair of the given size.
func GenerateKeys(bits int) (*Keys, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("activitypub: generate key: %w", err)
	}
	block := &pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey),
	}
	return &Keys{private: priv, pem: string(pem.EncodeToMemory(block))}, nil
}

// PublicKeyPEM returns the PKCS#1 PEM encoding of the public key.
func (k *Keys) PublicKeyPEM() string {
	return k.pem
}

// Public returns the public half of the pair.
func (k *Keys) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}
