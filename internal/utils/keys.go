package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
)

// KeyPair holds an actor's PEM-encoded RSA key pair. The public half is
// published in the actor document; the private half signs outbound
// activities and never leaves the server.
type KeyPair struct {
	Public  string
	Private string
}

// GenerateKeyPair creates a 2048-bit RSA key pair for a new actor and
// encodes both halves as PKCS#1 PEM blocks.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return KeyPair{}, err
	}
	privPem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	pubPem := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(&priv.PublicKey),
	})
	return KeyPair{Public: string(pubPem), Private: string(privPem)}, nil
}
