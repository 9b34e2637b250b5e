// pkg/object/keys.go

package object

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 10000
	dekInfoPrefix    = "PBES2-AES256-GCM,"
)

// deriveKey stretches a passphrase into an AES-256 key.
func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, 32, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// ExportRsaPrivateKeyToPem encodes key as PKCS#8 PEM, sealed with the
// passphrase when one is given.
func ExportRsaPrivateKeyToPem(key *rsa.PrivateKey, passphrase string) (string, error) {
	pkcs8Bytes, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", err
	}
	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: pkcs8Bytes,
	}
	if passphrase == "" {
		return string(pem.EncodeToMemory(block)), nil
	}

	salt := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	gcm, err := newGCM(deriveKey(passphrase, salt))
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	encryptedBlock := &pem.Block{
		Type: "ENCRYPTED PRIVATE KEY",
		Headers: map[string]string{
			"Proc-Type": "4,ENCRYPTED",
			"DEK-Info":  fmt.Sprintf("%s%X", dekInfoPrefix, salt),
		},
		Bytes: gcm.Seal(nonce, nonce, block.Bytes, nil),
	}
	return string(pem.EncodeToMemory(encryptedBlock)), nil
}

func ParseRsaPrivateKeyFromPem(privPEM string, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(privPEM))
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the key")
	}

	buf := block.Bytes
	if strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED") {
		if passphrase == "" {
			return nil, errors.New("passphrase is required to decrypt private key")
		}
		dekInfo := block.Headers["DEK-Info"]
		if !strings.HasPrefix(dekInfo, dekInfoPrefix) {
			return nil, errors.Errorf("unsupported encryption scheme %q", dekInfo)
		}
		salt, err := hex.DecodeString(strings.TrimPrefix(dekInfo, dekInfoPrefix))
		if err != nil {
			return nil, errors.New("invalid salt in DEK-Info")
		}
		gcm, err := newGCM(deriveKey(passphrase, salt))
		if err != nil {
			return nil, errors.Wrap(err, "create cipher")
		}
		nonceSize := gcm.NonceSize()
		if len(buf) < nonceSize {
			return nil, errors.New("invalid encrypted data length")
		}
		if buf, err = gcm.Open(nil, buf[:nonceSize], buf[nonceSize:], nil); err != nil {
			return nil, errors.Wrap(err, "decryption failed")
		}
	} else if passphrase != "" {
		logger.Warnf("passphrase is not used, because private key is not encrypted")
	}

	// Try parsing as PKCS#8 first
	privKey, err := x509.ParsePKCS8PrivateKey(buf)
	if err == nil {
		if rsaKey, ok := privKey.(*rsa.PrivateKey); ok {
			return rsaKey, nil
		}
		return nil, errors.New("key is not an RSA private key")
	}
	priv, err := x509.ParsePKCS1PrivateKey(buf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	return priv, nil
}

func ParseRsaPrivateKeyFromPath(path, passphrase string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRsaPrivateKeyFromPem(string(b), passphrase)
}
