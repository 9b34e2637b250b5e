// pkg/object/encrypt.go

package object

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type Encryptor interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type rsaEncryptor struct {
	privKey *rsa.PrivateKey
	label   []byte
}

// NewRSAEncryptor seals short payloads (data keys) with RSA-OAEP.
func NewRSAEncryptor(privKey *rsa.PrivateKey) Encryptor {
	return &rsaEncryptor{privKey, []byte("keys")}
}

func (e *rsaEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	return rsa.EncryptOAEP(sha256.New(), rand.Reader, &e.privKey.PublicKey, plaintext, e.label)
}

func (e *rsaEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptOAEP(sha256.New(), rand.Reader, e.privKey, ciphertext, e.label)
}

type aesEncryptor struct {
	keyEncryptor Encryptor
	keyLen       int
}

// NewAESEncryptor seals every payload with a fresh AES-256-GCM key, which is
// itself sealed by keyEncryptor and stored in the header:
// [u16 key length][u8 nonce length][sealed key][nonce][ciphertext].
func NewAESEncryptor(keyEncryptor Encryptor) Encryptor {
	return &aesEncryptor{keyEncryptor, 32} //  AES-256-GCM
}

func (e *aesEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	key := make([]byte, e.keyLen)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, err
	}
	cipherKey, err := e.keyEncryptor.Encrypt(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	headerSize := 3 + len(cipherKey) + len(nonce)
	buf := make([]byte, headerSize+len(plaintext)+aesgcm.Overhead())
	buf[0] = byte(len(cipherKey) >> 8)
	buf[1] = byte(len(cipherKey) & 0xFF)
	buf[2] = byte(len(nonce))
	p := buf[3:]
	copy(p, cipherKey)
	p = p[len(cipherKey):]
	copy(p, nonce)
	p = p[len(nonce):]
	ciphertext := aesgcm.Seal(p[:0], nonce, plaintext, nil)
	return buf[:headerSize+len(ciphertext)], nil
}

func (e *aesEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 3 {
		return nil, errors.Errorf("misformed ciphertext: %d bytes", len(ciphertext))
	}
	keyLen := int(ciphertext[0])<<8 + int(ciphertext[1])
	nonceLen := int(ciphertext[2])
	if 3+keyLen+nonceLen >= len(ciphertext) {
		return nil, errors.Errorf("misformed ciphertext: %d %d", keyLen, nonceLen)
	}
	ciphertext = ciphertext[3:]
	cipherKey := ciphertext[:keyLen]
	nonce := ciphertext[keyLen : keyLen+nonceLen]
	ciphertext = ciphertext[keyLen+nonceLen:]

	key, err := e.keyEncryptor.Decrypt(cipherKey)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt key")
	}
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(ciphertext[:0], nonce, ciphertext, nil)
}

type passphraseEncryptor struct {
	passphrase string
	saltLen    int
}

// NewPassphraseEncryptor seals payloads with AES-256-GCM under a key derived
// from passphrase by PBKDF2-SHA256, with a fresh salt per payload:
// [salt][nonce][ciphertext].
func NewPassphraseEncryptor(passphrase string) Encryptor {
	return &passphraseEncryptor{passphrase, 16}
}

func (e *passphraseEncryptor) Encrypt(plaintext []byte) ([]byte, error) {
	salt := make([]byte, e.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	aesgcm, err := newGCM(deriveKey(e.passphrase, salt))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, e.saltLen+aesgcm.NonceSize(), e.saltLen+aesgcm.NonceSize()+len(plaintext)+aesgcm.Overhead())
	copy(buf, salt)
	nonce := buf[e.saltLen:]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aesgcm.Seal(buf, nonce, plaintext, nil), nil
}

func (e *passphraseEncryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < e.saltLen {
		return nil, errors.Errorf("misformed ciphertext: %d bytes", len(ciphertext))
	}
	aesgcm, err := newGCM(deriveKey(e.passphrase, ciphertext[:e.saltLen]))
	if err != nil {
		return nil, err
	}
	rest := ciphertext[e.saltLen:]
	if len(rest) < aesgcm.NonceSize()+aesgcm.Overhead() {
		return nil, errors.Errorf("misformed ciphertext: %d bytes", len(ciphertext))
	}
	nonce, sealed := rest[:aesgcm.NonceSize()], rest[aesgcm.NonceSize():]
	return aesgcm.Open(nil, nonce, sealed, nil)
}

type encrypted struct {
	ObjectStorage
	enc Encryptor
}

// NewEncrypted returns an encrypted object storage
func NewEncrypted(o ObjectStorage, enc Encryptor) ObjectStorage {
	return &encrypted{o, enc}
}

func (e *encrypted) String() string {
	return fmt.Sprintf("%s(encrypted)", e.ObjectStorage)
}

func (e *encrypted) Get(key string, off, limit int64) (io.ReadCloser, error) {
	r, err := e.ObjectStorage.Get(key, 0, -1)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	plain, err := e.enc.Decrypt(ciphertext)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt")
	}
	l := int64(len(plain))
	if off > l {
		return nil, io.EOF
	}
	if limit < 0 || off+limit > l {
		limit = l - off
	}
	return io.NopCloser(bytes.NewReader(plain[off : off+limit])), nil
}

func (e *encrypted) Put(key string, in io.Reader) error {
	plain, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	ciphertext, err := e.enc.Encrypt(plain)
	if err != nil {
		return err
	}
	return e.ObjectStorage.Put(key, bytes.NewReader(ciphertext))
}

var _ ObjectStorage = &encrypted{}
