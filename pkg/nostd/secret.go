package nostd

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrEmptySecretKey = errors.New("secret key is empty")

// SecretBox 对称加密，用于保存交易账户密码。
// 密文格式: base64(nonce || ciphertext)
type SecretBox struct {
	key []byte
}

// NewSecretBox 通过 SHA-256 将任意长度的口令派生为 32 字节密钥
func NewSecretBox(passphrase string) (*SecretBox, error) {
	if passphrase == "" {
		return nil, ErrEmptySecretKey
	}
	sum := sha256.Sum256([]byte(passphrase))
	return &SecretBox{key: sum[:]}, nil
}

func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (b *SecretBox) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
