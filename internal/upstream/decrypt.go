package upstream

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Decryption failures are the one error class that propagates out of the
// ingestion pipeline: they mean misconfiguration, not bad feed data.
var (
	ErrBadCiphertext = errors.New("upstream: invalid ciphertext format")
	ErrBadPadding    = errors.New("upstream: invalid padding")
)

var opensslMagic = []byte("Salted__")

// Decrypt decodes an OpenSSL-compatible "Salted__" AES-256-CBC payload with
// the given password and returns the parsed JSON document, or the plain
// string when the plaintext isn't JSON.
func Decrypt(ciphertext, password string) (interface{}, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCiphertext, err)
	}

	if len(raw) < 16 || !bytes.HasPrefix(raw, opensslMagic) {
		return nil, ErrBadCiphertext
	}

	salt := raw[8:16]
	encrypted := raw[16:]
	if len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return nil, ErrBadCiphertext
	}

	key, iv := bytesToKey([]byte(password), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCiphertext, err)
	}

	plaintext := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, encrypted)

	plaintext, err = stripPKCS7(plaintext)
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(plaintext, &doc); err == nil {
		return doc, nil
	}
	return string(plaintext), nil
}

// bytesToKey replicates OpenSSL's MD5-based EVP_BytesToKey derivation.
func bytesToKey(password, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var derived, d []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(d)
		h.Write(password)
		h.Write(salt)
		d = h.Sum(nil)
		derived = append(derived, d...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func stripPKCS7(data []byte) ([]byte, error) {
	padLen := int(data[len(data)-1])
	if padLen < 1 || padLen > aes.BlockSize || padLen > len(data) {
		return nil, ErrBadPadding
	}
	return data[:len(data)-padLen], nil
}
