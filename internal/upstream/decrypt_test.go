package upstream

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"reflect"
	"testing"
)

// encrypt builds an OpenSSL-compatible "Salted__" payload the way the
// provider does, so Decrypt can be tested as a true roundtrip.
func encrypt(t *testing.T, plaintext, password string, salt []byte) string {
	t.Helper()
	if len(salt) != 8 {
		t.Fatalf("salt must be 8 bytes, got %d", len(salt))
	}

	key, iv := bytesToKey([]byte(password), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}

	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := []byte(plaintext)
	for i := 0; i < padLen; i++ {
		padded = append(padded, byte(padLen))
	}

	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	raw := append([]byte("Salted__"), salt...)
	raw = append(raw, encrypted...)
	return base64.StdEncoding.EncodeToString(raw)
}

var testSalt = []byte{1, 2, 3, 4, 5, 6, 7, 8}

func TestDecryptJSONRoundtrip(t *testing.T) {
	plaintext := `{"data":[{"gmid":"100","mname":"Match Odds"}]}`
	ciphertext := encrypt(t, plaintext, "secret-key", testSalt)

	doc, err := Decrypt(ciphertext, "secret-key")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}

	want := map[string]interface{}{
		"data": []interface{}{
			map[string]interface{}{"gmid": "100", "mname": "Match Odds"},
		},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Decrypt = %#v, want %#v", doc, want)
	}
}

func TestDecryptNonJSONPlaintext(t *testing.T) {
	ciphertext := encrypt(t, "session expired", "secret-key", testSalt)

	doc, err := Decrypt(ciphertext, "secret-key")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if doc != "session expired" {
		t.Errorf("Decrypt = %#v, want the raw string", doc)
	}
}

func TestDecryptBadCiphertext(t *testing.T) {
	tests := []struct {
		name       string
		ciphertext string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"too short", base64.StdEncoding.EncodeToString([]byte("tiny"))},
		{"missing magic", base64.StdEncoding.EncodeToString([]byte("NoSalted12345678abcdefghijklmnop"))},
		{"no cipher blocks", base64.StdEncoding.EncodeToString([]byte("Salted__12345678"))},
		{"ragged block", base64.StdEncoding.EncodeToString([]byte("Salted__12345678abc"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decrypt(tt.ciphertext, "secret-key")
			if !errors.Is(err, ErrBadCiphertext) {
				t.Errorf("error = %v, want ErrBadCiphertext", err)
			}
		})
	}
}

func TestDecryptWrongPassword(t *testing.T) {
	ciphertext := encrypt(t, `{"ok":true}`, "right-key", testSalt)

	doc, err := Decrypt(ciphertext, "wrong-key")
	if err == nil {
		// A wrong key usually surfaces as garbage padding. When the last
		// byte happens to be a valid pad length the result must at least
		// not be the original document.
		if m, ok := doc.(map[string]interface{}); ok && m["ok"] == true {
			t.Error("wrong password produced the original plaintext")
		}
		return
	}
	if !errors.Is(err, ErrBadPadding) {
		t.Errorf("error = %v, want ErrBadPadding", err)
	}
}

func TestBytesToKeyDeterministic(t *testing.T) {
	key1, iv1 := bytesToKey([]byte("pw"), testSalt, 32, 16)
	key2, iv2 := bytesToKey([]byte("pw"), testSalt, 32, 16)

	if len(key1) != 32 || len(iv1) != 16 {
		t.Fatalf("lengths = %d/%d, want 32/16", len(key1), len(iv1))
	}
	if !reflect.DeepEqual(key1, key2) || !reflect.DeepEqual(iv1, iv2) {
		t.Error("derivation must be deterministic for the same inputs")
	}

	key3, _ := bytesToKey([]byte("other"), testSalt, 32, 16)
	if reflect.DeepEqual(key1, key3) {
		t.Error("different passwords derived the same key")
	}
}
