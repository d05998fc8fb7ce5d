package wompi

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

func randomReference() (string, error) {
	min := big.NewInt(100000000000000000)
	max := big.NewInt(999999999999999999)
	n, err := rand.Int(rand.Reader, new(big.Int).Sub(max, min))
	if err != nil {
		return "", err
	}

	n.Add(n, min)
	return n.String(), nil
}

// Hmac256 generates a hex encoded HMAC-SHA256 hash.
func Hmac256(body, key []byte) string {
	hash := hmac.New(sha256.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// EventChecksum computes the signature of a settlement event: the
// concatenation of transaction id, status and amount, keyed by the events
// secret.
func EventChecksum(transactionID, status, amount string, eventsKey []byte) string {
	return Hmac256([]byte(fmt.Sprintf("%s%s%s", transactionID, status, amount)), eventsKey)
}

// VerifyEventChecksum reports whether a received event signature matches.
func VerifyEventChecksum(transactionID, status, amount, received string, eventsKey []byte) bool {
	expected := EventChecksum(transactionID, status, amount, eventsKey)
	return hmac.Equal([]byte(received), []byte(expected))
}

// GenerateSecretHash hashes a webhook shared secret for storage.
func GenerateSecretHash(secret []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareSecretHash checks a presented webhook secret against its hash.
func CompareSecretHash(hash, secret []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, secret) == nil
}
