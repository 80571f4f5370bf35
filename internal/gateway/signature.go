package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer computes and checks payment signatures:
// hex(HMAC-SHA256(secret, orderRef + "|" + paymentRef)).
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(orderRef, paymentRef string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(orderRef + "|" + paymentRef))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time.
func (s *Signer) Verify(orderRef, paymentRef, signature string) bool {
	expected := s.Sign(orderRef, paymentRef)
	return hmac.Equal([]byte(expected), []byte(signature))
}
