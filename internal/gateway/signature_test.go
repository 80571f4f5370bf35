package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner_MatchesHMACOfJoinedRefs(t *testing.T) {
	cases := []struct {
		secret     string
		orderRef   string
		paymentRef string
	}{
		{"s3cret", "order_1", "pay_1"},
		{"another-key", "order_LmN0pQ", "pay_Zx81"},
		{"k", "order_abc", "pay_def"},
		{"unicode-ключ", "order_💳", "pay_✓"},
	}

	for _, tc := range cases {
		t.Run(tc.secret, func(t *testing.T) {
			mac := hmac.New(sha256.New, []byte(tc.secret))
			mac.Write([]byte(tc.orderRef + "|" + tc.paymentRef))
			want := hex.EncodeToString(mac.Sum(nil))

			s := NewSigner(tc.secret)
			assert.Equal(t, want, s.Sign(tc.orderRef, tc.paymentRef))
			assert.True(t, s.Verify(tc.orderRef, tc.paymentRef, want))
		})
	}
}

func TestSigner_RejectsMismatches(t *testing.T) {
	s := NewSigner("s3cret")
	good := s.Sign("order_1", "pay_1")

	assert.False(t, s.Verify("order_1", "pay_2", good), "other payment ref")
	assert.False(t, s.Verify("order_2", "pay_1", good), "other order ref")
	assert.False(t, NewSigner("other").Verify("order_1", "pay_1", good), "other secret")
	assert.False(t, s.Verify("order_1", "pay_1", good[:len(good)-1]), "truncated")
	assert.False(t, s.Verify("order_1", "pay_1", ""), "empty")
}
