package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const refAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const refSuffixLen = 6

// NewMerchantRef builds <prefix>-<unix-ms>-<6 upper alnum>.
func NewMerchantRef(prefix string, now time.Time) (string, error) {
	var b strings.Builder
	b.Grow(refSuffixLen)
	max := big.NewInt(int64(len(refAlphabet)))
	for i := 0; i < refSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(refAlphabet[n.Int64()])
	}
	return fmt.Sprintf("%s-%d-%s", prefix, now.UnixMilli(), b.String()), nil
}
