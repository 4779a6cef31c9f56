package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewPaymentReference builds a globally unique, URL-safe payment reference.
// The reference doubles as the gateway transaction reference and the
// caller-visible idempotency key, so it must contain no delimiter the
// gateway could mangle.
func NewPaymentReference() string {
	token := strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	return fmt.Sprintf("PAY-%s-%d", token, time.Now().UnixMilli())
}

// NewID returns a UUID string for entity primary keys.
func NewID() string {
	return uuid.NewString()
}
