package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/iho/gotransfer/internal/domain"
)

// KeyPolicy decides what happens when a transfer arrives without an
// idempotency key.
type KeyPolicy string

const (
	// KeyPolicyRequire rejects the request with ErrMissingIdempotencyKey.
	KeyPolicyRequire KeyPolicy = "require"
	// KeyPolicyDerive hashes sender, receiver and amount into a key, so
	// identical requests collapse into one transfer.
	KeyPolicyDerive KeyPolicy = "derive"
	// KeyPolicyGenerate assigns a fresh unique key. Client retries of such
	// requests are not de-duplicated.
	KeyPolicyGenerate KeyPolicy = "generate"
)

// ParseKeyPolicy parses a policy name.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch p := KeyPolicy(s); p {
	case KeyPolicyRequire, KeyPolicyDerive, KeyPolicyGenerate:
		return p, nil
	case "":
		return KeyPolicyRequire, nil
	default:
		return "", fmt.Errorf("unknown idempotency key policy %q", s)
	}
}

// KeyResolver fills in missing idempotency keys according to a KeyPolicy.
type KeyResolver struct {
	policy KeyPolicy
	idGen  IDGenerator
}

// NewKeyResolver creates a new KeyResolver. idGen is only used by
// KeyPolicyGenerate.
func NewKeyResolver(policy KeyPolicy, idGen IDGenerator) *KeyResolver {
	return &KeyResolver{policy: policy, idGen: idGen}
}

// Resolve returns req with its idempotency key set.
func (r *KeyResolver) Resolve(req domain.TransferRequest) (domain.TransferRequest, error) {
	if req.IdempotencyKey != "" {
		return req, domain.ValidateIdempotencyKey(req.IdempotencyKey)
	}

	switch r.policy {
	case KeyPolicyDerive:
		req.IdempotencyKey = DeriveKey(req)
	case KeyPolicyGenerate:
		if r.idGen == nil {
			return req, domain.ErrMissingIdempotencyKey
		}
		req.IdempotencyKey = r.idGen.Generate()
	default:
		return req, domain.ErrMissingIdempotencyKey
	}

	return req, nil
}

// DeriveKey returns a deterministic key for the content of req.
func DeriveKey(req domain.TransferRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Sender))
	h.Write([]byte{0})
	h.Write([]byte(req.Receiver))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(req.Amount, 10)))

	return "drv-" + hex.EncodeToString(h.Sum(nil))
}
