package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

// Params are the argon2id cost parameters.
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams is the central hashing policy: 19 MiB, 2 passes, 1 lane.
var DefaultParams = Params{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

var (
	// ErrMismatchedPassword is returned when a candidate does not match the hash
	ErrMismatchedPassword = errors.New("password does not match hash")
	// ErrInvalidHash is returned for hashes that are not argon2id PHC strings
	ErrInvalidHash = errors.New("invalid password hash format")
)

// HashPassword hashes with DefaultParams and a fresh random salt, returning
// a PHC string ($argon2id$v=19$m=..,t=..,p=..$salt$hash).
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultParams)
}

func HashPasswordWithParams(password string, p Params) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	return encodeHash(password, salt, p), nil
}

func encodeHash(password string, salt []byte, p Params) string {
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// ComparePassword recomputes the hash with the parameters embedded in
// encodedHash and compares in constant time.
func ComparePassword(encodedHash, password string) error {
	p, salt, key, err := decodeHash(encodedHash)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)
	if subtle.ConstantTimeCompare(candidate, key) != 1 {
		return ErrMismatchedPassword
	}
	return nil
}

// NeedsRehash reports whether encodedHash was produced with weaker
// parameters than DefaultParams.
func NeedsRehash(encodedHash string) (bool, error) {
	p, _, _, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}
	return p.Memory < DefaultParams.Memory ||
		p.Iterations < DefaultParams.Iterations ||
		p.KeyLength != DefaultParams.KeyLength, nil
}

// dummyHash uses a fixed salt, so building it cannot fail and always costs
// a full DefaultParams derivation.
var dummyHash = sync.OnceValue(func() string {
	salt := []byte("authgate-dummy-salt-0123456789ab")[:DefaultParams.SaltLength]
	return encodeHash("authgate-dummy-password", salt, DefaultParams)
})

// CompareDummy performs the same work as ComparePassword against a fixed
// hash. Stores call it when the email is unknown so that lookup misses and
// password mismatches cost the same.
func CompareDummy(password string) {
	_ = ComparePassword(dummyHash(), password)
}

func decodeHash(encodedHash string) (Params, []byte, []byte, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return Params{}, nil, nil, ErrInvalidHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrInvalidHash
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, ErrInvalidHash
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Parallelism == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return Params{}, nil, nil, ErrInvalidHash
	}

	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))
	return p, salt, key, nil
}
