package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/medconb/internal/common"
	"golang.org/x/crypto/argon2"
)

// Upper bounds accepted from a stored digest. Memory is in KiB.
const (
	maxMemory = 1 << 20
	maxTime   = 64
)

var (
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidHash   = errors.New("invalid password hash")
)

// Params are the argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultParams follow the OWASP recommendation for argon2id.
var DefaultParams = Params{
	Memory:  64 * 1024,
	Time:    1,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Argon2idHasher hashes passwords into PHC strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
type Argon2idHasher struct {
	params Params
}

func NewArgon2idHasher(p Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

// Hash derives a digest with a fresh random salt.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	p := h.params
	salt := common.GenerateRandByteArray(int(p.SaltLen))
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Time,
		p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches digest, using the parameters
// stored in the digest itself. A malformed digest is an error.
func (h *Argon2idHasher) Verify(digest, password string) (bool, error) {
	d, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), d.salt, d.params.Time, d.params.Memory, d.params.Threads, uint32(len(d.key)))

	return subtle.ConstantTimeCompare(computed, d.key) == 1, nil
}

// NeedsRehash is true for any digest not produced with the hasher's
// current algorithm, version and parameters.
func (h *Argon2idHasher) NeedsRehash(digest string) bool {
	d, err := decodeDigest(digest)
	if err != nil {
		return true
	}
	return d.version != argon2.Version || d.params != h.params
}

type decoded struct {
	version int
	params  Params
	salt    []byte
	key     []byte
}

func decodeDigest(digest string) (*decoded, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, fmt.Errorf("%w: unexpected format", ErrInvalidHash)
	}
	if parts[1] != "argon2id" {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrInvalidHash, parts[1])
	}

	d := &decoded{}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &d.version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Time, &threads); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if threads == 0 || threads > 255 {
		return nil, fmt.Errorf("%w: threads %d out of range", ErrInvalidHash, threads)
	}
	d.params.Threads = uint8(threads)
	if d.params.Time < 1 || d.params.Time > maxTime {
		return nil, fmt.Errorf("%w: time %d out of range", ErrInvalidHash, d.params.Time)
	}
	if d.params.Memory < 8*threads || d.params.Memory > maxMemory {
		return nil, fmt.Errorf("%w: memory %d out of range", ErrInvalidHash, d.params.Memory)
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, fmt.Errorf("%w: salt: %v", ErrInvalidHash, err)
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, fmt.Errorf("%w: hash: %v", ErrInvalidHash, err)
	}
	if len(d.key) == 0 || len(d.key) > 1<<20 {
		return nil, fmt.Errorf("%w: key length %d", ErrInvalidHash, len(d.key))
	}

	d.params.SaltLen = uint32(len(d.salt))
	d.params.KeyLen = uint32(len(d.key))

	return d, nil
}
