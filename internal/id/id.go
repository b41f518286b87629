package id

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Connection returns a new random connection identifier.
func Connection() string {
	return uuid.NewString()
}

// Setup returns the identifier of the seq-th setup registered on channel.
func Setup(channel string, seq int) string {
	return fmt.Sprintf("%s#%d", channel, seq)
}

// Session returns a new ULID for an exchange record.
func Session() string {
	return ULID()
}

// crockford is Crockford's base32 alphabet (no I, L, O, U).
const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var (
	ulidMu      sync.Mutex
	ulidLastMs  int64
	ulidCounter uint16
)

// ULID generates a 26-character, time-sortable identifier.
func ULID() string {
	ulidMu.Lock()
	now := time.Now().UnixMilli()
	if now == ulidLastMs {
		ulidCounter++
	} else {
		ulidLastMs = now
		ulidCounter = 0
	}
	counter := ulidCounter
	ulidMu.Unlock()

	return encodeULID(now, counter)
}

func encodeULID(ms int64, counter uint16) string {
	out := make([]byte, 26)

	// 10 chars of timestamp, 5 bits each, most significant first.
	for i := 9; i >= 0; i-- {
		out[i] = crockford[ms&0x1F]
		ms >>= 5
	}

	var entropy [10]byte
	_, _ = rand.Read(entropy[:])
	entropy[0] ^= byte(counter >> 8)
	entropy[1] ^= byte(counter)

	// 80 bits of entropy packed into 16 chars.
	var acc uint64
	bits := 0
	pos := 10
	for _, b := range entropy {
		acc = acc<<8 | uint64(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = crockford[(acc>>bits)&0x1F]
			pos++
		}
	}

	return string(out)
}

// IsValidULID reports whether s is a well-formed ULID.
func IsValidULID(s string) bool {
	if len(s) != 26 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if decodeChar(s[i]) < 0 {
			return false
		}
	}
	return true
}

// ULIDTime extracts the timestamp encoded in a ULID.
func ULIDTime(s string) (time.Time, error) {
	if !IsValidULID(s) {
		return time.Time{}, fmt.Errorf("invalid ULID: %s", s)
	}
	var ms int64
	for i := 0; i < 10; i++ {
		ms = ms<<5 | int64(decodeChar(s[i]))
	}
	return time.UnixMilli(ms), nil
}

func decodeChar(c byte) int {
	for i := 0; i < len(crockford); i++ {
		if crockford[i] == c {
			return i
		}
	}
	return -1
}
