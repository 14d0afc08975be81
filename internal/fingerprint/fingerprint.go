// Package fingerprint computes content-derived identities for clipboard
// payloads. A fingerprint is only meaningful together with the payload's
// data type; the store enforces uniqueness over the pair.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Fingerprint is a hex encoded 128-bit digest.
type Fingerprint string

// String returns the hex digest.
func (f Fingerprint) String() string { return string(f) }

// Text fingerprints raw clipboard text. The text is hashed untrimmed, so
// "hello" and "hello\n" are distinct observations.
func Text(raw string) Fingerprint {
	return digest([]byte(raw))
}

// Image fingerprints a decoded RGBA8 pixel buffer. Hashing pixels rather
// than the encoded form makes re-encodings of the same picture collide.
func Image(pixels []byte) Fingerprint {
	return digest(pixels)
}

// FileList fingerprints a list of paths independent of their order. It also
// returns the canonical (sorted) list that was hashed.
func FileList(paths []string) (Fingerprint, []string) {
	canonical := make([]string, len(paths))
	copy(canonical, paths)
	sort.Strings(canonical)

	return digest([]byte(strings.Join(canonical, "\x00"))), canonical
}

func digest(b []byte) Fingerprint {
	sum := md5.Sum(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}
