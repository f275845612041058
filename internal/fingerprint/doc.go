// Package fingerprint computes stable content digests for benchmark artifacts.
//
// Digests identify a rendered system prompt, an evaluation sample, or a
// finished episode independently of run order or wall time, so two runs over
// the same inputs can be compared row by row.
//
// # Canonical Form
//
// Values are serialized with RFC 8785 style canonical JSON before hashing:
//   - object keys sorted by UTF-16 code units
//   - no HTML escaping
//   - strings NFC normalized
//   - floats and null rejected
//
// # Domain Separation
//
// Each artifact kind hashes under its own versioned domain prefix:
//
//	SHA256(domain + 0x00 + canonical_json)
//
// so a prompt digest can never collide with a sample digest.
package fingerprint
