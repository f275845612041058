package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes. The version suffix leaves room for algorithm changes.
const (
	DomainPrompt  = "hoabench/prompt/v1"
	DomainSample  = "hoabench/sample/v1"
	DomainEpisode = "hoabench/episode/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest hashes v's canonical JSON under the given domain.
func Digest(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// Prompt returns the digest of a rendered system instruction.
func Prompt(text string) string {
	// A bare string always marshals.
	d, _ := Digest(DomainPrompt, Object{"text": text})
	return d
}

// Sample returns the digest identifying one evaluation sample by content.
func Sample(id, input, target string) string {
	d, _ := Digest(DomainSample, Object{
		"id":     id,
		"input":  input,
		"target": target,
	})
	return d
}

// Short truncates a digest for display.
func Short(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
