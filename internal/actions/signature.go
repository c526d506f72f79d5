package actions

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"warden/internal/checker"
)

var (
	digitRuns  = regexp.MustCompile(`\d+`)
	quotedText = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	spaceRuns  = regexp.MustCompile(`\s+`)
)

// Signature derives a stable identity for a finding on a file. The
// message is reduced to a template first so that findings differing only
// in line numbers, counts, or quoted fragments share one signature.
func Signature(path string, f checker.Finding) string {
	template := normalizeMessage(f.Message)
	h := sha256.New()
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write([]byte(f.CheckerID))
	h.Write([]byte{0})
	h.Write([]byte(template))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeMessage(msg string) string {
	msg = strings.ToLower(strings.TrimSpace(msg))
	msg = quotedText.ReplaceAllString(msg, "<str>")
	msg = digitRuns.ReplaceAllString(msg, "<n>")
	return spaceRuns.ReplaceAllString(msg, " ")
}
