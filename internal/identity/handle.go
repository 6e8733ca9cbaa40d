package identity

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
)

const handleFile = "handle"

// base36 alphabet for handle suffixes.
const handleAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GetOrCreateHandle returns the persisted display handle, generating an
// "anon-xxx" one on first use. The handle is read once at startup and
// written once; it is a cosmetic label, not an identity, and is never
// validated server-side.
func GetOrCreateHandle(configDir string) (string, error) {
	path := filepath.Join(configDir, handleFile)

	if data, err := os.ReadFile(path); err == nil {
		if h := strings.TrimSpace(string(data)); h != "" {
			return h, nil
		}
	}

	handle := "anon-" + randomSuffix(3)

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(handle), 0600); err != nil {
		return "", err
	}
	return handle, nil
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	rand.Read(buf)
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = handleAlphabet[int(b)%len(handleAlphabet)]
	}
	return string(out)
}
