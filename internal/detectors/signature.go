package detectors

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// AppSignature returns a probe comparing the SHA-256 of the host's signing
// material with expected (hex, colons and case ignored). With no expected
// digest there is nothing to compare and the probe reports NotChecked.
func AppSignature(expected string) probe.Check {
	want := NormalizeDigest(expected)
	return func(ctx context.Context, h probe.Handle) types.ThreatStatus {
		if want == "" {
			return types.StatusNotChecked()
		}
		host, err := hostFrom(h)
		if err != nil {
			return types.StatusErrored(err)
		}
		cert := host.SigningCert
		if cert == nil {
			cert = executableBytes
		}
		b, err := cert(ctx)
		if err != nil {
			return types.StatusErrored(fmt.Errorf("read signing material: %w", err))
		}
		if len(b) == 0 {
			return types.StatusPresent()
		}
		return types.StatusFromBool(Digest(b) != want)
	}
}

// Digest returns the lowercase hex SHA-256 of b.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// NormalizeDigest lowercases d and strips separators.
func NormalizeDigest(d string) string {
	d = strings.TrimSpace(d)
	d = strings.ReplaceAll(d, ":", "")
	return strings.ToLower(d)
}

func executableBytes(context.Context) ([]byte, error) {
	p, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}
