package detectors

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/devguard/devguard/internal/probe"
)

const (
	// DefaultInstrumentationAddr is where a stock frida-server listens.
	DefaultInstrumentationAddr = "127.0.0.1:27042"
	// DefaultDialTimeout bounds the instrumentation port probe.
	DefaultDialTimeout = 200 * time.Millisecond
)

var (
	// ErrBadHandle is the cause reported when a probe receives a handle that
	// is not a *Host.
	ErrBadHandle = errors.New("handle is not a *detectors.Host")
	// ErrUnsupported is the cause reported when the host offers no way to
	// answer a question.
	ErrUnsupported = errors.New("not supported on this host")
)

// Build property keys read from build.prop.
const (
	PropManufacturer = "ro.product.manufacturer"
	PropModel        = "ro.product.model"
	PropHardware     = "ro.hardware"
	PropFingerprint  = "ro.build.fingerprint"
	PropProduct      = "ro.product.name"
	PropBoard        = "ro.product.board"
	PropBrand        = "ro.product.brand"
	PropDevice       = "ro.product.device"
	PropBuildTags    = "ro.build.tags"
)

// Host is the platform handle the default probes inspect. Every path is
// resolved under Root, so a test can point the probes at a fake tree.
type Host struct {
	// Root is the filesystem prefix; empty means "/".
	Root string
	// Props overrides or supplies build properties. Missing keys are read
	// from <Root>/system/build.prop.
	Props map[string]string

	InstrumentationAddr string
	DialTimeout         time.Duration

	// DeviceSecure reports whether a device lock is configured.
	DeviceSecure func(ctx context.Context) (bool, error)
	// StorageEncrypted reports whether user storage is encrypted. Nil falls
	// back to looking for dm-crypt mappings under sys/block.
	StorageEncrypted func(ctx context.Context) (bool, error)
	// HardwareKeys reports whether key material can live in secure
	// hardware. Nil falls back to looking for a TPM under sys/class/tpm.
	HardwareKeys func(ctx context.Context) (bool, error)
	// SigningCert returns the bytes whose SHA-256 identifies the running
	// application. Nil hashes the running executable.
	SigningCert func(ctx context.Context) ([]byte, error)
}

// NewHost returns a Host rooted at root with default network settings.
func NewHost(root string) *Host {
	return &Host{
		Root:                root,
		InstrumentationAddr: DefaultInstrumentationAddr,
		DialTimeout:         DefaultDialTimeout,
	}
}

func hostFrom(h probe.Handle) (*Host, error) {
	switch v := h.(type) {
	case *Host:
		if v == nil {
			return nil, ErrBadHandle
		}
		return v, nil
	case Host:
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrBadHandle, h)
	}
}

func (h *Host) root() string {
	if h.Root == "" {
		return string(filepath.Separator)
	}
	return h.Root
}

// fsys exposes the host tree for glob matching.
func (h *Host) fsys() fs.FS { return os.DirFS(h.root()) }

// path joins a slash-separated relative path onto Root.
func (h *Host) path(rel string) string {
	return filepath.Join(h.root(), filepath.FromSlash(rel))
}

// readOptional reads rel, treating a missing file as empty.
func (h *Host) readOptional(rel string) ([]byte, error) {
	b, err := os.ReadFile(h.path(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// props merges <Root>/system/build.prop with Props, Props winning.
func (h *Host) props() (map[string]string, error) {
	b, err := h.readOptional("system/build.prop")
	if err != nil {
		return nil, fmt.Errorf("read build.prop: %w", err)
	}
	out := parseProps(string(b))
	for k, v := range h.Props {
		out[k] = v
	}
	return out, nil
}

func parseProps(s string) map[string]string {
	out := map[string]string{}
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

// anyExists reports whether any pattern matches a path under Root.
func (h *Host) anyExists(ctx context.Context, patterns []string) (bool, error) {
	fsys := h.fsys()
	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		m, err := doublestar.Glob(fsys, p)
		if err != nil {
			return false, fmt.Errorf("glob %q: %w", p, err)
		}
		if len(m) > 0 {
			return true, nil
		}
	}
	return false, nil
}
