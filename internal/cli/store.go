package cli

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/stepsheet/pkg/adapters/file"
	"github.com/aretw0/stepsheet/pkg/adapters/redis"
	"github.com/aretw0/stepsheet/pkg/persistence/middleware"
	"github.com/aretw0/stepsheet/pkg/ports"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenStore returns the analysis store selected by opts. When EnvKey holds a
// base64 encoded 32 byte key, analyses are encrypted at rest.
func OpenStore(opts Options) (ports.AnalysisStore, io.Closer, error) {
	var (
		store  ports.AnalysisStore
		closer io.Closer = nopCloser{}
	)
	switch opts.Store {
	case "", StoreFile:
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		store = file.New(filepath.Join(dir, ".stepsheet", "analyses"))
	case StoreRedis:
		addr := opts.RedisAddr
		if addr == "" {
			addr = os.Getenv(EnvRedisAddr)
		}
		if addr == "" {
			addr = "localhost:6379"
		}
		rs := redis.New(addr, "", 0)
		store, closer = rs, rs
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want %s or %s)", opts.Store, StoreFile, StoreRedis)
	}

	if raw := os.Getenv(EnvKey); raw != "" {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			closer.Close()
			return nil, nil, fmt.Errorf("%s: %w", EnvKey, err)
		}
		if len(key) != 32 {
			closer.Close()
			return nil, nil, fmt.Errorf("%s must decode to 32 bytes, got %d", EnvKey, len(key))
		}
		store = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(store)
	}
	return store, closer, nil
}
