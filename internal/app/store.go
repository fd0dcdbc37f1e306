package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/internal/persistence"
)

// Parameter store backends.
const (
	BackendSSM    = "ssm"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// newStore selects the provider backend. redis is only dialled for the redis
// backend.
func newStore(cfg *config.Config, awsCfg aws.Config, redis func() *persistence.Redis) (paramstore.Store, error) {
	switch cfg.Params.Backend {
	case "", BackendSSM:
		return paramstore.NewSSMStore(awsCfg), nil
	case BackendRedis:
		var sealer *paramstore.Sealer
		if cfg.Params.AgeIdentity != "" {
			s, err := paramstore.NewSealer(cfg.Params.AgeIdentity)
			if err != nil {
				return nil, err
			}
			sealer = s
		}
		return redis().ParamStore(sealer), nil
	case BackendMemory:
		seed, err := readSeed(cfg.Params.SeedFile)
		if err != nil {
			return nil, err
		}
		return paramstore.NewMemoryStore(seed), nil
	default:
		return nil, fmt.Errorf("unknown PARAM_STORE_BACKEND %q", cfg.Params.Backend)
	}
}

func readSeed(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read parameter seed: %w", err)
	}
	var seed map[string]string
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("parse parameter seed %s: %w", path, err)
	}
	return seed, nil
}
