package cache

import "fmt"

// New создаёт CacheRepo по config.Backend
func New(config *CacheConfig) (CacheRepo, error) {
	if config == nil {
		config = &CacheConfig{}
	}
	config.ApplyDefaults()

	switch config.Backend {
	case BackendMemory:
		return NewMemoryCache(config), nil
	case BackendRedis:
		rc, err := NewRedisCache(config)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, config.Backend)
	}
}
