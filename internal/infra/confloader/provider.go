package confloader

import "errors"

// ErrReadBytesNotSupported is returned when ReadBytes is called on a map provider.
var ErrReadBytesNotSupported = errors.New("confloader: ReadBytes not supported by map provider, use Read() instead")

// mapProvider is a koanf provider over an in-memory map. Keys containing
// dots are expanded into nested maps so flag overrides like
// {"server.redis.port": 7000} merge with file and env values.
type mapProvider map[string]any

// ReadBytes returns an error as map provider doesn't support byte serialization.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the configuration map with dotted keys expanded.
func (m mapProvider) Read() (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		insert(out, splitKey(k), v)
	}
	return out, nil
}

func splitKey(k string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(k); i++ {
		if k[i] == '.' {
			parts = append(parts, k[start:i])
			start = i + 1
		}
	}
	return append(parts, k[start:])
}

func insert(dst map[string]any, path []string, v any) {
	if len(path) == 1 {
		if nested, ok := v.(map[string]any); ok {
			sub, _ := dst[path[0]].(map[string]any)
			if sub == nil {
				sub = make(map[string]any)
				dst[path[0]] = sub
			}
			for k, val := range nested {
				insert(sub, splitKey(k), val)
			}
			return
		}
		dst[path[0]] = v
		return
	}
	sub, _ := dst[path[0]].(map[string]any)
	if sub == nil {
		sub = make(map[string]any)
		dst[path[0]] = sub
	}
	insert(sub, path[1:], v)
}
