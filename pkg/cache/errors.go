package cache

import "errors"

// Sentinel errors for cache operations
var (
	// ErrCacheDisabled is returned when building a cache from a disabled configuration
	ErrCacheDisabled = errors.New("query result cache is disabled")

	// ErrCacheUnavailable wraps every backend communication failure
	ErrCacheUnavailable = errors.New("cache backend unavailable")

	// ErrNotConnected is returned when a store is used before Connect or after Disconnect
	ErrNotConnected = errors.New("cache store not connected")

	// ErrMalformedEntry is returned when a stored payload cannot be decoded.
	// It is never reported as a miss since that would hide corrupted data.
	ErrMalformedEntry = errors.New("malformed cache entry")

	// ErrUnsupportedClient is returned for a redis client with neither known calling convention
	ErrUnsupportedClient = errors.New("unsupported redis client")

	// ErrUnknownCodec is returned for a codec name other than json or msgpack
	ErrUnknownCodec = errors.New("unknown cache codec")
)

// IsCacheDisabled checks if an error is ErrCacheDisabled
func IsCacheDisabled(err error) bool {
	return errors.Is(err, ErrCacheDisabled)
}

// IsCacheUnavailable checks if an error is ErrCacheUnavailable
func IsCacheUnavailable(err error) bool {
	return errors.Is(err, ErrCacheUnavailable)
}

// IsMalformedEntry checks if an error is ErrMalformedEntry
func IsMalformedEntry(err error) bool {
	return errors.Is(err, ErrMalformedEntry)
}
