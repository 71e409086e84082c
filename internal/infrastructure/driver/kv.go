package driver

import "time"

// KeyValueDB define a key-value storage interface
type KeyValueDB interface {
	SetEX(key string, value string, expiration time.Duration) error
	// SetNX sets the key only if it does not exist yet and reports whether
	// this call claimed it
	SetNX(key string, value string, expiration time.Duration) (bool, error)
	Get(key string) (string, error)
	Exists(key string) (bool, error)
	Ping() error
}
