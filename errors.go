package enrich

import "errors"

var (
	// ErrExhaustedProviders is returned when every provider in a chain,
	// including the terminal fallback, failed to produce an artifact.
	ErrExhaustedProviders = errors.New("enrich: all providers exhausted")

	// ErrRecentlyFailed is returned when a cached failure is still inside
	// its cool-down window and the cascade was not run.
	ErrRecentlyFailed = errors.New("enrich: recently failed, retry suppressed")

	// ErrUnknownKind is returned for enrichment kinds with no configured chain.
	ErrUnknownKind = errors.New("enrich: unknown enrichment kind")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("enrich: invalid configuration")
)
