package engine

// Options configures the engines in this package.
type Options struct {
	// Dir is the data root. The memory engine keeps no journal when Dir is
	// empty; the badger engine requires it unless InMemory is set.
	Dir string
	// InMemory runs badger without touching disk.
	InMemory bool
	// NoSync skips fsync after each applied mutation.
	NoSync bool
	Limits Limits
}

var DefaultOptions = Options{
	Limits: DefaultLimits,
}
