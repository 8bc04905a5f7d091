package dag

// DefaultChunkSize is the chunk size used when a BuilderConfig does not
// specify one: 2 MiB, matching the reference implementation.
const DefaultChunkSize = 2 * 1024 * 1024

// BuilderConfig controls how CreateDagWithConfig chunks files and which
// metadata it stamps onto the root leaf.
type BuilderConfig struct {
	// EnableParallel is not read by the builder: CreateDagWithConfig
	// always hashes leaves one at a time, in traversal order.
	EnableParallel bool
	// MaxWorkers is not read by the builder either; there is no worker
	// pool.
	MaxWorkers int
	// TimestampRoot, when non-empty, is stored as an AdditionalDataItem
	// ("timestamp", value) on the root leaf.
	TimestampRoot string
	// AdditionalData is copied onto the root leaf; non-root leaves carry
	// no additional data.
	AdditionalData []AdditionalDataItem
	// ChunkSize overrides DefaultChunkSize for file chunking: nil means
	// use DefaultChunkSize; a pointer to 0 disables chunking entirely
	// (every file becomes a single File leaf regardless of size); any
	// other pointed-to value splits files larger than it.
	ChunkSize *int
}

func (c *BuilderConfig) chunkSize() int {
	if c == nil || c.ChunkSize == nil {
		return DefaultChunkSize
	}
	return *c.ChunkSize
}

func (c *BuilderConfig) chunkingDisabled() bool {
	return c != nil && c.ChunkSize != nil && *c.ChunkSize == 0
}

func (c *BuilderConfig) additionalData() []AdditionalDataItem {
	if c == nil {
		return nil
	}
	return c.AdditionalData
}
