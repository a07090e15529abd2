// Package config declares the retrieval core's environment-driven
// configuration.
package config

import "fmt"

// Config holds the options the retrieval core reads at startup. Values
// are typically populated from environment variables of the same name
// by the surrounding CLI/service, not by this package.
type Config struct {
	// EmbeddingModel identifies the embedding model in use; must match
	// the dimension of vectors already stored (EMBEDDING_MODEL).
	EmbeddingModel string `yaml:"embedding_model"`

	// DefaultDomain is the fallback profile name used when a caller's
	// requested domain is unknown or empty (DEFAULT_DOMAIN).
	DefaultDomain string `yaml:"default_domain"`

	// LCDRetrievalK is the specialized-path floor for the final result
	// count (LCD_RETRIEVAL_K), named after Medicare's LCD path but
	// applied to any profile's specialized path.
	LCDRetrievalK int `yaml:"lcd_retrieval_k"`

	// ChunkSize/ChunkOverlap are honored by the external chunker; the
	// core only reads and passes them through (LCD_CHUNK_SIZE,
	// LCD_CHUNK_OVERLAP).
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// DefaultK is the k used by Retrieve when the caller passes zero.
	DefaultK int `yaml:"default_k"`

	// MaxK is the upper bound on caller-supplied k.
	MaxK int `yaml:"max_k"`
}

// SetDefaults fills zero-valued fields with the core's defaults.
func (c *Config) SetDefaults() {
	if c.DefaultDomain == "" {
		c.DefaultDomain = "medicare"
	}
	if c.LCDRetrievalK == 0 {
		c.LCDRetrievalK = 16
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = 800
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 100
	}
	if c.DefaultK == 0 {
		c.DefaultK = 8
	}
	if c.MaxK == 0 {
		c.MaxK = 50
	}
}

// Validate checks the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DefaultDomain == "" {
		return fmt.Errorf("config: default_domain must not be empty")
	}
	if c.LCDRetrievalK < 1 {
		return fmt.Errorf("config: lcd_retrieval_k must be >= 1, got %d", c.LCDRetrievalK)
	}
	if c.DefaultK < 1 || c.DefaultK > c.MaxK {
		return fmt.Errorf("config: default_k (%d) must be within [1, max_k=%d]", c.DefaultK, c.MaxK)
	}
	if c.MaxK < 1 || c.MaxK > 50 {
		return fmt.Errorf("config: max_k must be within [1, 50], got %d", c.MaxK)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("config: chunk_overlap (%d) must be within [0, chunk_size=%d)", c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}
