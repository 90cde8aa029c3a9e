package storage

import "fmt"

// Config holds storage configuration
type Config struct {
	Type      string // only "local" is supported
	UploadDir string // directory that holds stored files
	BaseURL   string // prefix for generated file URLs
}

// New builds the ImageStore selected by cfg.Type.
func New(cfg Config) (ImageStore, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.BaseURL, cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
