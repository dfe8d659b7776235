package config

// StorageConfig selects where payment proofs are kept.
type StorageConfig struct {
	Backend  string // "s3" or "local"
	Bucket   string // S3 bucket
	Region   string // S3 region
	Endpoint string // optional S3-compatible endpoint (e.g. MinIO)
	Prefix   string // object key prefix
	LocalDir string // directory used by the local backend
}

// LoadStorageConfig reads STORAGE_* and S3_* variables.
func LoadStorageConfig() StorageConfig {
	cfg := StorageConfig{
		Backend:  envStr("STORAGE_BACKEND", "local"),
		Bucket:   envStr("S3_BUCKET", ""),
		Region:   envStr("S3_REGION", "ap-southeast-1"),
		Endpoint: envStr("S3_ENDPOINT", ""),
		Prefix:   envStr("STORAGE_PREFIX", "payment-proofs"),
		LocalDir: envStr("STORAGE_LOCAL_DIR", "uploads"),
	}
	if cfg.Backend == "s3" && cfg.Bucket == "" {
		cfg.Backend = "local"
	}
	return cfg
}
