package opensearch

// Config holds OpenSearch client settings.
type Config struct {
	Addresses    []string `env:"OPENSEARCH_ADDRESSES,required"`
	Username     string   `env:"OPENSEARCH_USERNAME,notEmpty"`
	Password     string   `env:"OPENSEARCH_PASSWORD,notEmpty"`
	MaxRetries   int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
	DisableRetry bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
	// Refresh is passed to the _bulk request issued on commit: "true", "false" or "wait_for".
	Refresh string `env:"OPENSEARCH_REFRESH" envDefault:"false"`
}
