// Package opensearch provides OpenSearch client initialization, health
// checking and a unit-of-work participant that defers index writes to commit.
//
// # Key Features
//
//   - New: Creates an OpenSearch client with immediate cluster connectivity verification
//   - Healthcheck: Returns a readiness check that requests cluster info
//   - Transaction: Stages Index and Delete operations and flushes them in one _bulk request
//
// # Configuration
//
//	type Config struct {
//		Addresses    []string `env:"OPENSEARCH_ADDRESSES,required"`
//		Username     string   `env:"OPENSEARCH_USERNAME,notEmpty"`
//		Password     string   `env:"OPENSEARCH_PASSWORD,notEmpty"`
//		MaxRetries   int      `env:"OPENSEARCH_MAX_RETRIES" envDefault:"3"`
//		DisableRetry bool     `env:"OPENSEARCH_DISABLE_RETRY" envDefault:"false"`
//		Refresh      string   `env:"OPENSEARCH_REFRESH" envDefault:"false"`
//	}
//
// # Usage Example
//
//	client, err := opensearch.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	reg.MustRegister(opensearch.Kind, opensearch.Factory(client, cfg))
//
//	// inside a unit of work
//	idx, ok := opensearch.ActiveIndex(ctx, txm)
//	if !ok {
//		return ErrNoUnitOfWork
//	}
//	if err := idx.Index("users", u.ID, u); err != nil {
//		return err
//	}
//
// The _bulk API is not atomic. With CommitPriority 10 the index is committed
// after every store of record, so a failure leaves the stores committed and
// the index stale rather than the other way around. Deleting a document that
// does not exist is not reported as a failure.
//
// # Error Handling
//
//   - ErrConnectionFailed: Returned when the client cannot be created or the cluster is unreachable
//   - ErrHealthcheckFailed: Returned when the cluster info request fails
//   - ErrInvalidDocument: Returned when a staged document cannot be encoded
//   - ErrBulkFailed: Returned when the _bulk request or any of its items fail
package opensearch
