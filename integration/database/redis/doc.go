// Package redis provides Redis client initialization, health checking and a
// unit-of-work participant that defers writes to a MULTI/EXEC pipeline.
//
// # Usage Example
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	reg.MustRegister(redis.Kind, redis.Factory(client))
//
// Repositories queue commands on the active pipeline. They are sent when the
// unit of work commits and discarded when it rolls back:
//
//	pipe, ok := redis.ActivePipeline(ctx, txm)
//	if !ok {
//		return ErrNoUnitOfWork
//	}
//	pipe.Set(ctx, "user:123", "Alice", time.Hour)
//	pipe.Del(ctx, "users:list")
//
// Reads issued through the pipeline return their values only after commit,
// so read through the client directly when the value is needed inside the
// unit of work.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL,required"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//	}
//
// Only redis:// and rediss:// URLs are accepted.
//
// # Error Handling
//
//   - ErrFailedToParseRedisConnString: Returned when the Redis connection URL is malformed
//   - ErrRedisNotReady: Returned when Redis doesn't become ready within the timeout period
//   - ErrEmptyConnectionURL: Returned when no connection URL is provided
//   - ErrHealthcheckFailed: Returned when health check ping fails
//   - ErrExecFailed: Returned when EXEC of the queued commands fails
//
// A redis.Nil reply inside the pipeline does not fail the commit.
package redis
