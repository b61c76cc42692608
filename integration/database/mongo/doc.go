// Package mongo provides MongoDB client initialization, health checking and a
// unit-of-work participant backed by multi-document transactions.
//
// New and NewWithDatabase retry the initial connection to handle MongoDB
// Atlas cold starts (5-8 seconds) and brief network interruptions.
//
// Basic usage:
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect(ctx)
//
//	reg := txn.NewRegistry()
//	reg.MustRegister(mongo.Kind, mongo.Factory(client))
//
// Inside a unit of work, bind the session to the context before issuing
// driver calls:
//
//	sctx, ok := mongo.SessionContext(ctx, txm)
//	if !ok {
//		return ErrNoUnitOfWork
//	}
//	_, err := coll.InsertOne(sctx, bson.M{"name": "Alice"})
//
// Transactions require a replica set or a sharded cluster.
//
// # Configuration
//
//	MONGODB_URL                 (required)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//
// # Error Handling
//
//	ErrFailedToConnectToMongo - Returned when all retry attempts are exhausted
//	ErrHealthcheckFailed      - Returned when health check ping fails
//	ErrBeginFailed            - Returned when the session cannot start a transaction
//	ErrCommitFailed           - Returned when CommitTransaction fails
//	ErrAbortFailed            - Returned when AbortTransaction fails
//
// The session is ended after commit and rollback regardless of the outcome.
package mongo
