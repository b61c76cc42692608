// Package async provides futures and a bounded, non-blocking task pool.
//
// # Futures
//
// ExecFuture represents an asynchronous computation that only returns an error:
//
//	future := async.Exec(ctx, userID, func(ctx context.Context, id int) error {
//		return notify(ctx, id)
//	})
//
//	if err := future.Await(); err != nil {
//		log.Println(err)
//	}
//
// AwaitWithTimeout returns ErrTimeout when the computation does not finish in time,
// and IsComplete checks completion without blocking.
//
// # Coordination
//
// ExecAll stops at the first failed future. AwaitAll waits for every future and
// joins all their errors, which is what callers want when each task is independent:
//
//	err := async.AwaitAll(f1, f2, f3)
//
// # Pool
//
// Pool bounds how many submitted functions run at once. Submit never blocks; when
// every slot is busy or the pool is closed it returns an error and the function is
// not started, so the caller keeps full control over the work:
//
//	pool := async.NewPool(8)
//	defer pool.Close(context.Background())
//
//	future, err := pool.Submit(ctx, task)
//	if err != nil {
//		// dispatch failed - run it here instead
//		err = task(ctx)
//	}
//
// Panics inside submitted functions are recovered and surface as ErrTaskPanicked.
package async
