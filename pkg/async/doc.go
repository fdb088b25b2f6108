// Package async runs CPU-heavy work off the calling goroutine on a bounded
// worker pool. It is used for intentionally slow operations such as bcrypt
// hashing of recovery-code batches.
//
//	hashes, err := async.Map(ctx, codes, 4, func(ctx context.Context, code string) (string, error) {
//		return hash(code)
//	})
package async
