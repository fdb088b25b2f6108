// Package mongo manages the MongoDB connection used for the audit trail.
//
// Configuration is environment-driven through Config. New retries the
// initial connect and ping; Healthcheck returns a probe for readiness
// endpoints.
//
//	cfg, err := config.Load[mongo.Config]()
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
// Failures are returned as sentinel errors joined with the driver error so
// errors.Is can be used on either.
package mongo
