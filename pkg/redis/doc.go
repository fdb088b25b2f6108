// Package redis connects to Redis with retries and exposes a readiness probe.
//
// Configuration is read from the environment through the Config struct:
//
//	cfg, err := config.Load[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	probe := redis.Healthcheck(client)
//
// Errors are sentinels joined with the driver error, so errors.Is works on both.
package redis
