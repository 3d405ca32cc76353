// Package redis connects to Redis with github.com/redis/go-redis/v9 and
// provides Locker, a SET NX based mutual exclusion used to keep overlapping
// invoice sweeps of the same account from running at once.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	locker := redis.NewLocker(client, cfg.KeyPrefix)
//
//	release, ok, err := locker.TryLock(ctx, "sweep:"+accountID, time.Minute)
//	if err != nil || !ok {
//	    return err
//	}
//	defer release(ctx)
package redis
