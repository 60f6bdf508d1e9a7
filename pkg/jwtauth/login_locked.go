package jwtauth

import (
	"context"
	"fmt"

	"blog-api/internal/config"

	"github.com/go-redis/redis/v8"
)

var (
	loginFailureKey = "cache:%s:login_failures:%s"
	accountLockKey  = "cache:%s:account_lock:%s"
)

// LoginLocked locks a username after too many consecutive failed logins.
// Keys are per username whether or not the account exists.
type LoginLocked struct {
	RedisClient *redis.Client
	Config      *config.Config
}

func NewLoginLocked(
	client *redis.Client,
	config *config.Config,
) *LoginLocked {
	return &LoginLocked{
		RedisClient: client,
		Config:      config,
	}
}

func (ll *LoginLocked) GetLoginFailureKey(username string) string {
	return fmt.Sprintf(loginFailureKey, ll.Config.App.Name, username)
}

func (ll *LoginLocked) GetAccountLockKey(username string) string {
	return fmt.Sprintf(accountLockKey, ll.Config.App.Name, username)
}

func (ll *LoginLocked) IsAccountLocked(ctx context.Context, username string) (bool, error) {
	exists, err := ll.RedisClient.Exists(ctx, ll.GetAccountLockKey(username)).Result()
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

// IncrementLoginFailure bumps the failure counter under WATCH; reaching
// MaxLoginAttempts sets the lock and resets the counter.
func (ll *LoginLocked) IncrementLoginFailure(ctx context.Context, username string) error {
	key := ll.GetLoginFailureKey(username)

	txf := func(tx *redis.Tx) error {
		count, err := tx.Get(ctx, key).Int()
		if err != nil && err != redis.Nil {
			return err
		}

		newCount := count + 1
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if newCount >= ll.Config.JWT.MaxLoginAttempts {
				pipe.Set(ctx, ll.GetAccountLockKey(username), "1", ll.Config.JWT.LockDuration)
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, newCount, ll.Config.JWT.LockDuration)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := ll.RedisClient.Watch(ctx, txf, key)
		if err != redis.TxFailedErr {
			return err
		}
	}
	return redis.TxFailedErr
}

func (ll *LoginLocked) ClearLoginFailures(ctx context.Context, username string) error {
	_, err := ll.RedisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ll.GetLoginFailureKey(username))
		pipe.Del(ctx, ll.GetAccountLockKey(username))
		return nil
	})
	return err
}
