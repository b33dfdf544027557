// Package rediscache connects the optional redis instance that backs the
// widget analytics event buffer.
package rediscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Buffer pushes sit on the request path, so operation timeouts stay tight.
const (
	dialTimeout = 5 * time.Second
	opTimeout   = 3 * time.Second
	pingTimeout = 5 * time.Second
)

// Open verifies the server is reachable before the service starts
// accepting traffic.
func Open(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	cli := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := cli.Ping(pingCtx).Err(); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return cli, nil
}
