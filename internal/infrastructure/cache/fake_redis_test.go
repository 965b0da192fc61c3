package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/redis/go-redis/v9"
)

// fakeRedis answers GET, SET and DEL from a map through a client hook,
// so no server is needed
type fakeRedis struct {
	mu      sync.Mutex
	data    map[string]string
	lastSet []any
	failAll error
}

func newFakeRedis() (*fakeRedis, *redis.Client) {
	f := &fakeRedis{data: map[string]string{}}
	client := redis.NewClient(&redis.Options{Addr: "fake:6379"})
	client.AddHook(f)
	return f, client
}

func (f *fakeRedis) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return nil, errors.New("fake redis does not dial")
	}
}

func (f *fakeRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (f *fakeRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.failAll != nil {
			cmd.SetErr(f.failAll)
			return f.failAll
		}

		args := cmd.Args()
		switch c := cmd.(type) {
		case *redis.StringCmd:
			v, ok := f.data[fmt.Sprint(args[1])]
			if !ok {
				c.SetErr(redis.Nil)
				return redis.Nil
			}
			c.SetVal(v)
		case *redis.StatusCmd:
			f.data[fmt.Sprint(args[1])] = toString(args[2])
			f.lastSet = args
			c.SetVal("OK")
		case *redis.IntCmd:
			var n int64
			for _, k := range args[1:] {
				if _, ok := f.data[fmt.Sprint(k)]; ok {
					delete(f.data, fmt.Sprint(k))
					n++
				}
			}
			c.SetVal(n)
		}
		return nil
	}
}

func toString(v any) string {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}
