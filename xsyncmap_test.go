package swrcache_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spothitch/swrcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXsyncMap(t *testing.T) {
	ctx := context.Background()
	mc := swrcache.NewXsyncMap(swrcache.XsyncMapConfig{Name: "test"})

	_, err := mc.Read(ctx, "key")
	assert.EqualError(t, err, swrcache.ErrNotFound.Error())

	require.NoError(t, mc.Write(ctx, "key", swrcache.Entry{Val: 123, ProducedAt: time.Now()}))

	e, err := mc.Read(ctx, "key")
	assert.NoError(t, err)
	assert.Equal(t, 123, e.Val)
	assert.Equal(t, 1, mc.Len())

	n, err := mc.Walk(func(key string, e swrcache.Entry) error {
		assert.Equal(t, "key", key)
		assert.Equal(t, 123, e.Val)

		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = mc.Walk(func(_ string, _ swrcache.Entry) error {
		return errors.New("stop")
	})
	assert.EqualError(t, err, "stop")

	require.NoError(t, mc.Delete(ctx, "key"))
	require.NoError(t, mc.Delete(ctx, "key")) // Idempotent.
	assert.Equal(t, 0, mc.Len())

	require.NoError(t, mc.Write(ctx, "key", swrcache.Entry{Val: 456}))
	mc.RemoveAll()
	assert.Equal(t, 0, mc.Len())
}

func TestXsyncMap_concurrency(t *testing.T) {
	mc := swrcache.NewXsyncMap()
	ctx := context.Background()

	var wg sync.WaitGroup

	n := 1000

	for i := 0; i < n; i++ {
		wg.Add(1)

		k := "key" + strconv.Itoa(i)

		go func() {
			defer wg.Done()

			assert.NoError(t, mc.Write(ctx, k, swrcache.Entry{Val: k}))

			e, err := mc.Read(ctx, k)
			assert.NoError(t, err)
			assert.Equal(t, k, e.Val)
		}()
	}

	wg.Wait()
	assert.Equal(t, n, mc.Len())
}

func TestCoordinator_Get_xsyncStore(t *testing.T) {
	c := swrcache.NewCoordinator(swrcache.Config{
		Name:  "test",
		Store: swrcache.NewXsyncMap(),
	})
	ctx := context.Background()

	var calls int64

	v, err := c.Get(ctx, "a", succeeding("v1", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	v, err = c.Get(ctx, "a", succeeding("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.EqualValues(t, 1, atomic.LoadInt64(&calls))
}
