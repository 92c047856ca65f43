package swrcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spothitch/swrcache"
	"github.com/stretchr/testify/assert"
)

func TestInvalidator_Invalidate(t *testing.T) {
	store1 := swrcache.NewMemory()
	store2 := swrcache.NewMemory()

	i := &swrcache.Invalidator{}
	err := i.Invalidate()
	assert.Error(t, err) // nothing to invalidate

	ctx := context.Background()

	i.Callbacks = append(i.Callbacks, store1.ExpireAll, store2.ExpireAll)

	assert.NoError(t, store1.Write(ctx, "key", swrcache.Entry{Val: 1}))
	assert.NoError(t, store2.Write(ctx, "key", swrcache.Entry{Val: 2}))

	e, err := store1.Read(ctx, "key")
	assert.NoError(t, err)
	assert.Equal(t, 1, e.Val)

	e, err = store2.Read(ctx, "key")
	assert.NoError(t, err)
	assert.Equal(t, 2, e.Val)

	err = i.Invalidate()
	assert.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = store1.Read(ctx, "key")
	assert.True(t, errors.Is(err, swrcache.ErrExpired))

	_, err = store2.Read(ctx, "key")
	assert.True(t, errors.Is(err, swrcache.ErrExpired))

	err = i.Invalidate()
	assert.Error(t, err) // already invalidated
}
