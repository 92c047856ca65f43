package swrcache_test

import (
	"context"
	"fmt"
	"time"

	"github.com/spothitch/swrcache"
)

func ExampleNewCoordinator() {
	// Create coordinator instance.
	c := swrcache.NewCoordinator(swrcache.Config{
		Name:     "spots",
		FreshFor: time.Minute,
		StaleFor: 10 * time.Minute,
	})

	// Use context if available.
	ctx := context.TODO()

	builds := 0

	// Build function is only invoked when no usable value is cached,
	// wrap it with a timeout at the call site if the upstream can hang.
	build := func(_ context.Context) (interface{}, error) {
		builds++

		return []string{"A7 on-ramp", "E55 petrol station"}, nil
	}

	first, _ := c.Get(ctx, "spots:prague", build)
	second, _ := c.Get(ctx, "spots:prague", build)

	fmt.Printf("%v, %v, builds: %d", first, second, builds)

	// Output:
	// [A7 on-ramp E55 petrol station], [A7 on-ramp E55 petrol station], builds: 1
}

func ExampleCoordinator_Invalidate() {
	c := swrcache.NewCoordinator(swrcache.Config{Name: "profile"})
	ctx := context.TODO()

	build := func(_ context.Context) (interface{}, error) {
		return "profile v1", nil
	}

	v, _ := c.Get(ctx, "user:42", build)
	fmt.Println(v)

	// Drop the entry after a profile update, next read rebuilds.
	_ = c.Invalidate(ctx, "user:42")

	v, _ = c.Get(ctx, "user:42", func(_ context.Context) (interface{}, error) {
		return "profile v2", nil
	})
	fmt.Println(v)

	// Output:
	// profile v1
	// profile v2
}
