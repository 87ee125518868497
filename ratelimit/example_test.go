package ratelimit_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/llmgovern/ratelimit"
)

func ExampleTokenBucket() {
	bucket, err := ratelimit.NewTokenBucket(ratelimit.Config{
		RequestsPerSecond: 1,
		CheckInterval:     100 * time.Millisecond,
		MaxBucketSize:     2,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(bucket.Allow()) // starting token
	fmt.Println(bucket.Allow()) // empty until refill
	// Output:
	// true
	// false
}

func ExampleRetryLimiter() {
	bucket, _ := ratelimit.NewTokenBucket(ratelimit.Config{
		RequestsPerSecond: 100,
		CheckInterval:     10 * time.Millisecond,
		MaxBucketSize:     10,
	})

	limiter := ratelimit.NewRetryLimiter(bucket, ratelimit.Policy{
		UseExponentialBackoff: true,
		InitialBackoff:        10 * time.Millisecond,
		MaxBackoff:            time.Second,
		MaxRetries:            3,
	})

	acquired, err := limiter.Acquire(context.Background(), true)
	fmt.Println(acquired, err)
	// Output:
	// true <nil>
}
