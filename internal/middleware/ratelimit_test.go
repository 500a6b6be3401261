package middleware

import (
	"sync"
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToRate(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute, "test")

	for i := 0; i < 3; i++ {
		if allowed, _ := limiter.isAllowed("1.2.3.4"); !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	if allowed, count := limiter.isAllowed("1.2.3.4"); allowed {
		t.Errorf("request %d should be rejected", count)
	}

	// Other clients are unaffected.
	if allowed, _ := limiter.isAllowed("5.6.7.8"); !allowed {
		t.Errorf("separate client should be allowed")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewRateLimiter(1, 20*time.Millisecond, "test-window")

	if allowed, _ := limiter.isAllowed("1.2.3.4"); !allowed {
		t.Fatalf("first request should be allowed")
	}
	if allowed, _ := limiter.isAllowed("1.2.3.4"); allowed {
		t.Fatalf("second request in window should be rejected")
	}

	time.Sleep(30 * time.Millisecond)

	if allowed, _ := limiter.isAllowed("1.2.3.4"); !allowed {
		t.Errorf("request after window should be allowed")
	}
}

// TestRateLimiterConcurrentAccess verifies the limiter is safe under
// concurrent access. Run with -race.
func TestRateLimiterConcurrentAccess(t *testing.T) {
	limiter := NewRateLimiter(100, time.Minute, "test-concurrent")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				ip := "192.168.1.1"
				if j%3 == 0 {
					ip = "10.0.0." + string(rune('0'+goroutineID%10))
				}
				limiter.isAllowed(ip)
			}
		}(i)
	}
	wg.Wait()
}

// TestRateLimiterConcurrentWithCleanup verifies no race between request
// handling and the cleanup goroutine.
func TestRateLimiterConcurrentWithCleanup(t *testing.T) {
	limiter := NewRateLimiter(5, 50*time.Millisecond, "test-cleanup-race")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ip := "10.0.0." + string(rune('0'+id%10))
				limiter.isAllowed(ip)
				if j%10 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	wg.Wait()
}
