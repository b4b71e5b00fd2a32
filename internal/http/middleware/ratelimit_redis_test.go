package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	pass := os.Getenv("REDIS_PASSWORD")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			db = n
		}
	}

	// init redis client
	InitRedisRateLimiter(addr, pass, db)

	// small window for test
	w := 2 * time.Second
	max := 2

	r := gin.New()
	r.GET("/test", RedisRateLimit(max, w), func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	srv := httptest.NewServer(r)
	defer srv.Close()

	client := &http.Client{}

	// do max allowed requests
	for i := 0; i < max; i++ {
		req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
		res, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if res.StatusCode != 200 {
			t.Fatalf("expected 200 got %d", res.StatusCode)
		}
	}

	// next request should be blocked
	req, _ := http.NewRequest("GET", srv.URL+"/test", nil)
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if res.StatusCode != 429 {
		t.Fatalf("expected 429 got %d", res.StatusCode)
	}
}

// AccountRateLimit keys on the authenticated account, so two accounts
// do not share a window. Runs only if REDIS_ADDR env is set.
func TestAccountRateLimitIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	InitRedisRateLimiter(addr, os.Getenv("REDIS_PASSWORD"), 0)

	// unique action name per run so reruns do not inherit counters
	action := "test_recharge_" + strconv.FormatInt(time.Now().UnixNano(), 10)

	var accountID int64 = 1
	r := gin.New()
	r.POST("/recharge",
		func(c *gin.Context) { c.Set("account_id", accountID) },
		AccountRateLimit(action, 1, 2*time.Second),
		func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) },
	)

	srv := httptest.NewServer(r)
	defer srv.Close()

	client := &http.Client{}
	do := func() int {
		req, _ := http.NewRequest("POST", srv.URL+"/recharge", nil)
		res, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		res.Body.Close()
		return res.StatusCode
	}

	if code := do(); code != 200 {
		t.Fatalf("first request: expected 200 got %d", code)
	}
	if code := do(); code != 429 {
		t.Fatalf("second request same account: expected 429 got %d", code)
	}

	// a different account gets its own window
	accountID = 2
	if code := do(); code != 200 {
		t.Fatalf("other account: expected 200 got %d", code)
	}
}
