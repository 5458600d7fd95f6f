package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/patrickwarner/adreward/internal/config"
	"github.com/patrickwarner/adreward/internal/db"
	"github.com/patrickwarner/adreward/internal/observability"
	"github.com/patrickwarner/adreward/internal/session"
)

var (
	server       string
	users        int
	contentCSV   string
	videoCSV     string
	totalSess    int
	conc         int
	cancelRate   float64
	pollInterval time.Duration
	maxWait      time.Duration
	stats        bool
	flush        bool
	redisAddr    string
	debug        bool
	label        string
)

var logger *zap.Logger

var httpClient *http.Client

const statsInterval = 5 * time.Second

var (
	countStarted   uint64
	countRewarded  uint64
	countRefused   uint64
	countCancelled uint64
	countLimited   uint64
	countErrors    uint64
	earnedTotal    int64
)

// lockedRand is shared by the worker goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func main() {
	flag.StringVar(&server, "server", "http://localhost:8788", "session server base URL")
	flag.IntVar(&users, "users", 50, "number of unique viewers")
	flag.StringVar(&contentCSV, "content", "video-001,video-002,video-003", "comma-separated internal content IDs")
	flag.StringVar(&videoCSV, "videos", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "comma-separated YouTube URLs (empty to disable)")
	flag.IntVar(&totalSess, "sessions", 200, "total sessions to run")
	flag.IntVar(&conc, "concurrency", 20, "concurrent sessions")
	flag.Float64Var(&cancelRate, "cancel-rate", 0.1, "probability a viewer leaves before the ad completes")
	flag.DurationVar(&pollInterval, "poll", 250*time.Millisecond, "session poll interval")
	flag.DurationVar(&maxWait, "max-wait", 30*time.Second, "longest a viewer waits for a session to settle")
	flag.BoolVar(&stats, "stats", false, "print aggregated stats periodically")
	flag.BoolVar(&flush, "flush", false, "flush the ledger aggregate cache before running")
	flag.StringVar(&redisAddr, "redis", "", "redis address (defaults to REDIS_ADDR)")
	flag.BoolVar(&debug, "debug", false, "enable verbose debug logs")
	flag.StringVar(&label, "label", "", "label to identify this run")
	flag.Parse()

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	var err error
	logger, err = observability.InitLoggerWithLevel(level, "traffic-simulator")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	httpClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   conc,
			IdleConnTimeout:       90 * time.Second,
		},
	}

	if label == "" {
		label = time.Now().Format(time.RFC3339)
	}

	if flush {
		flushCache()
	}

	contentIDs := splitCSV(contentCSV)
	videoURLs := splitCSV(videoCSV)
	if len(contentIDs) == 0 && len(videoURLs) == 0 {
		logger.Fatal("no content to watch")
	}

	r := &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
	var wg sync.WaitGroup
	sem := make(chan struct{}, conc)
	done := make(chan struct{})

	if stats {
		go func() {
			ticker := time.NewTicker(statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					printStats()
				case <-done:
					return
				}
			}
		}()
	}

	for i := 0; i < totalSess; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			body := map[string]string{"user_id": fmt.Sprintf("viewer%d", r.Intn(users))}
			pick := r.Intn(len(contentIDs) + len(videoURLs))
			if pick < len(contentIDs) {
				body["content_id"] = contentIDs[pick]
			} else {
				body["video_url"] = videoURLs[pick-len(contentIDs)]
			}
			watch(body, r.Float64() < cancelRate)
		}()
	}
	wg.Wait()
	close(done)
	printStats()
}

// watch runs one viewer: start, poll until the session settles, then leave.
func watch(body map[string]string, leaveEarly bool) {
	var view session.View
	status, err := call(http.MethodPost, "/sessions", body, &view)
	switch {
	case err != nil:
		atomic.AddUint64(&countErrors, 1)
		logger.Error("start session", zap.Error(err))
		return
	case status == http.StatusTooManyRequests:
		atomic.AddUint64(&countLimited, 1)
		return
	case status != http.StatusCreated:
		atomic.AddUint64(&countErrors, 1)
		logger.Error("unexpected status", zap.Int("status", status))
		return
	}
	atomic.AddUint64(&countStarted, 1)
	defer func() {
		if _, err := call(http.MethodDelete, "/sessions/"+view.ID, nil, nil); err != nil {
			logger.Debug("close session", zap.String("session_id", view.ID), zap.Error(err))
		}
	}()

	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		time.Sleep(pollInterval)
		if _, err := call(http.MethodGet, "/sessions/"+view.ID, nil, &view); err != nil {
			atomic.AddUint64(&countErrors, 1)
			logger.Error("poll session", zap.String("session_id", view.ID), zap.Error(err))
			return
		}
		if leaveEarly && view.State == session.StateAdPlaying && view.Progress >= 50 {
			atomic.AddUint64(&countCancelled, 1)
			return
		}
		if settled(view) {
			if view.AdsShown > 0 {
				atomic.AddUint64(&countRewarded, 1)
				atomic.AddInt64(&earnedTotal, view.Earned)
			} else {
				atomic.AddUint64(&countRefused, 1)
			}
			logger.Debug("session settled",
				zap.String("session_id", view.ID),
				zap.String("state", string(view.State)),
				zap.String("outcome", view.LastOutcome),
				zap.String("notice", view.Notice))
			return
		}
	}
	atomic.AddUint64(&countErrors, 1)
	logger.Warn("session did not settle", zap.String("session_id", view.ID), zap.String("state", string(view.State)))
}

// settled reports whether the ad slot for the session has been decided.
func settled(v session.View) bool {
	switch v.State {
	case session.StateIdle:
		return true
	case session.StateContentPlaying:
		return v.Kind == session.KindExternal
	default:
		return false
	}
}

func call(method, path string, in, out any) (int, error) {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return 0, fmt.Errorf("encode: %w", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(server, "/")+path, &body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func flushCache() {
	cfg := config.Load()
	addr := redisAddr
	if addr == "" {
		addr = cfg.RedisAddr
	}
	store, err := db.InitRedis(addr)
	if err != nil {
		logger.Fatal("redis connect", zap.Error(err))
	}
	defer store.Close()

	keys, err := store.Client.Keys(store.Ctx, "adreward:*").Result()
	if err != nil {
		logger.Fatal("list cache keys", zap.Error(err))
	}
	n, err := store.Delete(store.Ctx, keys...)
	if err != nil {
		logger.Fatal("flush cache", zap.Error(err))
	}
	logger.Info("ledger aggregate cache flushed", zap.String("addr", addr), zap.Int64("keys_deleted", n))
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printStats() {
	started := atomic.LoadUint64(&countStarted)
	rewarded := atomic.LoadUint64(&countRewarded)
	var rewardRate float64
	if started > 0 {
		rewardRate = float64(rewarded) / float64(started)
	}
	logger.Info("stats",
		zap.String("run", label),
		zap.Uint64("started", started),
		zap.Uint64("rewarded", rewarded),
		zap.Uint64("no_ad", atomic.LoadUint64(&countRefused)),
		zap.Uint64("cancelled", atomic.LoadUint64(&countCancelled)),
		zap.Uint64("rate_limited", atomic.LoadUint64(&countLimited)),
		zap.Uint64("errors", atomic.LoadUint64(&countErrors)),
		zap.Int64("earned", atomic.LoadInt64(&earnedTotal)),
		zap.Float64("reward_rate", rewardRate))
}
