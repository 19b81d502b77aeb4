package http

import (
	"container/list"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/services"
)

// LRU cache with TTL and size-based eviction
type lruCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

func newLRUCache[T any](maxSize int, ttl time.Duration) *lruCache[T] {
	return &lruCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

func (c *lruCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

func (c *lruCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// DeletePrefix drops every entry whose key starts with prefix. Used to
// invalidate one user's cached reads after a mutation.
func (c *lruCache[T]) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if len(item.key) >= len(prefix) && item.key[:len(prefix)] == prefix {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
}

func (c *lruCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries
func (c *lruCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		item := elem.Value.(*cacheItem[T])
		if now.After(item.expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Services groups everything the HTTP surface exposes.
type Services struct {
	Accounts      *services.AccountService
	Transactions  *services.TransactionService
	Recurring     *services.RecurringService
	Budgets       *services.BudgetService
	Goals         *services.GoalService
	Categories    *services.CategoryService
	Notifications *services.NotificationService
}

type Server struct {
	http.Server
	svc         Services
	rateLimiter *rateLimiter

	// Statistics reads are cached per user and range; any transaction
	// mutation invalidates the user's entries.
	statsCache *lruCache[services.Statistics]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, ratePerMinute int, statsTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:              svc,
		rateLimiter:      newRateLimiter(ratePerMinute),
		statsCache:       newLRUCache[services.Statistics](200, statsTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	routes := []struct {
		pattern string
		handler http.HandlerFunc
	}{
		{"POST /accounts", s.handleCreateAccount},
		{"GET /accounts", s.handleListAccounts},
		{"GET /accounts/total-balance", s.handleTotalBalance},
		{"GET /accounts/{id}", s.handleGetAccount},
		{"PATCH /accounts/{id}", s.handleUpdateAccount},
		{"DELETE /accounts/{id}", s.handleDeleteAccount},

		{"POST /transactions", s.handleCreateTransaction},
		{"GET /transactions", s.handleListTransactions},
		{"GET /transactions/statistics", s.handleStatistics},
		{"GET /transactions/{id}", s.handleGetTransaction},
		{"PATCH /transactions/{id}", s.handleUpdateTransaction},
		{"DELETE /transactions/{id}", s.handleDeleteTransaction},

		{"POST /recurring", s.handleCreateRecurring},
		{"GET /recurring", s.handleListRecurring},
		{"GET /recurring/upcoming", s.handleUpcomingRecurring},
		{"GET /recurring/{id}", s.handleGetRecurring},
		{"PATCH /recurring/{id}", s.handleUpdateRecurring},
		{"DELETE /recurring/{id}", s.handleDeleteRecurring},
		{"POST /recurring/{id}/pause", s.handlePauseRecurring},
		{"POST /recurring/{id}/resume", s.handleResumeRecurring},
		{"POST /recurring/{id}/cancel", s.handleCancelRecurring},

		{"POST /budgets", s.handleCreateBudget},
		{"GET /budgets", s.handleListBudgets},
		{"GET /budgets/{id}", s.handleGetBudget},
		{"PATCH /budgets/{id}", s.handleUpdateBudget},
		{"DELETE /budgets/{id}", s.handleDeleteBudget},
		{"GET /budgets/{id}/progress", s.handleBudgetProgress},
		{"POST /budgets/{id}/spend", s.handleBudgetSpend},

		{"POST /goals", s.handleCreateGoal},
		{"GET /goals", s.handleListGoals},
		{"GET /goals/{id}", s.handleGetGoal},
		{"PATCH /goals/{id}", s.handleUpdateGoal},
		{"DELETE /goals/{id}", s.handleDeleteGoal},
		{"GET /goals/{id}/progress", s.handleGoalProgress},
		{"POST /goals/{id}/add", s.handleAddToGoal},
		{"POST /goals/{id}/cancel", s.handleCancelGoal},

		{"POST /categories", s.handleCreateCategory},
		{"GET /categories", s.handleListCategories},
		{"GET /categories/{id}", s.handleGetCategory},
		{"PATCH /categories/{id}", s.handleUpdateCategory},
		{"DELETE /categories/{id}", s.handleDeleteCategory},

		{"GET /notifications", s.handleListNotifications},
		{"GET /notifications/unread-count", s.handleUnreadCount},
		{"POST /notifications/read-all", s.handleMarkAllRead},
		{"POST /notifications/{id}/read", s.handleMarkRead},
		{"DELETE /notifications/{id}", s.handleDeleteNotification},
	}
	for _, r := range routes {
		mux.HandleFunc(r.pattern, s.withMiddleware(r.handler))
	}

	return s
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.statsCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
