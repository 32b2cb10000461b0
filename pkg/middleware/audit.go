package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gh900098/Mini-Game-Cursor-sub001/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Context keys for audit data set by handlers
const (
	ContextKeyAuditSkip     = "audit_skip"
	ContextKeyAuditResult   = "audit_result"
	ContextKeyAuditCompany  = "audit_company_id"
	ContextKeyAuditUserName = "audit_user_name"
)

// AuditEntry is one row of audit_logs
type AuditEntry struct {
	ID         string      `json:"id"`
	UserID     *string     `json:"userId,omitempty"`
	UserName   *string     `json:"userName,omitempty"`
	CompanyID  *string     `json:"companyId,omitempty"`
	Module     string      `json:"module"`
	Action     string      `json:"action"`
	Method     string      `json:"method,omitempty"`
	Path       string      `json:"path,omitempty"`
	IP         string      `json:"ip,omitempty"`
	UserAgent  string      `json:"userAgent,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	Params     interface{} `json:"params,omitempty"`
	Result     interface{} `json:"result,omitempty"`
	Status     int         `json:"status,omitempty"`
	DurationMs int64       `json:"duration,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// AuditConfig holds configuration for the audit middleware
type AuditConfig struct {
	DB            *pgxpool.Pool
	BufferSize    int           // default 1000
	FlushInterval time.Duration // default 5s
	BatchSize     int           // default 100
	SkipPaths     []string      // exact paths or prefixes ending in "*"
	SkipMethods   []string
	MaxBodySize   int
	// JWTSecret lets login and switch-company entries be attributed to the issued token
	JWTSecret string
	// ModuleEnabled, when set, is consulted before recording an entry for a module
	ModuleEnabled func(ctx context.Context, module string) bool
}

// DefaultAuditConfig returns default configuration
func DefaultAuditConfig(db *pgxpool.Pool) *AuditConfig {
	return &AuditConfig{
		DB:            db,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		BatchSize:     100,
		SkipPaths:     []string{"/health", "/ready", "/metrics", "/api/v1/admin/audit-logs*"},
		SkipMethods:   []string{"GET", "HEAD", "OPTIONS"},
		MaxBodySize:   10 * 1024,
	}
}

// AuditLogger buffers entries and writes them to Postgres in batches
type AuditLogger struct {
	config    *AuditConfig
	buffer    chan *AuditEntry
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	log       *logger.Logger

	testMode    bool
	testEntries []*AuditEntry
	testMu      sync.Mutex
}

// NewAuditLogger creates an audit logger and starts its background worker
func NewAuditLogger(config *AuditConfig) *AuditLogger {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 10 * 1024
	}

	ctx, cancel := context.WithCancel(context.Background())

	al := &AuditLogger{
		config: config,
		buffer: make(chan *AuditEntry, config.BufferSize),
		ctx:    ctx,
		cancel: cancel,
		log:    logger.Get().Named("audit"),
	}

	al.wg.Add(1)
	go al.worker()

	return al
}

// Log adds an entry to the buffer without blocking. Entries are dropped when the buffer is full.
func (al *AuditLogger) Log(entry *AuditEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	select {
	case al.buffer <- entry:
	default:
		al.log.Warn("audit buffer full, dropping entry",
			zap.String("module", entry.Module),
			zap.String("action", entry.Action),
		)
	}
}

// Close drains the buffer and stops the worker
func (al *AuditLogger) Close() error {
	al.closeOnce.Do(func() {
		close(al.buffer)
		al.wg.Wait()
		al.cancel()
	})
	return nil
}

// SetTestMode collects entries in memory instead of writing to the database
func (al *AuditLogger) SetTestMode(enabled bool) {
	al.testMu.Lock()
	defer al.testMu.Unlock()
	al.testMode = enabled
	if enabled {
		al.testEntries = make([]*AuditEntry, 0)
	}
}

// GetTestEntries returns collected test entries
func (al *AuditLogger) GetTestEntries() []*AuditEntry {
	al.testMu.Lock()
	defer al.testMu.Unlock()
	result := make([]*AuditEntry, len(al.testEntries))
	copy(result, al.testEntries)
	return result
}

func (al *AuditLogger) worker() {
	defer al.wg.Done()

	ticker := time.NewTicker(al.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*AuditEntry, 0, al.config.BatchSize)

	for {
		select {
		case entry, ok := <-al.buffer:
			if !ok {
				al.flush(batch)
				return
			}
			batch = append(batch, entry)
			if len(batch) >= al.config.BatchSize {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				al.flush(batch)
				batch = make([]*AuditEntry, 0, al.config.BatchSize)
			}
		}
	}
}

const insertAuditLogQuery = `
	INSERT INTO audit_logs (
		id, user_id, user_name, company_id, module, action, method, path,
		ip, user_agent, payload, params, result, status, duration, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8,
		$9, $10, $11, $12, $13, $14, $15, $16
	)
`

func (al *AuditLogger) flush(entries []*AuditEntry) {
	if len(entries) == 0 {
		return
	}

	al.testMu.Lock()
	if al.testMode {
		al.testEntries = append(al.testEntries, entries...)
		al.testMu.Unlock()
		return
	}
	al.testMu.Unlock()

	if al.config.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(insertAuditLogQuery,
			e.ID, e.UserID, e.UserName, e.CompanyID, e.Module, e.Action, e.Method, e.Path,
			e.IP, e.UserAgent, jsonOrNil(e.Payload), jsonOrNil(e.Params), jsonOrNil(e.Result),
			e.Status, e.DurationMs, e.CreatedAt,
		)
	}

	results := al.config.DB.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			al.log.Error("failed to write audit entry", zap.Error(err))
		}
	}
}

func jsonOrNil(v interface{}) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return b
}

// AuditMiddleware records mutating requests after they complete
func AuditMiddleware(al *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		config := al.config
		path := c.Request.URL.Path

		for _, p := range config.SkipPaths {
			if matchPath(path, p) {
				c.Next()
				return
			}
		}
		for _, method := range config.SkipMethods {
			if c.Request.Method == method {
				c.Next()
				return
			}
		}

		var payload map[string]interface{}
		if c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, int64(config.MaxBodySize)))
			if err == nil && len(bodyBytes) > 0 {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				_ = json.Unmarshal(bodyBytes, &payload)
			}
		}

		writer := &auditResponseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
			maxSize:        config.MaxBodySize,
		}
		c.Writer = writer

		start := time.Now()
		c.Next()

		if skip := c.GetBool(ContextKeyAuditSkip); skip {
			return
		}

		module := ModuleFromPath(path)
		if config.ModuleEnabled != nil && !config.ModuleEnabled(c.Request.Context(), module) {
			return
		}

		status := c.Writer.Status()
		entry := &AuditEntry{
			ID:         uuid.New().String(),
			Module:     module,
			Action:     ActionName(c.Request.Method, path),
			Method:     c.Request.Method,
			Path:       path,
			IP:         getClientIP(c),
			UserAgent:  c.GetHeader("User-Agent"),
			Payload:    redact(payload),
			Params:     redact(requestParams(c)),
			Status:     status,
			DurationMs: time.Since(start).Milliseconds(),
			CreatedAt:  start,
		}

		if claims, ok := GetClaims(c); ok {
			entry.UserID = strPtr(claims.UserID())
			entry.UserName = strPtr(claims.Email)
			entry.CompanyID = strPtr(claims.TenantID())
		}
		if entry.CompanyID == nil && payload != nil {
			if id, ok := payload["companyId"].(string); ok {
				entry.CompanyID = strPtr(id)
			}
		}
		if v := c.GetString(ContextKeyAuditCompany); v != "" {
			entry.CompanyID = strPtr(v)
		}
		if v := c.GetString(ContextKeyAuditUserName); v != "" {
			entry.UserName = strPtr(v)
		}

		var body map[string]interface{}
		_ = json.Unmarshal(writer.body.Bytes(), &body)

		if status < 400 && isTokenIssuingPath(path) {
			al.attributeToIssuedToken(entry, body)
		}

		switch {
		case status >= 400:
			entry.Result = redact(body["error"])
		default:
			if r, exists := c.Get(ContextKeyAuditResult); exists {
				entry.Result = r
			} else {
				entry.Result = map[string]interface{}{"success": true}
			}
		}

		al.Log(entry)
	}
}

func isTokenIssuingPath(path string) bool {
	return strings.Contains(path, "/auth/login") || strings.Contains(path, "/auth/switch-company")
}

// attributeToIssuedToken takes user and company from the token in a login response
func (al *AuditLogger) attributeToIssuedToken(entry *AuditEntry, body map[string]interface{}) {
	if al.config.JWTSecret == "" || body == nil {
		return
	}
	data, _ := body["data"].(map[string]interface{})
	token, _ := data["access_token"].(string)
	if token == "" {
		return
	}
	claims, err := ParseToken(al.config.JWTSecret, token)
	if err != nil {
		al.log.Warn("failed to decode issued token for audit", zap.Error(err))
		return
	}
	entry.UserID = strPtr(claims.UserID())
	if claims.Email != "" {
		entry.UserName = strPtr(claims.Email)
	}
	if claims.CurrentCompanyID != "" {
		entry.CompanyID = strPtr(claims.CurrentCompanyID)
	}
}

func requestParams(c *gin.Context) map[string]interface{} {
	params := make(map[string]interface{})
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	for k, v := range c.Request.URL.Query() {
		if len(v) == 1 {
			params[k] = v[0]
		} else {
			params[k] = v
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

type auditResponseWriter struct {
	gin.ResponseWriter
	body    *bytes.Buffer
	maxSize int
}

func (w *auditResponseWriter) Write(b []byte) (int, error) {
	if remaining := w.maxSize - w.body.Len(); remaining > 0 {
		if len(b) <= remaining {
			w.body.Write(b)
		} else {
			w.body.Write(b[:remaining])
		}
	}
	return w.ResponseWriter.Write(b)
}

var (
	versionSegment = regexp.MustCompile(`^v\d+$`)
	idSegment      = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$|^\d+$`)
)

// pathParts drops empty, "api", version and "admin" segments
func pathParts(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p == "" || p == "api" || p == "admin" || versionSegment.MatchString(p) {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

// ModuleFromPath returns the first resource segment: /api/v1/admin/members/1 -> "members"
func ModuleFromPath(path string) string {
	parts := pathParts(path)
	if len(parts) == 0 {
		return "unknown"
	}
	return parts[0]
}

// ActionName derives a readable action for an audited request
func ActionName(method, path string) string {
	parts := pathParts(path)
	lower := strings.ToLower("/" + strings.Join(parts, "/"))

	if strings.HasPrefix(lower, "/auth/") {
		switch {
		case strings.Contains(lower, "/login"):
			return "Login"
		case strings.Contains(lower, "/switch-company"):
			return "Switch Company"
		case strings.Contains(lower, "/external"):
			return "External Login"
		}
	}

	if strings.HasPrefix(lower, "/users/") && strings.Contains(lower, "/companies") {
		switch {
		case strings.Contains(lower, "/set-primary"):
			return "Set Primary Company"
		case strings.Contains(lower, "/role"):
			return "Update Access Role"
		case method == "POST":
			return "Assign Company Access"
		case method == "DELETE":
			return "Remove Company Access"
		}
	}

	if strings.Contains(lower, "/seed") {
		return "Seed System Data"
	}

	named := map[string][3]string{
		"users":           {"Create User Account", "Update User Details", "Remove User Account"},
		"roles":           {"Create Functional Role", "Update Role & Permissions", "Delete Functional Role"},
		"permissions":     {"Define New Permission", "Update Permission Definition", "Remove Permission Definition"},
		"companies":       {"Register New Company", "Update Company Profile", "Remove Company Record"},
		"system-settings": {"", "Update System Settings", ""},
	}
	if len(parts) > 0 {
		if names, ok := named[strings.ToLower(parts[0])]; ok {
			var name string
			switch method {
			case "POST":
				name = names[0]
			case "PUT", "PATCH":
				name = names[1]
			case "DELETE":
				name = names[2]
			}
			if name != "" && (len(parts) <= 2 || parts[0] == "system-settings") {
				return name
			}
		}
	}

	prefix := map[string]string{"POST": "Create", "PUT": "Update", "PATCH": "Update", "DELETE": "Delete"}[method]
	if prefix == "" {
		prefix = method
	}
	if len(parts) == 0 {
		return method + " " + path
	}

	last := parts[len(parts)-1]
	entity := last
	if idSegment.MatchString(last) {
		if len(parts) > 1 {
			entity = parts[len(parts)-2]
		} else {
			entity = parts[0]
		}
	} else if method == "POST" && len(parts) > 1 {
		switch strings.ToLower(last) {
		case "login", "register", "upload", "send", "reset", "verify", "seed", "sync", "claim", "retry":
			return capitalize(last) + " " + singularize(parts[len(parts)-2])
		}
	}

	return prefix + " " + capitalize(singularize(entity))
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func singularize(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.HasSuffix(lower, "ies"):
		return s[:len(s)-3] + "y"
	case strings.HasSuffix(lower, "s") && len(s) > 3:
		return s[:len(s)-1]
	}
	return s
}

var sensitiveKeys = []string{
	"password", "token", "secret", "key", "auth", "credit", "card",
	"cvv", "cvc", "pin", "signature",
}

func isSensitiveField(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// redact replaces sensitive values, recursing into maps and slices
func redact(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if t == nil {
			return nil
		}
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if isSensitiveField(k) {
				out[k] = "********"
				continue
			}
			out[k] = redact(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = redact(item)
		}
		return out
	default:
		return v
	}
}

// matchPath matches an exact path, or a prefix when pattern ends in "*"
func matchPath(path, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(path, prefix)
	}
	return path == pattern
}

func getClientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := c.GetHeader("X-Real-IP"); xri != "" {
		return xri
	}
	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SetAuditResult overrides the result stored for a successful request
func SetAuditResult(c *gin.Context, result interface{}) {
	c.Set(ContextKeyAuditResult, result)
}

// SetAuditCompany attributes the entry to a company other than the caller's current one
func SetAuditCompany(c *gin.Context, companyID string) {
	c.Set(ContextKeyAuditCompany, companyID)
}

// SkipAudit marks the current request to skip audit logging
func SkipAudit(c *gin.Context) {
	c.Set(ContextKeyAuditSkip, true)
}
