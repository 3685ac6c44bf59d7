package middleware

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-portfolio-backend/internal/observability"
)

const (
	redacted = "[REDACTED]"

	// maxQueryLogLength caps the logged query string.
	maxQueryLogLength = 1024
)

// placeholderUnescaper undoes the escaping Encode applies to placeholders.
var placeholderUnescaper = strings.NewReplacer("%5B", "[", "%5D", "]", "%3A", ":")

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// RedactOptions configures what RedactingLogger scrubs.
//
// Authorization, Cookie and Set-Cookie headers and the "secret" and "token"
// query parameters are always masked; the fields below add to those sets.
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
	// SkipPaths are logged at debug level only (health probes, scrapes).
	SkipPaths []string
}

// RedactingLogger emits one structured access log line per request with
// sensitive values scrubbed, and attaches a request-scoped logger (request
// ID plus trace IDs) for handlers to use through LoggerFrom.
//
// Level follows the outcome: error for 5xx, warn for 4xx, info otherwise.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := lowerSet([]string{"authorization", "cookie", "set-cookie"}, opts.MaskHeaders)
	maskParams := lowerSet([]string{"secret", "token"}, opts.MaskQueryParams)
	skip := lowerSet(nil, opts.SkipPaths)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := observability.WithTrace(c.Request.Context(), log.Logger).With().
			Str("request_id", RequestIDFrom(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(ctxKeyLogger, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if _, quiet := skip[strings.ToLower(c.Request.URL.Path)]; quiet && status < 400 {
			ev = l.Debug()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}

		ev.
			Str("query", truncate(redactQuery(c.Request.URL.RawQuery, maskParams), maxQueryLogLength)).
			Str("remote_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", redactHeaders(c.Request.Header, maskHeaders)).
			Msg("http_request")
	}
}

// redactQuery masks the values of sensitive parameters and scrubs
// identifiers from the rest. Unparseable queries are scrubbed as raw text.
func redactQuery(raw string, mask map[string]struct{}) string {
	if raw == "" {
		return ""
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return scrub(raw)
	}
	for k, vv := range vals {
		if _, ok := mask[strings.ToLower(k)]; ok {
			for i := range vv {
				vv[i] = redacted
			}
			continue
		}
		for i, v := range vv {
			vv[i] = scrub(v)
		}
	}
	return placeholderUnescaper.Replace(vals.Encode())
}

func redactHeaders(h map[string][]string, mask map[string]struct{}) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := mask[strings.ToLower(k)]; ok {
			out[k] = redacted
			continue
		}
		out[k] = scrub(strings.Join(vv, ", "))
	}
	return out
}

// scrub replaces UUIDs before emails so the email pattern never sees the
// hyphenated id segments.
func scrub(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	return emailRE.ReplaceAllString(s, "[REDACTED:email]")
}

func lowerSet(base, extra []string) map[string]struct{} {
	m := make(map[string]struct{}, len(base)+len(extra))
	for _, group := range [][]string{base, extra} {
		for _, v := range group {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				m[v] = struct{}{}
			}
		}
	}
	return m
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
