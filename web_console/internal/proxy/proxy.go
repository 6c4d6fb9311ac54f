package proxy

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sorrymonster/pkg/logging"
	"sorrymonster/pkg/middleware"
)

// Proxy forwards /api/* to the apology service with the prefix stripped.
type Proxy struct {
	upstream string
	prefix   string
	client   *http.Client
	logger   logging.Logger
}

func New(upstream, prefix string, client *http.Client, logger logging.Logger) *Proxy {
	return &Proxy{
		upstream: strings.TrimRight(upstream, "/"),
		prefix:   strings.TrimRight(prefix, "/"),
		client:   client,
		logger:   logger,
	}
}

// Target maps an incoming path and query to the upstream URL.
func (p *Proxy) Target(path, rawQuery string) string {
	rest := strings.TrimPrefix(path, p.prefix)
	if rest == "" || rest[0] != '/' {
		rest = "/" + rest
	}
	target := p.upstream + rest
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

func (p *Proxy) Handle(c *gin.Context) {
	log := middleware.GetContextLogger(c, p.logger)
	target := p.Target(c.Request.URL.Path, c.Request.URL.RawQuery)

	proxyReq, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		log.WithError(err).Error("Failed to create proxy request")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	proxyReq.ContentLength = c.Request.ContentLength

	copyHeaders(proxyReq.Header, c.Request.Header)
	proxyReq.Header.Set("X-Real-IP", c.ClientIP())
	if prior := c.Request.Header.Get("X-Forwarded-For"); prior != "" {
		proxyReq.Header.Set("X-Forwarded-For", prior+", "+c.ClientIP())
	} else {
		proxyReq.Header.Set("X-Forwarded-For", c.ClientIP())
	}
	if id := middleware.GetRequestID(c); id != "" {
		proxyReq.Header.Set("X-Request-ID", id)
	}

	resp, err := p.client.Do(proxyReq)
	if err != nil {
		log.WithError(err).WithField("target", target).Error("Upstream unreachable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Service temporarily unavailable"})
		return
	}
	defer resp.Body.Close()

	copyHeaders(c.Writer.Header(), resp.Header)
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		log.WithError(err).Warn("Failed to copy upstream response body")
		return
	}

	log.WithFields(logging.Fields{
		"target": target,
		"status": resp.StatusCode,
	}).Debug("Proxied request")
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if isHopByHopHeader(key) {
			continue
		}
		dst.Del(key)
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailer":             true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

func isHopByHopHeader(header string) bool {
	return hopByHopHeaders[strings.ToLower(header)]
}
