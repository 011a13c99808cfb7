package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/gjson"
)

const (
	// DefaultHTTPPath is where JSON-RPC requests are accepted
	DefaultHTTPPath = "/mcp"

	// maxBodyBytes bounds a single request envelope
	maxBodyBytes = 1 << 20

	// RequestIDHeader carries the per-request id back to the caller
	RequestIDHeader = "X-Request-Id"

	rpcMethodKey = "rpc_method"
)

// HTTPHandler builds the gin engine serving the dispatcher at path.
func HTTPHandler(d *Dispatcher, path string, logger *slog.Logger) http.Handler {
	if path == "" {
		path = DefaultHTTPPath
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(gin.CustomRecovery(func(c *gin.Context, rec any) {
		logger.Error("panic in http handler", "panic", rec, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, errorResponse(nil, mcp.INTERNAL_ERROR, "Internal error", nil))
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST(path, func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse(nil, mcp.INVALID_REQUEST, "Request too large", nil))
			return
		}

		c.Set(rpcMethodKey, peekMethod(body))

		resp := d.Handle(c.Request.Context(), body)
		if resp == nil {
			c.Status(http.StatusAccepted)
			return
		}

		status := http.StatusOK
		if resp.Error != nil && resp.Error.Code == mcp.PARSE_ERROR {
			status = http.StatusInternalServerError
		}
		c.JSON(status, resp)
	})

	return r
}

// peekMethod reads the method name for logging without a full decode.
func peekMethod(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "method").String()
}

// requestLogger logs one line per request with a generated request id.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		logger.Info("http request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"rpc_method", c.GetString(rpcMethodKey))
	}
}

// ServeHTTP runs the HTTP transport on addr until ctx is cancelled.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http transport listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http transport")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
