package middleware

import (
	"bufio"
	"compress/gzip"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

type encoder interface {
	io.WriteCloser
	Flush() error
	Reset(io.Writer)
}

type codec struct {
	name string
	pool *sync.Pool
}

// Compress encodes response bodies with brotli or gzip, preferring brotli
// when the client accepts both. Out-of-range levels fall back to defaults.
func Compress(gzipLevel, brotliLevel int) func(http.Handler) http.Handler {
	if gzipLevel < gzip.HuffmanOnly || gzipLevel > gzip.BestCompression {
		gzipLevel = gzip.DefaultCompression
	}
	if brotliLevel < brotli.BestSpeed || brotliLevel > brotli.BestCompression {
		brotliLevel = 5
	}

	gz := &codec{name: "gzip", pool: &sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzipLevel)
		return w
	}}}
	br := &codec{name: "br", pool: &sync.Pool{New: func() any {
		return brotli.NewWriterLevel(io.Discard, brotliLevel)
	}}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			var c *codec
			accepted := acceptedEncodings(r.Header.Get("Accept-Encoding"))
			switch {
			case accepted["br"]:
				c = br
			case accepted["gzip"]:
				c = gz
			default:
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressResponseWriter{ResponseWriter: w, codec: c, compress: true}

			defer func() {
				if rec := recover(); rec != nil {
					cw.DisableCompression()
					panic(rec)
				}
				cw.Close()
			}()

			next.ServeHTTP(cw, r)
		})
	}
}

func acceptedEncodings(header string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(header, ",") {
		token, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		token = strings.ToLower(strings.TrimSpace(token))
		if token == "" {
			continue
		}
		q := strings.ReplaceAll(strings.ToLower(params), " ", "")
		if q == "q=0" || q == "q=0.0" || q == "q=0.00" || q == "q=0.000" {
			continue
		}
		out[token] = true
	}
	return out
}

// compressResponseWriter holds the status line back until the first body
// write so the encoding headers can still be set.
type compressResponseWriter struct {
	http.ResponseWriter
	codec       *codec
	writer      encoder
	status      int
	wroteHeader bool
	compress    bool
}

func (c *compressResponseWriter) ensureWriter() {
	if !c.compress || c.writer != nil {
		return
	}
	enc := c.codec.pool.Get().(encoder)
	enc.Reset(c.ResponseWriter)
	c.writer = enc
	header := c.Header()
	header.Del("Content-Length")
	header.Set("Content-Encoding", c.codec.name)
	header.Add("Vary", "Accept-Encoding")
}

func (c *compressResponseWriter) WriteHeader(code int) {
	if code < http.StatusOK {
		c.ResponseWriter.WriteHeader(code)
		return
	}
	if c.status != 0 {
		return
	}
	if code >= 400 || code == http.StatusNoContent || code == http.StatusNotModified {
		c.DisableCompression()
	}
	c.status = code
	if !c.compress {
		c.writeHeaderNow()
	}
}

func (c *compressResponseWriter) writeHeaderNow() {
	if c.wroteHeader {
		return
	}
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.wroteHeader = true
	c.ResponseWriter.WriteHeader(c.status)
}

func (c *compressResponseWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.WriteHeader(http.StatusOK)
	}
	if !c.compress {
		c.writeHeaderNow()
		return c.ResponseWriter.Write(p)
	}
	c.ensureWriter()
	c.writeHeaderNow()
	return c.writer.Write(p)
}

func (c *compressResponseWriter) Close() {
	if c.writer == nil {
		if c.status != 0 {
			c.writeHeaderNow()
		}
		return
	}
	_ = c.writer.Close()
	c.codec.pool.Put(c.writer)
	c.writer = nil
}

func (c *compressResponseWriter) DisableCompression() {
	if !c.compress {
		return
	}
	c.compress = false
	if c.writer != nil {
		c.writer.Reset(io.Discard)
		_ = c.writer.Close()
		c.codec.pool.Put(c.writer)
		c.writer = nil
	}
	header := c.Header()
	header.Del("Content-Encoding")
	header.Del("Content-Length")
}

func (c *compressResponseWriter) Flush() {
	if c.writer == nil && c.status != 0 {
		c.writeHeaderNow()
	}
	if c.writer != nil {
		_ = c.writer.Flush()
	}
	if flusher, ok := c.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (c *compressResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := c.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
