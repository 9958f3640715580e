package compose

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HTTP handler error messages
const (
	ErrMsgHTTPNotFound = "template not found"
	ErrMsgHTTPInternal = "template rendering failed"
)

// HandlerOption configures the handler returned by NewHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	csrfToken func(*http.Request) string
	data      func(*http.Request) map[string]any
	indexName string
	logger    *zap.Logger
}

// WithCSRFHeader reads the CSRF token from the named request header.
func WithCSRFHeader(header string) HandlerOption {
	return WithCSRFTokenFunc(func(r *http.Request) string {
		return r.Header.Get(header)
	})
}

// WithCSRFTokenFunc sets how the CSRF token of a request is obtained.
// The token is exposed to templates as csrf_token and propagated into
// compositions.
func WithCSRFTokenFunc(fn func(*http.Request) string) HandlerOption {
	return func(c *handlerConfig) {
		c.csrfToken = fn
	}
}

// WithRequestData adds values computed from the request to the render
// data. They override the built-in values.
func WithRequestData(fn func(*http.Request) map[string]any) HandlerOption {
	return func(c *handlerConfig) {
		c.data = fn
	}
}

// WithIndexName sets the template rendered for paths ending in "/".
// Default: "index.html"
func WithIndexName(name string) HandlerOption {
	return func(c *handlerConfig) {
		c.indexName = name
	}
}

// WithHandlerLogger sets the request logger.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(c *handlerConfig) {
		c.logger = logger
	}
}

// NewHandler serves GET requests by rendering the template named by the
// request path. Templates see path, query (first value per key) and
// csrf_token.
func NewHandler(engine *Engine, opts ...HandlerOption) http.Handler {
	config := &handlerConfig{
		csrfToken: func(r *http.Request) string { return r.Header.Get(DefaultCSRFHeader) },
		indexName: DefaultIndexName,
		logger:    engine.logger,
	}
	for _, opt := range opts {
		opt(config)
	}

	h := &templateHandler{engine: engine, config: config}
	r := chi.NewRouter()
	r.Get(RouteWildcard, h.render)
	return r
}

type templateHandler struct {
	engine *Engine
	config *handlerConfig
}

func (h *templateHandler) render(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, RouteWildcardParam)
	if name == StringValueEmpty || strings.HasSuffix(name, "/") {
		name += h.config.indexName
	}

	out, err := h.engine.Render(r.Context(), name, h.requestData(r))
	if err != nil {
		status := http.StatusInternalServerError
		msg := ErrMsgHTTPInternal
		if errors.Is(err, ErrTemplateNotFound) {
			status = http.StatusNotFound
			msg = ErrMsgHTTPNotFound
		}
		h.config.logger.Warn(LogMsgHTTPRender,
			zap.String(LogFieldTemplate, name),
			zap.Int(LogFieldStatus, status),
			zap.Error(err))
		http.Error(w, msg, status)
		return
	}

	h.config.logger.Debug(LogMsgHTTPRender,
		zap.String(LogFieldTemplate, name),
		zap.Int(LogFieldStatus, http.StatusOK))
	w.Header().Set(HeaderContentType, ContentTypeHTML)
	_, _ = w.Write([]byte(out))
}

func (h *templateHandler) requestData(r *http.Request) map[string]any {
	query := make(map[string]any)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	data := map[string]any{
		KeyPath:  r.URL.Path,
		KeyQuery: query,
	}
	if h.config.csrfToken != nil {
		if token := h.config.csrfToken(r); token != StringValueEmpty {
			data[KeyCSRFToken] = token
		}
	}
	if h.config.data != nil {
		for k, v := range h.config.data(r) {
			data[k] = v
		}
	}
	return data
}
