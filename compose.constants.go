package compose

import "time"

// Version of the compose module.
const Version = "0.1.0"

// Engine defaults
const (
	DefaultMaxDepth = 100
)

// Context keys the engine fills for templates
const (
	KeyCSRFToken  = "csrf_token"
	KeyRequest    = "request"
	KeyQuery      = "query"
	KeyPath       = "path"
	KeyChildren   = "children"
	KeyContextArg = "context"
)

// Postgres loader defaults
const (
	DefaultPostgresMaxOpenConns    = 25
	DefaultPostgresMaxIdleConns    = 5
	DefaultPostgresConnMaxLifetime = 5 * time.Minute
	DefaultPostgresConnMaxIdleTime = 1 * time.Minute
	DefaultPostgresQueryTimeout    = 30 * time.Second
	DefaultPostgresTablePrefix     = "compose_"
	PostgresDriverName             = "postgres"
)

// Redis loader defaults
const (
	DefaultRedisPrefix = "compose:template:"
)

// HTTP handler defaults
const (
	DefaultListenAddr   = ":8080"
	DefaultCSRFHeader   = "X-CSRF-Token"
	DefaultIndexName    = "index.html"
	DefaultMetricsPath  = "/metrics"
	ContentTypeHTML     = "text/html; charset=utf-8"
	HeaderContentType   = "Content-Type"
	RouteWildcard       = "/*"
	RouteWildcardParam  = "*"
	DefaultReadTimeout  = 10 * time.Second
	DefaultWriteTimeout = 30 * time.Second
)

// Config defaults
const (
	DefaultLogLevel = "info"
)

// Metric names and labels
const (
	MetricsNamespace        = "compose"
	MetricRendersTotal      = "renders_total"
	MetricRenderDuration    = "render_duration_seconds"
	MetricParsesTotal       = "parses_total"
	MetricLoadsTotal        = "loads_total"
	MetricLabelTemplate     = "template"
	MetricLabelStatus       = "status"
	MetricLabelResult       = "result"
	MetricStatusOK          = "ok"
	MetricStatusError       = "error"
	MetricResultHit         = "hit"
	MetricResultMiss        = "miss"
	MetricResultNotFound    = "not_found"
	MetricHelpRendersTotal  = "Number of template renders."
	MetricHelpRenderSeconds = "Template render latency in seconds."
	MetricHelpParsesTotal   = "Number of template compilations."
	MetricHelpLoadsTotal    = "Number of template lookups by result."
)

// Tracing names
const (
	TracerName       = "github.com/itsatony/go-compose"
	SpanRender       = "compose.render"
	SpanLoad         = "compose.load"
	AttrTemplateName = "compose.template"
)

// Log messages
const (
	LogMsgEngineCreated     = "compose engine created"
	LogMsgTemplateParsed    = "template parsed"
	LogMsgTemplateLoaded    = "template loaded"
	LogMsgTemplateCached    = "template served from cache"
	LogMsgTemplateRendered  = "template rendered"
	LogMsgRenderFailed      = "template render failed"
	LogMsgTagRegistered     = "composition tag registered"
	LogMsgCacheCleared      = "template cache cleared"
	LogMsgMigrationApplied  = "postgres migration applied"
	LogMsgHTTPRender        = "http render"
	LogMsgServerStarting    = "compose server starting"
	LogMsgServerStopped     = "compose server stopped"
	LogMsgLoaderConfigured  = "template loader configured"
	LogMsgTemplateSaved     = "template saved"
	LogMsgTemplateDeleted   = "template deleted"
	LogMsgConfigLoaded      = "configuration loaded"
	LogMsgLoaderCloseFailed = "loader close failed"
)

// Log field keys
const (
	LogFieldTemplate   = "template"
	LogFieldTemplates  = "templates"
	LogFieldDuration   = "duration"
	LogFieldError      = "error"
	LogFieldTag        = "tag"
	LogFieldLoader     = "loader"
	LogFieldVersion    = "version"
	LogFieldMigration  = "migration"
	LogFieldPath       = "path"
	LogFieldStatus     = "status"
	LogFieldAddr       = "addr"
	LogFieldTagCount   = "tag_count"
	LogFieldMaxDepth   = "max_depth"
	LogFieldConfigPath = "config_path"
)

// Loader names for logging
const (
	LoaderNameMemory     = "memory"
	LoaderNameFilesystem = "filesystem"
	LoaderNamePostgres   = "postgres"
	LoaderNameRedis      = "redis"
)

// Misc string constants
const (
	StringValueEmpty = ""
	NameListSep      = ", "
	FuncNameSep      = "."
)
