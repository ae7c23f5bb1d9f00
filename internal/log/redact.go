package log

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Mask replaces every redacted value.
const Mask = "[redacted]"

// redactedKeys are normalized keys that are always redacted.
var redactedKeys = map[string]struct{}{
	"useragent":          {},
	"plugins":            {},
	"extensions":         {},
	"remoteaddr":         {},
	"xforwardedfor":      {},
	"xrealip":            {},
	"authorization":      {},
	"proxyauthorization": {},
	"cookie":             {},
	"setcookie":          {},
	"xapikey":            {},
	"apikey":             {},
	"session":            {},
	"sessionid":          {},
}

// redactedFragments redact any normalized key that contains them.
// A bare "ip" is not listed: it would catch "zip" and "tooltip".
var redactedFragments = []string{
	"canvas",
	"audio",
	"webgl",
	"font",
	"localip",
	"password",
	"secret",
	"token",
	"credential",
	"private",
}

// redactedValues match values that identify someone whatever their key.
var redactedValues = []*regexp.Regexp{
	regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`),                                // IPv4
	regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`),               // IPv6
	regexp.MustCompile(`^[0-9a-fA-F:]*::[0-9a-fA-F:]*$`),                         // compressed IPv6
	regexp.MustCompile(`^[0-9a-fA-F]{32,}$`),                                     // rendering hashes
	regexp.MustCompile(`^Mozilla/\d\.\d \(`),                                     // user agents
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^(bearer|basic)\s+.+`),
}

// RedactingHandler wraps another slog.Handler and redacts attributes on the
// way through. It is safe for concurrent use if the wrapped handler is.
type RedactingHandler struct {
	next  slog.Handler
	extra map[string]struct{}
}

// HandlerOption configures a RedactingHandler.
type HandlerOption func(*RedactingHandler)

// WithRedactedKeys redacts additional keys. Keys are normalized like
// attribute keys.
func WithRedactedKeys(keys ...string) HandlerOption {
	return func(h *RedactingHandler) {
		for _, k := range keys {
			h.extra[normalizeKey(k)] = struct{}{}
		}
	}
}

// NewRedactingHandler wraps next. A nil next wraps the default handler.
func NewRedactingHandler(next slog.Handler, opts ...HandlerOption) *RedactingHandler {
	if next == nil {
		next = slog.Default().Handler()
	}
	h := &RedactingHandler{next: next, extra: map[string]struct{}{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enabled implements slog.Handler.
func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redact(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler. Attributes are redacted once, here.
func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		redacted = append(redacted, h.redact(a))
	}
	return &RedactingHandler{next: h.next.WithAttrs(redacted), extra: h.extra}
}

// WithGroup implements slog.Handler.
func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{next: h.next.WithGroup(name), extra: h.extra}
}

func (h *RedactingHandler) redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			redacted = append(redacted, h.redact(m))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if h.sensitiveKey(a.Key) {
		return slog.String(a.Key, Mask)
	}
	if a.Value.Kind() == slog.KindString && sensitiveValue(a.Value.String()) {
		return slog.String(a.Key, Mask)
	}
	return a
}

func (h *RedactingHandler) sensitiveKey(key string) bool {
	k := normalizeKey(key)
	if _, ok := redactedKeys[k]; ok {
		return true
	}
	if _, ok := h.extra[k]; ok {
		return true
	}
	for _, frag := range redactedFragments {
		if strings.Contains(k, frag) {
			return true
		}
	}
	return false
}

func sensitiveValue(v string) bool {
	for _, re := range redactedValues {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// normalizeKey lower-cases key and drops '-' and '_'.
func normalizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' {
			return -1
		}
		return r
	}, strings.ToLower(key))
}
