// Package log builds slog loggers that redact identifying values.
//
// Fingerprint payloads are identifying by construction: a canvas hash, a user
// agent string or a list of local addresses is exactly what trackers collect.
// RedactingHandler replaces such values with Mask before a record reaches the
// wrapped handler. A value is redacted when its key names a fingerprint
// signal or a credential, or when the value itself looks like an address, a
// long hex digest, a browser user agent or an auth token.
//
// Keys are matched after lower-casing and dropping '-' and '_', so
// "userAgent", "user_agent" and "User-Agent" are treated alike.
//
// Payload hashes (meta.hash) are pseudonymous and pass through, so log lines
// can still be correlated with stored reports.
//
// # Usage
//
//	logger := log.New(os.Stderr, log.FormatText, verbose)
//	logger.Debug("payload received",
//	    "hash", p.Meta.Hash,               // kept
//	    "userAgent", p.Software.UserAgent, // redacted
//	)
package log
