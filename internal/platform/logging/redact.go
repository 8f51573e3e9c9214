package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Field names whose values never reach a log sink. Lookups are exact, so
// common spellings are listed separately.
var (
	geminiKeyFields = []string{
		"key", // REST query parameter
		"api_key", "apiKey", "apikey", "APIKey",
		"x-goog-api-key", "X-Goog-Api-Key", // SDK header
	}

	credentialFields = []string{
		"password", "secret", "token", "credential", "credentials",
		"access_token", "accessToken", "refresh_token", "refreshToken",
		"authorization", "Authorization", "auth", "bearer",
		"cookie", "session", "private_key", "privateKey",
	}

	credentialPrefixes = []string{"secret", "private"}
)

// Value shapes redacted under any field name.
var (
	googleAPIKey = regexp.MustCompile(`^AIza[0-9A-Za-z_-]{35}$`)
	keyInQuery   = regexp.MustCompile(`[?&]key=[^&\s]+`)

	credentialValues = []*regexp.Regexp{
		regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
		regexp.MustCompile(`(?i)^bearer\s+.+$`),
		regexp.MustCompile(`(?i)^basic\s+.+$`),
	}
)

func geminiRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(geminiKeyFields)+2)
	for _, name := range geminiKeyFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts, masq.WithRegex(googleAPIKey), masq.WithRegex(keyInQuery))
}

func credentialRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(credentialFields)+len(credentialPrefixes)+len(credentialValues))
	for _, name := range credentialFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range credentialPrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	for _, re := range credentialValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// DefaultRedactOptions returns the masq options every handler built by New
// applies.
func DefaultRedactOptions() []masq.Option {
	return append(geminiRedactOptions(), credentialRedactOptions()...)
}

// NewReplaceAttr returns a slog ReplaceAttr redacting with
// DefaultRedactOptions plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
