package cliutil

import (
	"regexp"
	"strings"
)

const redactedPlaceholder = "[redacted]"

var (
	secretFlagPattern = regexp.MustCompile(`(?i)(--?[a-z0-9_-]*(?:` + strings.Join(secretWords(), "|") + `)[a-z0-9_-]*)(=|\s+)("[^"]*"|'[^']*'|\S+)`)
	secretEnvPattern  = regexp.MustCompile(`\b([A-Z0-9_]*(?:` + strings.Join(secretKeys(), "|") + `)[A-Z0-9_]*)=("[^"]*"|'[^']*'|\S+)`)
)

func secretWords() []string {
	return []string{"password", "passwd", "token", "secret", "api-key", "api_key", "apikey"}
}

func secretKeys() []string {
	keys := []string{
		"PASSWORD",
		"PASSWD",
		"TOKEN",
		"SECRET",
		"API_KEY",
		"ACCESS_KEY",
	}
	escaped := make([]string, len(keys))
	for i, key := range keys {
		escaped[i] = regexp.QuoteMeta(key)
	}
	return escaped
}

// RedactSecrets masks values that look like credentials in a command line or
// log message: flags such as --password=x or --token x, and environment style
// assignments such as DB_PASSWORD=x.
func RedactSecrets(message string) string {
	if message == "" {
		return message
	}
	redacted := secretFlagPattern.ReplaceAllString(message, "$1$2"+redactedPlaceholder)
	return secretEnvPattern.ReplaceAllString(redacted, "$1="+redactedPlaceholder)
}
