package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// Sanitize 去除用户输入中的 HTML，防止 XSS
func Sanitize(input string) string {
	return strings.TrimSpace(sanitizer.Sanitize(input))
}
