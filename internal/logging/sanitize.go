// sanitize.go — Log metadata sanitization.
// Caps depth and size, redacts sensitive keys, summarizes data: URIs, and
// replaces JWT-shaped strings and circular references before serialization.
package logging

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

const (
	maxDepth     = 6
	maxKeys      = 40
	maxItems     = 40
	maxStringLen = 512
)

// sensitiveKeyFragments are matched against lowercased key names; any key
// containing one of these is replaced with "[redacted]".
var sensitiveKeyFragments = []string{
	"authorization", "cookie", "set-cookie", "token", "secret",
	"password", "apikey", "api_key", "datauri", "base64",
}

// jwtShape matches base64url header.payload.signature triples.
var jwtShape = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)

// Sanitize returns a copy of v safe to serialize into a log line.
// The input is never modified.
func Sanitize(v any) any {
	seen := make(map[uintptr]bool)
	return sanitizeValue(v, 0, seen)
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, fragment := range sensitiveKeyFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func sanitizeString(s string) string {
	if strings.HasPrefix(s, "data:") {
		header := s
		if idx := strings.Index(s, ","); idx >= 0 {
			header = s[:idx]
			return fmt.Sprintf("%s,[%d chars]", header, len(s)-idx-1)
		}
		if len(header) > 64 {
			header = header[:64]
		}
		return fmt.Sprintf("%s,[%d chars]", header, len(s))
	}
	if jwtShape.MatchString(s) {
		return "[redacted:jwt]"
	}
	if len(s) > maxStringLen {
		return s[:maxStringLen] + "..."
	}
	return s
}

func sanitizeValue(v any, depth int, seen map[uintptr]bool) any {
	if v == nil {
		return nil
	}
	if depth > maxDepth {
		return "[depth limit]"
	}

	switch val := v.(type) {
	case string:
		return sanitizeString(val)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32,
		uint64, float32, float64:
		return val
	case error:
		return sanitizeString(val.Error())
	case map[string]any:
		return sanitizeMap(val, depth, seen)
	case []any:
		return sanitizeSlice(val, depth, seen)
	}

	// Anything else goes through reflection so maps/slices/pointers of
	// concrete types still get depth and cycle protection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice:
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil
		}
		ptr := rv.Pointer()
		if seen[ptr] {
			return "[Circular]"
		}
		seen[ptr] = true
		defer delete(seen, ptr)
	}

	switch rv.Kind() {
	case reflect.Ptr:
		return sanitizeValue(rv.Elem().Interface(), depth, seen)
	case reflect.Map:
		generic := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			generic[fmt.Sprint(iter.Key().Interface())] = iter.Value().Interface()
		}
		return sanitizeMap(generic, depth, seen)
	case reflect.Slice, reflect.Array:
		generic := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			generic[i] = rv.Index(i).Interface()
		}
		return sanitizeSlice(generic, depth, seen)
	case reflect.Struct:
		return sanitizeString(fmt.Sprintf("%+v", v))
	default:
		return sanitizeString(fmt.Sprint(v))
	}
}

func sanitizeMap(m map[string]any, depth int, seen map[uintptr]bool) map[string]any {
	out := make(map[string]any, len(m))
	count := 0
	for key, value := range m {
		if count >= maxKeys {
			out["..."] = fmt.Sprintf("[%d more keys]", len(m)-maxKeys)
			break
		}
		count++
		if isSensitiveKey(key) {
			out[key] = "[redacted]"
			continue
		}
		out[key] = sanitizeValue(value, depth+1, seen)
	}
	return out
}

func sanitizeSlice(s []any, depth int, seen map[uintptr]bool) []any {
	limit := len(s)
	truncated := false
	if limit > maxItems {
		limit = maxItems
		truncated = true
	}
	out := make([]any, 0, limit+1)
	for i := 0; i < limit; i++ {
		out = append(out, sanitizeValue(s[i], depth+1, seen))
	}
	if truncated {
		out = append(out, fmt.Sprintf("[%d more items]", len(s)-maxItems))
	}
	return out
}
