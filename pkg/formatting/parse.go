// Package formatting extracts structured payloads from free-form model output.
package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, from a markdown code fence, or from an embedded object.
var ErrParseFailed = errors.New("failed to parse response")

var (
	jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
	thinkRegex     = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
)

// Parse unmarshals content as JSON into T. If direct parsing fails it tries
// the first markdown code fence, then the outermost {...} span.
func Parse[T any](content string) (T, error) {
	var result T
	content = strings.TrimSpace(content)

	for _, candidate := range candidates(content) {
		if err := json.Unmarshal([]byte(candidate), &result); err == nil {
			return result, nil
		}
		result = *new(T)
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

// SplitReasoning separates a leading <think>...</think> trace from the body.
// Content without a trace is returned unchanged with an empty trace.
func SplitReasoning(content string) (trace, body string) {
	m := thinkRegex.FindStringSubmatchIndex(content)
	if m == nil {
		return "", strings.TrimSpace(content)
	}
	trace = strings.TrimSpace(content[m[2]:m[3]])
	body = strings.TrimSpace(content[:m[0]] + content[m[1]:])
	return trace, body
}

func candidates(content string) []string {
	out := []string{content}

	if m := jsonBlockRegex.FindStringSubmatch(content); len(m) >= 2 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
