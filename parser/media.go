// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package parser

import (
	"mime"
	"strings"
)

var shorthands = map[string]string{
	"json":       "application/json",
	"text":       "text/plain",
	"html":       "text/html",
	"bin":        "application/octet-stream",
	"urlencoded": "application/x-www-form-urlencoded",
}

// normalizeType expands shorthand types like "json", "urlencoded" or "+json"
// into full media type patterns.
func normalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if full, ok := shorthands[t]; ok {
		return full
	}
	switch {
	case strings.HasPrefix(t, "+"):
		return "*/*" + t
	case strings.Contains(t, "/"):
		return t
	}

	ext := mime.TypeByExtension("." + t)
	if ext == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ext)
	if err != nil {
		return ""
	}
	return mediaType
}

// matchType reports whether the media type matches pattern. Either side of
// the pattern may be "*" and a subtype pattern "*+suffix" matches any
// subtype with that suffix.
func matchType(pattern, mediaType string) bool {
	pType, pSub, ok := strings.Cut(pattern, "/")
	if !ok {
		return false
	}
	mType, mSub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return false
	}

	if pType != "*" && pType != mType {
		return false
	}
	if strings.HasPrefix(pSub, "*+") {
		return strings.HasSuffix(mSub, pSub[1:])
	}
	return pSub == "*" || pSub == mSub
}

// typeMatcher returns a func reporting whether a Content-Type header value
// matches any of the given types.
func typeMatcher(types []string) func(string) bool {
	patterns := make([]string, 0, len(types))
	for _, t := range types {
		p := normalizeType(t)
		if p == "" {
			continue
		}
		patterns = append(patterns, p)
	}

	return func(contentType string) bool {
		if contentType == "" {
			return false
		}
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return false
		}
		for _, p := range patterns {
			if matchType(p, mediaType) {
				return true
			}
		}
		return false
	}
}

func charsetOf(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}
