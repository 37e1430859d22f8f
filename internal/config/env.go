package config

import (
	"strconv"
	"strings"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MDLIVE_"

// Environment variables, named after the settings they override.
// EnvExtensions is a comma separated list.
const (
	EnvLogLevel   = EnvPrefix + "LOG_LEVEL"
	EnvStrict     = EnvPrefix + "STRICT"
	EnvPlatform   = EnvPrefix + "PLATFORM"
	EnvExtensions = EnvPrefix + "EXTENSIONS"
	EnvHTML       = EnvPrefix + "HTML"
	EnvBreaks     = EnvPrefix + "BREAKS"
	EnvCacheSize  = EnvPrefix + "CACHE_SIZE"
)

// ApplyEnv overrides settings from environment variables found through
// lookup. Empty values are treated as set.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvPlatform); ok {
		cfg.Commands.Platform = v
	}
	if v, ok := lookup(EnvExtensions); ok {
		cfg.Markdown.Extensions = splitList(v)
	}

	bools := []struct {
		env    string
		path   string
		target *bool
	}{
		{EnvStrict, "strict", &cfg.Strict},
		{EnvHTML, "markdown.html", &cfg.Markdown.HTML},
		{EnvBreaks, "markdown.breaks", &cfg.Markdown.Breaks},
	}
	for _, b := range bools {
		v, ok := lookup(b.env)
		if !ok {
			continue
		}
		parsed, ok := parseBool(v)
		if !ok {
			return invalid(b.path, v, "%s must be a boolean", b.env)
		}
		*b.target = parsed
	}

	if v, ok := lookup(EnvCacheSize); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return invalid("highlight.cache_size", v, "%s must be an integer", EnvCacheSize)
		}
		cfg.Highlight.CacheSize = n
	}
	return nil
}

// parseBool accepts the usual spellings of true and false.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "on", "1":
		return true, true
	case "false", "no", "off", "0", "":
		return false, true
	default:
		return false, false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
