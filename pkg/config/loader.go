package config

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"sourcepack/pkg/packerr"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SOURCEPACK_"

// envKeys maps environment variable names (without EnvPrefix) to config keys.
var envKeys = map[string]string{
	"FORMAT":                  "format",
	"MODE":                    "mode",
	"COMPRESS":                "compress",
	"IGNORE_GIT":              "ignore.git",
	"IGNORE_BUILD":            "ignore.build",
	"IGNORE_GRADLE":           "ignore.gradle",
	"IGNORE_FILES":            "ignore.files",
	"IGNORE_EXTS":             "ignore.exts",
	"IGNORE_PATTERNS":         "ignore.patterns",
	"IGNORE_CASE_INSENSITIVE": "ignore.case_insensitive",
	"MAX_FILE_SIZE":           "max_file_size",
	"CLONE_TIMEOUT":           "clone.timeout",
	"CLONE_DEPTH":             "clone.depth",
	"CLONE_BRANCH":            "clone.branch",
	"CLONE_TOKEN":             "clone.token",
}

// Load merges defaults, the YAML file at path (skipped when path is empty) and
// SOURCEPACK_* environment variables, in increasing precedence.
//
// The file uses the same keys as the environment mapping, for example:
//
//	format: xml
//	compress: true
//	ignore:
//	  exts: [log, tmp]
//	  files: [secret.key]
//	clone:
//	  timeout: 30s
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, packerr.Wrap(err, packerr.KindConfig, "failed to load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, packerr.Wrap(err, packerr.KindConfig, "config file not accessible").WithPath(path)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, packerr.Wrap(err, packerr.KindConfig, "failed to parse config file").WithPath(path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.TrimPrefix(s, EnvPrefix)]
	}), nil); err != nil {
		return Config{}, packerr.Wrap(err, packerr.KindConfig, "failed to load environment variables")
	}

	cfg, err := fromKoanf(k)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func defaultMap() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"format":                  string(d.Format),
		"mode":                    string(d.Mode),
		"compress":                d.Compress,
		"ignore.git":              d.IgnoreGit,
		"ignore.build":            d.IgnoreBuild,
		"ignore.gradle":           d.IgnoreGradle,
		"ignore.files":            d.IgnoreFiles,
		"ignore.exts":             d.IgnoreExts,
		"ignore.patterns":         d.IgnorePatterns,
		"ignore.case_insensitive": d.IgnoreCaseInsensitive,
		"max_file_size":           d.MaxFileSize,
		"clone.timeout":           d.Clone.Timeout.String(),
		"clone.depth":             d.Clone.Depth,
		"clone.branch":            d.Clone.Branch,
		"clone.token":             d.Clone.Token,
	}
}

func fromKoanf(k *koanf.Koanf) (Config, error) {
	format, err := ParseFormat(k.String("format"))
	if err != nil {
		return Config{}, err
	}
	mode, err := ParseMode(k.String("mode"))
	if err != nil {
		return Config{}, err
	}
	timeout := k.Duration("clone.timeout")
	if raw := k.String("clone.timeout"); raw != "" && timeout == 0 && raw != "0" && raw != "0s" {
		return Config{}, packerr.Newf(packerr.KindConfig, "invalid clone timeout %q", raw)
	}

	r := &strictReader{k: k}
	cfg := Config{
		Compress:              r.bool("compress"),
		IgnoreGit:             r.bool("ignore.git"),
		IgnoreBuild:           r.bool("ignore.build"),
		IgnoreGradle:          r.bool("ignore.gradle"),
		Format:                format,
		Mode:                  mode,
		IgnoreFiles:           listValue(k, "ignore.files"),
		IgnoreExts:            listValue(k, "ignore.exts"),
		IgnorePatterns:        patternValue(k, "ignore.patterns"),
		IgnoreCaseInsensitive: r.bool("ignore.case_insensitive"),
		MaxFileSize:           r.int("max_file_size"),
		Clone: Clone{
			Timeout: timeout,
			Depth:   int(r.int("clone.depth")),
			Branch:  strings.TrimSpace(k.String("clone.branch")),
			Token:   k.String("clone.token"),
		},
	}
	if r.err != nil {
		return Config{}, r.err
	}
	return cfg, nil
}

// strictReader reads typed values and keeps the first value that does not
// parse, where koanf's own getters would return the zero value.
type strictReader struct {
	k   *koanf.Koanf
	err error
}

func (r *strictReader) bool(key string) bool {
	switch v := r.k.Get(key).(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err == nil {
			return b
		}
	}
	r.fail(key, "a boolean")
	return false
}

func (r *strictReader) int(key string) int64 {
	switch v := r.k.Get(key).(type) {
	case nil:
		return 0
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
	case float64:
		if v == math.Trunc(v) && math.Abs(v) <= math.MaxInt64 {
			return int64(v)
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return n
		}
	}
	r.fail(key, "an integer")
	return 0
}

func (r *strictReader) fail(key, want string) {
	if r.err == nil {
		r.err = packerr.Newf(packerr.KindConfig, "invalid %s %q: must be %s", key, fmt.Sprint(r.k.Get(key)), want)
	}
}

// listValue accepts either a YAML list or a comma-separated string.
func listValue(k *koanf.Koanf, key string) []string {
	switch v := k.Get(key).(type) {
	case string:
		return ParseList(v)
	case []string:
		return ParseList(strings.Join(v, ","))
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return ParseList(strings.Join(parts, ","))
	}
	return nil
}

// patternValue is like listValue but splits strings on newlines, since glob
// patterns may legitimately contain commas.
func patternValue(k *koanf.Koanf, key string) []string {
	switch v := k.Get(key).(type) {
	case string:
		return patternLines(strings.Split(v, "\n"))
	case []string:
		return patternLines(v)
	case []interface{}:
		lines := make([]string, 0, len(v))
		for _, p := range v {
			lines = append(lines, fmt.Sprint(p))
		}
		return patternLines(lines)
	}
	return nil
}

// ReadPatternFile reads gitignore-style lines from path, dropping blanks and comments.
func ReadPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, packerr.Wrap(err, packerr.KindConfig, "failed to open pattern file").WithPath(path)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, packerr.Wrap(err, packerr.KindConfig, "failed to read pattern file").WithPath(path)
	}
	return patternLines(lines), nil
}

func patternLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
