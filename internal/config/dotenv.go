package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/maps"
)

// DotEnvPath returns the absolute path to talkrec's dotenv file (~/.talkrec/.env).
func DotEnvPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// ParseDotEnv reads a dotenv file and returns key/value pairs. A missing file yields
// an empty map.
//
// Parsing rules:
// - Lines starting with '#' are ignored.
// - Empty lines are ignored.
// - Lines must be of form KEY=VALUE; an optional leading "export " is dropped.
// - Whitespace around KEY is trimmed.
// - VALUE is taken as-is, except that one pair of surrounding quotes is removed.
func ParseDotEnv(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("cannot open dotenv file %s: %w", path, err)
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		k := strings.TrimSpace(line[:i])
		v := line[i+1:]
		if k == "" {
			continue
		}
		if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
			v = v[1 : len(v)-1]
		}
		out[k] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read dotenv file %s: %w", path, err)
	}
	return out, nil
}

// DotEnv exposes TALKREC_* entries of a dotenv file as a koanf provider.
type DotEnv struct {
	path string
}

// DotEnvProvider returns a koanf provider reading path. Keys are mapped the same way as
// process environment variables; empty values are skipped so a fresh template
// does not blank out defaults.
func DotEnvProvider(path string) *DotEnv {
	return &DotEnv{path: path}
}

func (p *DotEnv) ReadBytes() ([]byte, error) {
	return nil, errors.New("dotenv provider does not support ReadBytes")
}

func (p *DotEnv) Read() (map[string]interface{}, error) {
	kv, err := ParseDotEnv(p.path)
	if err != nil {
		return nil, err
	}
	flat := make(map[string]interface{}, len(kv))
	for k, v := range kv {
		if !strings.HasPrefix(k, EnvPrefix) || v == "" || k == ConfigPathEnvVar {
			continue
		}
		flat[envKey(k)] = v
	}
	return maps.Unflatten(flat, "."), nil
}

// EnsureDotEnvTemplate creates ~/.talkrec/.env if it does not already exist.
//
// The template lists the common overrides with empty values.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"TALKREC_ARTIFACTS_DIR=\n" +
		"TALKREC_DEFAULT_K=\n" +
		"TALKREC_LOG__LEVEL=\n" +
		"TALKREC_SERVER__ADDR=\n"

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return nil
}
