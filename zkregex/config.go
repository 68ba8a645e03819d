// Package zkregex implements decomposed regexes: patterns split into an
// ordered list of public and private fragments. Matching locates one whole
// match and attributes a contiguous byte range to every fragment, so the
// public ranges can be revealed (and proven) while the private ones stay
// hidden. The engine is a hand-built Thompson NFA over a restricted dialect;
// a general-purpose regex library cannot report per-fragment boundaries.
package zkregex

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

// Part is one fragment of a decomposed regex.
type Part struct {
	IsPublic bool   `json:"isPublic"`
	RegexDef string `json:"regexDef"`
}

// Location names which canonicalized input a config applies to.
type Location string

const (
	LocationHeader Location = "header"
	LocationBody   Location = "body"
)

// Config is a named decomposed regex. MaxLength bounds the revealed bytes
// and sizes the corresponding circuit signal.
type Config struct {
	Name      string   `json:"name"`
	Parts     []Part   `json:"parts"`
	MaxLength int      `json:"maxLength,omitempty"`
	Location  Location `json:"location,omitempty"`
}

// Span is a half-open byte range [Start, End) in the matched input.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

//go:embed regexes/*.json
var regexesFS embed.FS

var loadBuiltins = sync.OnceValue(func() map[string]Config {
	entries, err := fs.ReadDir(regexesFS, "regexes")
	if err != nil {
		panic(fmt.Sprintf("embedded regex configs: %v", err))
	}
	configs := make(map[string]Config, len(entries))
	for _, e := range entries {
		raw, err := fs.ReadFile(regexesFS, "regexes/"+e.Name())
		if err != nil {
			panic(fmt.Sprintf("embedded regex config %s: %v", e.Name(), err))
		}
		var cfg Config
		if err := json.Unmarshal(raw, &cfg); err != nil {
			panic(fmt.Sprintf("embedded regex config %s: %v", e.Name(), err))
		}
		cfg.Name = strings.TrimSuffix(e.Name(), ".json")
		configs[cfg.Name] = cfg
	}
	return configs
})

// BuiltinConfig returns the embedded config with the given name.
func BuiltinConfig(name string) (Config, bool) {
	cfg, ok := loadBuiltins()[name]
	return cfg, ok
}
