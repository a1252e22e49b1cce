// Package grammar loads the phrase grammar the recognizer is constrained to.
//
// A grammar file is YAML: a constraint tag and a list of rules, each mapping
// one or more phrases to the semantic tags they produce.
//
//	tag: alarm-light
//	rules:
//	  - phrases: ["turn on the alarm light", "alarm light on"]
//	    tags: {device: "LIGHT", target: "ALARM", cmd: "ON"}
package grammar

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyGrammar    = errors.New("grammar has no rules")
	ErrEmptyRule       = errors.New("grammar rule has no phrases")
	ErrDuplicatePhrase = errors.New("phrase appears in more than one rule")
)

type Rule struct {
	Phrases []string          `yaml:"phrases"`
	Tags    map[string]string `yaml:"tags"`
}

type File struct {
	Tag   string `yaml:"tag"`
	Rules []Rule `yaml:"rules"`
}

// Grammar is a compiled File.
type Grammar struct {
	tag     string
	phrases map[string]map[string]string
}

func Load(fs afero.Fs, path string) (*Grammar, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading grammar file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing grammar: %w", err)
	}

	g, err := Compile(f)
	if err != nil {
		return nil, fmt.Errorf("compiling grammar %s: %w", path, err)
	}
	return g, nil
}

func Compile(f File) (*Grammar, error) {
	if len(f.Rules) == 0 {
		return nil, ErrEmptyGrammar
	}

	g := &Grammar{
		tag:     f.Tag,
		phrases: make(map[string]map[string]string),
	}

	for i, rule := range f.Rules {
		if len(rule.Phrases) == 0 {
			return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyRule)
		}
		for _, phrase := range rule.Phrases {
			key := Normalize(phrase)
			if key == "" {
				return nil, fmt.Errorf("rule %d: %w", i, ErrEmptyRule)
			}
			if _, dup := g.phrases[key]; dup {
				return nil, fmt.Errorf("%q: %w", phrase, ErrDuplicatePhrase)
			}
			g.phrases[key] = rule.Tags
		}
	}

	return g, nil
}

func (g *Grammar) Tag() string {
	return g.tag
}

func (g *Grammar) Len() int {
	return len(g.phrases)
}

// Match returns the semantic properties for text. A rule without tags still
// matches and yields an empty, non-nil map.
func (g *Grammar) Match(text string) (map[string][]string, bool) {
	tags, ok := g.phrases[Normalize(text)]
	if !ok {
		return nil, false
	}

	props := make(map[string][]string, len(tags))
	for name, value := range tags {
		props[name] = []string{value}
	}
	return props, true
}

// Normalize lowercases text, turns punctuation into spaces and collapses
// runs of whitespace.
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		if r == '\'' {
			return -1
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
