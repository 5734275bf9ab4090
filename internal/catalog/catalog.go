// Package catalog holds the fixed, ordered list of practice sentences.
package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// DefaultSentences are ordered by difficulty.
var DefaultSentences = []string{
	"Hello, how are you?",
	"The weather is nice today.",
	"She sells seashells by the seashore.",
	"I would like a cup of coffee, please.",
	"The quick brown fox jumps over the lazy dog.",
	"Peter Piper picked a peck of pickled peppers.",
	"How much wood would a woodchuck chuck if a woodchuck could chuck wood?",
}

// Sentence is one practice sentence. Index is 0-based.
type Sentence struct {
	Index int
	Text  string
}

// Number is the 1-based position shown to the learner.
func (s Sentence) Number() int {
	return s.Index + 1
}

// InputError reports a selection that does not name a sentence.
type InputError struct {
	Input string
	Max   int
}

func (e *InputError) Error() string {
	return fmt.Sprintf("Please enter a number between 1 and %d", e.Max)
}

// Catalog is read-only after construction.
type Catalog struct {
	sentences []Sentence
}

// New builds a catalog from texts. Blank entries are rejected.
func New(texts []string) (*Catalog, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("catalog needs at least one sentence")
	}
	sentences := make([]Sentence, len(texts))
	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("sentence %d is empty", i+1)
		}
		sentences[i] = Sentence{Index: i, Text: text}
	}
	return &Catalog{sentences: sentences}, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultSentences)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of sentences.
func (c *Catalog) Len() int {
	return len(c.sentences)
}

// Get returns the sentence at a 0-based index.
func (c *Catalog) Get(index int) (Sentence, error) {
	if index < 0 || index >= len(c.sentences) {
		return Sentence{}, &InputError{Input: strconv.Itoa(index + 1), Max: len(c.sentences)}
	}
	return c.sentences[index], nil
}

// Select resolves a learner's 1-based selection such as "3".
func (c *Catalog) Select(input string) (Sentence, error) {
	trimmed := strings.TrimSpace(input)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return Sentence{}, &InputError{Input: trimmed, Max: len(c.sentences)}
	}
	s, err := c.Get(n - 1)
	if err != nil {
		return Sentence{}, &InputError{Input: trimmed, Max: len(c.sentences)}
	}
	return s, nil
}

// All returns a copy of the sentences in order.
func (c *Catalog) All() []Sentence {
	out := make([]Sentence, len(c.sentences))
	copy(out, c.sentences)
	return out
}

// File is the TOML layout accepted by LoadFile:
//
//	sentences = ["Hello, how are you?", "..."]
type File struct {
	Sentences []string `toml:"sentences"`
}

// LoadFile reads a catalog from a TOML file.
func LoadFile(path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("sentence file path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat sentence file: %w", err)
	}
	var f File
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sentence file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in sentence file: %v", undecoded)
	}
	c, err := New(f.Sentences)
	if err != nil {
		return nil, fmt.Errorf("invalid sentence file %s: %w", path, err)
	}
	return c, nil
}

// Open returns the catalog from path, or the built-in one when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
