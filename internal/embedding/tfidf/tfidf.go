// Package tfidf is a local TF-IDF embedder built over the knowledge chunks.
package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	errEmptyCorpus = errors.New("tfidf: empty corpus")
	errNoTerms     = errors.New("tfidf: no terms in corpus")
	errNotPrepared = errors.New("tfidf: embedder not prepared")
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

type term struct {
	index int
	idf   float64
}

// Embedder maps text onto a fixed vocabulary learned in Prepare.
type Embedder struct {
	terms     map[string]term
	stopwords map[string]struct{}
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{stopwords: defaultStopwords()}
}

func (e *Embedder) Name() string { return "tfidf" }

// Prepare learns the vocabulary and smoothed IDF weights from the chunk texts.
// Terms are indexed in sorted order so vectors are stable across runs.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errEmptyCorpus
	}
	df := make(map[string]int)
	for _, text := range corpus {
		for tok := range e.termCounts(text) {
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errNoTerms
	}
	words := make([]string, 0, len(df))
	for w := range df {
		words = append(words, w)
	}
	sort.Strings(words)

	n := float64(len(corpus))
	e.terms = make(map[string]term, len(words))
	for i, w := range words {
		e.terms[w] = term{index: i, idf: math.Log((1+n)/(1+float64(df[w]))) + 1}
	}
	return nil
}

// Dimension returns the vocabulary size, 0 before Prepare.
func (e *Embedder) Dimension() int { return len(e.terms) }

// Embed returns the L2-normalized TF-IDF vector of text.
// Text without known terms yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	if e.terms == nil {
		return nil, errNotPrepared
	}
	vec := make([]float64, len(e.terms))
	counts := e.termCounts(text)
	total := 0
	for w, c := range counts {
		if _, ok := e.terms[w]; ok {
			total += c
		}
	}
	if total == 0 {
		return vec, nil
	}
	for w, c := range counts {
		if t, ok := e.terms[w]; ok {
			vec[t.index] = float64(c) / float64(total) * t.idf
		}
	}
	// summed in index order so equal texts give bit-identical vectors
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func (e *Embedder) termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if _, stop := e.stopwords[w]; !stop {
			counts[w]++
		}
	}
	return counts
}

func defaultStopwords() map[string]struct{} {
	m := make(map[string]struct{})
	for _, w := range strings.Fields(`
		a an the and or but if then else for to of in on at by with as
		is are was were be been being it its this that these those from
		up down over under again further than so such into about between
		through during before after above below out off own same too very
		can will just don should now
		what who how when where which do does did you your we our us
		i me my tell please`) {
		m[w] = struct{}{}
	}
	return m
}
