package dedup

import (
	"math"
	"sort"
	"strings"
)

// Vectorizer mirrors the shared TF-IDF primitive of spec.md §4.3: word-level
// analyzer over the dedup token pattern, a configurable n-gram range, a
// bounded vocabulary, and an injectable stopword list. No example repo in
// the corpus vendors a TF-IDF library, so this reimplements sklearn's
// smoothed-idf, L2-normalized convention directly (see DESIGN.md).
type Vectorizer struct {
	NgramMin    int
	NgramMax    int
	MaxFeatures int
	StopWords   map[string]struct{}
}

// NewVectorizer returns a Vectorizer for the given n-gram range. Pass (1, 3)
// for intra-batch dedup and (1, 1) elsewhere, per spec.md §4.3.
func NewVectorizer(ngramMin, ngramMax int) *Vectorizer {
	return &Vectorizer{NgramMin: ngramMin, NgramMax: ngramMax, MaxFeatures: 5000}
}

// WithStopWords injects a domain stopword list, excluded from n-gram
// construction.
func (v *Vectorizer) WithStopWords(words []string) *Vectorizer {
	v.StopWords = make(map[string]struct{}, len(words))
	for _, w := range words {
		v.StopWords[strings.ToLower(w)] = struct{}{}
	}
	return v
}

func (v *Vectorizer) ngramsFor(doc string) []string {
	tokens := Tokenize(Normalize(doc))
	if v.StopWords != nil {
		filtered := make([]string, 0, len(tokens))
		for _, t := range tokens {
			if _, skip := v.StopWords[t]; !skip {
				filtered = append(filtered, t)
			}
		}
		tokens = filtered
	}

	var grams []string
	for n := v.NgramMin; n <= v.NgramMax; n++ {
		if n < 1 || n > len(tokens) {
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			grams = append(grams, strings.Join(tokens[i:i+n], " "))
		}
	}
	return grams
}

// Model is a fitted TF-IDF vectorizer: a bounded vocabulary plus
// document-frequency-derived idf weights.
type Model struct {
	vocab map[string]int
	idf   []float64
}

// Fit builds the vocabulary (top MaxFeatures n-grams by corpus frequency,
// ties broken alphabetically) and idf weights over docs: idf = ln((1+n)/(1+df)) + 1.
func (v *Vectorizer) Fit(docs []string) *Model {
	termDocFreq := make(map[string]int)
	termCorpusFreq := make(map[string]int)

	for _, doc := range docs {
		grams := v.ngramsFor(doc)
		seen := make(map[string]struct{}, len(grams))
		for _, g := range grams {
			termCorpusFreq[g]++
			if _, ok := seen[g]; !ok {
				seen[g] = struct{}{}
				termDocFreq[g]++
			}
		}
	}

	terms := make([]string, 0, len(termCorpusFreq))
	for t := range termCorpusFreq {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termCorpusFreq[terms[i]] != termCorpusFreq[terms[j]] {
			return termCorpusFreq[terms[i]] > termCorpusFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, t := range terms {
		vocab[t] = i
		df := float64(termDocFreq[t])
		idf[i] = math.Log((1+n)/(1+df)) + 1
	}

	return &Model{vocab: vocab, idf: idf}
}

// Row is a sparse, L2-normalized TF-IDF document vector keyed by vocabulary
// column index.
type Row map[int]float64

// Transform vectorizes a single document against a fitted model.
func (v *Vectorizer) Transform(m *Model, doc string) Row {
	grams := v.ngramsFor(doc)
	if len(grams) == 0 || len(m.vocab) == 0 {
		return Row{}
	}

	tf := make(map[int]float64)
	for _, g := range grams {
		if col, ok := m.vocab[g]; ok {
			tf[col]++
		}
	}
	if len(tf) == 0 {
		return Row{}
	}

	row := make(Row, len(tf))
	var normSq float64
	for col, count := range tf {
		weight := count * m.idf[col]
		row[col] = weight
		normSq += weight * weight
	}
	if normSq == 0 {
		return Row{}
	}
	norm := math.Sqrt(normSq)
	for col := range row {
		row[col] /= norm
	}
	return row
}

// FitTransform fits a model over docs and returns one row per document, in
// input order.
func (v *Vectorizer) FitTransform(docs []string) (*Model, []Row) {
	model := v.Fit(docs)
	rows := make([]Row, len(docs))
	for i, doc := range docs {
		rows[i] = v.Transform(model, doc)
	}
	return model, rows
}

// RowSum returns the sum of a row's weights, used as the "information
// richness" score in deduplicate_batch (spec.md §4.3 Phase 2 step 2).
func RowSum(r Row) float64 {
	var sum float64
	for _, w := range r {
		sum += w
	}
	return sum
}

// CosineSimilarity computes the cosine similarity between two rows. Since
// Transform emits L2-normalized vectors this is exactly their dot product.
func CosineSimilarity(a, b Row) float64 {
	small, large := a, b
	if len(a) > len(b) {
		small, large = b, a
	}
	var sum float64
	for col, va := range small {
		if vb, ok := large[col]; ok {
			sum += va * vb
		}
	}
	return sum
}
