package classifier

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// tokenPattern matches runs of two or more word characters, the default
// token definition the vectorizer was fitted with.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]{2,}`)

// VectorizerSpec is the on-disk form of a fitted TF-IDF vectorizer.
type VectorizerSpec struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	Norm        string         `json:"norm"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	SublinearTF bool           `json:"sublinear_tf"`
}

// Vectorizer maps text to a fixed-length TF-IDF feature vector.
type Vectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	norm        string
	minN, maxN  int
	sublinearTF bool
}

func newVectorizer(spec VectorizerSpec) (*Vectorizer, error) {
	if len(spec.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer has an empty vocabulary")
	}
	if len(spec.IDF) != len(spec.Vocabulary) {
		return nil, fmt.Errorf("vectorizer has %d idf weights for %d terms", len(spec.IDF), len(spec.Vocabulary))
	}
	for term, idx := range spec.Vocabulary {
		if idx < 0 || idx >= len(spec.IDF) {
			return nil, fmt.Errorf("vectorizer term %q has out of range index %d", term, idx)
		}
	}

	minN, maxN := spec.NgramRange[0], spec.NgramRange[1]
	if minN == 0 && maxN == 0 {
		minN, maxN = 1, 1
	}
	if minN < 1 || maxN < minN {
		return nil, fmt.Errorf("vectorizer has invalid ngram range [%d, %d]", minN, maxN)
	}

	switch spec.Norm {
	case "", "l2", "l1":
	default:
		return nil, fmt.Errorf("vectorizer has unsupported norm %q", spec.Norm)
	}

	return &Vectorizer{
		vocabulary:  spec.Vocabulary,
		idf:         spec.IDF,
		norm:        spec.Norm,
		minN:        minN,
		maxN:        maxN,
		sublinearTF: spec.SublinearTF,
	}, nil
}

// Features is the length of every vector produced by Transform.
func (v *Vectorizer) Features() int {
	return len(v.idf)
}

// Transform converts already normalized text into a dense feature vector.
// Terms outside the vocabulary are ignored.
func (v *Vectorizer) Transform(text string) []float64 {
	vec := make([]float64, len(v.idf))

	tokens := tokenPattern.FindAllString(text, -1)
	for n := v.minN; n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			term := tokens[i]
			if n > 1 {
				term = strings.Join(tokens[i:i+n], " ")
			}
			if idx, ok := v.vocabulary[term]; ok {
				vec[idx]++
			}
		}
	}

	for i, tf := range vec {
		if tf == 0 {
			continue
		}
		if v.sublinearTF {
			tf = 1 + math.Log(tf)
		}
		vec[i] = tf * v.idf[i]
	}

	normalize(vec, v.norm)
	return vec
}

func normalize(vec []float64, norm string) {
	var total float64
	switch norm {
	case "l2":
		for _, x := range vec {
			total += x * x
		}
		total = math.Sqrt(total)
	case "l1":
		for _, x := range vec {
			total += math.Abs(x)
		}
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range vec {
		vec[i] /= total
	}
}
