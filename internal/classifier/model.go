package classifier

import (
	"fmt"
	"math"
)

// Supported model kinds.
const (
	KindForest = "forest"
	KindLinear = "linear"

	// Leaf marks a tree node without children.
	Leaf = -1
)

// Model predicts a probability for every class of a feature vector.
type Model interface {
	Classes() int
	Features() int
	PredictProba(x []float64) []float64
}

// ModelSpec is the on-disk form of a trained model. Kind selects which of
// the remaining fields are used.
type ModelSpec struct {
	Kind      string      `json:"kind"`
	Trees     []TreeSpec  `json:"trees,omitempty"`
	Coef      [][]float64 `json:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty"`
	NFeatures int         `json:"n_features"`
	NClasses  int         `json:"n_classes"`
}

// TreeSpec is one decision tree stored as a flat node array rooted at 0.
type TreeSpec struct {
	Nodes []NodeSpec `json:"nodes"`
}

// NodeSpec is a split node, or a leaf when Left is -1.
type NodeSpec struct {
	Value     []float64 `json:"value,omitempty"`
	Threshold float64   `json:"threshold"`
	Feature   int       `json:"feature"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
}

func newModel(spec ModelSpec) (Model, error) {
	if spec.NClasses < 2 {
		return nil, fmt.Errorf("model must have at least 2 classes, has %d", spec.NClasses)
	}
	if spec.NFeatures < 1 {
		return nil, fmt.Errorf("model must have at least 1 feature, has %d", spec.NFeatures)
	}

	switch spec.Kind {
	case KindForest:
		return newForest(spec)
	case KindLinear:
		return newLinear(spec)
	default:
		return nil, fmt.Errorf("unsupported model kind %q", spec.Kind)
	}
}

// Forest averages the normalized leaf distributions of decision trees.
type Forest struct {
	trees     []TreeSpec
	nFeatures int
	nClasses  int
}

func newForest(spec ModelSpec) (*Forest, error) {
	if len(spec.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	for t, tree := range spec.Trees {
		if len(tree.Nodes) == 0 {
			return nil, fmt.Errorf("tree %d has no nodes", t)
		}
		for i, node := range tree.Nodes {
			if node.Left == Leaf {
				if len(node.Value) != spec.NClasses {
					return nil, fmt.Errorf("tree %d leaf %d has %d class values, want %d", t, i, len(node.Value), spec.NClasses)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= spec.NFeatures {
				return nil, fmt.Errorf("tree %d node %d splits on unknown feature %d", t, i, node.Feature)
			}
			// Children always follow their parent, which rules out cycles.
			if node.Left <= i || node.Left >= len(tree.Nodes) || node.Right <= i || node.Right >= len(tree.Nodes) {
				return nil, fmt.Errorf("tree %d node %d has invalid children %d/%d", t, i, node.Left, node.Right)
			}
		}
	}
	return &Forest{trees: spec.Trees, nFeatures: spec.NFeatures, nClasses: spec.NClasses}, nil
}

// Classes implements Model.
func (f *Forest) Classes() int { return f.nClasses }

// Features implements Model.
func (f *Forest) Features() int { return f.nFeatures }

// PredictProba implements Model.
func (f *Forest) PredictProba(x []float64) []float64 {
	proba := make([]float64, f.nClasses)
	for _, tree := range f.trees {
		node := tree.Nodes[0]
		for node.Left != Leaf {
			if x[node.Feature] <= node.Threshold {
				node = tree.Nodes[node.Left]
			} else {
				node = tree.Nodes[node.Right]
			}
		}

		var total float64
		for _, v := range node.Value {
			total += v
		}
		if total == 0 {
			continue
		}
		for c, v := range node.Value {
			proba[c] += v / total
		}
	}

	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba
}

// Linear is a multinomial logistic regression. A single coefficient row is
// treated as the binary case.
type Linear struct {
	coef      [][]float64
	intercept []float64
	nClasses  int
}

func newLinear(spec ModelSpec) (*Linear, error) {
	rows := spec.NClasses
	if spec.NClasses == 2 && len(spec.Coef) == 1 {
		rows = 1
	}
	if len(spec.Coef) != rows || len(spec.Intercept) != rows {
		return nil, fmt.Errorf("linear model has %d coefficient rows and %d intercepts, want %d",
			len(spec.Coef), len(spec.Intercept), rows)
	}
	for i, row := range spec.Coef {
		if len(row) != spec.NFeatures {
			return nil, fmt.Errorf("linear coefficient row %d has %d features, want %d", i, len(row), spec.NFeatures)
		}
	}
	return &Linear{coef: spec.Coef, intercept: spec.Intercept, nClasses: spec.NClasses}, nil
}

// Classes implements Model.
func (l *Linear) Classes() int { return l.nClasses }

// Features implements Model.
func (l *Linear) Features() int { return len(l.coef[0]) }

// PredictProba implements Model.
func (l *Linear) PredictProba(x []float64) []float64 {
	scores := make([]float64, len(l.coef))
	for i, row := range l.coef {
		score := l.intercept[i]
		for j, w := range row {
			score += w * x[j]
		}
		scores[i] = score
	}

	if len(scores) == 1 {
		p := 1 / (1 + math.Exp(-scores[0]))
		return []float64{1 - p, p}
	}

	maxScore := math.Inf(-1)
	for _, s := range scores {
		maxScore = math.Max(maxScore, s)
	}
	var total float64
	for i, s := range scores {
		scores[i] = math.Exp(s - maxScore)
		total += scores[i]
	}
	for i := range scores {
		scores[i] /= total
	}
	return scores
}
