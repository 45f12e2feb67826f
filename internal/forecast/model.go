package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Model scores a feature vector. The production model is a gradient
// boosted ensemble exported to JSON; tests substitute simpler models.
type Model interface {
	Predict(features []float64) float64
	FeatureNames() []string
	FeatureImportances() map[string]float64
}

// stump is a single depth-1 regression tree.
type stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      float64 `json:"left"`
	Right     float64 `json:"right"`
}

// StumpEnsemble is a boosted sum of depth-1 trees plus a base score.
type StumpEnsemble struct {
	BaseScore float64  `json:"base_score"`
	Features  []string `json:"feature_names"`
	Trees     []stump  `json:"trees"`
}

// LoadModel reads a JSON ensemble dump from disk.
func LoadModel(path string) (*StumpEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var model StumpEnsemble
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	for i, tree := range model.Trees {
		if tree.Feature < 0 || tree.Feature >= len(model.Features) {
			return nil, fmt.Errorf("model tree %d: feature index %d out of range", i, tree.Feature)
		}
	}
	return &model, nil
}

// Predict sums the tree contributions on top of the base score.
func (m *StumpEnsemble) Predict(features []float64) float64 {
	score := m.BaseScore
	for _, tree := range m.Trees {
		if tree.Feature >= len(features) {
			continue
		}
		if features[tree.Feature] < tree.Threshold {
			score += tree.Left
		} else {
			score += tree.Right
		}
	}
	return score
}

// FeatureNames returns the ordered feature vector layout.
func (m *StumpEnsemble) FeatureNames() []string {
	return m.Features
}

// FeatureImportances sums each feature's absolute split contribution
// and normalises the totals to 1.
func (m *StumpEnsemble) FeatureImportances() map[string]float64 {
	raw := make(map[string]float64, len(m.Features))
	total := 0.0
	for _, tree := range m.Trees {
		gain := math.Abs(tree.Left - tree.Right)
		raw[m.Features[tree.Feature]] += gain
		total += gain
	}
	if total == 0 {
		return raw
	}
	for name, gain := range raw {
		raw[name] = gain / total
	}
	return raw
}
