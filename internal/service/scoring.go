package service

import (
	"fmt"
	"math"
	"time"
)

const weightTolerance = 1e-6

// Weights are the relative importance of each matching metric. They sum to 1.
type Weights struct {
	DetourTime      float64
	ClosestDistance float64
	DetourDistance  float64
}

// Normalization holds the metric values at which a metric scores zero.
type Normalization struct {
	DetourTime        time.Duration
	ClosestDistanceKm float64
	DetourDistanceKm  float64
}

// DefaultWeights returns the standard weighting.
func DefaultWeights() Weights {
	return Weights{DetourTime: 0.5, ClosestDistance: 0.3, DetourDistance: 0.2}
}

// DefaultNormalization returns the standard normalization constants.
func DefaultNormalization() Normalization {
	return Normalization{
		DetourTime:        30 * time.Minute,
		ClosestDistanceKm: 5,
		DetourDistanceKm:  15,
	}
}

// Validate checks that the weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.DetourTime < 0 || w.ClosestDistance < 0 || w.DetourDistance < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
	}
	if sum := w.DetourTime + w.ClosestDistance + w.DetourDistance; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: sum is %f", ErrInvalidWeights, sum)
	}
	return nil
}

// Validate checks that every normalization constant is positive.
func (n Normalization) Validate() error {
	if n.DetourTime <= 0 || n.ClosestDistanceKm <= 0 || n.DetourDistanceKm <= 0 {
		return ErrInvalidNormalization
	}
	return nil
}

// Scorer computes matching scores.
type Scorer struct {
	weights Weights
	norm    Normalization
}

// NewScorer creates a new Scorer.
func NewScorer(weights Weights, norm Normalization) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := norm.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: weights, norm: norm}, nil
}

// Score returns a value in [0, 1]. It never increases when any metric grows.
func (s *Scorer) Score(detourTime time.Duration, closestDistanceKm, detourDistanceKm float64) float64 {
	score := s.weights.DetourTime*normalize(detourTime.Minutes(), s.norm.DetourTime.Minutes()) +
		s.weights.ClosestDistance*normalize(closestDistanceKm, s.norm.ClosestDistanceKm) +
		s.weights.DetourDistance*normalize(detourDistanceKm, s.norm.DetourDistanceKm)
	return clamp(score, 0, 1)
}

// normalize maps x to 1 at zero and 0 at n or beyond. Negative x counts as zero.
func normalize(x, n float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 1) {
		return 0
	}
	if x < 0 {
		x = 0
	}
	return clamp(1-x/n, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
