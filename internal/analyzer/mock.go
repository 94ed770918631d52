package analyzer

import "context"

// MockClassifier returns a fixed result, for tests that should not call a
// real model.
type MockClassifier struct {
	Result AnalysisResult
	Err    error
}

func (m *MockClassifier) Classify(ctx context.Context, text string) (AnalysisResult, error) {
	return m.Result, m.Err
}
