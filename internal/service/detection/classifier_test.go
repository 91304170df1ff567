package detection

import (
	"context"
	"errors"
	"testing"

	"farmguardian/internal/model"
)

func okLoader(name string, calls *[]string) Loader {
	return Loader{Name: name, Load: func() (Classifier, error) {
		*calls = append(*calls, name)
		return ClassifierFunc(func(ctx context.Context, f Frame) ([]model.RawResult, error) { return nil, nil }), nil
	}}
}

func failingLoader(name string, calls *[]string) Loader {
	return Loader{Name: name, Load: func() (Classifier, error) {
		*calls = append(*calls, name)
		return nil, errors.New(name + " unavailable")
	}}
}

func TestInitClassifier_AcceleratedFirst(t *testing.T) {
	var calls []string
	c, err := InitClassifier(testLogger(), okLoader("cuda", &calls), okLoader("cpu", &calls))

	if err != nil || c == nil {
		t.Fatalf("Expected classifier, got err %v", err)
	}
	if len(calls) != 1 || calls[0] != "cuda" {
		t.Errorf("Expected only the accelerated loader to run, got %v", calls)
	}
}

func TestInitClassifier_FallsBackOnce(t *testing.T) {
	var calls []string
	c, err := InitClassifier(testLogger(), failingLoader("cuda", &calls), okLoader("cpu", &calls))

	if err != nil || c == nil {
		t.Fatalf("Expected fallback classifier, got err %v", err)
	}
	if len(calls) != 2 || calls[1] != "cpu" {
		t.Errorf("Expected [cuda cpu], got %v", calls)
	}
}

func TestInitClassifier_AllFail(t *testing.T) {
	var calls []string
	c, err := InitClassifier(testLogger(), failingLoader("cuda", &calls), failingLoader("cpu", &calls))

	if c != nil {
		t.Error("Expected no classifier")
	}
	if !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if len(calls) != 2 {
		t.Errorf("Expected each loader to be tried exactly once, got %v", calls)
	}
}

func TestInitClassifier_NoLoaders(t *testing.T) {
	if _, err := InitClassifier(testLogger()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}
