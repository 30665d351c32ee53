package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
)

type stubClassifier struct {
	result repositories.Classification
	err    error
}

func (s *stubClassifier) Classify(ctx context.Context, clip repositories.AudioClip) (repositories.Classification, error) {
	return s.result, s.err
}

func TestAnalyzeClipResolvesTranslation(t *testing.T) {
	svc := NewTranslationService(&stubClassifier{
		result: repositories.Classification{
			Species:    entities.SpeciesCat,
			Emotion:    "warning",
			Confidence: 0.9,
		},
	}, zap.NewNop())

	detection, err := svc.AnalyzeClip(context.Background(), repositories.AudioClip{Data: []byte("x")}, entities.SpeciesCat)
	if err != nil {
		t.Fatalf("AnalyzeClip failed: %v", err)
	}

	if detection.Emotion != "警告" {
		t.Errorf("Expected normalized emotion 警告, got %s", detection.Emotion)
	}
	if detection.RawLabel != "warning" {
		t.Errorf("Expected raw label preserved, got %s", detection.RawLabel)
	}
	if !detection.Translation.HasTranslation {
		t.Fatal("Expected translation for cat warning")
	}
	if detection.Translation.AudioAsset != "狗_警告.m4a" {
		t.Errorf("Expected asset 狗_警告.m4a, got %s", detection.Translation.AudioAsset)
	}
}

func TestAnalyzeClipFallbackSpecies(t *testing.T) {
	svc := NewTranslationService(&stubClassifier{
		result: repositories.Classification{Emotion: "begging", Confidence: 0.6},
	}, zap.NewNop())

	detection, err := svc.AnalyzeClip(context.Background(), repositories.AudioClip{Data: []byte("x")}, entities.SpeciesDog)
	if err != nil {
		t.Fatalf("AnalyzeClip failed: %v", err)
	}

	if detection.Species != entities.SpeciesDog {
		t.Errorf("Expected fallback species dog, got %s", detection.Species)
	}
	if detection.Emotion != "哀求" {
		t.Errorf("Expected 哀求, got %s", detection.Emotion)
	}
	if detection.Translation.TargetEmotion != "委屈" {
		t.Errorf("Expected dog 哀求 -> cat 委屈, got %s", detection.Translation.TargetEmotion)
	}
}

func TestAnalyzeClipInvalidFallbackDefaultsToCat(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewTranslationService(&stubClassifier{
		result: repositories.Classification{Emotion: "warning", Confidence: 0.5},
	}, zap.New(core))

	detection, err := svc.AnalyzeClip(context.Background(), repositories.AudioClip{Data: []byte("x")}, entities.Species("bird"))
	if err != nil {
		t.Fatalf("AnalyzeClip failed: %v", err)
	}

	if detection.Species != entities.SpeciesCat {
		t.Errorf("Expected cat default for invalid species inputs, got %s", detection.Species)
	}
	if logs.FilterMessage("No valid species from classifier or caller, assuming cat").Len() != 1 {
		t.Error("Expected a warning when both species inputs are invalid")
	}
}

func TestAnalyzeClipUnknownEmotionNotAnError(t *testing.T) {
	svc := NewTranslationService(&stubClassifier{
		result: repositories.Classification{
			Species: entities.SpeciesCat,
			Emotion: "zoomies",
		},
	}, zap.NewNop())

	detection, err := svc.AnalyzeClip(context.Background(), repositories.AudioClip{Data: []byte("x")}, entities.SpeciesCat)
	if err != nil {
		t.Fatalf("AnalyzeClip failed: %v", err)
	}
	if detection.Translation.HasTranslation {
		t.Errorf("Expected no translation for unknown emotion, got %+v", detection.Translation)
	}
	if detection.Emotion != "zoomies" {
		t.Errorf("Expected identity pass-through, got %s", detection.Emotion)
	}
}

func TestAnalyzeClipClassifierError(t *testing.T) {
	svc := NewTranslationService(&stubClassifier{err: repositories.ErrModelNotReady}, zap.NewNop())

	_, err := svc.AnalyzeClip(context.Background(), repositories.AudioClip{Data: []byte("x")}, entities.SpeciesCat)
	if !errors.Is(err, repositories.ErrModelNotReady) {
		t.Errorf("Expected wrapped ErrModelNotReady, got %v", err)
	}
}
