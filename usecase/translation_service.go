package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/capture"
	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/domain/repositories"
	"github.com/hanyuwei/petbabel/server/translation"
)

// TranslationService runs the full detection pipeline: classify a clip,
// normalize the raw label, resolve the cross-species translation.
type TranslationService struct {
	classifier repositories.EmotionClassifier
	logger     *zap.Logger
}

// NewTranslationService creates a new translation service
func NewTranslationService(classifier repositories.EmotionClassifier, logger *zap.Logger) *TranslationService {
	return &TranslationService{
		classifier: classifier,
		logger:     logger,
	}
}

// AnalyzeClip classifies the clip and attaches the resolved translation.
// fallback names the species assumed when the classifier does not report
// one; when the fallback is invalid too, the detection defaults to cat and
// the assumption is logged. A missing translation is a normal outcome, not
// an error.
func (s *TranslationService) AnalyzeClip(ctx context.Context, clip repositories.AudioClip, fallback entities.Species) (entities.Detection, error) {
	result, err := s.classifier.Classify(ctx, clip)
	if err != nil {
		return entities.Detection{}, fmt.Errorf("classification failed: %w", err)
	}

	species := result.Species
	if !species.Valid() {
		species = fallback
	}
	if !species.Valid() {
		s.logger.Warn("No valid species from classifier or caller, assuming cat",
			zap.String("classifierSpecies", string(result.Species)),
			zap.String("fallbackSpecies", string(fallback)))
		species = entities.SpeciesCat
	}

	emotion := translation.NormalizeLabel(result.Emotion)

	detection := entities.Detection{
		Species:     species,
		Emotion:     emotion,
		RawLabel:    result.Emotion,
		Confidence:  result.Confidence,
		AllEmotions: result.AllEmotions,
		Translation: translation.Translate(species, emotion),
	}

	s.logger.Info("Clip analyzed",
		zap.String("species", string(species)),
		zap.String("emotion", string(emotion)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("hasTranslation", detection.Translation.HasTranslation))

	return detection, nil
}

// SubmitFunc adapts the pipeline for a capture session.
func (s *TranslationService) SubmitFunc(fallback entities.Species) capture.SubmitFunc {
	return func(ctx context.Context, clip []byte) (entities.Detection, error) {
		return s.AnalyzeClip(ctx, repositories.AudioClip{
			Filename: "recording.webm",
			Data:     clip,
		}, fallback)
	}
}
