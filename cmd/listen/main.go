// Command listen runs the auto-detect loop against the local microphone and
// prints each detection. Useful for trying the pipeline without a device.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hanyuwei/petbabel/server/adapters/classifier"
	"github.com/hanyuwei/petbabel/server/adapters/mic"
	"github.com/hanyuwei/petbabel/server/capture"
	"github.com/hanyuwei/petbabel/server/domain/entities"
	"github.com/hanyuwei/petbabel/server/usecase"
)

func main() {
	species := flag.String("species", "cat", "species to assume when the classifier does not report one")
	threshold := flag.Float64("threshold", 0, "amplitude trigger threshold (0 = default)")
	cooldown := flag.Duration("cooldown", 0, "minimum gap between captures (0 = default)")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}

	emotionClassifier := classifier.NewHTTPClassifier(classifier.NewConfigFromEnv(), logger)
	translator := usecase.NewTranslationService(emotionClassifier, logger)

	cfg := capture.DefaultConfig()
	if *threshold > 0 {
		cfg.Threshold = *threshold
	}
	if *cooldown > 0 {
		cfg.Cooldown = *cooldown
	}

	session := capture.NewSession(cfg, mic.New(), translator.SubmitFunc(entities.Species(*species)), logger)
	session.OnDetection(func(d entities.Detection) {
		if d.Translation.HasTranslation {
			fmt.Printf("%s %s (%.0f%%) -> %s %s [%s]\n",
				d.Species, d.Emotion, d.Confidence*100,
				d.Translation.TargetSpecies, d.Translation.TargetEmotion,
				d.Translation.AudioAsset)
		} else {
			fmt.Printf("%s %s (%.0f%%) -> no translation\n",
				d.Species, d.Emotion, d.Confidence*100)
		}
	})
	session.OnError(func(err error) {
		fmt.Fprintf(os.Stderr, "capture failed: %v\n", err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := session.Start(ctx); err != nil {
		cancel()
		logger.Fatal("Failed to start listening", zap.Error(err))
	}
	cancel()

	fmt.Println("listening... press Ctrl-C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	session.Stop()
}
