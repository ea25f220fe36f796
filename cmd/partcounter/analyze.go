package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/partsbench/partcounter/internal/config"
	"github.com/partsbench/partcounter/internal/detection"
	"github.com/partsbench/partcounter/internal/imaging"
)

var (
	analyzeOutput     string
	analyzeConfidence float64
)

var analyzeCommand = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a single tray image and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAnalyze(args[0])
	},
}

func init() {
	analyzeCommand.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write the annotated image to this path")
	analyzeCommand.Flags().Float64VarP(&analyzeConfidence, "min-confidence", "m", detection.DefaultMinConfidence,
		"Acceptance threshold, clamped to [0.1, 0.9]")
}

func runAnalyze(path string) {
	img, err := imaging.LoadFile(path)
	if err != nil {
		logrus.Fatalf("load image: %s", err.Error())
	}

	pipeline := detection.NewPipeline(analyzeConfidence)
	res := pipeline.Process(img)

	if analyzeOutput != "" {
		var sum float64
		for _, obj := range res.Objects {
			sum += obj.Confidence
		}
		avg := 0.0
		if len(res.Objects) > 0 {
			avg = sum / float64(len(res.Objects))
		}

		annotated := detection.Annotate(img, res, detection.Summary{
			MostFrequent:  res.Count,
			AvgConfidence: avg,
		}, detection.DefaultPalette())

		quality := config.DefaultConfig().Detection.JPEGQuality
		if err := imaging.SaveJPEG(annotated, analyzeOutput, quality); err != nil {
			logrus.Fatalf("save annotated image: %s", err.Error())
		}
		logrus.Infof("annotated image written to %s", analyzeOutput)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		logrus.Fatalf("encode result: %s", err.Error())
	}
	fmt.Println(string(out))
}
