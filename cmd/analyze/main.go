package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/arielmc/vintage-wizard-sub001/internal/imaging"
	"github.com/arielmc/vintage-wizard-sub001/internal/llm"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-path> [<image-path> ...]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Required\n")
		os.Exit(1)
	}

	var images []llm.Image
	for _, path := range os.Args[1:] {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read image %s: %v\n", path, err)
			os.Exit(1)
		}
		compressed, err := imaging.Compress(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to compress image %s: %v\n", path, err)
			os.Exit(1)
		}
		images = append(images, llm.Image{Data: compressed, MIME: "image/jpeg"})
	}

	ctx := context.Background()
	analyzer, err := llm.NewGeminiAnalyzer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating analyzer: %v\n", err)
		os.Exit(1)
	}

	result, err := analyzer.AnalyzeItem(ctx, images, "", llm.ItemContext{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing: %v\n", err)
		os.Exit(1)
	}

	printResult(result)
}

func printResult(result *llm.AnalysisResult) {
	attrs := result.Attributes

	if attrs.Unstructured {
		fmt.Println("(unstructured response)")
		fmt.Println(attrs.Description)
	} else {
		fmt.Printf("Title:       %s\n", attrs.Title)
		fmt.Printf("Category:    %s\n", attrs.Category)
		fmt.Printf("Maker:       %s\n", attrs.Maker)
		fmt.Printf("Style:       %s\n", attrs.Style)
		fmt.Printf("Era:         %s\n", attrs.Era)
		fmt.Printf("Materials:   %s\n", attrs.Materials)
		fmt.Printf("Condition:   %s\n", attrs.Condition)
		fmt.Printf("Markings:    %s\n", attrs.Markings)
		fmt.Printf("Description: %s\n", attrs.Description)
		fmt.Printf("Valuation:   %.0f - %.0f (%s)\n", attrs.ValuationLow, attrs.ValuationHigh, attrs.Confidence)
		if len(attrs.ClarificationQuestions) > 0 {
			fmt.Printf("Questions:   %s\n", strings.Join(attrs.ClarificationQuestions, " | "))
		}
	}

	fmt.Println()
	fmt.Printf("Tokens:      %d in / %d out / %d total\n",
		result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.TotalTokens)
	fmt.Printf("Cost:        $%.6f\n", result.Usage.CostUSD)
}
