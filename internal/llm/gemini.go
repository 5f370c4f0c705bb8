package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/arielmc/vintage-wizard-sub001/internal/catalog"
	"github.com/arielmc/vintage-wizard-sub001/internal/listing"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const (
	geminiModel = "gemini-3-flash-preview"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.50
	geminiOutputPricePerMillion = 3.00
)

const analysisPrompt = `Analyze these photos of a single secondhand/vintage item and identify and appraise it for a personal inventory catalogue.

%s
Respond in JSON format with these fields:
- title: A short, descriptive name for the item. Include maker and pattern/style if visible.
- category: The item's category (e.g. "Kitchenware", "Furniture", "Jewelry"). Empty string if unclear.
- maker: The maker or brand if identifiable (empty string if unknown)
- style: The style or pattern name if identifiable (empty string if unknown)
- era: The approximate era or decade (e.g. "1970s", "Mid-Century"). Empty string if unknown.
- materials: The primary materials (e.g. "Glass", "Oak, Brass"). Empty string if unknown.
- condition: A short condition assessment (e.g. "Good", "Fair, chip on rim")
- markings: Any visible maker's marks, stamps or signatures. Empty string if none visible.
- description: 2-3 sentences describing the item for a potential buyer
- valuation_low: Low resale estimate in USD as a number (0 if no estimate possible)
- valuation_high: High resale estimate in USD as a number (0 if no estimate possible)
- confidence: One of "high", "medium", "low", "speculative"
- confidence_rationale: One sentence explaining the confidence level
- clarification_questions: A list of 0-3 short questions whose answers would improve the appraisal (e.g. "Is there a stamp on the underside?")
- reasoning: A short human-readable explanation of how the item was identified

Example response:
{"title": "Pyrex Spring Blossom Casserole Dish", "category": "Kitchenware", "maker": "Pyrex", "style": "Spring Blossom", "era": "1970s", "materials": "Glass", "condition": "Good, light utensil marks", "markings": "Pyrex stamp on base", "description": "A green Pyrex casserole dish in the Spring Blossom pattern. Popular 1970s kitchenware in collectible condition.", "valuation_low": 15, "valuation_high": 35, "confidence": "medium", "confidence_rationale": "Pattern is clearly identifiable but the underside is not visible.", "clarification_questions": ["Does it include the original lid?"], "reasoning": "The green floral pattern matches Pyrex's Spring Blossom line produced 1972-1979."}

Respond ONLY with the JSON object, no markdown or other text.`

const listingGenerationPrompt = `Write marketplace listing copy for this secondhand/vintage item.

Item attributes:
%s
Tone instructions:
%s
Respond in JSON format with these fields:
- title: A listing title, at most 70 characters
- description: The full listing description

Respond ONLY with the JSON object, no markdown or other text.`

// GeminiAnalyzer uses Google's Gemini API for item analysis and listing
// copy generation.
type GeminiAnalyzer struct {
	client *genai.Client
}

// NewGeminiAnalyzer creates a new Gemini-based analyzer.
// It uses the GEMINI_API_KEY environment variable for authentication.
func NewGeminiAnalyzer(ctx context.Context) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiAnalyzer{client: client}, nil
}

// AnalyzeItem implements the Analyzer interface using Gemini.
// The response is parsed leniently: text that is not parseable as the
// expected structure is kept as an unstructured description rather than
// discarded.
func (g *GeminiAnalyzer) AnalyzeItem(ctx context.Context, images []Image, notes string, existing ItemContext) (*AnalysisResult, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images provided")
	}

	prompt := fmt.Sprintf(analysisPrompt, buildContextSection(existing, notes))

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	for _, img := range images {
		mime := img.MIME
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: img.Data, MIMEType: mime},
		})
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from Gemini")
	}

	attrs := parseAttributeSet(result.Text())

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateGeminiCost(usage.InputTokens, usage.OutputTokens)
	}

	log.Info().
		Str("model", geminiModel).
		Int("imageCount", len(images)).
		Bool("unstructured", attrs.Unstructured).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("item analysis llm call")

	return &AnalysisResult{Attributes: attrs, Usage: usage}, nil
}

// GenerateListing implements the ListingGenerator interface using Gemini.
// The response is accepted verbatim except the title, which is truncated at
// the last whole-word boundary before the fixed ceiling.
func (g *GeminiAnalyzer) GenerateListing(ctx context.Context, item ItemContext, valuation catalog.Valuation, tone ToneConfig) (*GeneratedListing, error) {
	tone.Normalize()

	prompt := fmt.Sprintf(listingGenerationPrompt,
		buildAttributeLines(item, valuation),
		buildToneInstructions(tone),
	)

	result, err := g.client.Models.GenerateContent(ctx, geminiModel, []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini listing generation failed: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	jsonStr, err := extractJSONObject(result.Text())
	if err != nil {
		return nil, err
	}

	var generated GeneratedListing
	if err := json.Unmarshal([]byte(jsonStr), &generated); err != nil {
		return nil, fmt.Errorf("failed to parse listing json: %w (response: %s)", err, jsonStr)
	}

	generated.Title = listing.TruncateAtWord(generated.Title, listing.MaxGeneratedTitleLen)
	if generated.Title == "" {
		generated.Title = listing.UntitledTitle
	}

	if result.UsageMetadata != nil {
		generated.Usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		generated.Usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		generated.Usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		generated.Usage.CostUSD = calculateGeminiCost(generated.Usage.InputTokens, generated.Usage.OutputTokens)
	}

	log.Info().
		Str("model", geminiModel).
		Int("salesIntensity", tone.SalesIntensity).
		Int("nerdFactor", tone.NerdFactor).
		Str("emojiStyle", string(tone.EmojiStyle)).
		Float64("costUSD", generated.Usage.CostUSD).
		Msg("listing generation llm call")

	return &generated, nil
}

// buildContextSection formats the user's notes, previously known fields and
// answered clarification questions for the analysis prompt.
func buildContextSection(existing ItemContext, notes string) string {
	var b strings.Builder

	known := []struct{ label, value string }{
		{"Title", existing.Title},
		{"Category", existing.Category},
		{"Maker", existing.Maker},
		{"Style", existing.Style},
		{"Era", existing.Era},
		{"Materials", existing.Materials},
		{"Condition", existing.Condition},
		{"Markings", existing.Markings},
	}

	var lines []string
	for _, f := range known {
		if strings.TrimSpace(f.value) != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.label, f.value))
		}
	}
	if len(lines) > 0 {
		b.WriteString("What is already known about the item (refine, do not contradict without visual evidence):\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}

	if strings.TrimSpace(notes) != "" {
		b.WriteString(fmt.Sprintf("Owner's notes: %s\n\n", strings.TrimSpace(notes)))
	}

	if len(existing.Answers) > 0 {
		b.WriteString("Answers to earlier clarification questions:\n")
		for q, a := range existing.Answers {
			if strings.TrimSpace(a) == "" {
				continue
			}
			b.WriteString(fmt.Sprintf("- Q: %s A: %s\n", q, a))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func buildAttributeLines(item ItemContext, valuation catalog.Valuation) string {
	fields := []struct{ label, value string }{
		{"Title", item.Title},
		{"Category", item.Category},
		{"Maker", item.Maker},
		{"Style", item.Style},
		{"Era", item.Era},
		{"Materials", item.Materials},
		{"Condition", item.Condition},
		{"Markings", item.Markings},
		{"Description", item.Description},
		{"Owner's notes", item.Notes},
	}

	var lines []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.label, f.value))
		}
	}
	if valuation.Low > 0 || valuation.High > 0 {
		lines = append(lines, fmt.Sprintf("- Estimated value: $%.0f-$%.0f", valuation.Low, valuation.High))
	}
	return strings.Join(lines, "\n") + "\n"
}

var salesIntensityInstructions = map[int]string{
	1: "Strictly factual. No sales language.",
	2: "Mostly factual with a light positive framing.",
	3: "Balanced: informative with moderate enthusiasm.",
	4: "Enthusiastic and persuasive, but honest.",
	5: "Maximum persuasion: urgency, superlatives, a strong call to action.",
}

var nerdFactorInstructions = map[int]string{
	1: "Write for a general audience. No jargon.",
	2: "Mostly accessible, a detail or two for the curious.",
	3: "Include some collector-relevant details and terminology.",
	4: "Assume an interested collector. Cite patterns, eras, production details.",
	5: "Full collector depth: pattern names, production years, maker history, rarity notes.",
}

func buildToneInstructions(tone ToneConfig) string {
	var lines []string
	lines = append(lines, "- Sales tone: "+salesIntensityInstructions[tone.SalesIntensity])
	lines = append(lines, "- Detail level: "+nerdFactorInstructions[tone.NerdFactor])

	switch tone.EmojiStyle {
	case EmojiFull:
		lines = append(lines, "- Use emoji generously throughout the listing.")
	case EmojiMinimal:
		lines = append(lines, "- Use at most one or two tasteful emoji.")
	default:
		lines = append(lines, "- Do not use any emoji.")
	}

	if tone.IncludeFunFact {
		lines = append(lines, "- Include one genuine fun fact about this kind of item.")
	}
	if tone.IncludeDadJoke {
		lines = append(lines, "- Work in one gentle dad joke.")
	}

	return strings.Join(lines, "\n") + "\n"
}

func calculateGeminiCost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * geminiInputPricePerMillion
	outputCost := float64(outputTokens) / 1_000_000 * geminiOutputPricePerMillion
	return inputCost + outputCost
}

// extractJSONObject extracts a JSON object from text that may contain
// markdown code blocks or other formatting.
func extractJSONObject(text string) (string, error) {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response: %s", text)
	}
	return text[start : end+1], nil
}

// parseAttributeSet parses the model's response. A response that fails
// structured parsing is kept: the raw text becomes the description and the
// result is flagged unstructured. This is a recoverable condition, not a
// failure.
func parseAttributeSet(text string) *AttributeSet {
	jsonStr, err := extractJSONObject(text)
	if err == nil {
		var attrs AttributeSet
		if err := json.Unmarshal([]byte(jsonStr), &attrs); err == nil {
			return &attrs
		}
		log.Warn().Str("response", jsonStr).Msg("analysis response not parseable as attribute set, keeping raw text")
	} else {
		log.Warn().Str("response", text).Msg("no JSON object in analysis response, keeping raw text")
	}

	return &AttributeSet{
		Description:  strings.TrimSpace(text),
		Unstructured: true,
	}
}
