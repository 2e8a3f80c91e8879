package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/horeca-group/horeca-cli/internal/resilience"
	"github.com/horeca-group/horeca-cli/pkg/anthropic"
)

// claudePrompt asks for strict JSON so the response parses without a
// second extraction pass.
const claudePrompt = `You are analyzing text from a Spanish hospitality venue (a menu, review corpus, or photo transcription). Identify which of the candidate beverage/food brands are actually offered by the venue. Match brand variants and Spanish spellings. Do not infer brands that are not evidenced by the text.

Respond with ONLY valid JSON, no other text:
{"brands": [{"brand": "...", "confidence": 0.0}]}
Confidence is 0.0-1.0.`

// maxMaterialChars truncates the material sent to Claude.
const maxMaterialChars = 16000

// ClaudeDetector finds brands using a Claude model. It recognizes
// paraphrased and misspelled brand mentions the keyword detector misses,
// at API-call cost, so it is used selectively (the analyze command gates
// it behind a flag).
type ClaudeDetector struct {
	client anthropic.Client
	model  string
	retry  resilience.RetryConfig
}

// NewClaudeDetector creates a ClaudeDetector using the given model ID.
func NewClaudeDetector(client anthropic.Client, model string) *ClaudeDetector {
	return &ClaudeDetector{
		client: client,
		model:  model,
		retry:  resilience.DefaultRetryConfig(),
	}
}

type claudeResponse struct {
	Brands []struct {
		Brand      string  `json:"brand"`
		Confidence float64 `json:"confidence"`
	} `json:"brands"`
}

// DetectBrands sends the material and candidate brand list to Claude and
// parses the detected set. Transient API failures are retried; anything
// else surfaces as an error for the caller's best-effort policy to absorb.
func (d *ClaudeDetector) DetectBrands(ctx context.Context, material string, catalog *Catalog) ([]Detection, error) {
	if strings.TrimSpace(material) == "" {
		return nil, nil
	}
	if len(material) > maxMaterialChars {
		// Back off to a rune boundary so the truncated text stays valid
		// UTF-8; the API rejects requests with broken encoding.
		cut := maxMaterialChars
		for cut > 0 && !utf8.RuneStart(material[cut]) {
			cut--
		}
		material = material[:cut]
	}

	userMsg := fmt.Sprintf("Candidate brands: %s\n\nVenue text:\n%s",
		strings.Join(catalog.BrandNames(), ", "), material)

	var resp *anthropic.MessageResponse
	err := resilience.Do(ctx, d.retry, func(ctx context.Context) error {
		var callErr error
		resp, callErr = d.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     d.model,
			MaxTokens: 1024,
			System:    claudePrompt,
			Messages:  []anthropic.Message{{Role: "user", Content: userMsg}},
		})
		return callErr
	})
	if err != nil {
		return nil, eris.Wrap(err, "detect: claude request")
	}

	text := resp.Text()
	if text == "" {
		return nil, eris.New("detect: empty claude response")
	}
	resp.Usage.LogCost(d.model, "detect")

	// The model may wrap the JSON in prose despite the prompt.
	jsonStart := strings.Index(text, "{")
	jsonEnd := strings.LastIndex(text, "}")
	if jsonStart < 0 || jsonEnd <= jsonStart {
		return nil, eris.Errorf("detect: no JSON in response: %s", text)
	}

	var parsed claudeResponse
	if err := json.Unmarshal([]byte(text[jsonStart:jsonEnd+1]), &parsed); err != nil {
		return nil, eris.Wrap(err, "detect: parse response JSON")
	}

	// Keep only brands that exist in the catalog; the model sometimes
	// invents close-but-wrong names.
	categoryOf := make(map[string]string)
	for _, cat := range catalog.Categories {
		for _, b := range cat.Brands {
			categoryOf[b.Name] = cat.Name
		}
	}

	var found []Detection
	for _, b := range parsed.Brands {
		category, ok := categoryOf[b.Brand]
		if !ok {
			continue
		}
		confidence := b.Confidence * 100
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 100 {
			confidence = 100
		}
		found = append(found, Detection{
			Brand:      b.Brand,
			Category:   category,
			Confidence: confidence,
		})
	}
	return found, nil
}
