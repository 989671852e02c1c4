package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ksred/papertrade-api/pkg/money"
	"github.com/sashabaranov/go-openai"
)

const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"
)

// Sentiment is a classification of a set of headlines
type Sentiment struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// Classifier labels headlines as Positive, Neutral or Negative
type Classifier interface {
	Classify(ctx context.Context, headlines []string) (*Sentiment, error)
}

// OpenAIClassifier asks a chat completion model for the label
type OpenAIClassifier struct {
	client *openai.Client
	model  string
}

func NewOpenAIClassifier(apiKey, model string) *OpenAIClassifier {
	return NewOpenAIClassifierWithConfig(openai.DefaultConfig(apiKey), model)
}

func NewOpenAIClassifierWithConfig(cfg openai.ClientConfig, model string) *OpenAIClassifier {
	return &OpenAIClassifier{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const sentimentPrompt = `Analyze the sentiment of the following news headlines about a stock. Classify as Positive, Neutral, or Negative.
Provide a confidence score (0-1) and a short summary.

Headlines:
%s

Response format: JSON with keys: sentiment, confidence, summary`

func (c *OpenAIClassifier) Classify(ctx context.Context, headlines []string) (*Sentiment, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(sentimentPrompt, strings.Join(headlines, "\n"))},
		},
		MaxTokens: 200,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from openai")
	}

	var s Sentiment
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp.Choices[0].Message.Content)), &s); err != nil {
		return nil, fmt.Errorf("failed to parse sentiment: %w", err)
	}
	switch s.Sentiment {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
	default:
		return nil, fmt.Errorf("unexpected sentiment label %q", s.Sentiment)
	}
	s.Confidence = clamp01(s.Confidence)
	return &s, nil
}

var (
	positiveWords = []string{"growth", "profit", "rise", "increase", "expansion", "success", "strong", "bullish", "upgrade", "gains", "surge", "rally", "beats", "positive", "good", "excellent", "outperform"}
	negativeWords = []string{"loss", "decline", "fall", "drop", "crisis", "weak", "bearish", "downgrade", "scandal", "falls", "slump", "crash", "losses", "negative", "bad", "poor", "underperform"}
)

// KeywordClassifier counts words containing a positive or negative stem
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, headlines []string) (*Sentiment, error) {
	return keywordSentiment(headlines), nil
}

func keywordSentiment(headlines []string) *Sentiment {
	var positive, negative int
	for _, h := range headlines {
		for _, word := range strings.Fields(strings.ToLower(h)) {
			if containsAny(word, positiveWords) {
				positive++
			}
			if containsAny(word, negativeWords) {
				negative++
			}
		}
	}

	switch {
	case positive > negative:
		return &Sentiment{
			Sentiment:  SentimentPositive,
			Confidence: keywordConfidence(positive - negative),
			Summary:    fmt.Sprintf("Positive market sentiment detected with %d positive indicators in recent news.", positive),
		}
	case negative > positive:
		return &Sentiment{
			Sentiment:  SentimentNegative,
			Confidence: keywordConfidence(negative - positive),
			Summary:    fmt.Sprintf("Negative market sentiment detected with %d concerning indicators in recent news.", negative),
		}
	default:
		return &Sentiment{
			Sentiment:  SentimentNeutral,
			Confidence: 0.5,
			Summary:    "Market sentiment appears balanced based on recent news coverage.",
		}
	}
}

// keywordConfidence is min(0.8, 0.5 + 0.1 per net indicator)
func keywordConfidence(diff int) float64 {
	return money.Round2(math.Min(0.8, 0.5+float64(diff)*0.1))
}

func containsAny(s string, stems []string) bool {
	for _, stem := range stems {
		if strings.Contains(s, stem) {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
