// Package sentiment scores free text. With an OpenAI key configured it asks
// the model for a structured judgment; otherwise, or whenever the call fails,
// it falls back to a keyword-count heuristic. The fallback means Analyze
// never returns an error to its caller.
package sentiment

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"curio/internal/model"
	"curio/internal/util"
)

// Analyzer scores text sentiment.
type Analyzer struct {
	client  *openai.Client
	model   string
	enabled bool
}

// New builds an analyzer. With an empty apiKey only the heuristic runs.
func New(provider, modelName, apiKey string) *Analyzer {
	a := &Analyzer{model: modelName}
	if a.model == "" {
		a.model = "gpt-4o-mini"
	}
	if provider == "openai" && apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		a.client = &client
		a.enabled = true
	}
	return a
}

// Analyze returns a sentiment record for the text.
func (a *Analyzer) Analyze(ctx context.Context, text string) model.Sentiment {
	if a.enabled {
		if s, err := a.analyzeLLM(ctx, text); err == nil {
			return s
		}
	}
	return Heuristic(text)
}

func (a *Analyzer) analyzeLLM(ctx context.Context, text string) (model.Sentiment, error) {
	response, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String("Return only JSON with fields sentiment (positive|negative|neutral), score (0..1) and confidence (0..1)."),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String("Text: " + util.NormalizeWhitespace(text)),
					},
				},
			},
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(150),
	})
	if err != nil {
		return model.Sentiment{}, err
	}
	if len(response.Choices) == 0 {
		return Heuristic(text), nil
	}
	var out model.Sentiment
	if err := json.Unmarshal([]byte(response.Choices[0].Message.Content), &out); err != nil {
		return Heuristic(text), nil
	}
	if out.Sentiment == "" {
		out.Sentiment = "neutral"
	}
	out.Score = clamp01(out.Score)
	out.Confidence = clamp01(out.Confidence)
	return out, nil
}

var (
	positiveWords = []string{"great", "good", "love", "excellent", "amazing", "win", "success", "happy", "thanks", "awesome", "brilliant", "helpful"}
	negativeWords = []string{"bad", "terrible", "hate", "awful", "fail", "failure", "angry", "sad", "broken", "wrong", "worst", "problem"}
)

// Heuristic is the keyword-count fallback. The score shifts 0.1 per net
// matched keyword away from 0.5; confidence grows with the match count.
func Heuristic(text string) model.Sentiment {
	p := util.CountAnyCaseInsensitive(text, positiveWords)
	n := util.CountAnyCaseInsensitive(text, negativeWords)
	s := model.Sentiment{Sentiment: "neutral", Score: 0.5}
	if p > n {
		s.Sentiment = "positive"
		s.Score = clamp01(0.5 + float64(p-n)*0.1)
	} else if n > p {
		s.Sentiment = "negative"
		s.Score = clamp01(0.5 - float64(n-p)*0.1)
	}
	s.Confidence = clamp01(float64(p+n)*0.1 + 0.5)
	return s
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
