package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/miradorstack/review-intel/internal/models"
)

const classifyInstructions = `You label customer reviews by topic.
Score every candidate label between 0 and 1 by how strongly the review is about it.
Use only the labels given in the request.`

type classifyRequest struct {
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
}

type classifyResponse struct {
	Labels []labelScore `json:"labels"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

var classifySchema = GenerateSchema[classifyResponse]()

// OpenAIClassifier performs zero-shot classification through the Responses API
// with a strict JSON schema.
type OpenAIClassifier struct {
	model string
	call  func(ctx context.Context, params responses.ResponseNewParams) (string, error)
}

// NewOpenAIClassifier builds a classifier for model. baseURL may be empty.
func NewOpenAIClassifier(apiKey, baseURL, model string) (*OpenAIClassifier, error) {
	if apiKey == "" {
		return nil, errors.New("classify: openai api key is empty")
	}
	if model == "" {
		return nil, errors.New("classify: openai model is empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIClassifier{
		model: model,
		call: func(ctx context.Context, params responses.ResponseNewParams) (string, error) {
			resp, err := client.Responses.New(ctx, params)
			if err != nil {
				return "", err
			}
			return resp.OutputText(), nil
		},
	}, nil
}

// Classify ranks labels against text.
func (c *OpenAIClassifier) Classify(ctx context.Context, text string, labels []string) ([]models.RankedLabel, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(classifyRequest{Text: text, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("classify: marshal request: %w", err)
	}

	params := responses.ResponseNewParams{
		Model:           c.model,
		MaxOutputTokens: openai.Int(400),
		Instructions:    openai.String(classifyInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(string(payload), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "TopicScores",
					Schema:      classifySchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Score per candidate topic label"),
					Type:        "json_schema",
				},
			},
		},
	}

	out, err := c.call(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("classify: openai: %w", err)
	}
	return decodeScores(out, labels)
}

func decodeScores(raw string, labels []string) ([]models.RankedLabel, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "```"), "```")

	var resp classifyResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &resp); err != nil {
		return nil, fmt.Errorf("classify: decode model output: %w", err)
	}
	ranked := make([]models.RankedLabel, 0, len(resp.Labels))
	for _, ls := range resp.Labels {
		ranked = append(ranked, models.RankedLabel{Label: ls.Label, Score: ls.Score})
	}
	return Normalise(ranked, labels), nil
}
