package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"voxarchive/internal/catalog"
	"voxarchive/internal/series"
	"voxarchive/internal/services"
	"voxarchive/internal/services/llm"
	"voxarchive/internal/textutil"
)

// DefaultWindow is the number of transcript characters shown to the model.
const DefaultWindow = 8000

// Request is the evidence for one classification.
type Request struct {
	Episode  catalog.Episode
	Current  string
	Previous string
	Series   *series.Map
}

// Decision is where an episode belongs. Number is ignored for Independent.
type Decision struct {
	SeriesName string
	Number     int
}

// Classifier decides series membership for one episode.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Decision, error)
}

// Completer issues a JSON-mode chat completion.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMClassifier classifies episodes with a chat model.
type LLMClassifier struct {
	client Completer
	window int
}

// NewLLMClassifier wraps client. Transcripts are cut to window characters;
// a non-positive window means DefaultWindow.
func NewLLMClassifier(client Completer, window int) *LLMClassifier {
	if window <= 0 {
		window = DefaultWindow
	}
	return &LLMClassifier{client: client, window: window}
}

type response struct {
	SeriesName string          `json:"series_name"`
	Number     json.RawMessage `json:"episode_number_in_series"`
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, req Request) (Decision, error) {
	if strings.TrimSpace(req.Current) == "" {
		return Decision{}, services.Wrap(services.ErrValidation, "classify", "build prompt", "current transcript is empty", nil)
	}
	prompt, err := c.userPrompt(req)
	if err != nil {
		return Decision{}, err
	}
	content, err := c.client.CompleteJSON(ctx, systemPrompt, prompt)
	if err != nil {
		return Decision{}, services.Wrap(services.ErrExternalTool, "classify", "llm request", "", err)
	}
	var parsed response
	if err := llm.DecodeLLMJSON(content, &parsed); err != nil {
		return Decision{}, services.Wrap(services.ErrValidation, "classify", "parse response", "", err)
	}
	name := strings.TrimSpace(parsed.SeriesName)
	if name == "" {
		return Decision{}, services.Wrap(services.ErrValidation, "classify", "parse response", "series_name missing", nil)
	}
	number, err := parseNumber(parsed.Number)
	if err != nil && !series.IsIndependent(name) {
		return Decision{}, services.Wrap(services.ErrValidation, "classify", "parse response", "episode_number_in_series", err)
	}
	return Decision{SeriesName: name, Number: number}, nil
}

func (c *LLMClassifier) userPrompt(req Request) (string, error) {
	ep := req.Episode
	var b strings.Builder
	b.WriteString("## CURRENT EPISODE METADATA:\n")
	fmt.Fprintf(&b, "- Title: %s\n", orUnknown(ep.Title))
	fmt.Fprintf(&b, "- URL: %s\n", orUnknown(ep.URL))
	if ep.Page > 0 {
		fmt.Fprintf(&b, "- Page: %d\n", ep.Page)
	} else {
		b.WriteString("- Page: Unknown\n")
	}
	if ep.PublishDate != "" {
		fmt.Fprintf(&b, "- Published: %s\n", ep.PublishDate)
	}

	b.WriteString("\n## CURRENT EPISODE TRANSCRIPTION:\n")
	b.WriteString(textutil.Truncate(req.Current, c.window))
	b.WriteString("\n\n## PREVIOUS EPISODE TRANSCRIPTION:\n")
	if strings.TrimSpace(req.Previous) == "" {
		b.WriteString(noPreviousTranscript)
	} else {
		b.WriteString(textutil.Truncate(req.Previous, c.window))
	}

	b.WriteString("\n\n## EXISTING SERIES DATA:\n")
	if req.Series == nil || (len(req.Series.Series) == 0 && len(req.Series.Independent) == 0) {
		b.WriteString(noSeriesData)
	} else {
		data, err := json.MarshalIndent(req.Series, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode series map: %w", err)
		}
		b.Write(data)
	}
	b.WriteString("\n")
	return b.String(), nil
}

// parseNumber accepts an integer or a numeric string.
func parseNumber(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("missing")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f), nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	return value
}
