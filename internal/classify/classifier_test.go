package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voxarchive/internal/catalog"
	"voxarchive/internal/series"
	"voxarchive/internal/services"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.reply, f.err
}

func TestLLMClassifierBuildsPromptAndParses(t *testing.T) {
	m := series.New()
	if _, _, err := m.Assign("Faith Series", 1, "/c/a.mp3"); err != nil {
		t.Fatal(err)
	}
	completer := &fakeCompleter{reply: "```json\n{\"series_name\": \"Faith Series\", \"episode_number_in_series\": \"2\"}\n```"}
	classifier := NewLLMClassifier(completer, 10)

	decision, err := classifier.Classify(context.Background(), Request{
		Episode: catalog.Episode{URL: "https://x/e2", Title: "Faith 2", Page: 3},
		Current: "0123456789ABCDEF",
		Series:  m,
	})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decision.SeriesName != "Faith Series" || decision.Number != 2 {
		t.Fatalf("unexpected decision %+v", decision)
	}
	for _, want := range []string{"- Title: Faith 2", "- Page: 3", "0123456789\n", noPreviousTranscript, `"Faith Series"`} {
		if !strings.Contains(completer.user, want) {
			t.Fatalf("prompt missing %q:\n%s", want, completer.user)
		}
	}
	if strings.Contains(completer.user, "ABCDEF") {
		t.Fatalf("transcript not truncated:\n%s", completer.user)
	}
	if !strings.Contains(completer.system, "INDEPENDENT") {
		t.Fatalf("system prompt missing independent rule")
	}
}

func TestLLMClassifierIndependentWithoutNumber(t *testing.T) {
	completer := &fakeCompleter{reply: `{"series_name":"INDEPENDENT"}`}
	decision, err := NewLLMClassifier(completer, 0).Classify(context.Background(), Request{Current: "x", Series: series.New()})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if decision.SeriesName != series.Independent {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if !strings.Contains(completer.user, noSeriesData) {
		t.Fatalf("expected empty series marker:\n%s", completer.user)
	}
}

func TestLLMClassifierErrors(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		err   error
		want  error
	}{
		{"transport", "", errors.New("boom"), services.ErrExternalTool},
		{"garbage", "not json", nil, services.ErrValidation},
		{"missing name", `{"episode_number_in_series":1}`, nil, services.ErrValidation},
		{"missing number", `{"series_name":"Grace"}`, nil, services.ErrValidation},
	}
	for _, tc := range cases {
		completer := &fakeCompleter{reply: tc.reply, err: tc.err}
		_, err := NewLLMClassifier(completer, 0).Classify(context.Background(), Request{Current: "x"})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if services.IsFatal(err) {
			t.Fatalf("%s: classifier errors must not be fatal", tc.name)
		}
	}
}

func TestParseNumber(t *testing.T) {
	for raw, want := range map[string]int{`3`: 3, `"4"`: 4, `5.0`: 5} {
		got, err := parseNumber([]byte(raw))
		if err != nil || got != want {
			t.Fatalf("parseNumber(%s) = %d, %v", raw, got, err)
		}
	}
	if _, err := parseNumber(nil); err == nil {
		t.Fatal("expected error for missing number")
	}
}
