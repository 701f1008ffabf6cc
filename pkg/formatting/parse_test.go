package formatting_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/certifier/pkg/formatting"
)

type verdict struct {
	Analysis   string  `json:"analysis"`
	Confidence float64 `json:"confidence"`
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    verdict
		wantErr bool
	}{
		{"direct", `{"analysis":"ok","confidence":0.9}`, verdict{"ok", 0.9}, false},
		{"padded", "  {\"analysis\":\"pad\",\"confidence\":0.1}\n", verdict{"pad", 0.1}, false},
		{"fenced", "```json\n{\"analysis\":\"fenced\",\"confidence\":0.7}\n```", verdict{"fenced", 0.7}, false},
		{"bare fence", "```\n{\"analysis\":\"bare\",\"confidence\":0.5}\n```", verdict{"bare", 0.5}, false},
		{"prose around fence", "Result:\n```json\n{\"analysis\":\"wrapped\",\"confidence\":0.6}\n```\nDone.", verdict{"wrapped", 0.6}, false},
		{"embedded object", `The verdict is {"analysis":"inline","confidence":0.8} as shown.`, verdict{"inline", 0.8}, false},
		{"prose only", "the requirement looks fine", verdict{}, true},
		{"empty", "", verdict{}, true},
		{"broken fence", "```json\n{broken\n```", verdict{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatting.Parse[verdict](tt.input)
			if tt.wantErr {
				if !errors.Is(err, formatting.ErrParseFailed) {
					t.Errorf("error: got %v, want ErrParseFailed", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSplitReasoning(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTrace string
		wantBody  string
	}{
		{"no trace", ` {"a":1} `, "", `{"a":1}`},
		{"leading trace", "<think>\nweigh the clauses\n</think>\n{\"a\":1}", "weigh the clauses", `{"a":1}`},
		{"multiline trace", "<think>one\ntwo</think>body", "one\ntwo", "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trace, body := formatting.SplitReasoning(tt.input)
			if trace != tt.wantTrace {
				t.Errorf("trace: got %q, want %q", trace, tt.wantTrace)
			}
			if body != tt.wantBody {
				t.Errorf("body: got %q, want %q", body, tt.wantBody)
			}
		})
	}
}
