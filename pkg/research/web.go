package research

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/shed/pkg/deps"
	"github.com/matzehuels/shed/pkg/integrations"
)

// DefaultWebEndpoint is the Tavily search API.
const DefaultWebEndpoint = "https://api.tavily.com/search"

// Web searches the public web through a Tavily-compatible search API and
// returns the answer and result snippets as evidence text.
type Web struct {
	Endpoint   string
	APIKey     string
	MaxResults int

	client *integrations.Client
}

// NewWeb creates a web search backend.
func NewWeb(apiKey string) *Web {
	return &Web{
		Endpoint:   DefaultWebEndpoint,
		APIKey:     apiKey,
		MaxResults: 5,
		client:     integrations.NewClient(nil),
	}
}

type searchRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
	SearchDepth   string `json:"search_depth"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// Research implements Backend.
func (w *Web) Research(ctx context.Context, q Query) (*Findings, error) {
	req := searchRequest{
		Query:         searchQuery(q),
		MaxResults:    w.MaxResults,
		IncludeAnswer: true,
		SearchDepth:   "basic",
	}
	headers := map[string]string{"Authorization": "Bearer " + w.APIKey}

	var resp searchResponse
	if err := w.client.PostJSON(ctx, w.Endpoint, headers, req, &resp); err != nil {
		return nil, fmt.Errorf("web search %s: %w", q, err)
	}

	f := &Findings{Source: "web"}
	var text []string
	if a := strings.TrimSpace(resp.Answer); a != "" {
		text = append(text, a)
	}
	for _, r := range resp.Results {
		if r.URL != "" && !slices.Contains(f.URLs, r.URL) {
			f.URLs = append(f.URLs, r.URL)
		}
		if c := strings.TrimSpace(r.Content); c != "" {
			text = append(text, c)
		}
	}
	f.Text = strings.Join(text, "\n")
	return f, nil
}

var ecosystemWords = map[deps.Ecosystem]string{
	deps.EcosystemNPM:   "npm package",
	deps.EcosystemPip:   "python package",
	deps.EcosystemMaven: "java library",
	deps.EcosystemGem:   "ruby gem",
	deps.EcosystemCargo: "rust crate",
}

func searchQuery(q Query) string {
	kind := ecosystemWords[q.Ecosystem]
	if kind == "" {
		kind = "software"
	}
	return fmt.Sprintf("%s %s license open source", q.Name, kind)
}
