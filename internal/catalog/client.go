package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client fetches the template catalog from the ingestion API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client for the given API base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type templateDTO struct {
	ID          string `json:"id"`
	RecordType  string `json:"record_type"`
	FileFormat  string `json:"file_format"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type institutionDTO struct {
	Code      string        `json:"code"`
	Name      string        `json:"name"`
	LogoURL   string        `json:"logo_url,omitempty"`
	Templates []templateDTO `json:"templates"`
}

type catalogResponse struct {
	Institutions []institutionDTO `json:"institutions"`
}

// Fetch retrieves the catalog from the API and builds a validated Catalog.
func (c *Client) Fetch(ctx context.Context) (*Catalog, error) {
	url := c.baseURL + "/api/v1/templates"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching templates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching templates", resp.StatusCode)
	}

	var body catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding templates: %w", err)
	}

	institutions := make([]Institution, 0, len(body.Institutions))

	for _, inst := range body.Institutions {
		group := Institution{
			Code:    inst.Code,
			Name:    inst.Name,
			LogoURL: inst.LogoURL,
		}

		for _, t := range inst.Templates {
			group.Templates = append(group.Templates, Template{
				ID:          t.ID,
				RecordType:  RecordType(t.RecordType),
				Format:      FileFormat(t.FileFormat),
				Label:       t.Label,
				Description: t.Description,
			})
		}

		institutions = append(institutions, group)
	}

	return New(institutions)
}
