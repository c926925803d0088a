package catalogapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmorgal/bankfeed/internal/catalog"
)

// Handler serves the template catalog. The catalog is immutable for the
// lifetime of the process, so responses are computed once.
type Handler struct {
	response catalogResponse
}

func NewHandler(c *catalog.Catalog) *Handler {
	return &Handler{response: buildResponse(c)}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.listTemplates)
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

func buildResponse(c *catalog.Catalog) catalogResponse {
	var resp catalogResponse

	for _, inst := range c.Institutions() {
		group := institutionDTO{
			Code:    inst.Code,
			Name:    inst.Name,
			LogoURL: inst.LogoURL,
		}

		for _, t := range inst.Templates {
			group.Templates = append(group.Templates, templateDTO{
				ID:          t.ID,
				RecordType:  string(t.RecordType),
				FileFormat:  string(t.Format),
				Label:       t.Label,
				Description: t.Description,
			})
		}

		resp.Institutions = append(resp.Institutions, group)
	}

	return resp
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(h.response); err != nil {
		slog.Error("failed to encode catalog", "error", err)
	}
}
