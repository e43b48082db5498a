package manga

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func projectSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	})
	return schema, schemaErr
}

// Decode validates a JSON encoded project document against the project schema
// and decodes it. Documents of another type fail with ErrInvalidDocument.
func Decode(data []byte) (*Project, error) {
	s, err := projectSchema()
	if err != nil {
		return nil, fmt.Errorf("load project schema: %w", err)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}

	var project Project
	if err := json.Unmarshal(data, &project); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	project.normalize()

	return &project, nil
}

// CheckInvariants reports the first violated structural invariant: at least
// one page, contiguous page numbers, totalPages == len(pages), unique page and
// panel ids and a current page pointer that references an existing page.
func (p *Project) CheckInvariants() error {
	if len(p.Pages) == 0 {
		return errors.New("project has no pages")
	}
	if p.TotalPages != len(p.Pages) {
		return fmt.Errorf("totalPages %d does not match %d pages", p.TotalPages, len(p.Pages))
	}

	pageIDs := mapset.NewThreadUnsafeSet[string]()
	for i, page := range p.Pages {
		if page.PageNumber != i+1 {
			return fmt.Errorf("page %s has number %d at position %d", page.ID, page.PageNumber, i)
		}
		if !pageIDs.Add(page.ID) {
			return fmt.Errorf("duplicate page id %s", page.ID)
		}

		panelIDs := mapset.NewThreadUnsafeSet[string]()
		for _, panel := range page.Panels {
			if !panelIDs.Add(panel.ID) {
				return fmt.Errorf("duplicate panel id %s on page %s", panel.ID, page.ID)
			}
		}
	}

	if p.CurrentPageID != "" && !pageIDs.Contains(p.CurrentPageID) {
		return fmt.Errorf("current page %s does not exist", p.CurrentPageID)
	}

	return nil
}
