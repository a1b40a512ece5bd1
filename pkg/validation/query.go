// Package validation provides the advisory checks shown by the query editor
// and the structural checks applied to incoming query requests.
package validation

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-plugin-sdk-go/backend"
)

// FolderIDInQueryMessage is shown when the query text names a folder.
// The folder is chosen through the folderId field instead.
const FolderIDInQueryMessage = "do not use folderId in query"

// FieldState is the inline validity indicator of an editor field.
// It never blocks submission.
type FieldState struct {
	Invalid bool   `json:"invalid"`
	Error   string `json:"error,omitempty"`
}

// ValidateQueryText flags query text containing the literal "folderId".
func ValidateQueryText(text string) FieldState {
	if strings.Contains(text, "folderId") {
		return FieldState{Invalid: true, Error: FolderIDInQueryMessage}
	}
	return FieldState{}
}

// ValidateQueryRequest validates a query request.
// It checks for required fields and valid values.
func ValidateQueryRequest(request *backend.QueryDataRequest) error {
	if request == nil {
		return fmt.Errorf("query request cannot be nil")
	}

	if request.PluginContext.DataSourceInstanceSettings == nil {
		return fmt.Errorf("query request must carry data source settings")
	}

	for i, query := range request.Queries {
		if query.RefID == "" {
			return fmt.Errorf("query at index %d must have a RefID", i)
		}
	}

	return nil
}
