package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// Application is the validated data-access request. Attribute values are
// carried exactly as they appear in the request document (the ethics
// pathway names and the upper-case TRUE/FALSE flags come from the policy
// paperwork, not from this program). Validation against the JSON schema is
// an external step performed before the pipeline runs; Load only checks
// the structural minimum it needs.
type Application struct {
	ApplicationID    string             `json:"application id"`
	RequestID        string             `json:"request id"`
	Ethics           string             `json:"ethics"`
	ResearchRelated  string             `json:"research_related"`
	FilterResults    string             `json:"filter_results"`
	MethodDev        string             `json:"method_dev"`
	ReturnResults    string             `json:"return_results"`
	GenesApproved    string             `json:"genes_approved"`
	ReconsentPatient string             `json:"reconsent_patient"`
	Identifiability  DisclosureCategory `json:"identifiability"`
	Condition        map[string]string  `json:"condition"`
	FileTypes        map[string]string  `json:"file types"`
}

// LoadApplication reads and decodes an application document. The document
// is assumed to have passed JSON-schema validation already.
func LoadApplication(path string) (*Application, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapError(CategoryResource, err, "cannot open application file %s", path)
	}
	app := &Application{}
	if err := json.Unmarshal(data, app); err != nil {
		return nil, WrapError(CategoryResource, err, "cannot decode application file %s", path)
	}
	if app.ApplicationID == "" || app.RequestID == "" {
		return nil, NewError(CategoryResource, "application file %s is missing application id or request id", path)
	}
	return app, nil
}

// Cohorts returns the cohorts requested in the application, in the fixed
// cohort order.
func (a *Application) Cohorts() []string {
	var requested []string
	for _, cohort := range Cohorts {
		if a.Condition[cohort] == "TRUE" {
			requested = append(requested, cohort)
		}
	}
	return requested
}

// RequestedFileTypes returns the file types requested in the application,
// in the fixed file-type order.
func (a *Application) RequestedFileTypes() []FileType {
	var requested []FileType
	for _, fileType := range FileTypes {
		if a.FileTypes[string(fileType)] == "TRUE" {
			requested = append(requested, fileType)
		}
	}
	return requested
}

// String identifies the request for log and audit messages.
func (a *Application) String() string {
	return fmt.Sprintf("%s/%s", a.ApplicationID, a.RequestID)
}
