// Package policy decides what disclosure categories a data-access request
// is entitled to. The policy is externally defined and combinatorial, so it
// is kept as an explicit table keyed by the full attribute tuple rather
// than as conditional logic; every entry can be audited against the policy
// document field by field. A tuple missing from the table is a policy gap
// and fails closed.
package policy

import (
	"encoding/json"

	"github.com/anonymise-pipeline/internal/domain"
)

// Request is the tuple of the seven categorical attributes the policy is
// defined over. It is comparable and used directly as the table key.
type Request struct {
	Ethics           string
	ResearchRelated  string
	FilterResults    string
	MethodDev        string
	ReturnResults    string
	GenesApproved    string
	ReconsentPatient string
}

// requestCombinations is the policy table, entry for entry from the data
// access policy document. Keep it data, not control flow: the equivalent
// conditional statement is hard to read and easy to get wrong.
var requestCombinations = map[Request][]domain.DisclosureCategory{

	{Ethics: "MGHA",
		ResearchRelated:  "TRUE",
		FilterResults:    "TRUE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {domain.ReIdentifiable},

	{Ethics: "MGHA",
		ResearchRelated:  "TRUE",
		FilterResults:    "FALSE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "TRUE",
		ReconsentPatient: "FALSE"}: {domain.ReIdentifiable},

	{Ethics: "MGHA",
		ResearchRelated:  "TRUE",
		FilterResults:    "FALSE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {},

	{Ethics: "MGHA",
		ResearchRelated:  "FALSE",
		FilterResults:    "FALSE",
		MethodDev:        "TRUE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {domain.Anonymised},

	{Ethics: "MGHA",
		ResearchRelated:  "FALSE",
		FilterResults:    "FALSE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {},

	{Ethics: "HREC",
		ResearchRelated:  "FALSE",
		FilterResults:    "FALSE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {domain.Anonymised, domain.Future},

	{Ethics: "HREC",
		ResearchRelated:  "TRUE",
		FilterResults:    "FALSE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {domain.Anonymised, domain.Future},

	{Ethics: "HREC",
		ResearchRelated:  "TRUE",
		FilterResults:    "TRUE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "TRUE"}: {domain.ReIdentifiable},

	{Ethics: "HREC",
		ResearchRelated:  "TRUE",
		FilterResults:    "TRUE",
		MethodDev:        "FALSE",
		ReturnResults:    "FALSE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {domain.ReIdentifiable, domain.Future},

	{Ethics: "HREC",
		ResearchRelated:  "TRUE",
		FilterResults:    "TRUE",
		MethodDev:        "FALSE",
		ReturnResults:    "TRUE",
		GenesApproved:    "FALSE",
		ReconsentPatient: "FALSE"}: {domain.ReIdentifiable, domain.Future, domain.Return},
}

// requestOf projects the application's policy attributes onto the table key.
func requestOf(app *domain.Application) Request {
	return Request{
		Ethics:           app.Ethics,
		ResearchRelated:  app.ResearchRelated,
		FilterResults:    app.FilterResults,
		MethodDev:        app.MethodDev,
		ReturnResults:    app.ReturnResults,
		GenesApproved:    app.GenesApproved,
		ReconsentPatient: app.ReconsentPatient,
	}
}

// Classify returns the disclosure categories the application is entitled
// to. A tuple absent from the policy table is a policy gap and fails with
// the offending attributes echoed for audit. A requested identifiability
// level outside the entitled set fails as an incompatible request, a
// distinct condition from a policy gap.
func Classify(app *domain.Application) ([]domain.DisclosureCategory, error) {
	request := requestOf(app)
	allowed, ok := requestCombinations[request]
	if !ok {
		echo, _ := json.Marshal(request)
		return nil, domain.NewError(domain.CategoryPolicyGap,
			"application %s does not have a valid policy interpretation: %s", app, echo)
	}
	for _, category := range allowed {
		if category == app.Identifiability {
			return allowed, nil
		}
	}
	return nil, domain.NewError(domain.CategoryIncompatible,
		"application %s: requested identifiability %q is not compatible with allowed results %v",
		app, app.Identifiability, allowed)
}
