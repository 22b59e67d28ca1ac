// Package location - tiered device location resolution and state legal references
package location

import (
	"sort"
	"strings"

	"github.com/alwitt/witness/models"
)

// StateInfo one US state for selection lists
type StateInfo struct {
	// Code two-letter state code
	Code string `json:"code"`
	// Name full state name
	Name string `json:"name"`
}

// stateNameToCode full state name to two-letter code, 50 states plus DC
var stateNameToCode = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID",
	"Illinois": "IL", "Indiana": "IN", "Iowa": "IA", "Kansas": "KS",
	"Kentucky": "KY", "Louisiana": "LA", "Maine": "ME", "Maryland": "MD",
	"Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN", "Mississippi": "MS",
	"Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK",
	"Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC",
	"South Dakota": "SD", "Tennessee": "TN", "Texas": "TX", "Utah": "UT",
	"Vermont": "VT", "Virginia": "VA", "Washington": "WA", "West Virginia": "WV",
	"Wisconsin": "WI", "Wyoming": "WY", "District of Columbia": "DC",
}

/*
StateCodeFromName map a full state name to its two-letter code

	@param stateName string - full state name
	@returns the code, or empty string when the name is unknown
*/
func StateCodeFromName(stateName string) string {
	return stateNameToCode[stateName]
}

/*
StateCodeFromAdminArea map an administrative area label, as returned by a
geocoding collaborator, to a two-letter state code.

A two-character label is treated as a code already. Unmappable labels resolve
to the static default state.

	@param adminArea string - administrative area label
	@returns two-letter state code
*/
func StateCodeFromAdminArea(adminArea string) string {
	if len(adminArea) == 2 {
		candidate := strings.ToUpper(adminArea)
		if models.IsValidStateCode(candidate) {
			return candidate
		}
	}
	if code := StateCodeFromName(adminArea); code != "" {
		return code
	}
	return DefaultStateCode
}

/*
AllStates list the 50 US states plus DC, sorted by name

	@returns state list for selection UIs
*/
func AllStates() []StateInfo {
	result := make([]StateInfo, 0, len(stateNameToCode))
	for name, code := range stateNameToCode {
		result = append(result, StateInfo{Code: code, Name: name})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
