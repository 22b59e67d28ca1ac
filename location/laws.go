package location

// EmergencyContacts per-state emergency and legal-aid phone numbers
type EmergencyContacts struct {
	// Police emergency number
	Police string `json:"police"`
	// CivilRights civil rights organization contact
	CivilRights string `json:"civil_rights"`
	// LegalAid legal aid contact
	LegalAid string `json:"legal_aid"`
}

// LawReference state-specific legal reference for police interactions
type LawReference struct {
	// StateCode two-letter state code this reference was requested for
	StateCode string `json:"state_code"`
	// StateName full state name
	StateName string `json:"state_name"`
	// RecordingConsent recording consent rules
	RecordingConsent string `json:"recording_consent"`
	// StopAndIdentify stop-and-identify rules
	StopAndIdentify string `json:"stop_and_identify"`
	// SearchRules vehicle and person search rules
	SearchRules string `json:"search_rules"`
	// SpecialNotes state-specific notes
	SpecialNotes string `json:"special_notes"`
	// Emergency emergency contacts
	Emergency EmergencyContacts `json:"emergency"`
}

// stateLawTable detailed references for states with curated data. Other states
// receive the California entry relabeled, pending a real legal data source.
var stateLawTable = map[string]LawReference{
	"CA": {
		StateCode:        "CA",
		StateName:        "California",
		RecordingConsent: "One-party consent state - you can record conversations you are part of",
		StopAndIdentify:  "No stop and identify law - you are not required to provide ID unless arrested",
		SearchRules:      "Police need probable cause or warrant to search vehicle",
		SpecialNotes:     "Strong privacy protections, right to record police in public",
		Emergency: EmergencyContacts{
			Police:      "911",
			CivilRights: "(213) 894-2434",
			LegalAid:    "(213) 640-3200",
		},
	},
	"NY": {
		StateCode:        "NY",
		StateName:        "New York",
		RecordingConsent: "One-party consent state - you can record conversations you are part of",
		StopAndIdentify:  "No stop and identify law - you are not required to provide ID unless arrested",
		SearchRules:      "Police need probable cause or warrant to search vehicle",
		SpecialNotes:     "Right to record police in public spaces",
		Emergency: EmergencyContacts{
			Police:      "911",
			CivilRights: "(212) 549-2500",
			LegalAid:    "(212) 577-3300",
		},
	},
	"TX": {
		StateCode:        "TX",
		StateName:        "Texas",
		RecordingConsent: "One-party consent state - you can record conversations you are part of",
		StopAndIdentify:  "Stop and identify state - must provide name if lawfully arrested",
		SearchRules:      "Police need probable cause or warrant to search vehicle",
		SpecialNotes:     "Must identify yourself if lawfully detained",
		Emergency: EmergencyContacts{
			Police:      "911",
			CivilRights: "(713) 524-5925",
			LegalAid:    "(713) 228-0732",
		},
	},
	"FL": {
		StateCode:        "FL",
		StateName:        "Florida",
		RecordingConsent: "Two-party consent state - all parties must consent to recording",
		StopAndIdentify:  "Stop and identify state - must provide name if lawfully detained",
		SearchRules:      "Police need probable cause or warrant to search vehicle",
		SpecialNotes:     "Stricter recording laws - be careful with audio recording",
		Emergency: EmergencyContacts{
			Police:      "911",
			CivilRights: "(305) 358-5001",
			LegalAid:    "(305) 576-0080",
		},
	},
}

// lawReferenceForState fetch the legal reference for a state, defaulting to
// the California entry when no curated data exists for the state
func lawReferenceForState(stateCode string) LawReference {
	if entry, ok := stateLawTable[stateCode]; ok {
		return entry
	}
	entry := stateLawTable[DefaultStateCode]
	entry.StateCode = stateCode
	for name, code := range stateNameToCode {
		if code == stateCode {
			entry.StateName = name
			break
		}
	}
	return entry
}
