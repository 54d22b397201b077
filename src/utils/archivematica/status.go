package archivematica

// Answer of the transfer and ingest status endpoints. The raw status string
// gets converted into the local vocabulary by model.Convert.
type UnitStatus struct {
	Status       string `json:"status"`
	Name         string `json:"name,omitempty"`
	Type         string `json:"type,omitempty"`
	Directory    string `json:"directory,omitempty"`
	Microservice string `json:"microservice,omitempty"`
	Message      string `json:"message,omitempty"`

	// Only the ingest endpoint delivers this, once the transfer phase created a SIP
	SipUuid string `json:"sip_uuid,omitempty"`
}
