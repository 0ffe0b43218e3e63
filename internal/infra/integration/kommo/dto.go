package kommo

// CreateLeadInput is what the CRM needs to open a deal for an assigned lead.
type CreateLeadInput struct {
	LeadName         string
	Email            string
	Phone            string
	Source           string
	ResponsibleEmail string
	ExternalRef      string
}

type ContactResponse struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type embeddedContacts struct {
	Embedded struct {
		Contacts []ContactResponse `json:"contacts"`
	} `json:"_embedded"`
}

type embeddedLeads struct {
	Embedded struct {
		Leads []struct {
			ID int `json:"id"`
		} `json:"leads"`
	} `json:"_embedded"`
}
