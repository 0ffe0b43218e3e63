package mail

type LeadAssignedEmailData struct {
	AgentName string
	LeadName  string
	LeadEmail string
	LeadPhone string
	LeadCity  string
	Source    string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
