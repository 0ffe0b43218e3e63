package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/rotisserie/eris"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

var leadAssignedTmpl = template.Must(template.New("lead_assigned").Parse(`<p>Hi {{.AgentName}},</p>
<p>A new lead was assigned to you ({{.Source}}):</p>
<ul>
{{if .LeadName}}<li>Name: {{.LeadName}}</li>{{end}}
{{if .LeadEmail}}<li>Email: {{.LeadEmail}}</li>{{end}}
{{if .LeadPhone}}<li>Phone: {{.LeadPhone}}</li>{{end}}
{{if .LeadCity}}<li>City: {{.LeadCity}}</li>{{end}}
</ul>`))

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

func (s *EmailSender) Configured() bool {
	return s.Host != ""
}

// RenderLeadAssigned builds the subject and HTML body for an assignment email.
func RenderLeadAssigned(p queue.LeadAssignedPayload) (string, string, error) {
	data := LeadAssignedEmailData{
		AgentName: p.AgentName,
		LeadName:  p.LeadName,
		LeadEmail: p.LeadEmail,
		LeadPhone: p.LeadPhone,
		LeadCity:  p.LeadCity,
		Source:    p.Source,
	}

	var body bytes.Buffer
	if err := leadAssignedTmpl.Execute(&body, data); err != nil {
		return "", "", eris.Wrap(err, "mail: render lead assigned template")
	}

	who := p.LeadName
	if who == "" {
		who = fmt.Sprintf("#%d", p.LeadID)
	}
	return "New lead assigned: " + who, body.String(), nil
}

func (s *EmailSender) SendLeadAssigned(p queue.LeadAssignedPayload) error {
	subject, body, err := RenderLeadAssigned(p)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", p.AgentEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return eris.Wrap(err, "mail: send lead assigned")
	}

	return nil
}
