package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

func TestRenderLeadAssigned(t *testing.T) {
	subject, body, err := RenderLeadAssigned(queue.LeadAssignedPayload{
		LeadID:    5,
		LeadName:  "Ann <Admin>",
		LeadEmail: "ann@x.com",
		Source:    "bulk_upload",
		AgentName: "bob",
	})
	require.NoError(t, err)

	assert.Equal(t, "New lead assigned: Ann <Admin>", subject)
	assert.Contains(t, body, "Hi bob,")
	assert.Contains(t, body, "Email: ann@x.com")
	assert.Contains(t, body, "Ann &lt;Admin&gt;")
	assert.NotContains(t, body, "Phone:")
}

func TestRenderLeadAssigned_FallsBackToLeadID(t *testing.T) {
	subject, _, err := RenderLeadAssigned(queue.LeadAssignedPayload{LeadID: 77, LeadPhone: "555"})
	require.NoError(t, err)
	assert.Equal(t, "New lead assigned: #77", subject)
}

func TestEmailSender_Configured(t *testing.T) {
	assert.False(t, NewEmailSender("", 587, "", "", "").Configured())
	assert.True(t, NewEmailSender("smtp.example.com", 587, "u", "p", "leads@example.com").Configured())
}
