package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

type Client struct {
	apiToken   string
	baseURL    string
	pipelineID int
	http       *http.Client
}

func NewClient(baseURL, apiToken string, pipelineID int, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiToken:   apiToken,
		baseURL:    baseURL,
		pipelineID: pipelineID,
		http:       &http.Client{Timeout: timeout},
	}
}

func (c *Client) Configured() bool {
	return c.apiToken != "" && c.baseURL != ""
}

// SyncAssignedLead opens a CRM lead for a freshly assigned lead.
func (c *Client) SyncAssignedLead(ctx context.Context, p queue.LeadAssignedPayload) (int, error) {
	return c.CreateLead(ctx, CreateLeadInput{
		LeadName:         p.LeadName,
		Email:            p.LeadEmail,
		Phone:            p.LeadPhone,
		Source:           p.Source,
		ResponsibleEmail: p.AgentEmail,
		ExternalRef:      fmt.Sprintf("lead-%d", p.LeadID),
	})
}

func (c *Client) CreateLead(ctx context.Context, input CreateLeadInput) (int, error) {
	if !c.Configured() {
		return 0, eris.New("kommo: client not configured")
	}

	contactID, err := c.findOrCreateContact(ctx, input)
	if err != nil {
		return 0, eris.Wrap(err, "kommo: find or create contact")
	}

	name := input.LeadName
	if name == "" {
		name = input.ExternalRef
	}
	tags := []map[string]any{{"name": "lead_" + input.Source}}
	if input.ResponsibleEmail != "" {
		tags = append(tags, map[string]any{"name": "agent:" + input.ResponsibleEmail})
	}
	lead := map[string]any{
		"name": name,
		"_embedded": map[string]any{
			"tags": tags,
			"contacts": []map[string]any{
				{"id": contactID},
			},
		},
	}
	if c.pipelineID > 0 {
		lead["pipeline_id"] = c.pipelineID
	}

	var result embeddedLeads
	if err := c.do(ctx, http.MethodPost, "/leads", []map[string]any{lead}, &result); err != nil {
		return 0, eris.Wrap(err, "kommo: create lead")
	}
	if len(result.Embedded.Leads) == 0 {
		return 0, eris.New("kommo: lead not created")
	}

	leadID := result.Embedded.Leads[0].ID
	zap.L().Info("kommo lead created", zap.Int("kommo_lead_id", leadID), zap.String("ref", input.ExternalRef))
	return leadID, nil
}

func (c *Client) findOrCreateContact(ctx context.Context, input CreateLeadInput) (int, error) {
	for _, q := range []string{input.Phone, input.Email} {
		if q == "" {
			continue
		}
		id, err := c.findContact(ctx, q)
		if err != nil {
			return 0, err
		}
		if id > 0 {
			return id, nil
		}
	}
	return c.createContact(ctx, input)
}

// findContact returns 0 with no error when nothing matches.
func (c *Client) findContact(ctx context.Context, query string) (int, error) {
	var result embeddedContacts
	err := c.do(ctx, http.MethodGet, "/contacts?query="+url.QueryEscape(query), nil, &result)
	if err != nil {
		return 0, eris.Wrap(err, "kommo: search contact")
	}
	if len(result.Embedded.Contacts) > 0 {
		return result.Embedded.Contacts[0].ID, nil
	}
	return 0, nil
}

func (c *Client) createContact(ctx context.Context, input CreateLeadInput) (int, error) {
	var fields []map[string]any
	if input.Phone != "" {
		fields = append(fields, map[string]any{
			"field_code": "PHONE",
			"values":     []map[string]any{{"value": input.Phone, "enum_code": "WORK"}},
		})
	}
	if input.Email != "" {
		fields = append(fields, map[string]any{
			"field_code": "EMAIL",
			"values":     []map[string]any{{"value": input.Email, "enum_code": "WORK"}},
		})
	}
	name := input.LeadName
	if name == "" {
		name = input.ExternalRef
	}
	contact := []map[string]any{{"name": name, "custom_fields_values": fields}}

	var result embeddedContacts
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &result); err != nil {
		return 0, eris.Wrap(err, "kommo: create contact")
	}
	if len(result.Embedded.Contacts) == 0 {
		return 0, eris.New("kommo: created contact has no id")
	}
	return result.Embedded.Contacts[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	c.addAuthHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	// Kommo answers an empty search with 204.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	if out == nil || len(respBody) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(respBody, out), "decode response")
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
