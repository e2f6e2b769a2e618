package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveSystem(t *testing.T) {
	cases := []struct {
		endpoint string
		want     SystemName
	}{
		{"https://company.atlassian.net/rest/api/2/issue", SystemJira},
		{"https://jira.internal.example.com/rest/api/2/issue", SystemJira},
		{"https://company.freshservice.com/api/v2/tickets", SystemFreshservice},
		{"https://hooks.slack.com/services/T000/B000/XXXX", SystemSlack},
		{"https://webhook.site/abc-123", SystemWebhookTest},
		{"https://tickets.example.com/api/create", SystemUnknown},
		{"not a url at all", SystemUnknown},
		{"", SystemUnknown},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveSystem(tc.endpoint), "endpoint %q", tc.endpoint)
	}
}

func TestResolveSystemMatchesHostNotPath(t *testing.T) {
	// A jira-looking path on an unrelated host must not resolve to jira.
	assert.Equal(t, SystemUnknown, ResolveSystem("https://example.com/jira/rest/api"))
}
