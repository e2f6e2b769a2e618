package routing

import (
	"net/url"
	"strings"
)

// SystemName identifies a downstream system profile. The profile determines
// payload shape and ticket-ID extraction rules.
type SystemName string

const (
	SystemJira         SystemName = "jira"
	SystemFreshservice SystemName = "freshservice"
	SystemSlack        SystemName = "slack"
	SystemWebhookTest  SystemName = "webhook_test"
	SystemUnknown      SystemName = "unknown"

	// SystemCircuitBreaker marks results short-circuited by an open breaker,
	// never an actual delivery.
	SystemCircuitBreaker = "circuit_breaker"
)

// ResolveSystem maps an endpoint URL to a system profile by substring
// matching on the host. Pure and total: anything unrecognized is unknown.
func ResolveSystem(endpoint string) SystemName {
	host := ""
	if parsed, err := url.Parse(endpoint); err == nil {
		host = strings.ToLower(parsed.Host)
	}

	switch {
	case strings.Contains(host, "atlassian.net") || strings.Contains(host, "jira"):
		return SystemJira
	case strings.Contains(host, "freshservice"):
		return SystemFreshservice
	case strings.Contains(host, "slack.com"):
		return SystemSlack
	case strings.Contains(host, "webhook.site"):
		return SystemWebhookTest
	default:
		return SystemUnknown
	}
}
