package routing

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// TransformPayload converts a processed ticket into the wire format for the
// target system. Transformers are pure; unknown systems fall through to the
// generic shape, never an error. Field names are literal contracts against
// the third-party APIs.
func TransformPayload(ticket *domain.ProcessedTicket, system SystemName) any {
	switch system {
	case SystemJira:
		return jiraPayload(ticket)
	case SystemFreshservice:
		return freshservicePayload(ticket)
	case SystemSlack:
		return slackPayload(ticket)
	default:
		return ticket
	}
}

var jiraPriorityNames = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:      "Low",
	domain.TicketPriorityMedium:   "Medium",
	domain.TicketPriorityHigh:     "High",
	domain.TicketPriorityCritical: "Highest",
}

func jiraPayload(ticket *domain.ProcessedTicket) map[string]any {
	priority, ok := jiraPriorityNames[ticket.Priority]
	if !ok {
		priority = "Medium"
	}

	department := "general"
	if ticket.Department != "" {
		department = string(ticket.Department)
	}

	return map[string]any{
		"fields": map[string]any{
			"project": map[string]any{"key": "SUPP"},
			"summary": ticket.Title,
			"description": map[string]any{
				"type":    "doc",
				"version": 1,
				"content": []any{
					map[string]any{
						"type": "paragraph",
						"content": []any{
							map[string]any{
								"type": "text",
								"text": ticket.Description,
							},
						},
					},
				},
			},
			"issuetype": map[string]any{"name": "Task"},
			"priority":  map[string]any{"name": priority},
			"reporter":  map[string]any{"emailAddress": ticket.Email},
			"labels": []string{
				"department:" + department,
				"auto-routed",
				fmt.Sprintf("confidence:%d", int(ticket.Confidence*100)),
			},
			"customfield_10001": ticket.AssignedTeam,
		},
	}
}

var freshservicePriorityCodes = map[domain.TicketPriority]int{
	domain.TicketPriorityLow:      1,
	domain.TicketPriorityMedium:   2,
	domain.TicketPriorityHigh:     3,
	domain.TicketPriorityCritical: 4,
}

func freshservicePayload(ticket *domain.ProcessedTicket) map[string]any {
	priority, ok := freshservicePriorityCodes[ticket.Priority]
	if !ok {
		priority = 2
	}

	department := "general"
	if ticket.Department != "" {
		department = string(ticket.Department)
	}

	return map[string]any{
		"ticket": map[string]any{
			"subject":     ticket.Title,
			"description": ticket.Description,
			"email":       ticket.Email,
			"priority":    priority,
			"status":      2,
			"source":      2,
			"tags": []string{
				"department:" + department,
				"auto-routed",
				ticket.AssignedTeam,
			},
			"custom_fields": map[string]any{
				"assigned_team":            ticket.AssignedTeam,
				"ai_confidence":            ticket.Confidence,
				"classification_reasoning": ticket.Reasoning,
			},
		},
	}
}

var slackPriorityColors = map[domain.TicketPriority]string{
	domain.TicketPriorityLow:      "#36a64f",
	domain.TicketPriorityMedium:   "#ff9500",
	domain.TicketPriorityHigh:     "#ff0000",
	domain.TicketPriorityCritical: "#800080",
}

// slackDescriptionLimit caps the description field, counted in characters.
const slackDescriptionLimit = 300

func slackPayload(ticket *domain.ProcessedTicket) map[string]any {
	color, ok := slackPriorityColors[ticket.Priority]
	if !ok {
		color = "#36a64f"
	}

	description := ticket.Description
	if runes := []rune(description); len(runes) > slackDescriptionLimit {
		description = string(runes[:slackDescriptionLimit]) + "..."
	}

	department := "GENERAL"
	if ticket.Department != "" {
		department = string(ticket.Department)
	}

	assignee := ticket.AssignedTeam
	if assignee == "" {
		assignee = "Unassigned"
	}

	timestamp := ticket.CreatedAt.Unix()
	if ticket.CreatedAt.IsZero() {
		timestamp = time.Now().Unix()
	}

	return map[string]any{
		"text": "New Ticket: " + ticket.Title,
		"attachments": []any{
			map[string]any{
				"color": color,
				"fields": []any{
					slackField("Title", ticket.Title, false),
					slackField("Description", description, false),
					slackField("Reporter", ticket.Email, true),
					slackField("Priority", strings.ToUpper(string(ticket.Priority)), true),
					slackField("Department", department, true),
					slackField("Assigned To", assignee, true),
				},
				"footer": "Ticket ID: " + ticket.TicketID,
				"ts":     timestamp,
			},
		},
	}
}

func slackField(title, value string, short bool) map[string]any {
	return map[string]any{
		"title": title,
		"value": value,
		"short": short,
	}
}
