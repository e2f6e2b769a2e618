package routing

import (
	"math"
	"strconv"
)

// extractRule names one place to look for an external ticket identifier:
// key under the top level when path is empty, otherwise key inside the
// nested object named by path. Rules are evaluated in declared order until
// one yields a value.
type extractRule struct {
	path string
	key  string
}

var jiraExtractRules = []extractRule{
	{key: "key"},
	{key: "id"},
}

var freshserviceExtractRules = []extractRule{
	{path: "ticket", key: "id"},
}

var genericExtractRules = []extractRule{
	{key: "id"},
	{key: "ticket_id"},
	{key: "key"},
	{key: "number"},
	{path: "ticket", key: "id"},
	{path: "ticket", key: "ticket_id"},
	{path: "ticket", key: "key"},
	{path: "ticket", key: "number"},
	{path: "issue", key: "id"},
	{path: "issue", key: "ticket_id"},
	{path: "issue", key: "key"},
	{path: "issue", key: "number"},
	{path: "data", key: "id"},
	{path: "data", key: "ticket_id"},
	{path: "data", key: "key"},
	{path: "data", key: "number"},
}

// extractTicketID applies the system's rule table against a parsed response
// body. Slack is handled by the router (webhooks return no identifier), so
// it has no rules here. Returns "" when nothing matches.
func extractTicketID(system SystemName, body map[string]any) string {
	if body == nil {
		return ""
	}

	var rules []extractRule
	switch system {
	case SystemJira:
		rules = jiraExtractRules
	case SystemFreshservice:
		rules = freshserviceExtractRules
	default:
		rules = genericExtractRules
	}

	for _, rule := range rules {
		scope := body
		if rule.path != "" {
			nested, ok := body[rule.path].(map[string]any)
			if !ok {
				continue
			}
			scope = nested
		}
		if value, ok := scope[rule.key]; ok {
			if id := stringifyID(value); id != "" {
				return id
			}
		}
	}
	return ""
}

// stringifyID renders a JSON scalar as an identifier string. Whole-number
// floats (the JSON decoding of integers) drop their fraction.
func stringifyID(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
