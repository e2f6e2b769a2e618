package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/domain"
	"github.com/spec-kit/ticket-triage/internal/genai"
	"github.com/spec-kit/ticket-triage/internal/resilience"
)

// Classifier assigns a department and team to incoming tickets. The AI
// backend is optional: when it is absent, errors out, or returns output that
// cannot be validated, the keyword fallback supplies the result. Classify
// never returns an error to its caller.
type Classifier struct {
	generator genai.TextGenerator
	cache     *Cache
	retry     resilience.Policy
	model     string
	logger    *zap.Logger
}

// Dependencies bundles classifier collaborators.
type Dependencies struct {
	Generator genai.TextGenerator
	Cache     *Cache
	Retry     resilience.Policy
	Model     string
	Logger    *zap.Logger
}

// NewClassifier constructs the classifier.
func NewClassifier(deps Dependencies) *Classifier {
	cache := deps.Cache
	if cache == nil {
		cache = NewCache(DefaultCacheSize)
	}
	retry := deps.Retry
	if retry.MaxAttempts == 0 {
		retry = resilience.DefaultPolicy
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		generator: deps.Generator,
		cache:     cache,
		retry:     retry,
		model:     deps.Model,
		logger:    logger,
	}
}

// Classify produces a classification for the ticket. Cached results are
// returned verbatim, including the processing time recorded on first
// computation.
func (c *Classifier) Classify(ctx context.Context, ticket domain.IncomingTicket) domain.ClassificationResult {
	start := time.Now()

	key := Fingerprint(ticket.Title, ticket.Description)
	if cached, ok := c.cache.Get(key); ok {
		c.logger.Info("using cached classification",
			zap.String("department", string(cached.Department)))
		return cached
	}

	if c.generator == nil {
		result := ClassifyByKeywords(ticket)
		result.ProcessingTime = time.Since(start)
		return result
	}

	prompt := buildClassificationPrompt(ticket)

	var raw string
	err := c.retry.Do(ctx, func() error {
		var genErr error
		raw, genErr = c.generator.Generate(ctx, prompt, genai.GenerationOptions{
			Temperature:     0.1,
			TopP:            0.9,
			TopK:            40,
			MaxOutputTokens: 500,
		})
		return genErr
	}, nil)
	if err != nil {
		c.logger.Warn("classification backend failed, using fallback", zap.Error(err))
		result := ClassifyByKeywords(ticket)
		result.ProcessingTime = time.Since(start)
		return result
	}

	parsed, err := parseClassificationResponse(raw)
	if err != nil {
		c.logger.Warn("unparseable classification response, using fallback",
			zap.Error(err), zap.String("response_preview", preview(raw, 200)))
		result := ClassifyByKeywords(ticket)
		result.ProcessingTime = time.Since(start)
		return result
	}

	result := domain.ClassificationResult{
		Department:     parsed.department,
		AssignedTeam:   parsed.team,
		Confidence:     parsed.confidence,
		Reasoning:      parsed.reasoning,
		ProcessingTime: time.Since(start),
		ModelVersion:   c.model,
	}
	c.cache.Put(key, result)

	c.logger.Info("ticket classified",
		zap.String("department", string(result.Department)),
		zap.Float64("confidence", result.Confidence),
		zap.String("reasoning", preview(result.Reasoning, 200)))
	return result
}

// CacheSize reports how many classifications are memoized.
func (c *Classifier) CacheSize() int {
	return c.cache.Size()
}

// ModelVersion returns the identifier stamped on AI-sourced results.
func (c *Classifier) ModelVersion() string {
	return c.model
}

type validatedClassification struct {
	department domain.Department
	team       string
	confidence float64
	reasoning  string
}

// parseClassificationResponse extracts the first balanced JSON object from
// the backend response and validates it against the department enumeration.
func parseClassificationResponse(response string) (*validatedClassification, error) {
	jsonContent, ok := firstJSONObject(response)
	if !ok {
		return nil, errors.New("no JSON object found in classification response")
	}

	var parsed struct {
		Department *string  `json:"department"`
		Team       *string  `json:"team"`
		Confidence *float64 `json:"confidence"`
		Reasoning  *string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonContent), &parsed); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	if parsed.Department == nil || parsed.Team == nil || parsed.Confidence == nil || parsed.Reasoning == nil {
		return nil, errors.New("classification response missing required fields")
	}

	dept, known := domain.ParseDepartment(*parsed.Department)
	if !known {
		dept = domain.DepartmentGeneral
	}

	team := *parsed.Team
	if !domain.ValidTeamFor(dept, team) {
		team = domain.DefaultTeamFor(dept)
	}

	return &validatedClassification{
		department: dept,
		team:       team,
		confidence: domain.ClampConfidence(*parsed.Confidence),
		reasoning:  *parsed.Reasoning,
	}, nil
}

// firstJSONObject returns the first balanced {...} substring, tracking
// string literals so braces inside values don't confuse the scan.
func firstJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

type promptExample struct {
	title       string
	description string
	department  string
	team        string
	reasoning   string
}

var promptExamples = []promptExample{
	{
		title:       "VPN connection issues after Windows update",
		description: "Cannot connect to company VPN after latest Windows update. Getting timeout errors.",
		department:  "IT",
		team:        "network_team",
		reasoning:   "Network connectivity issue requiring IT support for VPN troubleshooting.",
	},
	{
		title:       "New employee onboarding documents",
		description: "Need to complete I-9 forms and benefits enrollment for new hire starting Monday.",
		department:  "HR",
		team:        "hr_operations",
		reasoning:   "Employee onboarding and documentation handled by HR operations.",
	},
	{
		title:       "Conference room booking system not working",
		description: "Meeting room reservation system is down, cannot book rooms for client meetings.",
		department:  "FACILITIES",
		team:        "facilities_management",
		reasoning:   "Office systems and meeting room management falls under facilities.",
	},
	{
		title:       "Expense report approval delayed",
		description: "Submitted expense report 2 weeks ago but still pending approval in the system.",
		department:  "FINANCE",
		team:        "finance_team",
		reasoning:   "Expense management and approval processes are handled by finance.",
	},
	{
		title:       "Data privacy compliance question",
		description: "Need guidance on GDPR compliance for customer data collection in new product.",
		department:  "LEGAL",
		team:        "compliance_team",
		reasoning:   "Privacy compliance and legal guidance required from legal team.",
	},
	{
		title:       "Suspicious email with potential malware",
		description: "Received suspicious email with attachment, may be phishing attempt.",
		department:  "SECURITY",
		team:        "infosec_team",
		reasoning:   "Security incident requiring immediate attention from information security.",
	},
}

// buildClassificationPrompt assembles the few-shot prompt with the fixed
// worked examples and the department enumeration.
func buildClassificationPrompt(ticket domain.IncomingTicket) string {
	var b strings.Builder
	b.WriteString(`You are an expert IT ticket classifier for a corporate environment.

Your task is to classify incoming tickets into the appropriate department and assign them to the most suitable team.

Available departments: IT, HR, FACILITIES, FINANCE, LEGAL, SECURITY, GENERAL

Here are examples of correct classifications:

`)
	for i, example := range promptExamples {
		fmt.Fprintf(&b, `Example %d:
Title: %s
Description: %s
Classification:
- Department: %s
- Team: %s
- Reasoning: %s

`, i+1, example.title, example.description, example.department, example.team, example.reasoning)
	}

	fmt.Fprintf(&b, `Now classify this ticket:

Title: %s
Description: %s
Priority: %s
User Email: %s

Provide your classification in this exact JSON format:
{
    "department": "DEPARTMENT_NAME",
    "team": "specific_team_name",
    "confidence": 0.95,
    "reasoning": "Brief explanation of why this classification was chosen"
}

Important guidelines:
1. Be conservative with confidence scores (0.6-1.0 range)
2. Use GENERAL department only when no other department clearly fits
3. Consider the priority level when assigning teams
4. Base your decision on keywords, context, and business domain knowledge
5. Provide clear reasoning for your classification choice

Classification:`, ticket.Title, ticket.Description, ticket.Priority, ticket.Email)

	return b.String()
}

// preview shortens s to at most max characters for log fields.
func preview(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
