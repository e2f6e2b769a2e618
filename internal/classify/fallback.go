package classify

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-triage/internal/domain"
)

// FallbackModelVersion identifies keyword-derived results in audit records.
const FallbackModelVersion = "fallback-keywords"

// departmentKeywords drives the keyword fallback. A department scores one
// point per keyword present in the lowercased title+description.
var departmentKeywords = map[domain.Department][]string{
	domain.DepartmentIT:         {"vpn", "computer", "laptop", "password", "email", "network", "wifi", "software", "login", "system"},
	domain.DepartmentHR:         {"benefits", "payroll", "vacation", "pto", "onboarding", "training", "employment", "hiring"},
	domain.DepartmentFacilities: {"office", "room", "building", "parking", "heating", "cooling", "maintenance", "cleaning"},
	domain.DepartmentSecurity:   {"phishing", "malware", "suspicious", "breach", "access", "badge", "security"},
	domain.DepartmentFinance:    {"expense", "invoice", "payment", "budget", "procurement", "vendor", "reimbursement"},
	domain.DepartmentLegal:      {"contract", "compliance", "gdpr", "privacy", "legal", "lawsuit", "regulation"},
}

// fallbackScanOrder fixes the tie-break: the first department in this order
// reaching the maximum score wins.
var fallbackScanOrder = []domain.Department{
	domain.DepartmentIT,
	domain.DepartmentHR,
	domain.DepartmentFacilities,
	domain.DepartmentSecurity,
	domain.DepartmentFinance,
	domain.DepartmentLegal,
}

// ClassifyByKeywords is the deterministic fallback classifier. It never
// fails and performs no I/O: departments are scored by keyword presence and
// zero matches yield GENERAL at 0.3 confidence.
func ClassifyByKeywords(ticket domain.IncomingTicket) domain.ClassificationResult {
	combined := strings.ToLower(ticket.Title) + " " + strings.ToLower(ticket.Description)

	best := domain.DepartmentGeneral
	bestScore := 0
	for _, dept := range fallbackScanOrder {
		score := 0
		for _, keyword := range departmentKeywords[dept] {
			if strings.Contains(combined, keyword) {
				score++
			}
		}
		if score > bestScore {
			best = dept
			bestScore = score
		}
	}

	confidence := 0.3
	if bestScore > 0 {
		confidence = 0.4 + 0.1*float64(bestScore)
		if confidence > 0.7 {
			confidence = 0.7
		}
	}

	return domain.ClassificationResult{
		Department:   best,
		AssignedTeam: domain.DefaultTeamFor(best),
		Confidence:   confidence,
		Reasoning:    fmt.Sprintf("Fallback classification based on keyword analysis. Matched %d keywords for %s.", bestScore, best),
		ModelVersion: FallbackModelVersion,
	}
}
