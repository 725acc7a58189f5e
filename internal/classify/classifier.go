package classify

import (
	"strings"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Result is the classifier's opaque output: the ticket core only uses it
// to pick the department whose SLA policy and escalation ladder apply.
type Result struct {
	Category     string
	DepartmentID string
	Priority     domain.TicketPriority
}

// Classifier infers a category, department, and priority from free text.
type Classifier interface {
	Classify(title, description string) Result
}

type categoryRule struct {
	category   string
	department string
	keywords   []string
}

// Keyword tables are ordered; the first matching rule wins.
var categoryRules = []categoryRule{
	{category: "billing", department: "billing", keywords: []string{"invoice", "charge", "refund", "payment", "billed", "overcharged"}},
	{category: "delivery", department: "logistics", keywords: []string{"delivery", "shipment", "courier", "package", "late", "tracking"}},
	{category: "technical", department: "support", keywords: []string{"error", "crash", "broken", "bug", "not working", "cannot login", "outage"}},
	{category: "account", department: "support", keywords: []string{"password", "account", "login", "profile", "email change"}},
}

var urgentKeywords = []string{"urgent", "immediately", "asap", "emergency", "legal", "lawyer", "data loss"}
var highKeywords = []string{"angry", "unacceptable", "third time", "still waiting", "escalate", "complaint"}

type keywordClassifier struct{}

// NewKeywordClassifier returns the fixed keyword-table classifier.
func NewKeywordClassifier() Classifier {
	return keywordClassifier{}
}

func (keywordClassifier) Classify(title, description string) Result {
	text := strings.ToLower(title + " " + description)

	result := Result{
		Category:     "general",
		DepartmentID: domain.DefaultDepartmentID,
		Priority:     domain.TicketPriorityMedium,
	}
	for _, rule := range categoryRules {
		if containsAny(text, rule.keywords) {
			result.Category = rule.category
			result.DepartmentID = rule.department
			break
		}
	}
	if containsAny(text, urgentKeywords) {
		result.Priority = domain.TicketPriorityUrgent
	} else if containsAny(text, highKeywords) {
		result.Priority = domain.TicketPriorityHigh
	}
	return result
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
