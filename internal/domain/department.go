package domain

// DefaultDepartmentID receives tickets the classifier cannot place and
// anchors the fallback SLA policy and escalation ladder.
const DefaultDepartmentID = "general"
