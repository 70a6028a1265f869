package models

// IssueKind represents the category of a validation issue
type IssueKind string

const (
	IssueUnknownItem             IssueKind = "unknown_item"
	IssueAmbiguousItem           IssueKind = "ambiguous_item"
	IssueUnsupportedModification IssueKind = "unsupported_modification"
	IssueInsufficientInventory   IssueKind = "insufficient_inventory"
	IssueInvalidQuantity         IssueKind = "invalid_quantity"
	IssueInvalidRoom             IssueKind = "invalid_room"
)

// RoomLine is the line index used for issues that concern the whole order
const RoomLine = -1

// ValidationIssue describes one problem found in a draft order
type ValidationIssue struct {
	Kind       IssueKind   `json:"kind"`
	Line       int         `json:"line"`
	Subject    string      `json:"subject"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Message    string      `json:"message"`
}

// IsItemIssue reports whether the issue concerns item resolution
func (i ValidationIssue) IsItemIssue() bool {
	return i.Kind == IssueUnknownItem || i.Kind == IssueAmbiguousItem
}

// IsQuantityIssue reports whether the issue concerns quantity or stock
func (i ValidationIssue) IsQuantityIssue() bool {
	return i.Kind == IssueInsufficientInventory || i.Kind == IssueInvalidQuantity
}

// IssueSummary counts outstanding issues by the stage that must resolve them
type IssueSummary struct {
	Items         int
	Modifications int
	Quantities    int
	Room          int
}

// Summarize groups issues by resolution stage
func Summarize(issues []ValidationIssue) IssueSummary {
	var s IssueSummary
	for _, issue := range issues {
		switch {
		case issue.IsItemIssue():
			s.Items++
		case issue.Kind == IssueUnsupportedModification:
			s.Modifications++
		case issue.IsQuantityIssue():
			s.Quantities++
		case issue.Kind == IssueInvalidRoom:
			s.Room++
		}
	}
	return s
}

// Clear reports whether no issues remain
func (s IssueSummary) Clear() bool {
	return s.Items == 0 && s.Modifications == 0 && s.Quantities == 0 && s.Room == 0
}
