package exposures

import "strings"

// RolloverKind identifies the document families that roll over into a parent
// document on approval. Anything else carries no parent link.
type RolloverKind int

const (
	KindOther RolloverKind = iota
	KindLetterOfCredit
	KindGRN
	KindCreditors
	KindDebitors
)

// ParentLink is the resolved pointer from a child document to the parent
// document it rolls over against. Zero value means "no link".
type ParentLink struct {
	Kind             RolloverKind
	ParentDocumentID string
}

// HasParent reports whether the link points at a parent document.
func (p ParentLink) HasParent() bool {
	return p.Kind != KindOther && p.ParentDocumentID != ""
}

func kindForType(exposureType string) RolloverKind {
	switch strings.ToLower(strings.TrimSpace(exposureType)) {
	case "lc":
		return KindLetterOfCredit
	case "grn":
		return KindGRN
	case "creditors":
		return KindCreditors
	case "debitors":
		return KindDebitors
	default:
		return KindOther
	}
}

// ResolveParentLink extracts the type-specific linked document id from a
// header's additional_header_details blob. Each document family stores the
// pointer under its own input section and key.
func ResolveParentLink(exposureType string, details map[string]interface{}) ParentLink {
	kind := kindForType(exposureType)
	if kind == KindOther || details == nil {
		return ParentLink{Kind: KindOther}
	}

	var section, field string
	switch kind {
	case KindLetterOfCredit:
		section, field = "input_letters_of_credit", "linked_po_so_number"
	case KindGRN:
		section, field = "input_grn", "linked_id"
	case KindCreditors:
		section, field = "input_creditors", "linked_id"
	case KindDebitors:
		section, field = "input_debitors", "linked_id"
	}

	sub, ok := details[section].(map[string]interface{})
	if !ok {
		return ParentLink{Kind: kind}
	}
	linked, _ := sub[field].(string)
	return ParentLink{Kind: kind, ParentDocumentID: strings.TrimSpace(linked)}
}

// ApprovalPlan partitions a batch of headers by their current approval
// status: delete-approval rows get deleted, pending/rejected rows get
// approved, already-approved rows are skipped untouched.
type ApprovalPlan struct {
	ToDelete  []string
	ToApprove []string
	Skipped   []string
}

// PlanApproval builds the partition for a batch. Statuses containing
// "delete" (any casing) route to deletion regardless of exact wording.
func PlanApproval(statusByHeader map[string]string, order []string) ApprovalPlan {
	plan := ApprovalPlan{
		ToDelete:  []string{},
		ToApprove: []string{},
		Skipped:   []string{},
	}
	for _, id := range order {
		status, ok := statusByHeader[id]
		if !ok {
			continue
		}
		s := strings.ToLower(status)
		switch {
		case strings.Contains(s, "delete"):
			plan.ToDelete = append(plan.ToDelete, id)
		case s == "pending" || s == "rejected":
			plan.ToApprove = append(plan.ToApprove, id)
		case s == "approved":
			plan.Skipped = append(plan.Skipped, id)
		}
	}
	return plan
}
