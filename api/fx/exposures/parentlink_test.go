package exposures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanApprovalPartition(t *testing.T) {
	statuses := map[string]string{
		"h1": "Pending",
		"h2": "Delete-Approval",
		"h3": "Approved",
		"h4": "Rejected",
		"h5": "pending delete",
	}
	plan := PlanApproval(statuses, []string{"h1", "h2", "h3", "h4", "h5"})
	assert.Equal(t, []string{"h2", "h5"}, plan.ToDelete)
	assert.Equal(t, []string{"h1", "h4"}, plan.ToApprove)
	assert.Equal(t, []string{"h3"}, plan.Skipped)
}

func TestPlanApprovalSkipsUnknownIds(t *testing.T) {
	plan := PlanApproval(map[string]string{"h1": "Pending"}, []string{"h1", "missing"})
	assert.Equal(t, []string{"h1"}, plan.ToApprove)
	assert.Empty(t, plan.ToDelete)
	assert.Empty(t, plan.Skipped)
}

func TestResolveParentLinkPerType(t *testing.T) {
	cases := []struct {
		exposureType string
		details      map[string]interface{}
		wantKind     RolloverKind
		wantParent   string
	}{
		{
			"LC",
			map[string]interface{}{"input_letters_of_credit": map[string]interface{}{"linked_po_so_number": "PO-77"}},
			KindLetterOfCredit, "PO-77",
		},
		{
			"grn",
			map[string]interface{}{"input_grn": map[string]interface{}{"linked_id": "PO-12"}},
			KindGRN, "PO-12",
		},
		{
			"Creditors",
			map[string]interface{}{"input_creditors": map[string]interface{}{"linked_id": "GRN-9"}},
			KindCreditors, "GRN-9",
		},
		{
			"debitors",
			map[string]interface{}{"input_debitors": map[string]interface{}{"linked_id": "SO-3"}},
			KindDebitors, "SO-3",
		},
	}
	for _, c := range cases {
		link := ResolveParentLink(c.exposureType, c.details)
		assert.Equal(t, c.wantKind, link.Kind, "type %s", c.exposureType)
		assert.Equal(t, c.wantParent, link.ParentDocumentID, "type %s", c.exposureType)
		assert.True(t, link.HasParent(), "type %s", c.exposureType)
	}
}

func TestResolveParentLinkNoLink(t *testing.T) {
	// PO and SO never carry a parent pointer.
	link := ResolveParentLink("PO", map[string]interface{}{"input_purchase_orders": map[string]interface{}{"linked_id": "X"}})
	assert.Equal(t, KindOther, link.Kind)
	assert.False(t, link.HasParent())

	// Right type, missing section.
	link = ResolveParentLink("LC", map[string]interface{}{})
	assert.Equal(t, KindLetterOfCredit, link.Kind)
	assert.False(t, link.HasParent())

	link = ResolveParentLink("LC", nil)
	assert.False(t, link.HasParent())
}

func TestResolveParentLinkTrimsWhitespace(t *testing.T) {
	link := ResolveParentLink("GRN", map[string]interface{}{"input_grn": map[string]interface{}{"linked_id": "  PO-12  "}})
	assert.Equal(t, "PO-12", link.ParentDocumentID)
}
