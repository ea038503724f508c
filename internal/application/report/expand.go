package report

import (
	"errors"
	"net/url"
	"strings"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// documentFields limits the document payload to what the report reads
const documentFields = "[id,number,emissionDate,documentTypeId,trackingNumber,token," +
	"netAmount,taxAmount,totalAmount,totalDiscount," +
	"client,office,user,coin,priceList,details]"

// documentTypeRelation is the expansion some accounts reject
const documentTypeRelation = "document_type"

var baseExpand = []string{"details", "client", "office", "user", "coin", "priceList"}

// expandNegotiator holds the documents request shape for one run. It drops
// the document_type expansion at most once and keeps it dropped.
type expandNegotiator struct {
	withDocumentType bool
}

func newExpandNegotiator() *expandNegotiator {
	return &expandNegotiator{withDocumentType: true}
}

// params builds the documents query for r
func (n *expandNegotiator) params(r DateRange) url.Values {
	relations := append([]string(nil), baseExpand...)
	if n.withDocumentType {
		relations = append(relations, documentTypeRelation)
	}

	params := url.Values{}
	params.Set("expand", strings.Join(relations, ","))
	params.Set("fields", documentFields)
	if r.Bounded() {
		params.Set("emissiondaterange", r.EmissionDateRange())
	}
	return params
}

// downgrade drops the document_type expansion when err is the API refusing
// it. It returns false when there is nothing left to drop or err is
// unrelated.
func (n *expandNegotiator) downgrade(err error) bool {
	if !n.withDocumentType || err == nil {
		return false
	}
	if !errors.Is(err, sales.ErrRequestRejected) && !errors.Is(err, sales.ErrPermissionDenied) {
		return false
	}
	if !strings.Contains(err.Error(), documentTypeRelation) {
		return false
	}
	n.withDocumentType = false
	return true
}

// downgraded reports whether the expansion was reduced
func (n *expandNegotiator) downgraded() bool {
	return !n.withDocumentType
}
