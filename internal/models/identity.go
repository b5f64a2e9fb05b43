package models

import (
	"strings"

	"github.com/google/uuid"
)

var reviewNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("review-intel/reviews"))

// StableReviewID derives a deterministic id from the review content so reruns
// over id-less input produce identical reports.
func StableReviewID(r ReviewRecord) string {
	key := strings.Join([]string{r.BusinessID, r.Platform, r.RawDate, r.Text}, "\x1f")
	return uuid.NewSHA1(reviewNamespace, []byte(key)).String()
}
