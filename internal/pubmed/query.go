// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import "fmt"

// baseQuery covers anesthesia and perioperative medicine crossed with
// randomization wording. Kept broad on purpose; the filter stage does the
// precise RCT screening.
const baseQuery = `(anesthesia OR anaesthesia OR anesthesiology OR perioperative OR ` +
	`peri-operative OR "perioperative care" OR "regional anesthesia" OR ` +
	`airway OR intubation OR "nerve block" OR analgesia) AND ` +
	`(randomized OR randomised)`

// BuildQuery returns the PubMed search query, ANDing extra terms when given.
func BuildQuery(extra string) string {
	if extra == "" {
		return baseQuery
	}
	return fmt.Sprintf("(%s) AND (%s)", baseQuery, extra)
}
