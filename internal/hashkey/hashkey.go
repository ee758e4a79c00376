// Package hashkey computes the deterministic policy content-hash used by
// the hash-diff planner to decide which people need
// recomputation when a policy's definition changes.
package hashkey

import (
	"crypto/md5" //nolint:gosec // cache key, not a security primitive; see DESIGN.md
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/mysociety/policyscore/internal/model"
)

// LinkKey is the per-decision component of a policy's composite key:
// "{decision_key}-{alignment}-{strength}".
func LinkKey(decisionKey string, alignment model.PolicyDirection, strength model.PolicyStrength) string {
	return fmt.Sprintf("%s-%s-%s", decisionKey, alignment, strength)
}

// CompositeKey builds the full composite key a policy's hash is derived
// from: the policy id, chamber and strength meaning, followed by every
// link key sorted lexicographically ascending and joined with "-".
//
// Sort order matters: two policies with the same links in different
// input order must produce the same composite key, hence the same hash.
func CompositeKey(policyID int64, chamber model.ChamberSlug, meaning model.StrengthMeaning, linkKeys []string) string {
	sorted := make([]string, len(linkKeys))
	copy(sorted, linkKeys)
	sort.Strings(sorted)

	prefix := fmt.Sprintf("%d-%s-%s", policyID, chamber, meaning)
	if len(sorted) == 0 {
		return prefix
	}
	return prefix + "-" + strings.Join(sorted, "-")
}

// Hash returns the first 8 hex digits of the MD5 digest of the UTF-8
// bytes of key — collision resistance at this width is sufficient for
// in-flight change detection at the scale of a national legislature's
// policy set (~10^4 policies); do not tighten or loosen without a
// coordinated change on every writer.
func Hash(key string) string {
	sum := md5.Sum([]byte(key)) //nolint:gosec // see package doc
	return hex.EncodeToString(sum[:])[:8]
}

// ComputePolicyHash is the convenience wrapper combining CompositeKey
// and Hash.
func ComputePolicyHash(policyID int64, chamber model.ChamberSlug, meaning model.StrengthMeaning, linkKeys []string) string {
	return Hash(CompositeKey(policyID, chamber, meaning, linkKeys))
}
