package throwable

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// FromError builds a Node tree from a Go error chain. The dynamic type becomes
// the name and Error() the message. A single wrapped error becomes the cause;
// errors joined with errors.Join become suppressed entries.
func FromError(err error) *Node {
	if err == nil {
		return nil
	}
	root := &Node{Name: fmt.Sprintf("%T", err), Message: err.Error()}

	cur, curErr := root, err
	for {
		switch u := curErr.(type) {
		case interface{ Unwrap() []error }:
			for _, e := range u.Unwrap() {
				if s := FromError(e); s != nil {
					cur.Suppressed = append(cur.Suppressed, s)
				}
			}
			return root
		case interface{ Unwrap() error }:
			next := u.Unwrap()
			if next == nil {
				return root
			}
			cur.Cause = &Node{Name: fmt.Sprintf("%T", next), Message: next.Error()}
			cur, curErr = cur.Cause, next
		default:
			return root
		}
	}
}

// Fingerprint returns a stable hex digest of the extended canonical text of
// n. Structurally equal trees share a fingerprint.
func Fingerprint(n *Node) string {
	sum := sha256.Sum256(AppendFormat(nil, n, true))
	return hex.EncodeToString(sum[:])
}
