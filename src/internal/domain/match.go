package domain

type MatchClassification string

const (
	MatchExact      MatchClassification = "EXACT"
	MatchClose      MatchClassification = "CLOSE"
	MatchSuspicious MatchClassification = "SUSPICIOUS"
)

// MatchCandidate is a transient scored pairing between a movement and a
// receivable. Candidates are never persisted; low-confidence ones stay
// reachable through the debug path so an operator can audit them.
type MatchCandidate struct {
	MovementID     string
	ReceivableID   string
	Confidence     int // 0..100
	Classification MatchClassification
	AmountPoints   int
	DatePoints     int
	IdentityPoints int
	DateDistance   int // days between movement date and the nearest reference date
	Notes          []string
}
