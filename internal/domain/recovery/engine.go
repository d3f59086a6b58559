// Package recovery scores loans and picks a recovery action from a fixed table.
package recovery

import "smart-loan-recovery/internal/domain/loan"

type Action string

const (
	ActionReminder    Action = "reminder"
	ActionRenegotiate Action = "renegotiate"
	ActionEscalate    Action = "escalate"
)

const (
	LowRisk  = 0.2
	HighRisk = 0.8
)

// RiskScore is a placeholder until a real model exists: high for loans in
// arrears, low otherwise.
func RiskScore(s loan.Status) float64 {
	switch s {
	case loan.StatusOverdue, loan.StatusDefaulted:
		return HighRisk
	}
	return LowRisk
}

type RiskBucket int

const (
	RiskLow RiskBucket = iota
	RiskMedium
	RiskHigh
)

type MissedBucket int

const (
	MissedNone MissedBucket = iota
	MissedSome
	MissedMany
)

func BucketRisk(score float64) RiskBucket {
	switch {
	case score > 0.7:
		return RiskHigh
	case score > 0.4:
		return RiskMedium
	}
	return RiskLow
}

func BucketMissed(n int) MissedBucket {
	switch {
	case n > 2:
		return MissedMany
	case n > 0:
		return MissedSome
	}
	return MissedNone
}

// any* match every bucket.
const (
	anyRisk   RiskBucket   = -1
	anyMissed MissedBucket = -1
)

type rule struct {
	risk   RiskBucket
	missed MissedBucket
	action Action
}

// table is evaluated top to bottom; the last row catches what remains.
var table = [...]rule{
	{RiskHigh, anyMissed, ActionEscalate},
	{anyRisk, MissedMany, ActionEscalate},
	{RiskMedium, anyMissed, ActionRenegotiate},
	{anyRisk, MissedSome, ActionRenegotiate},
	{RiskLow, MissedNone, ActionReminder},
}

func (r rule) matches(rb RiskBucket, mb MissedBucket) bool {
	return (r.risk == anyRisk || r.risk == rb) && (r.missed == anyMissed || r.missed == mb)
}

// Recommend maps a risk score and missed-payment count to an action.
// Scores are clamped to [0,1] and negative counts to 0, so every input has an answer.
func Recommend(score float64, missed int) Action {
	if score < 0 {
		score = 0
	} else if score > 1 {
		score = 1
	}
	if missed < 0 {
		missed = 0
	}
	rb, mb := BucketRisk(score), BucketMissed(missed)
	for _, r := range table {
		if r.matches(rb, mb) {
			return r.action
		}
	}
	return ActionReminder
}
