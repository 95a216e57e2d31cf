package signup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sagaOutcomes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mamagadhi_signup_outcomes_total",
		Help: "Signup saga terminal outcomes.",
	},
	[]string{"outcome"},
)

const (
	outcomeSuccess            = "success"
	outcomeChallengeFailed    = "challenge_failed"
	outcomeInvalidCode        = "invalid_code"
	outcomeDuplicateEmail     = "duplicate_email"
	outcomeWeakPassword       = "weak_password"
	outcomeMalformedEmail     = "malformed_email"
	outcomeProfileWriteFailed = "profile_write_failed"
	outcomeOther              = "other"
)
