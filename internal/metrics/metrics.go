package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verifications counts verification attempts by type and outcome.
var Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "faceattend_verifications_total",
	Help: "Verification attempts by type (gate/classroom) and result.",
}, []string{"type", "result"})

// StudentsRegistered counts successful student registrations.
var StudentsRegistered = promauto.NewCounter(prometheus.CounterOpts{
	Name: "faceattend_students_registered_total",
	Help: "Successfully registered students.",
})
