package metrics

import "strconv"

var (
	recommendations = newCounterVec("recommendations_total",
		"Motor recommendations computed, with fallback flags",
		"motor", "motor_fallback", "battery_fallback")

	wizardTransitions = newCounterVec("wizard_transitions_total",
		"Wizard events by the phase they ended in",
		"event", "phase")

	leadsSubmitted = newCounterVec("leads_submitted_total",
		"Lead submissions by channel and outcome",
		"channel", "status")

	crmCalls = newCounterVec("crm_api_calls_total",
		"Pipedrive requests by operation and outcome",
		"operation", "status")

	sheetsGenerated = newCounterVec("sheets_generated_total",
		"Recommendation sheets rendered",
		"status")

	emailsSent = newCounterVec("emails_sent_total",
		"Emails sent by template and outcome",
		"template", "status")
)

// WizardSessionsActive tracks sessions held by the session store.
var WizardSessionsActive = newGauge("wizard_sessions_active",
	"Wizard sessions held by the session store")

// RecommendationComputed records one engine call.
func RecommendationComputed(motor string, motorFallback, batteryFallback bool) {
	recommendations.WithLabelValues(motor,
		strconv.FormatBool(motorFallback),
		strconv.FormatBool(batteryFallback)).Inc()
}

// WizardTransition records a wizard event and the phase it ended in.
func WizardTransition(event, phase string) {
	wizardTransitions.WithLabelValues(event, phase).Inc()
}

// LeadSubmitted records a lead hand-off. Channel is "wizard" or "direct".
func LeadSubmitted(channel string, err error) {
	leadsSubmitted.WithLabelValues(channel, outcome(err)).Inc()
}

func CRMCall(operation string, err error) {
	crmCalls.WithLabelValues(operation, outcome(err)).Inc()
}

func SheetGenerated(err error) {
	sheetsGenerated.WithLabelValues(outcome(err)).Inc()
}

func EmailSent(template string, err error) {
	emailsSent.WithLabelValues(template, outcome(err)).Inc()
}
