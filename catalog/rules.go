package catalog

// Severity levels, most severe first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
)

// Overall compliance statuses derived from a set of triggered flags.
const (
	StatusCompliant          = "compliant"
	StatusMonitoringRequired = "monitoring_required"
	StatusReviewRequired     = "review_required"
	StatusNonCompliant       = "non_compliant"
)

// RuleCondition is one numeric threshold check within a rule.
type RuleCondition struct {
	Field      string
	Comparator string // <, >, <=, >=, ==
	Threshold  float64
	Message    string
}

// Rule is one compliance rule in the static catalog. Rules are immutable and
// loaded once at process start; there is no runtime lifecycle.
type Rule struct {
	Type               string
	Severity           string
	Conditions         []RuleCondition
	RegulatoryImpact   string
	EscalationRequired bool
	// CoordinationTemplate names the workflow template an escalation from this
	// rule should start. Empty means no multi-agency coordination.
	CoordinationTemplate string
}

var rules = []Rule{
	{
		Type:     "capital_inadequacy",
		Severity: SeverityCritical,
		Conditions: []RuleCondition{
			{Field: "tier1_ratio", Comparator: "<", Threshold: 0.06, Message: "Tier 1 capital ratio below 6% regulatory minimum"},
			{Field: "total_capital_ratio", Comparator: "<", Threshold: 0.10, Message: "Total capital ratio below 10% regulatory minimum"},
		},
		RegulatoryImpact:     "capital_adequacy_breach",
		EscalationRequired:   true,
		CoordinationTemplate: "joint_investigation",
	},
	{
		Type:     "liquidity_shortfall",
		Severity: SeverityCritical,
		Conditions: []RuleCondition{
			{Field: "liquidity_coverage_ratio", Comparator: "<", Threshold: 1.0, Message: "Liquidity coverage ratio below 100%"},
		},
		RegulatoryImpact:   "liquidity_breach",
		EscalationRequired: true,
	},
	{
		Type:     "aml_reporting_gap",
		Severity: SeverityHigh,
		Conditions: []RuleCondition{
			{Field: "unreported_suspicious_txns", Comparator: ">", Threshold: 0, Message: "Suspicious transactions not reported"},
			{Field: "late_str_filings", Comparator: ">", Threshold: 5, Message: "More than 5 late STR filings"},
		},
		RegulatoryImpact:   "aml_obligation_breach",
		EscalationRequired: true,
	},
	{
		Type:     "conduct_breach",
		Severity: SeverityHigh,
		Conditions: []RuleCondition{
			{Field: "mis_sold_products", Comparator: ">", Threshold: 0, Message: "Products sold in breach of market conduct rules"},
		},
		RegulatoryImpact:   "consumer_protection_breach",
		EscalationRequired: true,
	},
	{
		Type:     "operational_risk",
		Severity: SeverityMedium,
		Conditions: []RuleCondition{
			{Field: "consumer_complaints", Comparator: ">", Threshold: 100, Message: "Consumer complaint volume above monitoring threshold"},
			{Field: "system_outages", Comparator: ">", Threshold: 5, Message: "More than 5 reportable system outages"},
		},
		RegulatoryImpact:   "operational_resilience_concern",
		EscalationRequired: false,
	},
	{
		Type:     "filing_timeliness",
		Severity: SeverityMedium,
		Conditions: []RuleCondition{
			{Field: "days_overdue", Comparator: ">", Threshold: 30, Message: "Filing more than 30 days overdue"},
		},
		RegulatoryImpact:   "reporting_obligation_breach",
		EscalationRequired: false,
	},
}

// Rules returns the full catalog in evaluation order.
func Rules() []Rule {
	return rules
}

// RuleByType looks up a single rule by its type key.
func RuleByType(ruleType string) (Rule, bool) {
	for _, r := range rules {
		if r.Type == ruleType {
			return r, true
		}
	}
	return Rule{}, false
}

// ConditionMet evaluates one condition against an observed value. Absent or
// non-numeric submission fields are coerced to 0 upstream before this is called.
func ConditionMet(c RuleCondition, observed float64) bool {
	switch c.Comparator {
	case "<":
		return observed < c.Threshold
	case ">":
		return observed > c.Threshold
	case "<=":
		return observed <= c.Threshold
	case ">=":
		return observed >= c.Threshold
	case "==":
		return observed == c.Threshold
	default:
		return false
	}
}

var severityRank = map[string]int{
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// OverallStatus derives the check status from the severities of the triggered
// flags. More severe always wins: any critical flag makes the run
// non_compliant regardless of what else triggered.
func OverallStatus(severities []string) string {
	worst := 0
	for _, s := range severities {
		if r := severityRank[s]; r > worst {
			worst = r
		}
	}
	switch worst {
	case 3:
		return StatusNonCompliant
	case 2:
		return StatusReviewRequired
	case 1:
		return StatusMonitoringRequired
	default:
		return StatusCompliant
	}
}

// EscalationPriority maps flag severity to escalation priority.
func EscalationPriority(severity string) string {
	if severity == SeverityCritical {
		return "urgent"
	}
	return "high"
}
