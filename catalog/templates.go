package catalog

// Symbolic stage owners. A template stage is owned either by a literal agency
// code or by one of these symbols, resolved against the instance's agency list.
const (
	OwnerPrimary  = "primary"
	OwnerAll      = "all"
	OwnerRelevant = "relevant"
)

// TemplateStage is one ordered step of a workflow template.
type TemplateStage struct {
	Name          string
	OwnerSymbol   string
	EstimatedDays int
}

// WorkflowTemplate is a named, ordered stage list. Templates are static; they
// are not editable at runtime.
type WorkflowTemplate struct {
	Name   string
	Stages []TemplateStage
}

var templates = map[string]WorkflowTemplate{
	"joint_investigation": {
		Name: "joint_investigation",
		Stages: []TemplateStage{
			{Name: "initial_assessment", OwnerSymbol: OwnerPrimary, EstimatedDays: 5},
			{Name: "evidence_gathering", OwnerSymbol: OwnerAll, EstimatedDays: 10},
			{Name: "joint_analysis", OwnerSymbol: OwnerAll, EstimatedDays: 7},
			{Name: "findings_review", OwnerSymbol: OwnerPrimary, EstimatedDays: 5},
			{Name: "enforcement_decision", OwnerSymbol: OwnerPrimary, EstimatedDays: 7},
			{Name: "remediation_monitoring", OwnerSymbol: OwnerRelevant, EstimatedDays: 30},
		},
	},
	"coordinated_approval": {
		Name: "coordinated_approval",
		Stages: []TemplateStage{
			{Name: "application_review", OwnerSymbol: OwnerPrimary, EstimatedDays: 10},
			{Name: "agency_consultation", OwnerSymbol: OwnerAll, EstimatedDays: 15},
			{Name: "conditions_drafting", OwnerSymbol: OwnerPrimary, EstimatedDays: 10},
			{Name: "final_approval", OwnerSymbol: OwnerPrimary, EstimatedDays: 5},
		},
	},
	"joint_monitoring": {
		Name: "joint_monitoring",
		Stages: []TemplateStage{
			{Name: "monitoring_setup", OwnerSymbol: OwnerPrimary, EstimatedDays: 7},
			{Name: "data_collection", OwnerSymbol: OwnerAll, EstimatedDays: 30},
			{Name: "periodic_review", OwnerSymbol: OwnerRelevant, EstimatedDays: 14},
		},
	},
}

// Template looks up a workflow template by name.
func Template(name string) (WorkflowTemplate, bool) {
	t, ok := templates[name]
	return t, ok
}

// TemplateNames lists the registered template names.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for n := range templates {
		names = append(names, n)
	}
	return names
}

// ResolveOwner maps a symbolic stage owner plus the instance's agency list to
// the concrete agency set. The first element is the lead agency the stage's
// action is assigned to.
func ResolveOwner(symbol, primary string, involved []string, jurisdiction string) []string {
	switch symbol {
	case OwnerPrimary, "":
		return []string{primary}
	case OwnerAll:
		seen := map[string]bool{primary: true}
		out := []string{primary}
		for _, a := range involved {
			if a != "" && !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
		return out
	case OwnerRelevant:
		out := []string{primary}
		if prov, ok := provincialRegulators[jurisdiction]; ok && prov != primary {
			out = append(out, prov)
		}
		return out
	default:
		return []string{symbol}
	}
}
