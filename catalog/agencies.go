package catalog

import "sort"

// Agency codes. OSFI is the federal prudential regulator, FCAC consumer
// protection, FINTRAC anti-money-laundering, CDIC deposit insurance; OSC, AMF
// and BCFSA are provincial regulators.
const (
	AgencyOSFI    = "OSFI"
	AgencyFCAC    = "FCAC"
	AgencyFINTRAC = "FINTRAC"
	AgencyCDIC    = "CDIC"
	AgencyOSC     = "OSC"
	AgencyAMF     = "AMF"
	AgencyBCFSA   = "BCFSA"
)

// provincialRegulators maps a jurisdiction to its own named regulator.
// Jurisdictions not listed here have no provincial overlay.
var provincialRegulators = map[string]string{
	"ON": AgencyOSC,
	"QC": AgencyAMF,
	"BC": AgencyBCFSA,
}

// filingTypeAgencies is the static filing-type -> base agency list table.
// "provincial" is a placeholder resolved against the entity's jurisdiction.
var filingTypeAgencies = map[string][]string{
	"quarterly_return":          {AgencyOSFI, "provincial"},
	"annual_report":             {AgencyOSFI, "provincial"},
	"capital_adequacy_return":   {AgencyOSFI},
	"str_report":                {AgencyFINTRAC},
	"consumer_complaint_report": {AgencyFCAC},
	"market_conduct_report":     {AgencyFCAC, "provincial"},
}

// sectorOverlays adds sector-specific oversight per entity type.
var sectorOverlays = map[string]string{
	"insurer":      AgencyOSFI,
	"bank":         AgencyCDIC,
	"credit_union": "provincial",
}

// ProvincialRegulator returns the jurisdiction's own regulator, if any.
func ProvincialRegulator(jurisdiction string) (string, bool) {
	a, ok := provincialRegulators[jurisdiction]
	return a, ok
}

// TargetAgencies resolves the de-duplicated set of agencies a filing must be
// distributed to. Order is insignificant; callers treat the result as a set.
func TargetAgencies(filingType, jurisdiction, entityType string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(agency string) {
		if agency == "provincial" {
			prov, ok := provincialRegulators[jurisdiction]
			if !ok {
				return
			}
			agency = prov
		}
		if agency == "" || seen[agency] {
			return
		}
		seen[agency] = true
		out = append(out, agency)
	}

	for _, a := range filingTypeAgencies[filingType] {
		add(a)
	}
	// Jurisdiction overlay: a province with its own regulator always sees the
	// filing, even when the base table did not include it.
	if prov, ok := provincialRegulators[jurisdiction]; ok {
		add(prov)
	}
	// Entity-type overlay for sector-specific oversight.
	if sector, ok := sectorOverlays[entityType]; ok {
		add(sector)
	}
	return out
}

// flagTypeAgencies routes a flag type to its responsible agency. Entries with
// the "provincial" placeholder resolve by jurisdiction and fall back to OSFI.
var flagTypeAgencies = map[string]string{
	"capital_inadequacy":  AgencyOSFI,
	"liquidity_shortfall": AgencyOSFI,
	"aml_reporting_gap":   AgencyFINTRAC,
	"conduct_breach":      AgencyFCAC,
	"operational_risk":    "provincial",
	"filing_timeliness":   "provincial",
}

// RuleTypesForAgency inverts the flag routing table: the rule types whose
// flags can land on the agency in at least one jurisdiction. Provincial
// placeholder types are included for provincial regulators and for OSFI,
// which backstops jurisdictions without their own regulator.
func RuleTypesForAgency(agency string) []string {
	provincial := agency == AgencyOSFI
	for _, a := range provincialRegulators {
		if a == agency {
			provincial = true
		}
	}
	var out []string
	for t, a := range flagTypeAgencies {
		if a == agency || (a == "provincial" && provincial) {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// ResponsibleAgency resolves the agency that owns escalations for a flag type.
func ResponsibleAgency(flagType, jurisdiction string) string {
	agency, ok := flagTypeAgencies[flagType]
	if !ok {
		return AgencyOSFI
	}
	if agency == "provincial" {
		if prov, ok := provincialRegulators[jurisdiction]; ok {
			return prov
		}
		return AgencyOSFI
	}
	return agency
}

// AgencySchema describes the output shape one agency requires.
type AgencySchema struct {
	FormatType      string
	RequiredFields  []string
	ValidationRules []string
}

var agencySchemas = map[string]AgencySchema{
	AgencyOSFI: {
		FormatType:      "OSFI-RRS",
		RequiredFields:  []string{"entity_id", "entity_name", "filing_type", "period", "capital_data"},
		ValidationRules: []string{"capital_ratios_present", "period_closed"},
	},
	AgencyFCAC: {
		FormatType:      "FCAC-CCMS",
		RequiredFields:  []string{"entity_id", "entity_name", "filing_type", "complaint_data"},
		ValidationRules: []string{"complaint_counts_present"},
	},
	AgencyFINTRAC: {
		FormatType:      "FINTRAC-F2R",
		RequiredFields:  []string{"entity_id", "filing_type", "transaction_data"},
		ValidationRules: []string{"str_fields_present", "reporting_entity_registered"},
	},
	AgencyOSC: {
		FormatType:      "OSC-ERF",
		RequiredFields:  []string{"entity_id", "entity_name", "filing_type", "period"},
		ValidationRules: []string{"period_closed"},
	},
	AgencyAMF: {
		FormatType:      "AMF-DEP",
		RequiredFields:  []string{"entity_id", "entity_name", "filing_type", "period"},
		ValidationRules: []string{"period_closed"},
	},
	AgencyBCFSA: {
		FormatType:      "BCFSA-IRIS",
		RequiredFields:  []string{"entity_id", "entity_name", "filing_type", "period"},
		ValidationRules: []string{"period_closed"},
	},
}

// genericSchema is the minimal canonical fallback for unknown agencies.
var genericSchema = AgencySchema{
	FormatType:     "GENERIC-JSON",
	RequiredFields: []string{"entity_id", "filing_type", "period"},
}

// SchemaForAgency returns the agency's required schema, falling back to the
// generic shape for agencies without a registered format.
func SchemaForAgency(agency string) AgencySchema {
	if s, ok := agencySchemas[agency]; ok {
		return s
	}
	return genericSchema
}

// FormatForAgency is a pure transformation of the canonical filing fields into
// one agency's required shape.
func FormatForAgency(canonical map[string]interface{}, agency string) map[string]interface{} {
	schema := SchemaForAgency(agency)
	payload := map[string]interface{}{
		"format":           schema.FormatType,
		"target_agency":    agency,
		"validation_rules": schema.ValidationRules,
	}
	fields := make(map[string]interface{}, len(schema.RequiredFields))
	for _, f := range schema.RequiredFields {
		if v, ok := canonical[f]; ok {
			fields[f] = v
		}
	}
	payload["fields"] = fields
	return payload
}
