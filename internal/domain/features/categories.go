package features

// Categories enumerates the comorbidity flag columns of the elixhauser table,
// one per disease category. Disease count is defined as the sum of these flags,
// so the set is a first-class constant rather than a hand-written column sum.
var Categories = []string{
	"congestive_heart_failure",
	"valvular_disease",
	"pulmonary_circulation",
	"peripheral_vascular",
	"hypertension",
	"paralysis",
	"other_neurological",
	"chronic_pulmonary",
	"diabetes_uncomplicated",
	"diabetes_complicated",
	"hypothyroidism",
	"renal_failure",
	"liver_disease",
	"peptic_ulcer",
	"aids",
	"lymphoma",
	"metastatic_cancer",
	"solid_tumor",
	"rheumatoid_arthritis",
	"coagulopathy",
	"obesity",
	"weight_loss",
	"fluid_electrolyte",
	"blood_loss_anemia",
	"deficiency_anemias",
	"alcohol_abuse",
	"drug_abuse",
	"psychoses",
	"depression",
}
