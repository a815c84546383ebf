package drug

import (
	"regexp"
	"strings"
)

// DosageDetails summarizes a dosage_and_administration section.
type DosageDetails struct {
	DrugName            string `json:"drug_name"`
	Dosage              string `json:"dosage"`
	Frequency           string `json:"frequency"`
	AdministrationRoute string `json:"administration_route"`
}

var (
	dosageAmountRE = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|g|mL|L|units?|mcg|µg)(?:/\w+)?\b`)

	frequencyREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(once|twice|three times?|four times?)\s*(daily|per day|a day)\b`),
		regexp.MustCompile(`(?i)\b(daily|bid|tid|qid|q\d+h)\b`),
		regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+(hours?|days?|weeks?)\b`),
	}

	administrationRoutes = []string{
		"oral", "intravenous", "intramuscular", "subcutaneous", "topical",
		"inhalation", "rectal", "vaginal", "ophthalmic", "otic", "nasal",
	}
)

// ExtractDosageDetails pulls the first dosage amount, frequency phrase and
// administration route out of free dosage text.
func ExtractDosageDetails(drugName, dosageText string) DosageDetails {
	return DosageDetails{
		DrugName:            drugName,
		Dosage:              extractDosageAmount(dosageText),
		Frequency:           extractDosageFrequency(dosageText),
		AdministrationRoute: extractAdministrationRoute(dosageText),
	}
}

func extractDosageAmount(text string) string {
	m := dosageAmountRE.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}

func extractDosageFrequency(text string) string {
	for _, re := range frequencyREs {
		if m := re.FindString(text); m != "" {
			return m
		}
	}
	return ""
}

func extractAdministrationRoute(text string) string {
	lower := strings.ToLower(text)
	for _, route := range administrationRoutes {
		if strings.Contains(lower, route) {
			return strings.ToUpper(route[:1]) + route[1:]
		}
	}
	return ""
}
