// Package drug reshapes raw OpenFDA records into the flat structures the
// MCP tools return: deduplicated search records, detailed label views and
// Drugs@FDA application histories.
package drug

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fdalabs/fda-drugs-mcp/internal/fda"
)

// PharmacologicClass groups the openfda pharm_class_* fields.
type PharmacologicClass struct {
	MechanismOfAction             string `json:"mechanism_of_action"`
	PhysiologicEffect             string `json:"physiologic_effect"`
	EstablishedPharmacologicClass string `json:"established_pharmacologic_class"`
	ChemicalStructure             string `json:"chemical_structure"`
}

// Record is the simplified drug shape returned by search tools.
type Record struct {
	SetID                   string             `json:"set_id"`
	GenericName             string             `json:"generic_name"`
	BrandName               string             `json:"brand_name"`
	ManufacturerName        string             `json:"manufacturer_name"`
	ApplicationNumber       string             `json:"application_number"`
	ApplicationType         string             `json:"application_type"`
	DailyMedURL             string             `json:"dailymed_url"`
	Indications             string             `json:"indications"`
	DosageFormsAndStrengths string             `json:"dosage_forms_and_strengths"`
	Route                   string             `json:"route"`
	PharmacologicClass      PharmacologicClass `json:"pharmacologic_class"`
}

// SpecialPopulations groups the label's population-specific sections.
type SpecialPopulations struct {
	Pregnancy      string `json:"pregnancy"`
	NursingMothers string `json:"nursing_mothers"`
	PediatricUse   string `json:"pediatric_use"`
	GeriatricUse   string `json:"geriatric_use"`
}

// Details is the full drug shape returned by get_drug_details.
type Details struct {
	Record

	MechanismOfAction       string             `json:"mechanism_of_action"`
	ClinicalPharmacology    string             `json:"clinical_pharmacology"`
	ClinicalStudies         string             `json:"clinical_studies"`
	DosageAndAdministration string             `json:"dosage_and_administration"`
	Contraindications       string             `json:"contraindications"`
	WarningsAndPrecautions  string             `json:"warnings_and_precautions"`
	AdverseReactions        string             `json:"adverse_reactions"`
	DrugInteractions        string             `json:"drug_interactions"`
	HowSupplied             string             `json:"how_supplied"`
	StorageAndHandling      string             `json:"storage_and_handling"`
	BoxedWarning            string             `json:"boxed_warning"`
	EffectiveTime           string             `json:"effective_time"`
	Version                 string             `json:"version"`
	NCTIDs                  []string           `json:"nct_ids"`
	SpecialPopulations      SpecialPopulations `json:"special_populations"`
}

// ActiveIngredient is one ingredient of a Drugs@FDA product.
type ActiveIngredient struct {
	Name     string `json:"name"`
	Strength string `json:"strength"`
}

// Product is one product of a Drugs@FDA application.
type Product struct {
	ProductNumber     string             `json:"product_number"`
	BrandName         string             `json:"brand_name"`
	ActiveIngredients []ActiveIngredient `json:"active_ingredients"`
	DosageForm        string             `json:"dosage_form"`
	Route             string             `json:"route"`
	MarketingStatus   string             `json:"marketing_status"`
}

// Submission is one regulatory submission of a Drugs@FDA application.
type Submission struct {
	SubmissionType             string `json:"submission_type"`
	SubmissionNumber           string `json:"submission_number"`
	SubmissionStatus           string `json:"submission_status"`
	SubmissionStatusDate       string `json:"submission_status_date"`
	ReviewPriority             string `json:"review_priority"`
	SubmissionClassCode        string `json:"submission_class_code"`
	SubmissionClassDescription string `json:"submission_class_code_description"`
}

// ApplicationHistory is the processed Drugs@FDA record.
type ApplicationHistory struct {
	ApplicationNumber string       `json:"application_number"`
	SponsorName       string       `json:"sponsor_name"`
	ApplicationType   string       `json:"application_type"`
	Products          []Product    `json:"products"`
	Submissions       []Submission `json:"submissions"`
}

var (
	genericSuffixRE = regexp.MustCompile(`(?i)\s*(hydrochloride|acetate|sulfate|tartrate|maleate|succinate|recombinant)\s*$`)
	trailingCodeRE  = regexp.MustCompile(`-\w{4}$`)
	nctIDRE         = regexp.MustCompile(`\bNCT\d{8}\b`)
)

// ProcessSearchResults converts raw label records into deduplicated Records.
// The dedup key is the lowercase (generic, brand) name pair, so the function
// is idempotent: feeding its output back in returns the identical list.
func ProcessSearchResults(raw []fda.Record) []Record {
	processed := make([]Record, 0, len(raw))
	seen := make(map[[2]string]bool, len(raw))

	for _, r := range raw {
		record := processRecord(r)

		key := [2]string{
			strings.ToLower(record.GenericName),
			strings.ToLower(record.BrandName),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		processed = append(processed, record)
	}

	return processed
}

// ProcessDetails converts a raw label record into the detailed shape.
func ProcessDetails(raw fda.Record) Details {
	d := Details{
		Record: processRecord(raw),

		MechanismOfAction:       fda.TextField(raw, "mechanism_of_action"),
		ClinicalPharmacology:    fda.TextField(raw, "clinical_pharmacology"),
		ClinicalStudies:         fda.TextField(raw, "clinical_studies"),
		DosageAndAdministration: fda.TextField(raw, "dosage_and_administration"),
		Contraindications:       fda.TextField(raw, "contraindications"),
		WarningsAndPrecautions:  fda.TextField(raw, "warnings"),
		AdverseReactions:        fda.TextField(raw, "adverse_reactions"),
		DrugInteractions:        fda.TextField(raw, "drug_interactions"),
		HowSupplied:             fda.TextField(raw, "how_supplied"),
		StorageAndHandling:      fda.TextField(raw, "storage_and_handling"),
		BoxedWarning:            fda.TextField(raw, "boxed_warning"),
		EffectiveTime:           fda.StringField(raw, "effective_time"),
		Version:                 fda.StringField(raw, "version"),
		SpecialPopulations: SpecialPopulations{
			Pregnancy:      fda.TextField(raw, "pregnancy"),
			NursingMothers: fda.TextField(raw, "nursing_mothers"),
			PediatricUse:   fda.TextField(raw, "pediatric_use"),
			GeriatricUse:   fda.TextField(raw, "geriatric_use"),
		},
	}

	d.NCTIDs = ExtractNCTIDs(d.ClinicalStudies)
	return d
}

// ProcessApplicationHistory converts a raw Drugs@FDA record.
func ProcessApplicationHistory(raw fda.Record) ApplicationHistory {
	applicationNumber := fda.StringField(raw, "application_number")

	history := ApplicationHistory{
		ApplicationNumber: applicationNumber,
		SponsorName:       fda.StringField(raw, "sponsor_name"),
		ApplicationType:   ApplicationType(applicationNumber),
		Products:          []Product{},
		Submissions:       []Submission{},
	}

	products, _ := raw["products"].([]any)
	for _, p := range products {
		product, ok := p.(fda.Record)
		if !ok {
			continue
		}
		history.Products = append(history.Products, Product{
			ProductNumber:     fda.StringField(product, "product_number"),
			BrandName:         fda.StringField(product, "brand_name"),
			ActiveIngredients: activeIngredients(product),
			DosageForm:        fda.StringField(product, "dosage_form"),
			Route:             fda.StringField(product, "route"),
			MarketingStatus:   fda.StringField(product, "marketing_status"),
		})
	}

	submissions, _ := raw["submissions"].([]any)
	for _, s := range submissions {
		submission, ok := s.(fda.Record)
		if !ok {
			continue
		}
		history.Submissions = append(history.Submissions, Submission{
			SubmissionType:             fda.StringField(submission, "submission_type"),
			SubmissionNumber:           fda.StringField(submission, "submission_number"),
			SubmissionStatus:           fda.StringField(submission, "submission_status"),
			SubmissionStatusDate:       fda.StringField(submission, "submission_status_date"),
			ReviewPriority:             fda.StringField(submission, "review_priority"),
			SubmissionClassCode:        fda.StringField(submission, "submission_class_code"),
			SubmissionClassDescription: fda.StringField(submission, "submission_class_code_description"),
		})
	}

	return history
}

// processRecord builds the simplified Record from a raw label record.
func processRecord(raw fda.Record) Record {
	openfda, _ := raw["openfda"].(map[string]any)
	if openfda == nil {
		openfda = map[string]any{}
	}

	setID := fda.StringField(raw, "set_id")
	applicationNumber := fda.StringField(openfda, "application_number")

	return Record{
		SetID:                   setID,
		GenericName:             CleanGenericName(fda.StringField(openfda, "generic_name")),
		BrandName:               fda.StringField(openfda, "brand_name"),
		ManufacturerName:        fda.StringField(openfda, "manufacturer_name"),
		ApplicationNumber:       applicationNumber,
		ApplicationType:         ApplicationType(applicationNumber),
		DailyMedURL:             DailyMedURL(setID),
		Indications:             fda.TextField(raw, "indications_and_usage"),
		DosageFormsAndStrengths: fda.TextField(raw, "dosage_forms_and_strengths"),
		Route:                   fda.StringField(openfda, "route"),
		PharmacologicClass: PharmacologicClass{
			MechanismOfAction:             fda.StringField(openfda, "pharm_class_moa"),
			PhysiologicEffect:             fda.StringField(openfda, "pharm_class_pe"),
			EstablishedPharmacologicClass: fda.StringField(openfda, "pharm_class_epc"),
			ChemicalStructure:             fda.StringField(openfda, "pharm_class_cs"),
		},
	}
}

// activeIngredients extracts the active_ingredients list of a product.
func activeIngredients(product fda.Record) []ActiveIngredient {
	raw, _ := product["active_ingredients"].([]any)
	out := make([]ActiveIngredient, 0, len(raw))
	for _, i := range raw {
		ingredient, ok := i.(fda.Record)
		if !ok {
			continue
		}
		out = append(out, ActiveIngredient{
			Name:     fda.StringField(ingredient, "name"),
			Strength: fda.StringField(ingredient, "strength"),
		})
	}
	return out
}

// CleanGenericName strips common salt suffixes (hydrochloride, acetate, ...)
// and trailing 4-character codes from a generic name.
func CleanGenericName(genericName string) string {
	if genericName == "" {
		return ""
	}
	cleaned := strings.TrimSpace(genericSuffixRE.ReplaceAllString(genericName, ""))
	return trailingCodeRE.ReplaceAllString(cleaned, "")
}

// ApplicationType derives the application type from the number prefix.
func ApplicationType(applicationNumber string) string {
	switch {
	case applicationNumber == "":
		return ""
	case strings.HasPrefix(applicationNumber, "BLA"):
		return "BLA"
	case strings.HasPrefix(applicationNumber, "NDA"):
		return "NDA"
	case strings.HasPrefix(applicationNumber, "ANDA"):
		return "ANDA"
	default:
		return "Other"
	}
}

// IsGeneric reports whether the application number denotes an ANDA generic.
func IsGeneric(applicationNumber string) bool {
	return strings.HasPrefix(applicationNumber, "ANDA")
}

// DailyMedURL builds the DailyMed label URL for a SPL set id.
func DailyMedURL(setID string) string {
	if setID == "" {
		return ""
	}
	return fmt.Sprintf("https://dailymed.nlm.nih.gov/dailymed/fda/fdaDrugXsl.cfm?setid=%s&type=display", setID)
}

// ExtractNCTIDs pulls deduplicated clinical-trial registry ids (NCT########)
// out of free text.
func ExtractNCTIDs(text string) []string {
	if text == "" {
		return []string{}
	}
	ids := nctIDRE.FindAllString(text, -1)

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
