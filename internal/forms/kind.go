package forms

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

// Kind names one of the seven verification documents.
type Kind string

const (
	KindVerification Kind = "verification"
	KindResidence    Kind = "residence"
	KindTele         Kind = "tele"
	KindBank         Kind = "bank"
	KindBusiness     Kind = "business"
	KindEmployment   Kind = "employment"
	KindIncomeTax    Kind = "income"
)

// definition ties a kind to its collection, its default document and the
// partial-update validator applied before any write.
type definition struct {
	collection string
	defaults   func(taskID primitive.ObjectID, applicantName string) interface{}
	fields     fieldSet
	validate   func(payload map[string]interface{}) error
}

type fieldSet map[string]struct{}

func newFieldSet(names ...string) fieldSet {
	set := make(fieldSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

var registry = map[Kind]definition{
	KindVerification: {
		collection: "verification_forms",
		defaults: func(taskID primitive.ObjectID, applicantName string) interface{} {
			return &VerificationForm{
				TaskID:        taskID,
				ApplicantName: applicantName,
				SignedDate:    time.Now().UTC(),
			}
		},
		fields: newFieldSet(
			"applicationNo", "applicantName", "coApplicantName", "applicantDOB",
			"dateOfApplication", "residence", "telephone", "signedDate", "signedPlace",
		),
		validate: func(payload map[string]interface{}) error { return nil },
	},
	KindResidence: {
		collection: "residence_verification_forms",
		defaults: func(taskID primitive.ObjectID, _ string) interface{} {
			return &ResidenceVerificationForm{TaskID: taskID, AddressConfirmed: true}
		},
		fields: newFieldSet(
			"addressConfirmed", "dateOfVisit", "residenceContacted", "residenceType",
			"maritalStatus", "vehicleDetails", "financeDetails", "nature",
			"neighbourhood", "neighbourhoodContacted", "interiors", "exterior",
			"carpetArea", "politicalPictures", "livingStandard", "remarks",
			"neighbourhoodObservations",
		),
		validate: func(payload map[string]interface{}) error {
			return firstError(
				enumField(payload, "residenceType",
					"Self owned", "Owned by relatives", "Rented", "Paying Guest",
					"Owned by parents", "Owned by friends", "Company Accommodation", "Lodging"),
				nestedEnumField(payload, "maritalStatus", "status",
					"Married", "Unmarried", "Separated", "Widowed"),
				enumField(payload, "nature",
					"Polite", "Rude", "Aggressive", "Cooperative", "Uncooperative"),
				// "Positve" matches the stored vocabulary; do not correct it.
				enumField(payload, "neighbourhood", "Positve", "Negative", "Neutral"),
				nestedEnumField(payload, "interiors", "cemented", "RCC Cemented", "Non RCC", ""),
				nestedEnumField(payload, "exterior", "overallCondition",
					"Good", "Bad", "Average", "Excellent"),
				enumField(payload, "livingStandard", "High", "Medium", "Low"),
				enumField(payload, "remarks", "Positive", "Negative"),
				nestedEnumField(payload, "neighbourhoodObservations", "remarks", "Positive", "Negative"),
			)
		},
	},
	KindTele: {
		collection: "tele_verification_forms",
		defaults: func(taskID primitive.ObjectID, _ string) interface{} {
			return &TeleVerificationForm{TaskID: taskID}
		},
		fields: newFieldSet(
			"residenceContacted", "officeContacted", "businessDetails",
			"residenceTeleCalling", "guarantor", "reference1", "reference2",
			"guarantorTeleCalling", "outcome", "remarks", "verificationResult",
		),
		validate: func(payload map[string]interface{}) error {
			return enumField(payload, "verificationResult", "Positive", "Negative")
		},
	},
	KindBank: {
		collection: "bank_verification_forms",
		defaults: func(taskID primitive.ObjectID, _ string) interface{} {
			return &BankVerificationForm{TaskID: taskID}
		},
		fields: newFieldSet("applicant", "coApplicant"),
		validate: func(payload map[string]interface{}) error {
			return firstError(
				nestedEnumField(payload, "applicant", "status", "Positive", "Negative"),
				nestedEnumField(payload, "applicant", "remarks", "Recommended", "Not Recommended"),
				nestedEnumField(payload, "coApplicant", "status", "Positive", "Negative"),
				nestedEnumField(payload, "coApplicant", "remarks", "Recommended", "Not Recommended"),
			)
		},
	},
	KindBusiness: {
		collection: "business_verification_forms",
		defaults: func(taskID primitive.ObjectID, _ string) interface{} {
			return &BusinessVerificationForm{TaskID: taskID}
		},
		fields: newFieldSet(
			"businessDetails", "officeAddress", "companyType", "productDetails",
			"employees", "customersPerDay", "averageMonthlyIncome", "businessBoard",
			"nameVerifiedBy", "officeArea", "premises", "officeConstruction",
			"exteriors", "interiors", "locationEase", "businessActivity",
			"employeeSighted", "customersSighted", "affiliation", "recommended", "remarks",
		),
		validate: func(payload map[string]interface{}) error {
			return firstError(
				enumField(payload, "companyType",
					"Proprietorship", "Partnership", "Private Limited", "Public Limited", "Others"),
				enumField(payload, "nameVerifiedBy",
					"Receptionist", "Security Guard", "Colleague", "Others"),
				enumField(payload, "premises", "Owned", "Rented", "Leased", "Shared"),
				enumField(payload, "officeConstruction", "Pukka", "Semi-Pukka", "Temporary"),
				enumField(payload, "exteriors", "Good", "Average", "Poor"),
				enumField(payload, "locationEase", "Easy", "Difficult", "Untraceable"),
				enumField(payload, "businessActivity", "High", "Medium", "Low"),
				enumField(payload, "recommended", "Recommended", "Not Recommended"),
			)
		},
	},
	KindEmployment: {
		collection: "employment_verification_forms",
		defaults: func(taskID primitive.ObjectID, _ string) interface{} {
			return &EmploymentVerificationForm{TaskID: taskID}
		},
		fields: newFieldSet(
			"officeAddress", "addressConfirmed", "designation", "dateOfVisit",
			"employmentDetails", "jobType", "workingAs", "jobTransferable",
			"salaryDetails", "interiors", "recommended", "remarks", "officeRemarks",
		),
		validate: func(payload map[string]interface{}) error {
			return firstError(
				enumField(payload, "jobType",
					"Permanent", "Probation", "Contract Worker", "Temporary", "Others"),
				enumField(payload, "workingAs",
					"Assistant", "Clerk", "Typist", "Stenographer", "Skilled Labour",
					"Supervisor", "Junior Management", "Middle Management",
					"Senior Management", "Other"),
				nestedEnumField(payload, "salaryDetails", "mode",
					"Cash", "Cheque", "Bank Transfer", "Others"),
				enumField(payload, "recommended", "Recommended", "Not Recommended"),
				enumField(payload, "officeRemarks", "Positive", "Negative"),
			)
		},
	},
	KindIncomeTax: {
		collection: "income_tax_verification_forms",
		defaults: func(taskID primitive.ObjectID, _ string) interface{} {
			return &IncomeTaxVerificationForm{TaskID: taskID, FinancialRecords: []IncomeTaxFinancialYear{}}
		},
		fields: newFieldSet("panNo", "financialRecords"),
		validate: func(payload map[string]interface{}) error {
			records, ok := payload["financialRecords"].([]interface{})
			if !ok {
				return nil
			}
			for _, entry := range records {
				record, ok := entry.(map[string]interface{})
				if !ok {
					return fmt.Errorf("financialRecords entries must be objects: %w", apperrors.ErrInvalidFields)
				}
				if err := firstError(
					nestedEnumField(record, "incomeTaxRecord", "remarks", "Positive", "Negative"),
					nestedEnumField(record, "customerRecord", "remarks", "Positive", "Negative"),
				); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// CollectionFor exposes the backing collection name of a kind for read-side
// joins.
func CollectionFor(kind Kind) string {
	return registry[kind].collection
}

// ParseKind resolves the URL form-type segment to a Kind.
func ParseKind(s string) (Kind, error) {
	kind := Kind(s)
	if _, ok := registry[kind]; !ok {
		return "", fmt.Errorf("unknown form type %q: %w", s, apperrors.ErrNotFound)
	}
	return kind, nil
}

// KindsFor lists the documents a task of the given verification type carries.
// Every task gets the cover, residence, tele and bank documents; business
// tasks add the business and income-tax documents, all other types add the
// employment document.
func KindsFor(verificationType string) []Kind {
	common := []Kind{KindVerification, KindResidence, KindTele, KindBank}
	if verificationType == "business" {
		return append(common, KindBusiness, KindIncomeTax)
	}
	return append(common, KindEmployment)
}

func kindApplies(kind Kind, verificationType string) bool {
	for _, k := range KindsFor(verificationType) {
		if k == kind {
			return true
		}
	}
	return false
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// enumField rejects a present string value outside the allowed set. Absent or
// non-string values are left alone for the field-set check to handle.
func enumField(payload map[string]interface{}, key string, allowed ...string) error {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	value, ok := raw.(string)
	if !ok {
		return fmt.Errorf("%s must be a string: %w", key, apperrors.ErrInvalidFields)
	}
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s has no value %q: %w", key, value, apperrors.ErrInvalidFields)
}

func nestedEnumField(payload map[string]interface{}, parent, key string, allowed ...string) error {
	raw, ok := payload[parent]
	if !ok {
		return nil
	}
	sub, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s must be an object: %w", parent, apperrors.ErrInvalidFields)
	}
	if err := enumField(sub, key, allowed...); err != nil {
		return fmt.Errorf("%s.%w", parent, err)
	}
	return nil
}
