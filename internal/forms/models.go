// Package forms holds the seven verification documents bound 1:1 to a task.
// Each document is created once, with defaults, when the task is created and
// is only ever mutated through partial updates keyed by task id.
package forms

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContactedPerson appears on the cover, residence and tele forms.
type ContactedPerson struct {
	Name         string `bson:"name" json:"name"`
	Telephone    string `bson:"telephone" json:"telephone"`
	Relationship string `bson:"relationship" json:"relationship"`
	KnownFor     string `bson:"knownFor" json:"knownFor"`
}

// VerificationForm is the cover sheet: applicant identity and application
// metadata shared by every verification type.
type VerificationForm struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TaskID            primitive.ObjectID `bson:"task_id" json:"-"`
	ApplicationNo     string             `bson:"applicationNo" json:"applicationNo"`
	ApplicantName     string             `bson:"applicantName" json:"applicantName"`
	CoApplicantName   string             `bson:"coApplicantName" json:"coApplicantName"`
	ApplicantDOB      time.Time          `bson:"applicantDOB,omitempty" json:"applicantDOB,omitempty"`
	DateOfApplication time.Time          `bson:"dateOfApplication,omitempty" json:"dateOfApplication,omitempty"`
	Residence         string             `bson:"residence" json:"residence"`
	Telephone         string             `bson:"telephone" json:"telephone"`
	SignedDate        time.Time          `bson:"signedDate" json:"signedDate"`
	SignedPlace       string             `bson:"signedPlace" json:"signedPlace"`
}

// MaritalStatus is the household block on the residence form.
type MaritalStatus struct {
	Status                  string `bson:"status" json:"status"`
	Members                 int    `bson:"members" json:"members"`
	WorkingMembers          int    `bson:"workingMembers" json:"workingMembers"`
	Dependents              int    `bson:"dependents" json:"dependents"`
	Children                int    `bson:"children" json:"children"`
	SpouseWorking           bool   `bson:"spouseWorking" json:"spouseWorking"`
	SpouseEmploymentDetails string `bson:"spouseEmploymentDetails" json:"spouseEmploymentDetails"`
}

// VehicleDetails lists vehicles sighted at the residence.
type VehicleDetails struct {
	TwoWheeler bool `bson:"twoWheeler" json:"twoWheeler"`
	Car        bool `bson:"car" json:"car"`
	Other      bool `bson:"other" json:"other"`
}

// FinanceDetails captures an existing financer relationship.
type FinanceDetails struct {
	FinancerName string  `bson:"financerName" json:"financerName"`
	LoanNo       string  `bson:"loanNo" json:"loanNo"`
	LoanOS       string  `bson:"loanOs" json:"loanOs"`
	EMI          float64 `bson:"emi" json:"emi"`
}

// ResidenceInteriors rates the inside of the residence.
type ResidenceInteriors struct {
	Cemented       string `bson:"cemented" json:"cemented"`
	Painted        bool   `bson:"painted" json:"painted"`
	Carpeted       bool   `bson:"carpeted" json:"carpeted"`
	Curtains       bool   `bson:"curtains" json:"curtains"`
	Sofa           bool   `bson:"sofa" json:"sofa"`
	VenetianBlinds bool   `bson:"venetianBlinds" json:"venetianBlinds"`
}

// ResidenceExteriors rates the outside and visible assets.
type ResidenceExteriors struct {
	OverallCondition string `bson:"overallCondition" json:"overallCondition"`
	Television       bool   `bson:"television" json:"television"`
	Refrigerator     bool   `bson:"refrigerator" json:"refrigerator"`
	MusicSystem      bool   `bson:"musicSystem" json:"musicSystem"`
	TwoWheeler       bool   `bson:"twoWheeler" json:"twoWheeler"`
	Car              bool   `bson:"car" json:"car"`
	AirConditioner   bool   `bson:"airConditioner" json:"airConditioner"`
}

// NeighbourhoodObservations is what neighbours reported about the applicant.
type NeighbourhoodObservations struct {
	StaysInResidence bool   `bson:"staysInResidence" json:"staysInResidence"`
	Availability     string `bson:"availability" json:"availability"`
	AverageAge       int    `bson:"averageAge" json:"averageAge"`
	NoOfMembers      int    `bson:"noOfMembers" json:"noOfMembers"`
	Remarks          string `bson:"remarks" json:"remarks"`
}

// ResidenceVerificationForm records the field visit to the applicant's home.
type ResidenceVerificationForm struct {
	ID                        primitive.ObjectID        `bson:"_id,omitempty" json:"-"`
	TaskID                    primitive.ObjectID        `bson:"task_id" json:"-"`
	AddressConfirmed          bool                      `bson:"addressConfirmed" json:"addressConfirmed"`
	DateOfVisit               time.Time                 `bson:"dateOfVisit,omitempty" json:"dateOfVisit,omitempty"`
	ResidenceContacted        ContactedPerson           `bson:"residenceContacted" json:"residenceContacted"`
	ResidenceType             string                    `bson:"residenceType" json:"residenceType"`
	MaritalStatus             MaritalStatus             `bson:"maritalStatus" json:"maritalStatus"`
	VehicleDetails            VehicleDetails            `bson:"vehicleDetails" json:"vehicleDetails"`
	FinanceDetails            FinanceDetails            `bson:"financeDetails" json:"financeDetails"`
	Nature                    string                    `bson:"nature" json:"nature"`
	Neighbourhood             string                    `bson:"neighbourhood" json:"neighbourhood"`
	NeighbourhoodContacted    []string                  `bson:"neighbourhoodContacted" json:"neighbourhoodContacted"`
	Interiors                 ResidenceInteriors        `bson:"interiors" json:"interiors"`
	Exterior                  ResidenceExteriors        `bson:"exterior" json:"exterior"`
	CarpetArea                float64                   `bson:"carpetArea" json:"carpetArea"`
	PoliticalPictures         string                    `bson:"politicalPictures" json:"politicalPictures"`
	LivingStandard            string                    `bson:"livingStandard" json:"livingStandard"`
	Remarks                   string                    `bson:"remarks" json:"remarks"`
	NeighbourhoodObservations NeighbourhoodObservations `bson:"neighbourhoodObservations" json:"neighbourhoodObservations"`
}

// TeleBusinessDetails describes the applicant's workplace as stated by phone.
type TeleBusinessDetails struct {
	Name        string `bson:"name" json:"name"`
	Nature      string `bson:"nature" json:"nature"`
	Address     string `bson:"address" json:"address"`
	ActiveSince string `bson:"activeSince" json:"activeSince"`
	Designation string `bson:"designation" json:"designation"`
	Department  string `bson:"department" json:"department"`
}

// TeleCallingLog is a single call attempt.
type TeleCallingLog struct {
	ContactedAt time.Time `bson:"contactedAt,omitempty" json:"contactedAt,omitempty"`
	Outcome     string    `bson:"outcome" json:"outcome"`
}

// TeleCalling groups the three residence and three office attempts.
type TeleCalling struct {
	ResidenceAttempt1 TeleCallingLog `bson:"teleCallingResidenceAttempt1" json:"teleCallingResidenceAttempt1"`
	ResidenceAttempt2 TeleCallingLog `bson:"teleCallingResidenceAttempt2" json:"teleCallingResidenceAttempt2"`
	ResidenceAttempt3 TeleCallingLog `bson:"teleCallingResidenceAttempt3" json:"teleCallingResidenceAttempt3"`
	OfficeAttempt1    TeleCallingLog `bson:"teleCallingOfficeAttempt1" json:"teleCallingOfficeAttempt1"`
	OfficeAttempt2    TeleCallingLog `bson:"teleCallingOfficeAttempt2" json:"teleCallingOfficeAttempt2"`
	OfficeAttempt3    TeleCallingLog `bson:"teleCallingOfficeAttempt3" json:"teleCallingOfficeAttempt3"`
}

// Guarantor is the guarantor block on the tele form.
type Guarantor struct {
	Name               string `bson:"name" json:"name"`
	Telephone          string `bson:"telephone" json:"telephone"`
	Relationship       string `bson:"relationship" json:"relationship"`
	KnownFor           string `bson:"knownFor" json:"knownFor"`
	EmploymentDetails  string `bson:"employmentDetails" json:"employmentDetails"`
	OtherLoans         string `bson:"otherLoans" json:"otherLoans"`
	AwareOfLiabilities string `bson:"awareOfLiabilities" json:"awareOfLiabilities"`
	AwareOfApplicant   string `bson:"awareOfApplicant" json:"awareOfApplicant"`
	LoanQuantum        string `bson:"loanQuantum" json:"loanQuantum"`
}

// TeleVerificationForm records the tele-calling rounds and their outcome.
type TeleVerificationForm struct {
	ID                   primitive.ObjectID  `bson:"_id,omitempty" json:"-"`
	TaskID               primitive.ObjectID  `bson:"task_id" json:"-"`
	ResidenceContacted   ContactedPerson     `bson:"residenceContacted" json:"residenceContacted"`
	OfficeContacted      ContactedPerson     `bson:"officeContacted" json:"officeContacted"`
	BusinessDetails      TeleBusinessDetails `bson:"businessDetails" json:"businessDetails"`
	ResidenceTeleCalling TeleCalling         `bson:"residenceTeleCalling" json:"residenceTeleCalling"`
	Guarantor            Guarantor           `bson:"guarantor" json:"guarantor"`
	Reference1           ContactedPerson     `bson:"reference1" json:"reference1"`
	Reference2           ContactedPerson     `bson:"reference2" json:"reference2"`
	GuarantorTeleCalling TeleCalling         `bson:"guarantorTeleCalling" json:"guarantorTeleCalling"`
	Outcome              string              `bson:"outcome" json:"outcome"`
	Remarks              string              `bson:"remarks" json:"remarks"`
	VerificationResult   string              `bson:"verificationResult" json:"verificationResult"`
}

// BankDetails is one account holder's bank check result.
type BankDetails struct {
	Name        string `bson:"name" json:"name"`
	BankName    string `bson:"bankName" json:"bankName"`
	Branch      string `bson:"branch" json:"branch"`
	AccountNo   string `bson:"accountNo" json:"accountNo"`
	Status      string `bson:"status" json:"status"`
	OtherDebits string `bson:"otherDebits" json:"otherDebits"`
	CD          string `bson:"cd" json:"cd"`
	Remarks     string `bson:"remarks" json:"remarks"`
}

// BankVerificationForm carries the applicant and co-applicant bank checks.
type BankVerificationForm struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TaskID      primitive.ObjectID `bson:"task_id" json:"-"`
	Applicant   BankDetails        `bson:"applicant" json:"applicant"`
	CoApplicant BankDetails        `bson:"coApplicant" json:"coApplicant"`
}

// BusinessDetails is the proprietor block on the business form.
type BusinessDetails struct {
	Designation    string  `bson:"designation" json:"designation"`
	BusinessTenure float64 `bson:"businessTenure" json:"businessTenure"`
	VisitingCard   bool    `bson:"visitingCard" json:"visitingCard"`
	CompanyName    string  `bson:"companyName" json:"companyName"`
}

// BusinessInteriors rates the office interior.
type BusinessInteriors struct {
	Painted  bool `bson:"painted" json:"painted"`
	Carpeted bool `bson:"carpeted" json:"carpeted"`
	Curtains bool `bson:"curtains" json:"curtains"`
	Clean    bool `bson:"clean" json:"clean"`
}

// BusinessVerificationForm records the visit to the applicant's business.
type BusinessVerificationForm struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TaskID               primitive.ObjectID `bson:"task_id" json:"-"`
	BusinessDetails      BusinessDetails    `bson:"businessDetails" json:"businessDetails"`
	OfficeAddress        string             `bson:"officeAddress" json:"officeAddress"`
	CompanyType          string             `bson:"companyType" json:"companyType"`
	ProductDetails       string             `bson:"productDetails" json:"productDetails"`
	Employees            int                `bson:"employees" json:"employees"`
	CustomersPerDay      int                `bson:"customersPerDay" json:"customersPerDay"`
	AverageMonthlyIncome float64            `bson:"averageMonthlyIncome" json:"averageMonthlyIncome"`
	BusinessBoard        string             `bson:"businessBoard" json:"businessBoard"`
	NameVerifiedBy       string             `bson:"nameVerifiedBy" json:"nameVerifiedBy"`
	OfficeArea           float64            `bson:"officeArea" json:"officeArea"`
	Premises             string             `bson:"premises" json:"premises"`
	OfficeConstruction   string             `bson:"officeConstruction" json:"officeConstruction"`
	Exteriors            string             `bson:"exteriors" json:"exteriors"`
	Interiors            BusinessInteriors  `bson:"interiors" json:"interiors"`
	LocationEase         string             `bson:"locationEase" json:"locationEase"`
	BusinessActivity     string             `bson:"businessActivity" json:"businessActivity"`
	EmployeeSighted      int                `bson:"employeeSighted" json:"employeeSighted"`
	CustomersSighted     int                `bson:"customersSighted" json:"customersSighted"`
	Affiliation          string             `bson:"affiliation" json:"affiliation"`
	Recommended          string             `bson:"recommended" json:"recommended"`
	Remarks              string             `bson:"remarks" json:"remarks"`
}

// EmploymentDetails describes the employer organisation.
type EmploymentDetails struct {
	OrganizationName string `bson:"organizationName" json:"organizationName"`
	EmployeesCount   int    `bson:"employeesCount" json:"employeesCount"`
	BranchesCount    int    `bson:"branchesCount" json:"branchesCount"`
	VisitingCard     bool   `bson:"visitingCard" json:"visitingCard"`
}

// SalaryDetails is the verified salary block.
type SalaryDetails struct {
	Name        string  `bson:"name" json:"name"`
	Mode        string  `bson:"mode" json:"mode"`
	BankName    string  `bson:"bankName" json:"bankName"`
	Salary      float64 `bson:"salary" json:"salary"`
	Designation string  `bson:"designation" json:"designation"`
}

// EmploymentVerificationForm records the visit to the applicant's employer.
type EmploymentVerificationForm struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	TaskID            primitive.ObjectID `bson:"task_id" json:"-"`
	OfficeAddress     string             `bson:"officeAddress" json:"officeAddress"`
	AddressConfirmed  bool               `bson:"addressConfirmed" json:"addressConfirmed"`
	Designation       string             `bson:"designation" json:"designation"`
	DateOfVisit       time.Time          `bson:"dateOfVisit,omitempty" json:"dateOfVisit,omitempty"`
	EmploymentDetails EmploymentDetails  `bson:"employmentDetails" json:"employmentDetails"`
	JobType           string             `bson:"jobType" json:"jobType"`
	WorkingAs         string             `bson:"workingAs" json:"workingAs"`
	JobTransferable   bool               `bson:"jobTransferable" json:"jobTransferable"`
	SalaryDetails     SalaryDetails      `bson:"salaryDetails" json:"salaryDetails"`
	Interiors         BusinessInteriors  `bson:"interiors" json:"interiors"`
	Recommended       string             `bson:"recommended" json:"recommended"`
	Remarks           string             `bson:"remarks" json:"remarks"`
	OfficeRemarks     string             `bson:"officeRemarks" json:"officeRemarks"`
}

// IncomeTaxRecord is one filed-return row, either per the tax office or per
// the customer's own books.
type IncomeTaxRecord struct {
	Ward        string  `bson:"ward" json:"ward"`
	FillingDate string  `bson:"fillingDate" json:"fillingDate"`
	Salary      float64 `bson:"salary" json:"salary"`
	House       float64 `bson:"house" json:"house"`
	Business    float64 `bson:"business" json:"business"`
	CapitalGain float64 `bson:"capitalGain" json:"capitalGain"`
	OtherSource float64 `bson:"otherSource" json:"otherSource"`
	GrossTotal  float64 `bson:"grossTotal" json:"grossTotal"`
	Deduction   float64 `bson:"deduction" json:"deduction"`
	TaxPaid     float64 `bson:"taxPaid" json:"taxPaid"`
	NetIncome   float64 `bson:"netIncome" json:"netIncome"`
	Remarks     string  `bson:"remarks" json:"remarks"`
}

// IncomeTaxFinancialYear pairs the income-tax record with the customer record
// for one financial year.
type IncomeTaxFinancialYear struct {
	FinancialYear   string          `bson:"financialYear" json:"financialYear"`
	IncomeTaxRecord IncomeTaxRecord `bson:"incomeTaxRecord" json:"incomeTaxRecord"`
	CustomerRecord  IncomeTaxRecord `bson:"customerRecord" json:"customerRecord"`
}

// IncomeTaxVerificationForm holds the PAN and per-year records.
type IncomeTaxVerificationForm struct {
	ID               primitive.ObjectID       `bson:"_id,omitempty" json:"-"`
	TaskID           primitive.ObjectID       `bson:"task_id" json:"-"`
	PanNo            string                   `bson:"panNo" json:"panNo"`
	FinancialRecords []IncomeTaxFinancialYear `bson:"financialRecords" json:"financialRecords"`
}
