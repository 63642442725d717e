// Package reports builds the scoped, read-only views over the task set:
// the flattened export report, recency/city/month summaries and the overall
// status buckets.
package reports

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"fieldverify/verification-portal-backend/internal/forms"
	"fieldverify/verification-portal-backend/internal/tasks"
)

const absent = "N/A"

// OutcomeStatus carries the per-sub-form outcome strings of one report row.
// Kinds that do not apply to the task's verification type are omitted.
type OutcomeStatus struct {
	TeleVerification       string `json:"teleVerification,omitempty"`
	ResidenceVerification  string `json:"residenceVerification,omitempty"`
	BankVerification       string `json:"bankVerification,omitempty"`
	EmploymentVerification string `json:"employmentVerification,omitempty"`
	BusinessVerification   string `json:"businessVerification,omitempty"`
}

// ReportRow is one flattened, export-ready record. All dates are formatted
// DD/MM/YYYY and every absent value is the literal "N/A".
type ReportRow struct {
	ID               primitive.ObjectID `json:"uniqueId"`
	ApplicationNo    string             `json:"applicationNo"`
	City             string             `json:"city"`
	ReceivedDate     string             `json:"receivedDate"`
	ApplicantName    string             `json:"applicantName"`
	CoApplicantName  string             `json:"coApplicantName"`
	PhoneNumbers     string             `json:"phoneNumbers"`
	DOB              string             `json:"dob"`
	VerificationType string             `json:"verificationType"`
	BusinessName     string             `json:"businessName"`
	Posted           string             `json:"posted"`
	BankName         string             `json:"bankName"`
	Address          string             `json:"address"`
	Status           OutcomeStatus      `json:"status"`
}

// RecentRecord is one row of the most-recent-N summary.
type RecentRecord struct {
	Name             string `json:"name"`
	Status           string `json:"status"`
	DueDate          string `json:"dueDate"`
	VerificationType string `json:"verificationType"`
}

// CitySummary is the verified-vs-total breakdown for one city.
type CitySummary struct {
	City               string `json:"city"`
	Verified           int    `json:"verified"`
	Total              int    `json:"total"`
	VerifiedPercentage string `json:"verifiedPercentage"`
}

// MonthlyCount is one point of the completed-per-month series.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// StatusCount is one bucket of a single month's status distribution.
type StatusCount struct {
	Status tasks.TaskStatus `json:"status"`
	Count  int              `json:"count"`
}

// Summary is the overall status-bucket view.
type Summary struct {
	Total         int `json:"total"`
	Verified      int `json:"verified"`
	NotStarted    int `json:"notStarted"`
	ReKYCRequired int `json:"reKYCRequired"`
}

// Filter narrows the flattened report.
type Filter struct {
	DueAfter  *time.Time
	DueBefore *time.Time
	Priority  *tasks.Priority
	Status    *tasks.TaskStatus
	Page      int
	PageSize  int
}

// joinedTask is a task with its form documents looked up alongside. The
// lookups produce zero-or-one element slices.
type joinedTask struct {
	tasks.Task  `bson:",inline"`
	Cover       []forms.VerificationForm           `bson:"cover"`
	Residences  []forms.ResidenceVerificationForm  `bson:"residence"`
	Teles       []forms.TeleVerificationForm       `bson:"tele"`
	Banks       []forms.BankVerificationForm       `bson:"bank"`
	Businesses  []forms.BusinessVerificationForm   `bson:"business"`
	Employments []forms.EmploymentVerificationForm `bson:"employment"`
}

// Headers returns the CSV/Excel/PDF column headers of the flattened report.
func Headers() []string {
	return []string{
		"Application No", "City", "Received Date", "Applicant Name",
		"Co-Applicant Name", "Phone Numbers", "DOB", "Verification Type",
		"Business Name", "Posted", "Bank Name", "Address",
		"Tele Verification", "Residence Verification", "Bank Verification",
		"Employment Verification", "Business Verification",
	}
}

// Values flattens the row in header order.
func (r ReportRow) Values() []string {
	return []string{
		r.ApplicationNo, r.City, r.ReceivedDate, r.ApplicantName,
		r.CoApplicantName, r.PhoneNumbers, r.DOB, r.VerificationType,
		r.BusinessName, r.Posted, r.BankName, r.Address,
		r.Status.TeleVerification, r.Status.ResidenceVerification,
		r.Status.BankVerification, r.Status.EmploymentVerification,
		r.Status.BusinessVerification,
	}
}
