package types

// CandidateProfile represents the structured fields extracted from one resume
type CandidateProfile struct {
	CandidateName   string `json:"candidateName"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	Skills          string `json:"skills"`
	ExpYears        int    `json:"expYears"`
	Source          string `json:"source"`
	ResumeURL       string `json:"resumeUrl"`
	Salary          string `json:"salary"`
	NoticePeriod    string `json:"noticePeriod"`
	CurrentLocation string `json:"currentLocation"`
	Status          string `json:"status"`
	CandidateStatus string `json:"candidateStatus"`
	JobRole         string `json:"jobRole"`
}

// Internal field vocabulary, in the order fields are sent to the record store.
// These are the keys the schema mapper reconciles against live column names.
var InternalFields = []string{
	"Candidate Name",
	"Email",
	"Phone",
	"Skills",
	"Exp Years",
	"Source",
	"ResumeURL",
	"Salary",
	"Notice Period",
	"Current Location",
	"Status",
	"Candidate Status",
	"Job Role",
}

// ImportStatus classifies the outcome of importing a single file
type ImportStatus string

const (
	ImportInserted      ImportStatus = "inserted"
	ImportSkippedExists ImportStatus = "skipped_exists"
	ImportDryRun        ImportStatus = "dry_run"
	ImportError         ImportStatus = "error"
)

// ImportDetail records the outcome for one resume file
type ImportDetail struct {
	File     string         `json:"file"`
	Status   ImportStatus   `json:"status"`
	Key      string         `json:"key,omitempty"`
	RecordID string         `json:"recordId,omitempty"`
	Error    string         `json:"error,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// ImportSummary aggregates the outcome of one import run
type ImportSummary struct {
	Processed     int            `json:"processed"`
	Inserted      int            `json:"inserted"`
	SkippedExists int            `json:"skippedExists"`
	Errors        int            `json:"errors"`
	Details       []ImportDetail `json:"details"`
}
