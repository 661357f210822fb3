package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"cvsync/internal/common"
	"cvsync/internal/errors"
	"cvsync/internal/extract"
	"cvsync/internal/store"
	"cvsync/internal/types"
	"cvsync/internal/utils"
	"cvsync/internal/validators"
)

// Allowed options for single-select fields in the record store. Values must
// match the store's select options exactly; anything else is dropped to nil
// so the store does not reject the whole record.
var (
	allowedSources         = []string{"Referral", "Website", "LinkedIn", "Event", "Other"}
	allowedStatus          = []string{"New", "Screened", "Shortlisted", "Rejected", "Contacted", "Interview", "Hired"}
	allowedCandidateStatus = []string{
		"CV Sent", "Interview Scheduled", "Feedback Received",
		"Offer Sent", "Offer Accepted", "Candidate Joined",
	}
)

// Extractor is the slice of the extraction provider the importer needs
type Extractor interface {
	ExtractProfile(ctx context.Context, documentText string) (types.CandidateProfile, *extract.TokenUsage, error)
}

// RecordStore is the slice of the store client the importer needs
type RecordStore interface {
	RecordExists(ctx context.Context, table, keyField, keyValue string) (bool, error)
	CreateRecord(ctx context.Context, table, keyValue string, fields map[string]any) (*store.Record, error)
}

// Options configures one import run
type Options struct {
	Table    string
	KeyField string
	DryRun   bool

	// FieldMapping renames internal field names to the store's column names
	// before upsert. Missing entries keep the internal name.
	FieldMapping map[string]string
}

// Importer drives the resume import pipeline: enumerate files, extract a
// profile from each, coerce it into a store payload, and insert records that
// do not already exist.
type Importer struct {
	extractor Extractor
	records   RecordStore
	files     *common.FileProcessor
	logger    *errors.Logger
}

// New creates an importer
func New(extractor Extractor, records RecordStore, files *common.FileProcessor, logger *errors.Logger) *Importer {
	return &Importer{
		extractor: extractor,
		records:   records,
		files:     files,
		logger:    logger,
	}
}

// Run imports one resume file or every supported file in a directory.
// Per-file failures are captured in the summary instead of aborting the run;
// only failure to enumerate the input path is an error.
func (imp *Importer) Run(ctx context.Context, path string, opts Options) (types.ImportSummary, error) {
	files, err := listResumeFiles(path)
	if err != nil {
		return types.ImportSummary{}, err
	}

	summary := types.ImportSummary{Details: make([]types.ImportDetail, 0, len(files))}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		summary.Details = append(summary.Details, imp.importFile(ctx, file, opts))

		switch summary.Details[len(summary.Details)-1].Status {
		case types.ImportInserted:
			summary.Inserted++
		case types.ImportSkippedExists:
			summary.SkippedExists++
		case types.ImportError:
			summary.Errors++
		}
	}
	return summary, nil
}

func (imp *Importer) importFile(ctx context.Context, file string, opts Options) types.ImportDetail {
	imp.logger.Info("Processing resume", "file", file)

	text, err := imp.files.ReadFile(file)
	if err != nil {
		imp.logger.LogError(err, "Failed to read resume", "file", file)
		return types.ImportDetail{File: file, Status: types.ImportError, Error: err.Error()}
	}
	if strings.TrimSpace(text) == "" {
		text = fmt.Sprintf("File: %s\n[No text extracted]", filepath.Base(file))
	}

	profile, usage, err := imp.extractor.ExtractProfile(ctx, text)
	if err != nil {
		imp.logger.LogError(err, "Extraction failed", "file", file)
		return types.ImportDetail{File: file, Status: types.ImportError, Error: err.Error()}
	}
	if usage != nil {
		imp.logger.Debug("Extraction token usage",
			"file", file,
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens)
	}

	payload := CoerceFields(profile)
	key := DedupeKey(profile, file)

	exists, err := imp.records.RecordExists(ctx, opts.Table, opts.KeyField, key)
	if err != nil {
		imp.logger.Warn("Existence check failed, proceeding as absent", "key", key, "error", err)
		exists = false
	}
	if exists {
		imp.logger.Info("Record already exists, skipping", "key", key)
		return types.ImportDetail{File: file, Status: types.ImportSkippedExists, Key: key}
	}

	payload = applyFieldMapping(payload, opts.FieldMapping)

	if opts.DryRun {
		imp.logger.Info("Dry run, skipping insert", "key", key)
		return types.ImportDetail{File: file, Status: types.ImportDryRun, Key: key, Payload: payload}
	}

	rec, err := imp.records.CreateRecord(ctx, opts.Table, key, payload)
	if err != nil {
		imp.logger.LogError(err, "Insert failed", "file", file, "key", key)
		return types.ImportDetail{File: file, Status: types.ImportError, Key: key, Error: err.Error()}
	}

	imp.logger.Info("Inserted record", "key", key, "id", rec.ID)
	return types.ImportDetail{File: file, Status: types.ImportInserted, Key: key, RecordID: rec.ID}
}

// CoerceFields converts an extracted profile into a store payload keyed by
// the internal field names. Numeric columns get nil instead of zero when the
// source text carried no digits, single selects get nil for values outside
// the allowed option sets, and text columns get empty strings so the store
// never sees a null where it expects text.
func CoerceFields(profile types.CandidateProfile) map[string]any {
	payload := make(map[string]any, len(types.InternalFields))

	payload["Candidate Name"] = strings.TrimSpace(profile.CandidateName)
	payload["Email"] = validators.NormalizeEmail(profile.Email)
	payload["Phone"] = validators.NormalizePhone(profile.Phone)
	payload["Skills"] = validators.NormalizeSkills(profile.Skills)
	payload["Exp Years"] = intOrNil(profile.ExpYears)
	payload["Source"] = selectOrNil(profile.Source, allowedSources)
	payload["ResumeURL"] = strings.TrimSpace(profile.ResumeURL)
	payload["Salary"] = numericOrNil(profile.Salary)
	payload["Notice Period"] = strings.TrimSpace(profile.NoticePeriod)
	payload["Current Location"] = strings.TrimSpace(profile.CurrentLocation)
	payload["Status"] = selectOrNil(profile.Status, allowedStatus)
	payload["Candidate Status"] = selectOrNil(profile.CandidateStatus, allowedCandidateStatus)
	payload["Job Role"] = strings.TrimSpace(profile.JobRole)

	return payload
}

// DedupeKey picks the deduplication key for a profile: a valid email wins,
// then the candidate name, then the file name.
func DedupeKey(profile types.CandidateProfile, file string) string {
	if email := validators.NormalizeEmail(profile.Email); validators.IsValidEmail(email) {
		return email
	}
	if name := strings.TrimSpace(profile.CandidateName); name != "" {
		return name
	}
	return filepath.Base(file)
}

// listResumeFiles resolves a path into the sorted list of supported resume
// files. A directory is scanned non-recursively; a single file must carry a
// supported extension.
func listResumeFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("Path not found: %s", path), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access path: %s", path), err)
	}

	if !info.IsDir() {
		if !utils.IsResumeFile(path) {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
				fmt.Sprintf("Unsupported file type: %s", utils.GetFileExtension(path)), nil).
				WithContext("supported", utils.ResumeExtensions)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot list directory: %s", path), err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !utils.IsResumeFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func applyFieldMapping(payload map[string]any, mapping map[string]string) map[string]any {
	if len(mapping) == 0 {
		return payload
	}
	mapped := make(map[string]any, len(payload))
	for field, value := range payload {
		if remote, ok := mapping[field]; ok && remote != "" {
			mapped[remote] = value
			continue
		}
		mapped[field] = value
	}
	return mapped
}

func selectOrNil(value string, allowed []string) any {
	value = strings.TrimSpace(value)
	for _, option := range allowed {
		if value == option {
			return value
		}
	}
	return nil
}

func intOrNil(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

// numericOrNil coerces free-form text like "12 LPA" into a number, or nil
// when there are no digits at all
func numericOrNil(raw string) any {
	if !strings.ContainsFunc(raw, unicode.IsDigit) {
		return nil
	}
	return validators.ToInt(raw, 0)
}
