package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cvsync/internal/common"
	"cvsync/internal/errors"
	"cvsync/internal/extract"
	"cvsync/internal/store"
	"cvsync/internal/types"
)

type fakeExtractor struct {
	profiles map[string]types.CandidateProfile
	err      error
}

func (f *fakeExtractor) ExtractProfile(_ context.Context, text string) (types.CandidateProfile, *extract.TokenUsage, error) {
	if f.err != nil {
		return types.CandidateProfile{}, nil, f.err
	}
	for marker, profile := range f.profiles {
		if strings.Contains(text, marker) {
			return profile, &extract.TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, nil
		}
	}
	return types.CandidateProfile{CandidateName: "Unknown"}, nil, nil
}

type fakeStore struct {
	existing  map[string]bool
	existsErr error
	createErr error
	created   []map[string]any
}

func (f *fakeStore) RecordExists(_ context.Context, _, _, keyValue string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existing[keyValue], nil
}

func (f *fakeStore) CreateRecord(_ context.Context, _, keyValue string, fields map[string]any) (*store.Record, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, fields)
	return &store.Record{ID: "rec-" + keyValue, Fields: fields}, nil
}

func newTestImporter(extractor Extractor, records RecordStore) *Importer {
	logger := errors.NewLogger(slog.LevelError)
	return New(extractor, records, common.NewFileProcessor(logger, 0), logger)
}

func writeResume(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunImportsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeResume(t, dir, "jane.txt", "resume for JANE")
	writeResume(t, dir, "bob.txt", "resume for BOB")
	writeResume(t, dir, "ignored.png", "binary noise")

	extractor := &fakeExtractor{profiles: map[string]types.CandidateProfile{
		"JANE": {CandidateName: "Jane Doe", Email: "jane@example.com", Status: "New"},
		"BOB":  {CandidateName: "Bob Lee", Email: "bob@example.com", Status: "New"},
	}}
	records := &fakeStore{existing: map[string]bool{"bob@example.com": true}}

	summary, err := newTestImporter(extractor, records).Run(context.Background(), dir, Options{
		Table:    "Candidates",
		KeyField: "Email",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Processed != 2 {
		t.Errorf("processed = %d, want 2 (png must be skipped)", summary.Processed)
	}
	if summary.Inserted != 1 || summary.SkippedExists != 1 || summary.Errors != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if len(records.created) != 1 {
		t.Fatalf("created %d records, want 1", len(records.created))
	}
	if records.created[0]["Email"] != "jane@example.com" {
		t.Errorf("created payload = %v", records.created[0])
	}
}

func TestRunSingleFileDryRun(t *testing.T) {
	dir := t.TempDir()
	path := writeResume(t, dir, "jane.txt", "resume for JANE")

	extractor := &fakeExtractor{profiles: map[string]types.CandidateProfile{
		"JANE": {CandidateName: "Jane Doe", Email: "jane@example.com"},
	}}
	records := &fakeStore{}

	summary, err := newTestImporter(extractor, records).Run(context.Background(), path, Options{
		Table:    "Candidates",
		KeyField: "Email",
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Inserted != 0 || len(records.created) != 0 {
		t.Error("dry run must not create records")
	}
	if len(summary.Details) != 1 || summary.Details[0].Status != types.ImportDryRun {
		t.Fatalf("details = %+v", summary.Details)
	}
	if summary.Details[0].Payload == nil {
		t.Error("dry run detail must carry the payload")
	}
}

func TestRunExtractionErrorCaptured(t *testing.T) {
	dir := t.TempDir()
	writeResume(t, dir, "jane.txt", "resume")

	extractor := &fakeExtractor{err: fmt.Errorf("model unavailable")}
	records := &fakeStore{}

	summary, err := newTestImporter(extractor, records).Run(context.Background(), dir, Options{
		Table:    "Candidates",
		KeyField: "Email",
	})
	if err != nil {
		t.Fatalf("Run must not fail on per-file errors: %v", err)
	}
	if summary.Errors != 1 || summary.Inserted != 0 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Details[0].Error == "" {
		t.Error("error detail must carry the message")
	}
}

func TestRunExistenceCheckFailureProceeds(t *testing.T) {
	dir := t.TempDir()
	writeResume(t, dir, "jane.txt", "resume for JANE")

	extractor := &fakeExtractor{profiles: map[string]types.CandidateProfile{
		"JANE": {CandidateName: "Jane Doe", Email: "jane@example.com"},
	}}
	records := &fakeStore{existsErr: fmt.Errorf("store timeout")}

	summary, err := newTestImporter(extractor, records).Run(context.Background(), dir, Options{
		Table:    "Candidates",
		KeyField: "Email",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Inserted != 1 {
		t.Errorf("failed existence check must proceed to insert, summary = %+v", summary)
	}
}

func TestRunUnsupportedSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeResume(t, dir, "jane.pdf", "%PDF-1.4")

	_, err := newTestImporter(&fakeExtractor{}, &fakeStore{}).Run(context.Background(), dir+"/missing", Options{})
	if err == nil {
		t.Error("missing path must fail")
	}

	_, err = newTestImporter(&fakeExtractor{}, &fakeStore{}).Run(context.Background(), path, Options{})
	if err == nil {
		t.Error("unsupported extension must fail for an explicit file")
	}
}

func TestCoerceFields(t *testing.T) {
	profile := types.CandidateProfile{
		CandidateName:   "  Jane Doe  ",
		Email:           "Jane@Example.COM",
		Phone:           "+1 (555) 123-4567",
		Skills:          "Go; SQL,Kubernetes",
		ExpYears:        5,
		Source:          "Telepathy",
		ResumeURL:       " https://example.com/cv.pdf ",
		Salary:          "12 LPA",
		NoticePeriod:    "30 days",
		CurrentLocation: "Jakarta",
		Status:          "New",
		CandidateStatus: "CV Sent",
		JobRole:         "Backend Engineer",
	}

	payload := CoerceFields(profile)

	checks := map[string]any{
		"Candidate Name":   "Jane Doe",
		"Email":            "jane@example.com",
		"Phone":            "+15551234567",
		"Exp Years":        5,
		"Source":           nil,
		"ResumeURL":        "https://example.com/cv.pdf",
		"Salary":           12,
		"Status":           "New",
		"Candidate Status": "CV Sent",
		"Job Role":         "Backend Engineer",
	}
	for field, want := range checks {
		if got := payload[field]; got != want {
			t.Errorf("payload[%q] = %v (%T), want %v", field, got, got, want)
		}
	}
}

func TestCoerceFieldsNumericNils(t *testing.T) {
	payload := CoerceFields(types.CandidateProfile{
		Salary: "negotiable",
		Status: "Maybe Later",
	})

	if payload["Exp Years"] != nil {
		t.Errorf("Exp Years = %v, want nil for zero experience", payload["Exp Years"])
	}
	if payload["Salary"] != nil {
		t.Errorf("Salary = %v, want nil when no digits", payload["Salary"])
	}
	if payload["Status"] != nil {
		t.Errorf("Status = %v, want nil outside allowed options", payload["Status"])
	}
	if payload["Candidate Name"] != "" {
		t.Errorf("Candidate Name = %v, want empty string", payload["Candidate Name"])
	}
}

func TestDedupeKey(t *testing.T) {
	tests := []struct {
		name    string
		profile types.CandidateProfile
		file    string
		want    string
	}{
		{
			name:    "valid email wins",
			profile: types.CandidateProfile{CandidateName: "Jane", Email: "Jane@Example.com"},
			file:    "/resumes/jane.txt",
			want:    "jane@example.com",
		},
		{
			name:    "invalid email falls back to name",
			profile: types.CandidateProfile{CandidateName: "Jane Doe", Email: "not-an-email"},
			file:    "/resumes/jane.txt",
			want:    "Jane Doe",
		},
		{
			name:    "no email no name falls back to file name",
			profile: types.CandidateProfile{},
			file:    "/resumes/jane.txt",
			want:    "jane.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DedupeKey(tt.profile, tt.file); got != tt.want {
				t.Errorf("DedupeKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyFieldMapping(t *testing.T) {
	payload := map[string]any{"Candidate Name": "Jane", "Email": "jane@example.com"}
	mapped := applyFieldMapping(payload, map[string]string{"Candidate Name": "Full Name"})

	if mapped["Full Name"] != "Jane" {
		t.Errorf("mapped payload = %v", mapped)
	}
	if _, ok := mapped["Candidate Name"]; ok {
		t.Error("internal name must be replaced by the mapped column")
	}
	if mapped["Email"] != "jane@example.com" {
		t.Error("unmapped fields keep their internal name")
	}
}

func TestRunEmptyFileGetsBanner(t *testing.T) {
	dir := t.TempDir()
	writeResume(t, dir, "empty.txt", "   \n")

	var gotText string
	extractor := extractorFunc(func(_ context.Context, text string) (types.CandidateProfile, *extract.TokenUsage, error) {
		gotText = text
		return types.CandidateProfile{CandidateName: "X"}, nil, nil
	})

	if _, err := newTestImporter(extractor, &fakeStore{}).Run(context.Background(), dir, Options{
		Table: "Candidates", KeyField: "Email", DryRun: true,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if gotText != "File: empty.txt\n[No text extracted]" {
		t.Errorf("empty file text = %q", gotText)
	}
}

type extractorFunc func(ctx context.Context, text string) (types.CandidateProfile, *extract.TokenUsage, error)

func (f extractorFunc) ExtractProfile(ctx context.Context, text string) (types.CandidateProfile, *extract.TokenUsage, error) {
	return f(ctx, text)
}
