package extract

// DefaultSystemPrompt is the system instruction for resume field extraction
const DefaultSystemPrompt = `You are a strict resume parser that extracts structured JSON from resumes. Respond with JSON only, no prose.`

// DefaultUserPromptTemplate is the user prompt for resume field extraction.
// The single %s placeholder receives the resume text.
const DefaultUserPromptTemplate = `Return a single JSON object with keys exactly:
candidateName, email, phone, skills, expYears, source, resumeUrl, salary, noticePeriod, currentLocation, status, candidateStatus, jobRole

Rules:
- If a value is missing, return empty string "" (or 0 for expYears)
- candidateName: full name
- email: extract email address
- phone: digits and + only
- skills: comma-separated lowercase string
- expYears: integer number of years of experience
- source: set to "CV Upload" by default
- resumeUrl: string (empty if unknown)
- status: "New" by default
- jobRole: extract if mentioned
- Do not return extra keys

Resume text:
%s`

// maxResumeChars caps the resume text sent to the model
const maxResumeChars = 16000
