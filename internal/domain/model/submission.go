package model

// Verdict is the judge result code stored on a submission row.
type Verdict int

const (
	VerdictPending             Verdict = 0
	VerdictPendingRejudge      Verdict = 1
	VerdictCompiling           Verdict = 2
	VerdictRunningJudging      Verdict = 3
	VerdictAccepted            Verdict = 4
	VerdictPresentationError   Verdict = 5
	VerdictWrongAnswer         Verdict = 6
	VerdictTimeLimitExceeded   Verdict = 7
	VerdictMemoryLimitExceeded Verdict = 8
	VerdictOutputLimitExceeded Verdict = 9
	VerdictRuntimeError        Verdict = 10
	VerdictCompileError        Verdict = 11
)

// SubmissionRecord is the slice of a judged submission the statistics need.
// Submissions are written by the judge; this service only reads them.
type SubmissionRecord struct {
	ProblemID int64   `json:"problem_id"`
	Language  int     `json:"language"`
	Result    Verdict `json:"result"`
	UserID    int64   `json:"user_id"`
}

type StatsSummary struct {
	ACCount         int     `json:"ac_count"`
	CECount         int     `json:"ce_count"`
	WACount         int     `json:"wa_count"`
	TLECount        int     `json:"tle_count"`
	AllCount        int     `json:"all_count"`
	SolvedProblem   []int64 `json:"solved_problem"`
	UnsolvedProblem []int64 `json:"unsolved_problem"`
}
