package model

import "time"

// DashboardSummary is the admin overview of the question bank and exams.
type DashboardSummary struct {
	ActiveEdition    *Edition           `json:"active_edition"`
	TotalCandidates  int                `json:"total_candidates"`
	TotalQuestions   int                `json:"total_questions"`
	TotalCategories  int                `json:"total_categories"`
	TotalExams       int                `json:"total_exams"`
	ExamsByStatus    map[ExamStatus]int `json:"exams_by_status"`
	QuestionsByLevel map[Difficulty]int `json:"questions_by_difficulty"`
	RecentResults    []RecentExamResult `json:"recent_results"`
}

// RecentExamResult summarizes finished sessions of a recent exam.
type RecentExamResult struct {
	ExamID            int64      `json:"exam_id"`
	Title             string     `json:"title"`
	EndDatetime       *time.Time `json:"end_datetime"`
	FinishedSessions  int        `json:"finished_sessions"`
	AveragePercentage float64    `json:"average_percentage"`
}

// MonitorRow is the live state of one in-progress session.
type MonitorRow struct {
	SessionID      int64      `json:"session_id"`
	CandidateID    int64      `json:"candidate_id"`
	CandidateName  string     `json:"candidate_name"`
	StartedAt      *time.Time `json:"started_at"`
	Answered       int        `json:"answered"`
	Flagged        int        `json:"flagged"`
	TotalQuestions int        `json:"total_questions"`
	TabSwitchCount int        `json:"tab_switch_count"`
}

// ExamMonitor is the live view of an exam for proctors.
type ExamMonitor struct {
	ExamID           int64        `json:"exam_id"`
	InProgress       int          `json:"in_progress"`
	Finished         int          `json:"finished"`
	PendingTabSwitch int64        `json:"pending_tab_switch_events"`
	Sessions         []MonitorRow `json:"sessions"`
}
