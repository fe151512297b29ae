package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionEditionsWrite allows creating and activating editions and phases.
	PermissionEditionsWrite Permission = "editions:write"

	// PermissionQuestionsRead allows viewing questions with correctness data.
	PermissionQuestionsRead Permission = "questions:read"

	// PermissionQuestionsWrite allows creating, updating and deleting questions and categories.
	PermissionQuestionsWrite Permission = "questions:write"

	// PermissionQuestionsTransfer allows bulk import and export of the question bank.
	PermissionQuestionsTransfer Permission = "questions:transfer"

	// PermissionExamsRead allows viewing exam lists and details.
	PermissionExamsRead Permission = "exams:read"

	// PermissionExamsWrite allows creating and updating exams and their question lists.
	PermissionExamsWrite Permission = "exams:write"

	// PermissionSessionsRead allows viewing candidate sessions and exam statistics.
	PermissionSessionsRead Permission = "sessions:read"

	// PermissionSessionsWrite allows pre-registering candidates for an exam.
	PermissionSessionsWrite Permission = "sessions:write"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionEditionsWrite,
	PermissionQuestionsRead,
	PermissionQuestionsWrite,
	PermissionQuestionsTransfer,
	PermissionExamsRead,
	PermissionExamsWrite,
	PermissionSessionsRead,
	PermissionSessionsWrite,
}
