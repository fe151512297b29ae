package service

import (
	"context"
	"iter"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oaib/exam-backend/internal/model"
)

// memDB is an in-memory stand-in for every store a service depends on.
// It mimics the repositories' contracts: pgx.ErrNoRows for misses and guards,
// *pgconn.PgError for constraint violations.
type memDB struct {
	mu     sync.Mutex
	nextID int64

	editions      map[int64]*model.Edition
	phases        map[int64]*model.Phase
	categories    map[int64]*model.QuestionCategory
	questions     map[int64]*model.Question
	options       map[int64]*model.QuestionOption
	exams         map[int64]*model.Exam
	examQuestions map[int64][]int64
	candidates    map[int64]*model.Candidate
	sessions      map[int64]*model.ExamSession
	answers       map[int64]map[int64]*model.ExamAnswer
}

func newMemDB() *memDB {
	return &memDB{
		editions:      map[int64]*model.Edition{},
		phases:        map[int64]*model.Phase{},
		categories:    map[int64]*model.QuestionCategory{},
		questions:     map[int64]*model.Question{},
		options:       map[int64]*model.QuestionOption{},
		exams:         map[int64]*model.Exam{},
		examQuestions: map[int64][]int64{},
		candidates:    map[int64]*model.Candidate{},
		sessions:      map[int64]*model.ExamSession{},
		answers:       map[int64]map[int64]*model.ExamAnswer{},
	}
}

func (m *memDB) id() int64 {
	m.nextID++
	return m.nextID
}

var (
	errUnique     = &pgconn.PgError{Code: "23505"}
	errForeignKey = &pgconn.PgError{Code: "23503"}
)

func cloneQuestion(q *model.Question) model.Question {
	c := *q
	c.Options = slices.Clone(q.Options)
	return c
}

func cloneSession(s *model.ExamSession) *model.ExamSession {
	c := *s
	c.QuestionOrder = slices.Clone(s.QuestionOrder)
	c.CategoryScores = slices.Clone(s.CategoryScores)
	return &c
}

// ─── Editions ──────────────────────────────────────────────────────────────

func (m *memDB) ListEditions(ctx context.Context) ([]model.Edition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Edition
	for _, e := range m.editions {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

func (m *memDB) GetEdition(ctx context.Context, id int64) (*model.Edition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.editions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *e
	return &c, nil
}

func (m *memDB) GetActiveEdition(ctx context.Context) (*model.Edition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.editions {
		if e.IsActive {
			c := *e
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memDB) CreateEdition(ctx context.Context, e *model.Edition, activate bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.editions {
		if x.Year == e.Year {
			return errUnique
		}
	}
	if activate {
		for _, x := range m.editions {
			x.IsActive = false
		}
	}
	e.ID = m.id()
	e.IsActive = activate
	c := *e
	m.editions[e.ID] = &c
	return nil
}

func (m *memDB) ActivateEdition(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.editions[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, x := range m.editions {
		x.IsActive = x.ID == id
	}
	return nil
}

func (m *memDB) ListPhases(ctx context.Context, f model.PhaseFilter) ([]model.Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Phase
	for _, p := range m.phases {
		if f.EditionID != nil && p.EditionID != *f.EditionID {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memDB) CreatePhase(ctx context.Context, p *model.Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.editions[p.EditionID]; !ok {
		return errForeignKey
	}
	for _, x := range m.phases {
		if x.EditionID == p.EditionID && x.PhaseNumber == p.PhaseNumber {
			return errUnique
		}
	}
	p.ID = m.id()
	c := *p
	m.phases[p.ID] = &c
	return nil
}

// ─── Categories ────────────────────────────────────────────────────────────

func (m *memDB) ListCategories(ctx context.Context) ([]model.QuestionCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.QuestionCategory
	for _, c := range m.categories {
		cc := *c
		for _, q := range m.questions {
			if q.CategoryID != nil && *q.CategoryID == c.ID {
				cc.QuestionsCount++
			}
		}
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memDB) GetCategory(ctx context.Context, id int64) (*model.QuestionCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cc := *c
	return &cc, nil
}

func (m *memDB) GetCategoryByName(ctx context.Context, name string) (*model.QuestionCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.Name == name {
			cc := *c
			return &cc, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memDB) TakenSlugs(ctx context.Context, base string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.categories {
		if c.Slug == base || strings.HasPrefix(c.Slug, base+"-") {
			out = append(out, c.Slug)
		}
	}
	return out, nil
}

func (m *memDB) InsertCategory(ctx context.Context, c *model.QuestionCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.categories {
		if x.Name == c.Name || x.Slug == c.Slug {
			return errUnique
		}
	}
	c.ID = m.id()
	cc := *c
	m.categories[c.ID] = &cc
	return nil
}

func (m *memDB) DeleteCategory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.categories, id)
	for _, q := range m.questions {
		if q.CategoryID != nil && *q.CategoryID == id {
			q.CategoryID = nil
			q.CategoryName = ""
		}
	}
	return nil
}

// ─── Questions ─────────────────────────────────────────────────────────────

func (m *memDB) storeOptions(q *model.Question) {
	for i := range q.Options {
		q.Options[i].ID = m.id()
		q.Options[i].QuestionID = q.ID
		o := q.Options[i]
		m.options[o.ID] = &o
	}
}

func (m *memDB) CreateQuestion(ctx context.Context, q *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.CategoryID != nil {
		if _, ok := m.categories[*q.CategoryID]; !ok {
			return errForeignKey
		}
	}
	q.ID = m.id()
	m.storeOptions(q)
	c := cloneQuestion(q)
	m.questions[q.ID] = &c
	return nil
}

func (m *memDB) GetQuestion(ctx context.Context, id int64) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := cloneQuestion(q)
	return &c, nil
}

func (m *memDB) ListQuestions(ctx context.Context, f model.QuestionFilter, limit, offset int) ([]model.Question, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.Question
	for _, q := range m.questions {
		if f.Difficulty != nil && q.Difficulty != *f.Difficulty {
			continue
		}
		all = append(all, cloneQuestion(q))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (m *memDB) UpdateQuestion(ctx context.Context, q *model.Question, replaceOptions bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.questions[q.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if replaceOptions {
		for _, o := range old.Options {
			delete(m.options, o.ID)
		}
		m.storeOptions(q)
	} else {
		q.Options = slices.Clone(old.Options)
	}
	c := cloneQuestion(q)
	m.questions[q.ID] = &c
	return nil
}

func (m *memDB) DeleteQuestion(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, ids := range m.examQuestions {
		if slices.Contains(ids, id) {
			return errForeignKey
		}
	}
	delete(m.questions, id)
	return nil
}

func (m *memDB) StreamRecords(ctx context.Context, f model.QuestionFilter) iter.Seq2[model.QuestionRecord, error] {
	return func(yield func(model.QuestionRecord, error) bool) {
		m.mu.Lock()
		var ids []int64
		for id := range m.questions {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		var recs []model.QuestionRecord
		for _, id := range ids {
			q := m.questions[id]
			rec := model.QuestionRecord{
				Text: q.Text, Category: q.CategoryName, Difficulty: q.Difficulty,
				Points: q.Points, TimeLimitSeconds: q.TimeLimitSeconds, IsActive: q.IsActive,
			}
			for _, o := range q.Options {
				rec.Options = append(rec.Options, model.RecordOption{Text: o.Text, IsCorrect: o.IsCorrect, Order: o.Order})
			}
			recs = append(recs, rec)
		}
		m.mu.Unlock()

		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (m *memDB) GetQuestionsByIDs(ctx context.Context, ids []int64) (map[int64]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[int64]model.Question{}
	for _, id := range ids {
		if q, ok := m.questions[id]; ok {
			out[id] = cloneQuestion(q)
		}
	}
	return out, nil
}

func (m *memDB) GetOption(ctx context.Context, id int64) (*model.QuestionOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.options[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *o
	return &c, nil
}

// ─── Exams ─────────────────────────────────────────────────────────────────

func (m *memDB) GetExam(ctx context.Context, id int64) (*model.Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := *e
	return &c, nil
}

func (m *memDB) ListExams(ctx context.Context, f model.ExamFilter, limit, offset int) ([]model.Exam, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Exam
	for _, e := range m.exams {
		if f.Status != nil && e.Status != *f.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, len(out), nil
}

func (m *memDB) CreateExam(ctx context.Context, e *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.phases) > 0 {
		if _, ok := m.phases[e.PhaseID]; !ok {
			return errForeignKey
		}
	}
	e.ID = m.id()
	c := *e
	m.exams[e.ID] = &c
	return nil
}

func (m *memDB) UpdateExam(ctx context.Context, e *model.Exam) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	c := *e
	m.exams[e.ID] = &c
	return nil
}

func (m *memDB) ListExamQuestions(ctx context.Context, examID int64) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Question
	for _, id := range m.examQuestions[examID] {
		out = append(out, cloneQuestion(m.questions[id]))
	}
	return out, nil
}

func (m *memDB) SetExamQuestions(ctx context.Context, examID int64, questionIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[examID]; !ok {
		return pgx.ErrNoRows
	}
	for _, id := range questionIDs {
		if _, ok := m.questions[id]; !ok {
			return errForeignKey
		}
	}
	m.examQuestions[examID] = slices.Clone(questionIDs)
	for _, q := range m.questions {
		q.UsageCount = 0
		for _, ids := range m.examQuestions {
			if slices.Contains(ids, q.ID) {
				q.UsageCount++
			}
		}
	}
	return nil
}

func (m *memDB) ListCandidateExams(ctx context.Context, candidateID int64) ([]model.CandidateExam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CandidateExam
	for _, e := range m.exams {
		if e.Status == model.ExamStatusCompleted {
			continue
		}
		ce := model.CandidateExam{Exam: *e}
		for _, s := range m.sessions {
			if s.ExamID == e.ID && s.CandidateID == candidateID {
				id, st := s.ID, s.Status
				ce.SessionID, ce.SessionStatus = &id, &st
			}
		}
		out = append(out, ce)
	}
	return out, nil
}

// ─── Candidates & sessions ─────────────────────────────────────────────────

func (m *memDB) GetCandidate(ctx context.Context, id int64) (*model.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cc := *c
	return &cc, nil
}

func (m *memDB) withExamTitle(s *model.ExamSession) *model.ExamSession {
	c := cloneSession(s)
	if e, ok := m.exams[s.ExamID]; ok {
		c.ExamTitle = e.Title
	}
	return c
}

func (m *memDB) GetByCandidateAndExam(ctx context.Context, candidateID, examID int64) (*model.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.CandidateID == candidateID && s.ExamID == examID {
			return m.withExamTitle(s), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memDB) GetOwned(ctx context.Context, id, candidateID int64) (*model.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.CandidateID != candidateID {
		return nil, pgx.ErrNoRows
	}
	return m.withExamTitle(s), nil
}

func (m *memDB) pairTaken(candidateID, examID int64) bool {
	for _, s := range m.sessions {
		if s.CandidateID == candidateID && s.ExamID == examID {
			return true
		}
	}
	return false
}

func (m *memDB) Create(ctx context.Context, s *model.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pairTaken(s.CandidateID, s.ExamID) {
		return pgx.ErrNoRows
	}
	s.ID = m.id()
	c := cloneSession(s)
	c.Status = model.SessionStatusInProgress
	m.sessions[s.ID] = c
	return nil
}

func (m *memDB) Begin(ctx context.Context, s *model.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok || cur.Status != model.SessionStatusNotStarted {
		return pgx.ErrNoRows
	}
	cur.Status = model.SessionStatusInProgress
	cur.StartedAt = s.StartedAt
	cur.MaxScore = s.MaxScore
	cur.QuestionOrder = slices.Clone(s.QuestionOrder)
	return nil
}

func (m *memDB) Register(ctx context.Context, s *model.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pairTaken(s.CandidateID, s.ExamID) {
		return errUnique
	}
	s.ID = m.id()
	s.Status = model.SessionStatusNotStarted
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *memDB) UpsertAnswer(ctx context.Context, a *model.ExamAnswer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[a.SessionID]
	if !ok || s.Status != model.SessionStatusInProgress {
		return pgx.ErrNoRows
	}
	if m.answers[a.SessionID] == nil {
		m.answers[a.SessionID] = map[int64]*model.ExamAnswer{}
	}
	if prev, ok := m.answers[a.SessionID][a.QuestionID]; ok {
		a.ID = prev.ID
	} else {
		a.ID = m.id()
	}
	c := *a
	m.answers[a.SessionID][a.QuestionID] = &c
	return nil
}

func (m *memDB) ListAnswers(ctx context.Context, sessionID int64) ([]model.ExamAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamAnswer
	for _, a := range m.answers[sessionID] {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memDB) Complete(ctx context.Context, s *model.ExamSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.sessions[s.ID]
	if !ok || cur.Status != model.SessionStatusInProgress {
		return pgx.ErrNoRows
	}
	cur.Status = model.SessionStatusCompleted
	cur.CompletedAt = s.CompletedAt
	cur.TimeSpentSeconds = s.TimeSpentSeconds
	cur.Score = s.Score
	cur.Percentage = s.Percentage
	cur.CategoryScores = slices.Clone(s.CategoryScores)
	return nil
}

func (m *memDB) ListByCandidate(ctx context.Context, candidateID int64) ([]model.ExamSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamSession
	for _, s := range m.sessions {
		if s.CandidateID == candidateID {
			out = append(out, *m.withExamTitle(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].StartedAt, out[j].StartedAt
		switch {
		case a == nil && b == nil:
			return out[i].ID > out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *memDB) List(ctx context.Context, f model.SessionFilter, limit, offset int) ([]model.ExamSession, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamSession
	for _, s := range m.sessions {
		if f.ExamID != nil && s.ExamID != *f.ExamID {
			continue
		}
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		out = append(out, *m.withExamTitle(s))
	}
	return out, len(out), nil
}

func (m *memDB) Statistics(ctx context.Context, examID int64, passingScore int) (*model.ExamStatistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &model.ExamStatistics{ExamID: examID}
	var sum float64
	for _, s := range m.sessions {
		if s.ExamID != examID {
			continue
		}
		if s.Status != model.SessionStatusCompleted && s.Status != model.SessionStatusEvaluated {
			continue
		}
		st.TotalSessions++
		sum += s.Percentage
		if s.Percentage >= float64(passingScore) {
			st.Passed++
		}
	}
	if st.TotalSessions > 0 {
		st.AverageScore = sum / float64(st.TotalSessions)
	}
	st.Failed = st.TotalSessions - st.Passed
	return st, nil
}

// ─── Queue ─────────────────────────────────────────────────────────────────

type memQueue struct {
	mu            sync.Mutex
	tabSwitches   []int64
	notifications []model.Notification
	err           error
}

func (q *memQueue) EnqueueTabSwitch(ctx context.Context, sessionID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.tabSwitches = append(q.tabSwitches, sessionID)
	return nil
}

func (q *memQueue) EnqueueNotification(ctx context.Context, n model.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.notifications = append(q.notifications, n)
	return nil
}
