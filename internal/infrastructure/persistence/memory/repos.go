package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/evaluation"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/report"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

type studentRepo struct{ st *state }

func (r *studentRepo) Create(ctx context.Context, s *student.Student) error {
	if _, ok := r.st.students[s.ID]; ok {
		return shared.NewDomainError("student", "Create", shared.ErrAlreadyExists, "student already exists")
	}
	r.st.students[s.ID] = copyStudent(s)
	return nil
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*student.Student, error) {
	s, ok := r.st.students[id]
	if !ok {
		return nil, shared.NewDomainError("student", "GetByID", shared.ErrNotFound, "student not found: "+id)
	}
	return copyStudent(s), nil
}

func (r *studentRepo) Update(ctx context.Context, s *student.Student) error {
	if _, ok := r.st.students[s.ID]; !ok {
		return shared.NewDomainError("student", "Update", shared.ErrNotFound, "student not found: "+s.ID)
	}
	r.st.students[s.ID] = copyStudent(s)
	return nil
}

func (r *studentRepo) ListIDs(ctx context.Context) ([]string, error) {
	all := make([]*student.Student, 0, len(r.st.students))
	for _, s := range r.st.students {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	ids := make([]string, len(all))
	for i, s := range all {
		ids[i] = s.ID
	}
	return ids, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Tasks
// ─────────────────────────────────────────────────────────────────────────────

type taskRepo struct{ st *state }

func (r *taskRepo) Create(ctx context.Context, t *task.Task) error {
	if _, ok := r.st.tasks[t.ID]; ok {
		return shared.NewDomainError("task", "Create", shared.ErrAlreadyExists, "task already exists")
	}
	if _, ok := r.st.students[t.StudentID]; !ok {
		return shared.NewDomainError("task", "Create", shared.ErrNotFound, "student not found: "+t.StudentID)
	}
	r.st.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id string) (*task.Task, error) {
	t, ok := r.st.tasks[id]
	if !ok {
		return nil, shared.NewDomainError("task", "GetByID", shared.ErrNotFound, "task not found: "+id)
	}
	return copyTask(t), nil
}

func (r *taskRepo) ListByStudent(ctx context.Context, studentID string) ([]*task.Task, error) {
	var tasks []*task.Task
	for _, t := range r.st.tasks {
		if t.StudentID == studentID {
			tasks = append(tasks, copyTask(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (r *taskRepo) Update(ctx context.Context, t *task.Task) error {
	if _, ok := r.st.tasks[t.ID]; !ok {
		return shared.NewDomainError("task", "Update", shared.ErrNotFound, "task not found: "+t.ID)
	}
	r.st.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.st.tasks[id]; !ok {
		return shared.NewDomainError("task", "Delete", shared.ErrNotFound, "task not found: "+id)
	}
	delete(r.st.tasks, id)
	return nil
}

func (r *taskRepo) CountOpen(ctx context.Context, studentID string) (int, error) {
	count := 0
	for _, t := range r.st.tasks {
		if t.StudentID == studentID && t.Status == task.StatusTodo {
			count++
		}
	}
	return count, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions and bookings
// ─────────────────────────────────────────────────────────────────────────────

type sessionRepo struct{ st *state }

func (r *sessionRepo) Create(ctx context.Context, s *session.Session) error {
	if _, ok := r.st.sessions[s.ID]; ok {
		return shared.NewDomainError("session", "Create", shared.ErrAlreadyExists, "session already exists")
	}
	r.st.sessions[s.ID] = copySession(s)
	return nil
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*session.Session, error) {
	s, ok := r.st.sessions[id]
	if !ok {
		return nil, shared.NewDomainError("session", "GetByID", shared.ErrNotFound, "session not found: "+id)
	}
	return copySession(s), nil
}

func (r *sessionRepo) Update(ctx context.Context, s *session.Session) error {
	if _, ok := r.st.sessions[s.ID]; !ok {
		return shared.NewDomainError("session", "Update", shared.ErrNotFound, "session not found: "+s.ID)
	}
	r.st.sessions[s.ID] = copySession(s)
	return nil
}

func (r *sessionRepo) NextConfirmedStart(ctx context.Context, studentID string, after time.Time) (*time.Time, error) {
	var next *time.Time
	for _, s := range r.st.sessions {
		if s.Status != session.StatusConfirme || s.SlotStart.Before(after) {
			continue
		}
		owned := s.StudentID != nil && *s.StudentID == studentID
		if !owned && !r.hasActiveBooking(s.ID, studentID) {
			continue
		}
		if next == nil || s.SlotStart.Before(*next) {
			start := s.SlotStart
			next = &start
		}
	}
	return next, nil
}

func (r *sessionRepo) hasActiveBooking(sessionID, studentID string) bool {
	for _, b := range r.st.bookings {
		if b.SessionID == sessionID && b.StudentID == studentID && b.Status == session.BookingStatusActive {
			return true
		}
	}
	return false
}

func (r *sessionRepo) CreateBooking(ctx context.Context, b *session.Booking) error {
	if _, ok := r.st.sessions[b.SessionID]; !ok {
		return shared.NewDomainError("session", "CreateBooking", shared.ErrNotFound, "session not found: "+b.SessionID)
	}
	if r.hasActiveBooking(b.SessionID, b.StudentID) {
		return shared.NewDomainError("session", "CreateBooking", shared.ErrAlreadyExists, "active booking already exists")
	}
	r.st.bookings[b.ID] = copyBooking(b)
	return nil
}

func (r *sessionRepo) GetActiveBooking(ctx context.Context, sessionID, studentID string) (*session.Booking, error) {
	for _, b := range r.st.bookings {
		if b.SessionID == sessionID && b.StudentID == studentID && b.Status == session.BookingStatusActive {
			return copyBooking(b), nil
		}
	}
	return nil, shared.NewDomainError("session", "GetActiveBooking", shared.ErrNotFound, "no active booking")
}

func (r *sessionRepo) UpdateBooking(ctx context.Context, b *session.Booking) error {
	if _, ok := r.st.bookings[b.ID]; !ok {
		return shared.NewDomainError("session", "UpdateBooking", shared.ErrNotFound, "booking not found: "+b.ID)
	}
	r.st.bookings[b.ID] = copyBooking(b)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Evaluations
// ─────────────────────────────────────────────────────────────────────────────

type evaluationRepo struct{ st *state }

func (r *evaluationRepo) Create(ctx context.Context, e *evaluation.Evaluation) error {
	if _, ok := r.st.evaluations[e.ID]; ok {
		return shared.NewDomainError("evaluation", "Create", shared.ErrAlreadyExists, "evaluation already exists")
	}
	if _, ok := r.st.students[e.StudentID]; !ok {
		return shared.NewDomainError("evaluation", "Create", shared.ErrNotFound, "student not found: "+e.StudentID)
	}
	r.st.evaluations[e.ID] = copyEvaluation(e)
	return nil
}

func (r *evaluationRepo) GetByID(ctx context.Context, id string) (*evaluation.Evaluation, error) {
	e, ok := r.st.evaluations[id]
	if !ok {
		return nil, shared.NewDomainError("evaluation", "GetByID", shared.ErrNotFound, "evaluation not found: "+id)
	}
	return copyEvaluation(e), nil
}

func (r *evaluationRepo) ListByStudent(ctx context.Context, studentID string) ([]*evaluation.Evaluation, error) {
	var evals []*evaluation.Evaluation
	for _, e := range r.st.evaluations {
		if e.StudentID == studentID {
			evals = append(evals, copyEvaluation(e))
		}
	}
	sort.Slice(evals, func(i, j int) bool { return evals[i].CreatedAt.After(evals[j].CreatedAt) })
	return evals, nil
}

func (r *evaluationRepo) Update(ctx context.Context, e *evaluation.Evaluation) error {
	if _, ok := r.st.evaluations[e.ID]; !ok {
		return shared.NewDomainError("evaluation", "Update", shared.ErrNotFound, "evaluation not found: "+e.ID)
	}
	r.st.evaluations[e.ID] = copyEvaluation(e)
	return nil
}

func (r *evaluationRepo) LastScore(ctx context.Context, studentID string) (*float64, error) {
	var latest *evaluation.Evaluation
	for _, e := range r.st.evaluations {
		if e.StudentID != studentID || e.Status != evaluation.StatusCorrige || e.Score20 == nil {
			continue
		}
		if latest == nil || e.CreatedAt.After(latest.CreatedAt) {
			latest = e
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyPtr(latest.Score20), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Exam plan
// ─────────────────────────────────────────────────────────────────────────────

type planRepo struct{ st *state }

func (r *planRepo) Create(ctx context.Context, p *plan.EpreuvePlan) error {
	if _, ok := r.st.students[p.StudentID]; !ok {
		return shared.NewDomainError("plan", "Create", shared.ErrNotFound, "student not found: "+p.StudentID)
	}
	r.st.plans[p.ID] = copyPlan(p)
	return nil
}

func (r *planRepo) ListByStudent(ctx context.Context, studentID string) ([]*plan.EpreuvePlan, error) {
	var plans []*plan.EpreuvePlan
	for _, p := range r.st.plans {
		if p.StudentID == studentID {
			plans = append(plans, copyPlan(p))
		}
	}
	sort.Slice(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		switch {
		case a.ScheduledAt == nil && b.ScheduledAt == nil:
			return a.Code < b.Code
		case a.ScheduledAt == nil:
			return false
		case b.ScheduledAt == nil:
			return true
		case a.ScheduledAt.Equal(*b.ScheduledAt):
			return a.Code < b.Code
		default:
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
	})
	return plans, nil
}

func (r *planRepo) Update(ctx context.Context, p *plan.EpreuvePlan) error {
	if _, ok := r.st.plans[p.ID]; !ok {
		return shared.NewDomainError("plan", "Update", shared.ErrNotFound, "plan row not found: "+p.ID)
	}
	r.st.plans[p.ID] = copyPlan(p)
	return nil
}

func (r *planRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.st.plans[id]; !ok {
		return shared.NewDomainError("plan", "Delete", shared.ErrNotFound, "plan row not found: "+id)
	}
	delete(r.st.plans, id)
	return nil
}

func (r *planRepo) DeleteBySource(ctx context.Context, studentID string, source plan.Source) (int, error) {
	deleted := 0
	for id, p := range r.st.plans {
		if p.StudentID == studentID && p.Source == source {
			delete(r.st.plans, id)
			deleted++
		}
	}
	return deleted, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress
// ─────────────────────────────────────────────────────────────────────────────

type progressRepo struct{ st *state }

func progressKey(p *progress.Progress) string {
	competence := ""
	if p.CompetenceCode != nil {
		competence = *p.CompetenceCode
	}
	return p.StudentID + "|" + p.Subject + "|" + p.ChapterCode + "|" + competence
}

func (r *progressRepo) Upsert(ctx context.Context, p *progress.Progress) error {
	if _, ok := r.st.students[p.StudentID]; !ok {
		return shared.NewDomainError("progress", "Upsert", shared.ErrNotFound, "student not found: "+p.StudentID)
	}
	key := progressKey(p)
	if existing, ok := r.st.progress[key]; ok {
		existing.Score = p.Score
		existing.UpdatedAt = p.UpdatedAt
		return nil
	}
	r.st.progress[key] = copyProgress(p)
	return nil
}

func (r *progressRepo) ListByStudent(ctx context.Context, studentID string, limit int) ([]*progress.Progress, error) {
	var entries []*progress.Progress
	for _, p := range r.st.progress {
		if p.StudentID == studentID {
			entries = append(entries, copyProgress(p))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UpdatedAt.After(entries[j].UpdatedAt) })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (r *progressRepo) AverageScore(ctx context.Context, studentID string) (float64, error) {
	sum, n := 0.0, 0
	for _, p := range r.st.progress {
		if p.StudentID == studentID {
			sum += p.Score
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reports
// ─────────────────────────────────────────────────────────────────────────────

type reportRepo struct{ st *state }

func (r *reportRepo) Create(ctx context.Context, rep *report.Report) error {
	if _, ok := r.st.students[rep.StudentID]; !ok {
		return shared.NewDomainError("report", "Create", shared.ErrNotFound, "student not found: "+rep.StudentID)
	}
	r.st.reports[rep.ID] = copyReport(rep)
	return nil
}

func (r *reportRepo) ListByStudent(ctx context.Context, studentID string) ([]*report.Report, error) {
	var reports []*report.Report
	for _, rep := range r.st.reports {
		if rep.StudentID == studentID {
			reports = append(reports, copyReport(rep))
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].GeneratedAt.After(reports[j].GeneratedAt) })
	return reports, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Event log
// ─────────────────────────────────────────────────────────────────────────────

type eventLog struct{ st *state }

func (l *eventLog) Append(ctx context.Context, e *audit.Event) error {
	l.st.events = append(l.st.events, copyEvent(e))
	return nil
}

func (l *eventLog) FindSince(ctx context.Context, kind audit.Kind, after time.Time) ([]*audit.Event, error) {
	var events []*audit.Event
	for _, e := range l.st.events {
		if e.Kind == kind && e.OccurredAt.After(after) {
			events = append(events, copyEvent(e))
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].OccurredAt.Before(events[j].OccurredAt) })
	return events, nil
}

func (l *eventLog) LastOccurrence(ctx context.Context, kind audit.Kind) (time.Time, error) {
	var last time.Time
	for _, e := range l.st.events {
		if e.Kind == kind && e.OccurredAt.After(last) {
			last = e.OccurredAt
		}
	}
	return last, nil
}

func (l *eventLog) ListByStudent(ctx context.Context, studentID string, kind audit.Kind, limit int) ([]*audit.Event, error) {
	var events []*audit.Event
	for _, e := range l.st.events {
		if e.StudentID == studentID && (kind == "" || e.Kind == kind) {
			events = append(events, copyEvent(e))
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].OccurredAt.After(events[j].OccurredAt) })
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Dashboard snapshots
// ─────────────────────────────────────────────────────────────────────────────

type snapshotRepo struct{ st *state }

func (r *snapshotRepo) Get(ctx context.Context, studentID string) (*dashboard.Snapshot, error) {
	s, ok := r.st.snapshots[studentID]
	if !ok {
		return nil, shared.NewDomainError("dashboard", "Get", shared.ErrNotFound, "no snapshot for student: "+studentID)
	}
	return copySnapshot(s), nil
}

func (r *snapshotRepo) Write(ctx context.Context, s *dashboard.Snapshot) error {
	r.st.snapshots[s.StudentID] = copySnapshot(s)
	return nil
}
