package memory

import (
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/dashboard"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/evaluation"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/plan"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/progress"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/report"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/task"
)

// Copy helpers. Stored entities and returned entities must never share
// pointers or reference types with caller-held values.

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyMapSlice(s []map[string]any) []map[string]any {
	if s == nil {
		return nil
	}
	out := make([]map[string]any, len(s))
	for i, m := range s {
		out[i] = copyAnyMap(m)
	}
	return out
}

func copyStudent(s *student.Student) *student.Student {
	c := *s
	c.Specialities = copyStrings(s.Specialities)
	c.Options = copyStrings(s.Options)
	c.LLV = copyStrings(s.LLV)
	return &c
}

func copyTask(t *task.Task) *task.Task {
	c := *t
	c.DueAt = copyPtr(t.DueAt)
	return &c
}

func copySession(s *session.Session) *session.Session {
	c := *s
	c.StudentID = copyPtr(s.StudentID)
	c.CoachID = copyPtr(s.CoachID)
	return &c
}

func copyBooking(b *session.Booking) *session.Booking {
	c := *b
	return &c
}

func copyEvaluation(e *evaluation.Evaluation) *evaluation.Evaluation {
	c := *e
	c.Score20 = copyPtr(e.Score20)
	c.Feedback = evaluation.FeedbackPayload{
		Meta:        copyAnyMap(e.Feedback.Meta),
		History:     copyMapSlice(e.Feedback.History),
		Submissions: copyMapSlice(e.Feedback.Submissions),
		Items:       copyMapSlice(e.Feedback.Items),
	}
	return &c
}

func copyPlan(p *plan.EpreuvePlan) *plan.EpreuvePlan {
	c := *p
	c.ScheduledAt = copyPtr(p.ScheduledAt)
	return &c
}

func copyProgress(p *progress.Progress) *progress.Progress {
	c := *p
	c.CompetenceCode = copyPtr(p.CompetenceCode)
	return &c
}

func copyReport(r *report.Report) *report.Report {
	c := *r
	c.KPIs = copyAnyMap(r.KPIs)
	return &c
}

func copyEvent(e *audit.Event) *audit.Event {
	c := *e
	c.Payload = copyAnyMap(e.Payload)
	return &c
}

func copySnapshot(s *dashboard.Snapshot) *dashboard.Snapshot {
	c := *s
	c.LastEvalScore = copyPtr(s.LastEvalScore)
	c.NextSessionAt = copyPtr(s.NextSessionAt)
	return &c
}
