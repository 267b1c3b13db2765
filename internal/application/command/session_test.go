package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/session"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/student"
	"github.com/cyranoaladin/nexus-project-v0/internal/infrastructure/persistence/memory"
)

func seedSession(t *testing.T, store *memory.Store) *session.Session {
	t.Helper()
	start := time.Now().UTC().Add(72 * time.Hour)
	sess := session.New(session.KindVisio, start, start.Add(time.Hour))
	err := store.WithUnit(context.Background(), func(ctx context.Context, u unitofwork.UnitOfWork) error {
		return u.Sessions().Create(ctx, sess)
	})
	require.NoError(t, err)
	return sess
}

func TestBookConfirmsProposedSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	sess := seedSession(t, store)
	svc := NewSessionService(store, nil)

	booked, err := svc.Book(ctx, admin, sess.ID, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusConfirme, booked.Status)

	b, err := store.View().Sessions().GetActiveBooking(ctx, sess.ID, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, session.BookingStatusActive, b.Status)

	assert.Equal(t, 1, countEvents(t, store, stud.ID, audit.SessionBooked))
	assert.Equal(t, 1, countEvents(t, store, stud.ID, audit.SummaryRefreshRequested))
}

func TestBookTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	sess := seedSession(t, store)
	svc := NewSessionService(store, nil)

	_, err := svc.Book(ctx, admin, sess.ID, stud.ID)
	require.NoError(t, err)

	booked, err := svc.Book(ctx, admin, sess.ID, stud.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusConfirme, booked.Status)

	assert.Equal(t, 1, countEvents(t, store, stud.ID, audit.SessionBooked))
}

func TestBookTakenSessionFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	other := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	sess := seedSession(t, store)
	svc := NewSessionService(store, nil)

	_, err := svc.Book(ctx, admin, sess.ID, stud.ID)
	require.NoError(t, err)

	_, err = svc.Book(ctx, admin, sess.ID, other.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestBookCancelledSessionFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	sess := seedSession(t, store)
	svc := NewSessionService(store, nil)

	_, err := svc.Book(ctx, admin, sess.ID, stud.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, admin, sess.ID)
	require.NoError(t, err)

	_, err = svc.Book(ctx, admin, sess.ID, stud.ID)
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
}

func TestCancelReleasesBookingAndEmitsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stud := seedStudent(t, store, student.TrackTerminale, student.ProfileScolarise)
	sess := seedSession(t, store)
	svc := NewSessionService(store, nil)

	_, err := svc.Book(ctx, admin, sess.ID, stud.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, admin, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusAnnule, cancelled.Status)

	_, err = store.View().Sessions().GetActiveBooking(ctx, sess.ID, stud.ID)
	assert.True(t, shared.IsNotFound(err))

	// Cancelling again succeeds but records nothing.
	_, err = svc.Cancel(ctx, admin, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, countEvents(t, store, stud.ID, audit.SessionCancelled))
}
