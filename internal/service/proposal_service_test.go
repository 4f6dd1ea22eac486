package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tutorium/sessions/internal/model"
	"go.uber.org/zap"
)

type proposalFixture struct {
	svc      *ProposalService
	sessions *memSessionStore
	store    *memProposalStore
	sink     *recordingSink

	tutor   *model.User
	student *model.User
	conv    *model.Conversation
}

func newProposalFixture(t *testing.T, now time.Time) *proposalFixture {
	t.Helper()

	tutor := &model.User{ID: uuid.New(), Name: "Vera", Role: model.RoleTutor, Verified: true}
	student := &model.User{ID: uuid.New(), Name: "Max", Role: model.RoleStudent, PricingTier: model.TierStandard}
	conv := &model.Conversation{ID: uuid.New(), StudentID: student.ID, TutorID: tutor.ID}

	sessions := newMemSessionStore()
	proposals := newMemProposalStore()
	sink := &recordingSink{}

	svc := NewProposalService(
		proposals,
		sessions,
		newMemUserStore(tutor, student),
		newMemConversationStore(conv),
		sink,
		zap.NewNop(),
	)
	svc.now = func() time.Time { return now }

	return &proposalFixture{
		svc:      svc,
		sessions: sessions,
		store:    proposals,
		sink:     sink,
		tutor:    tutor,
		student:  student,
		conv:     conv,
	}
}

func (f *proposalFixture) propose(t *testing.T) *model.SessionProposal {
	t.Helper()
	p, err := f.svc.Propose(context.Background(), f.tutor.ID, f.conv.ID, "Algebra", at(10, 0), at(11, 0), "quadratics")
	require.NoError(t, err)
	return p
}

func TestProposeDerivesPriceAndExpiry(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))

	p := f.propose(t)

	assert.Equal(t, model.ProposalStatusProposed, p.Status)
	assert.Equal(t, f.student.ID, p.StudentID)
	// Standard tier, one hour.
	assert.Equal(t, float64(35), p.PricePerHour)
	assert.Equal(t, float64(35), p.TotalPrice)
	// A proposal expires at its own start time.
	assert.Equal(t, p.StartTime, p.ExpiresAt)
}

func TestProposeValidation(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))

	_, err := f.svc.Propose(context.Background(), f.tutor.ID, f.conv.ID, "Algebra", at(11, 0), at(10, 0), "")
	assert.True(t, model.IsKind(err, model.KindValidation))

	_, err = f.svc.Propose(context.Background(), f.tutor.ID, f.conv.ID, "Algebra", at(7, 0), at(9, 0), "")
	assert.True(t, model.IsKind(err, model.KindValidation))

	_, err = f.svc.Propose(context.Background(), f.tutor.ID, f.conv.ID, "  ", at(10, 0), at(11, 0), "")
	assert.True(t, model.IsKind(err, model.KindValidation))
}

func TestProposeRequiresVerifiedTutor(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))

	unverified := &model.User{ID: uuid.New(), Role: model.RoleTutor, Verified: false}
	conv := &model.Conversation{ID: uuid.New(), StudentID: f.student.ID, TutorID: unverified.ID}
	f.svc.users = newMemUserStore(unverified, f.student)
	f.svc.conversations = newMemConversationStore(conv)

	_, err := f.svc.Propose(context.Background(), unverified.ID, conv.ID, "Algebra", at(10, 0), at(11, 0), "")
	assert.True(t, model.IsKind(err, model.KindForbidden))
}

func TestProposeRequiresConversationParticipant(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))

	outsider := &model.User{ID: uuid.New(), Role: model.RoleTutor, Verified: true}
	f.svc.users = newMemUserStore(outsider, f.tutor, f.student)

	_, err := f.svc.Propose(context.Background(), outsider.ID, f.conv.ID, "Algebra", at(10, 0), at(11, 0), "")
	assert.True(t, model.IsKind(err, model.KindForbidden))

	_, err = f.svc.Propose(context.Background(), f.tutor.ID, uuid.New(), "Algebra", at(10, 0), at(11, 0), "")
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestAcceptCreatesScheduledSession(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	session, err := f.svc.Accept(context.Background(), p.ID, f.student.ID)
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusScheduled, session.Status)
	assert.Equal(t, p.Subject, session.Subject)
	assert.Equal(t, p.StartTime, session.StartTime)
	assert.Equal(t, p.EndTime, session.EndTime)
	assert.Equal(t, 60, session.DurationMinutes)
	assert.Equal(t, p.TotalPrice, session.TotalPrice)
	require.NotNil(t, session.ProposalID)
	assert.Equal(t, p.ID, *session.ProposalID)
	assert.False(t, session.IsTrial())

	stored, err := f.store.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusAccepted, stored.Status)
	require.NotNil(t, stored.SessionID)
	assert.Equal(t, session.ID, *stored.SessionID)

	events := f.sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, model.ActivitySessionScheduled, events[0].Type)
	assert.Equal(t, session.ID, events[0].EntityID)
}

func TestAcceptMarksTrialSessions(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))

	trialID := uuid.New()
	f.conv.TrialRequestID = &trialID
	f.svc.conversations = newMemConversationStore(f.conv)

	p := f.propose(t)
	session, err := f.svc.Accept(context.Background(), p.ID, f.student.ID)
	require.NoError(t, err)
	assert.True(t, session.IsTrial())
}

func TestAcceptOnlyByCounterparty(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	_, err := f.svc.Accept(context.Background(), p.ID, uuid.New())
	assert.True(t, model.IsKind(err, model.KindForbidden))

	_, err = f.svc.Accept(context.Background(), uuid.New(), f.student.ID)
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestAcceptExpiredProposal(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	// The clock passes the proposed start before the student responds.
	f.svc.now = func() time.Time { return at(10, 1) }

	_, err := f.svc.Accept(context.Background(), p.ID, f.student.ID)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindExpired))

	stored, err := f.store.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusExpired, stored.Status)

	// Expiry is monotonic: a retry fails the same way and the status stays.
	_, err = f.svc.Accept(context.Background(), p.ID, f.student.ID)
	assert.True(t, model.IsKind(err, model.KindExpired))
	stored, _ = f.store.GetByID(context.Background(), p.ID)
	assert.Equal(t, model.ProposalStatusExpired, stored.Status)
}

func TestAcceptAtExactExpiryStillAllowed(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	f.svc.now = func() time.Time { return at(10, 0) }

	_, err := f.svc.Accept(context.Background(), p.ID, f.student.ID)
	require.NoError(t, err)
}

func TestAcceptResolvedProposal(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	_, err := f.svc.Accept(context.Background(), p.ID, f.student.ID)
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), p.ID, f.student.ID)
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidState))
}

func TestPendingByConversation(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))

	open := f.propose(t)
	resolved := f.propose(t)
	require.NoError(t, f.svc.Reject(context.Background(), resolved.ID, f.student.ID, "the time does not work"))

	// Both participants see only the still-open proposal.
	for _, actorID := range []uuid.UUID{f.student.ID, f.tutor.ID} {
		proposals, err := f.svc.PendingByConversation(context.Background(), f.conv.ID, actorID)
		require.NoError(t, err)
		require.Len(t, proposals, 1)
		assert.Equal(t, open.ID, proposals[0].ID)
	}
}

func TestPendingByConversationGuards(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	f.propose(t)

	_, err := f.svc.PendingByConversation(context.Background(), f.conv.ID, uuid.New())
	assert.True(t, model.IsKind(err, model.KindForbidden))

	_, err = f.svc.PendingByConversation(context.Background(), uuid.New(), f.student.ID)
	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestRejectProposal(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	err := f.svc.Reject(context.Background(), p.ID, f.student.ID, "the time does not work for me")
	require.NoError(t, err)

	stored, _ := f.store.GetByID(context.Background(), p.ID)
	assert.Equal(t, model.ProposalStatusRejected, stored.Status)
	assert.Equal(t, "the time does not work for me", stored.RejectionReason)
	assert.Nil(t, stored.SessionID)
}

func TestRejectReasonTooShort(t *testing.T) {
	f := newProposalFixture(t, at(8, 0))
	p := f.propose(t)

	err := f.svc.Reject(context.Background(), p.ID, f.student.ID, "nope")
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindValidation))

	stored, _ := f.store.GetByID(context.Background(), p.ID)
	assert.Equal(t, model.ProposalStatusProposed, stored.Status)
}
