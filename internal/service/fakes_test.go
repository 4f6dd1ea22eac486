package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tutorium/sessions/internal/model"
)

// In-memory store fakes mirroring the conditional-update semantics of the
// Postgres repositories: every guarded transition checks the current state
// under a lock and reports whether it matched.

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*model.Session)}
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	if s.Reschedule != nil {
		r := *s.Reschedule
		c.Reschedule = &r
	}
	return &c
}

func (m *memSessionStore) put(s *model.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cloneSession(s)
}

func (m *memSessionStore) get(id uuid.UUID) *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return cloneSession(s)
	}
	return nil
}

func (m *memSessionStore) Create(_ context.Context, s *model.Session) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.put(s)
	return nil
}

func (m *memSessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	return m.get(id), nil
}

func (m *memSessionStore) GetByParticipant(_ context.Context, userID uuid.UUID) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Session
	for _, s := range m.sessions {
		if s.IsParticipant(userID) {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}

func (m *memSessionStore) Cancel(_ context.Context, id, by uuid.UUID, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != model.SessionStatusScheduled {
		return false, nil
	}
	s.Status = model.SessionStatusCancelled
	s.CancelledAt = &at
	s.CancelledBy = &by
	s.CancellationReason = reason
	s.UpdatedAt = at
	return true, nil
}

func (m *memSessionStore) Complete(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status.IsTerminal() {
		return false, nil
	}
	s.Status = model.SessionStatusCompleted
	s.CompletedAt = &at
	s.UpdatedAt = at
	return true, nil
}

func (m *memSessionStore) InstallReschedule(_ context.Context, id uuid.UUID, req *model.RescheduleRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, nil
	}
	if s.Status != model.SessionStatusScheduled && s.Status != model.SessionStatusStartingSoon {
		return false, nil
	}
	if s.Reschedule.IsPending() {
		return false, nil
	}
	prevStart, prevEnd := s.StartTime, s.EndTime
	s.PreviousStartTime = &prevStart
	s.PreviousEndTime = &prevEnd
	r := *req
	s.Reschedule = &r
	s.Status = model.SessionStatusRescheduleRequested
	s.UpdatedAt = req.RequestedAt
	return true, nil
}

func (m *memSessionStore) ApproveReschedule(_ context.Context, id, by uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != model.SessionStatusRescheduleRequested || !s.Reschedule.IsPending() {
		return false, nil
	}
	s.StartTime = s.Reschedule.NewStartTime
	s.EndTime = s.Reschedule.NewEndTime
	s.Reschedule.Status = model.RescheduleStatusApproved
	s.Reschedule.RespondedBy = &by
	s.Reschedule.RespondedAt = &at
	s.Status = model.SessionStatusScheduled
	s.UpdatedAt = at
	return true, nil
}

func (m *memSessionStore) RejectReschedule(_ context.Context, id, by uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.Status != model.SessionStatusRescheduleRequested || !s.Reschedule.IsPending() {
		return false, nil
	}
	s.Reschedule.Status = model.RescheduleStatusRejected
	s.Reschedule.RespondedBy = &by
	s.Reschedule.RespondedAt = &at
	s.Status = model.SessionStatusScheduled
	s.UpdatedAt = at
	return true, nil
}

func (m *memSessionStore) MarkStartingSoon(_ context.Context, now time.Time, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	boundary := now.Add(window)
	for _, s := range m.sessions {
		if s.Status == model.SessionStatusScheduled && !s.StartTime.After(boundary) && s.StartTime.After(now) {
			s.Status = model.SessionStatusStartingSoon
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) MarkInProgress(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if (s.Status == model.SessionStatusScheduled || s.Status == model.SessionStatusStartingSoon) &&
			!s.StartTime.After(now) && s.EndTime.After(now) {
			s.Status = model.SessionStatusInProgress
			startedAt := now
			s.StartedAt = &startedAt
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) MarkExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.Status == model.SessionStatusInProgress && !s.EndTime.After(now) {
			s.Status = model.SessionStatusExpired
			expiredAt := now
			s.ExpiredAt = &expiredAt
			s.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) CountCompletedByTutor(_ context.Context, tutorID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, s := range m.sessions {
		if s.TutorID == tutorID && s.Status == model.SessionStatusCompleted {
			count++
		}
	}
	return count, nil
}

type memProposalStore struct {
	mu        sync.Mutex
	proposals map[uuid.UUID]*model.SessionProposal
}

func newMemProposalStore() *memProposalStore {
	return &memProposalStore{proposals: make(map[uuid.UUID]*model.SessionProposal)}
}

func (m *memProposalStore) Create(_ context.Context, p *model.SessionProposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.CreatedAt = time.Now()
	c := *p
	m.proposals[p.ID] = &c
	return nil
}

func (m *memProposalStore) GetByID(_ context.Context, id uuid.UUID) (*model.SessionProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.proposals[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (m *memProposalStore) GetPendingByConversation(_ context.Context, conversationID uuid.UUID) ([]*model.SessionProposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SessionProposal
	for _, p := range m.proposals {
		if p.ConversationID == conversationID && p.Status == model.ProposalStatusProposed {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memProposalStore) MarkAccepted(_ context.Context, id, sessionID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != model.ProposalStatusProposed {
		return false, nil
	}
	p.Status = model.ProposalStatusAccepted
	p.SessionID = &sessionID
	return true, nil
}

func (m *memProposalStore) MarkRejected(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != model.ProposalStatusProposed {
		return false, nil
	}
	p.Status = model.ProposalStatusRejected
	p.RejectionReason = reason
	return true, nil
}

func (m *memProposalStore) MarkExpired(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != model.ProposalStatusProposed {
		return false, nil
	}
	p.Status = model.ProposalStatusExpired
	return true, nil
}

type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newMemUserStore(users ...*model.User) *memUserStore {
	m := &memUserStore{users: make(map[uuid.UUID]*model.User)}
	for _, u := range users {
		c := *u
		m.users[u.ID] = &c
	}
	return m
}

func (m *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (m *memUserStore) UpdateTutorLevel(_ context.Context, tutorID uuid.UUID, level, completedSessions int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[tutorID]; ok {
		u.Level = level
		u.CompletedSessions = completedSessions
	}
	return nil
}

type memConversationStore struct {
	conversations map[uuid.UUID]*model.Conversation
}

func newMemConversationStore(convs ...*model.Conversation) *memConversationStore {
	m := &memConversationStore{conversations: make(map[uuid.UUID]*model.Conversation)}
	for _, c := range convs {
		cc := *c
		m.conversations[c.ID] = &cc
	}
	return m
}

func (m *memConversationStore) GetByID(_ context.Context, id uuid.UUID) (*model.Conversation, error) {
	if c, ok := m.conversations[id]; ok {
		cc := *c
		return &cc, nil
	}
	return nil, nil
}

type memFeedbackStore struct {
	mu      sync.Mutex
	records []*model.Feedback
}

func (m *memFeedbackStore) Create(_ context.Context, f *model.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.SessionID == f.SessionID {
			return nil
		}
	}
	c := *f
	m.records = append(m.records, &c)
	return nil
}

func (m *memFeedbackStore) all() []*model.Feedback {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Feedback(nil), m.records...)
}

// recordingSink captures activity events.
type recordingSink struct {
	mu     sync.Mutex
	events []model.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event model.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) all() []model.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ActivityEvent(nil), r.events...)
}

// recordingFeedbackScheduler captures completion hook invocations.
type recordingFeedbackScheduler struct {
	mu    sync.Mutex
	err   error
	calls []uuid.UUID
}

func (r *recordingFeedbackScheduler) Schedule(_ context.Context, sessionID, _, _ uuid.UUID, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sessionID)
	return r.err
}

func (r *recordingFeedbackScheduler) sessionIDs() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.calls...)
}

// recordingRecalculator captures level recomputation invocations.
type recordingRecalculator struct {
	mu    sync.Mutex
	err   error
	calls []uuid.UUID
}

func (r *recordingRecalculator) Recalculate(_ context.Context, tutorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, tutorID)
	return r.err
}

func (r *recordingRecalculator) tutorIDs() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.calls...)
}
