package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/lock"
	"github.com/prn-tf/eday-ledger/internal/metrics"
	"github.com/prn-tf/eday-ledger/internal/pkg/crypto"
	"github.com/prn-tf/eday-ledger/internal/storage"
)

// Default lock settings used when LedgerConfig leaves them unset.
const (
	DefaultLockTTL        = 10 * time.Second
	DefaultLockRetries    = 20
	DefaultLockRetryDelay = 50 * time.Millisecond
)

// LedgerConfig configures a LedgerService.
type LedgerConfig struct {
	// Deriver turns a raw credential into a voter id. Nil uses the legacy scheme.
	Deriver crypto.Deriver

	// Admin is the credential pair that unlocks the admin identity.
	// Nil disables admin login.
	Admin *crypto.AdminCredential

	// Roster seeds the candidate bucket on first run. Nil uses domain.InitialCandidates.
	Roster []domain.Candidate

	// Namespace prefixes bucket keys and the ledger lock key.
	Namespace string

	LockTTL        time.Duration
	LockRetries    int
	LockRetryDelay time.Duration

	// Metrics is optional.
	Metrics *metrics.Metrics

	// Now is the clock used for candidate ids. Nil uses time.Now.
	Now func() time.Time
}

// LedgerService owns the candidate, user and session buckets and enforces
// every invariant on them. All mutations run under the ledger lock as one
// read-modify-write cycle committed with version checks.
type LedgerService struct {
	store    storage.Store
	locker   lock.Locker
	cfg      LedgerConfig
	keys     storage.Keys
	clientID string
	logger   zerolog.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(
	store storage.Store,
	locker lock.Locker,
	cfg LedgerConfig,
	logger zerolog.Logger,
) *LedgerService {
	if cfg.Deriver == nil {
		cfg.Deriver = crypto.LegacyDeriver{}
	}
	if cfg.Roster == nil {
		cfg.Roster = domain.InitialCandidates()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = DefaultLockTTL
	}
	if cfg.LockRetries <= 0 {
		cfg.LockRetries = DefaultLockRetries
	}
	if cfg.LockRetryDelay <= 0 {
		cfg.LockRetryDelay = DefaultLockRetryDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &LedgerService{
		store:  store,
		locker: locker,
		cfg:    cfg,
		keys:   storage.Keys{Namespace: cfg.Namespace},
		logger: logger.With().Str("service", "ledger").Logger(),
	}
}

// WithClient returns a view of the ledger whose session bucket belongs to
// clientID. Users and candidates are shared with the receiver.
func (s *LedgerService) WithClient(clientID string) *LedgerService {
	c := *s
	c.clientID = clientID
	return &c
}

// ClientID returns the client this view's session belongs to.
func (s *LedgerService) ClientID() string {
	return s.clientID
}

// =============================================================================
// Input/Output Structs
// =============================================================================

// CastVoteOutput contains the result of a recorded vote.
type CastVoteOutput struct {
	User      *domain.User
	Candidate *domain.Candidate
}

// =============================================================================
// Lifecycle
// =============================================================================

// Initialize seeds the candidate bucket with the roster and the user bucket
// with an empty set. Buckets that already exist are left untouched.
func (s *LedgerService) Initialize(ctx context.Context) error {
	return s.withLock(ctx, "initialize", func() error {
		var writes []storage.Write

		_, found, err := storage.LoadOrEmpty(ctx, s.store, s.keys.Candidates())
		if err != nil {
			return s.internal(err, "failed to load candidates")
		}
		if !found {
			w, err := encodeWrite(s.keys.Candidates(), 0, cloneCandidates(s.cfg.Roster))
			if err != nil {
				return s.internal(err, "failed to encode candidates")
			}
			writes = append(writes, w)
		}

		_, found, err = storage.LoadOrEmpty(ctx, s.store, s.keys.Users())
		if err != nil {
			return s.internal(err, "failed to load users")
		}
		if !found {
			w, err := encodeWrite(s.keys.Users(), 0, []domain.User{})
			if err != nil {
				return s.internal(err, "failed to encode users")
			}
			writes = append(writes, w)
		}

		if len(writes) == 0 {
			return nil
		}
		if err := s.commit(ctx, writes...); err != nil {
			return err
		}

		s.logger.Info().Int("seeded_buckets", len(writes)).Msg("ledger initialized")
		return nil
	})
}

// =============================================================================
// Reads
// =============================================================================

// ListUsers returns the full user set in stored order.
func (s *LedgerService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, _, err := s.loadUsers(ctx)
	return users, err
}

// ListCandidates returns the full candidate set in stored order.
// Before initialization this is the seed roster.
func (s *LedgerService) ListCandidates(ctx context.Context) ([]domain.Candidate, error) {
	candidates, _, err := s.loadCandidates(ctx)
	return candidates, err
}

// Snapshot returns a read-only copy of the candidates for the AI analyst.
func (s *LedgerService) Snapshot(ctx context.Context) ([]domain.Candidate, error) {
	return s.ListCandidates(ctx)
}

// Results computes totals, shares and participation from the current sets.
func (s *LedgerService) Results(ctx context.Context) (*domain.Results, error) {
	candidates, _, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}
	users, _, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	return domain.ComputeResults(candidates, users), nil
}

// =============================================================================
// Identity
// =============================================================================

// RegisterUser adds a voter and makes it this client's session.
func (s *LedgerService) RegisterUser(ctx context.Context, username, rawCredential string) (*domain.User, error) {
	if username == "" || rawCredential == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "Please fill in all fields", "")
	}

	user := domain.NewVoter(s.cfg.Deriver.Derive(rawCredential), username)

	err := s.withLock(ctx, "register", func() error {
		users, usersVersion, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			if u.Username == username {
				return domain.NewDomainError(domain.ErrDuplicateUsername, "", username)
			}
		}
		_, sessionVersion, err := s.loadSession(ctx)
		if err != nil {
			return err
		}

		usersWrite, err := encodeWrite(s.keys.Users(), usersVersion, append(users, *user))
		if err != nil {
			return s.internal(err, "failed to encode users")
		}
		sessionWrite, err := encodeWrite(s.keys.Session(s.clientID), sessionVersion, user)
		if err != nil {
			return s.internal(err, "failed to encode session")
		}
		return s.commit(ctx, usersWrite, sessionWrite)
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Registrations.Inc()
	}
	s.logger.Info().Str("username", username).Msg("voter registered")

	return user.Clone(), nil
}

// Authenticate resolves a credential pair to the admin identity or a voter
// and makes it this client's session. The admin identity is never added to
// the user set. Unknown usernames and wrong credentials fail the same way.
func (s *LedgerService) Authenticate(ctx context.Context, username, rawCredential string) (*domain.User, error) {
	if username == "" || rawCredential == "" {
		return nil, domain.NewDomainError(domain.ErrInvalidInput, "Please fill in all fields", "")
	}

	if s.cfg.Admin.Matches(username, rawCredential) {
		admin := domain.NewAdmin(username)
		if err := s.SetSession(ctx, admin); err != nil {
			return nil, err
		}
		s.recordLogin("admin")
		s.logger.Info().Str("username", username).Msg("admin logged in")
		return admin, nil
	}

	id := s.cfg.Deriver.Derive(rawCredential)

	var found *domain.User
	err := s.withLock(ctx, "authenticate", func() error {
		users, _, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		for i := range users {
			if users[i].Username == username && users[i].ID == id {
				found = &users[i]
				break
			}
		}
		if found == nil {
			return domain.ErrInvalidCredentials
		}
		return s.setSessionLocked(ctx, found)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			s.recordLogin("failed")
			s.logger.Debug().Str("username", username).Msg("login rejected")
		}
		return nil, err
	}

	s.recordLogin("voter")
	s.logger.Info().Str("username", username).Msg("voter logged in")
	return found.Clone(), nil
}

// SetSession replaces this client's session. Nil clears it.
func (s *LedgerService) SetSession(ctx context.Context, user *domain.User) error {
	return s.withLock(ctx, "set_session", func() error {
		return s.setSessionLocked(ctx, user)
	})
}

// Logout clears this client's session.
func (s *LedgerService) Logout(ctx context.Context) error {
	return s.SetSession(ctx, nil)
}

// GetSession returns this client's session, or nil when nobody is logged in.
// A voter session reports the voted flag of the authoritative user record,
// so votes cast from another client are reflected here too.
func (s *LedgerService) GetSession(ctx context.Context) (*domain.User, error) {
	session, _, err := s.loadSession(ctx)
	if err != nil || session == nil || session.IsAdmin {
		return session, err
	}

	users, _, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == session.ID && u.Username == session.Username {
			session.HasVoted = u.HasVoted
			break
		}
	}
	return session, nil
}

// RequireSession returns this client's session or domain.ErrNoSession.
func (s *LedgerService) RequireSession(ctx context.Context) (*domain.User, error) {
	user, err := s.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNoSession
	}
	return user, nil
}

// RequireAdmin returns this client's session if it is the admin identity.
func (s *LedgerService) RequireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := s.RequireSession(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domain.ErrAdminRequired
	}
	return user, nil
}

// =============================================================================
// Voting
// =============================================================================

// CastVote records one vote by userID for candidateID. The candidate tally,
// the user's voted flag and, when it is the same voter, this client's
// session are committed together. A rejected vote changes nothing and
// returns a *domain.VoteRejectedError.
func (s *LedgerService) CastVote(ctx context.Context, userID string, candidateID int64) (*CastVoteOutput, error) {
	var out *CastVoteOutput

	err := s.withLock(ctx, "cast_vote", func() error {
		users, usersVersion, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		ui := -1
		for i := range users {
			if users[i].ID == userID {
				ui = i
				break
			}
		}
		if ui < 0 {
			return domain.NewVoteRejected(domain.RejectNoSuchUser)
		}
		if users[ui].HasVoted {
			return domain.NewVoteRejected(domain.RejectAlreadyVoted)
		}

		candidates, candidatesVersion, err := s.loadCandidates(ctx)
		if err != nil {
			return err
		}
		ci := -1
		for i := range candidates {
			if candidates[i].ID == candidateID {
				ci = i
				break
			}
		}
		if ci < 0 {
			return domain.NewVoteRejected(domain.RejectNoSuchCandidate)
		}

		candidates[ci].Votes++
		users[ui].HasVoted = true

		candidatesWrite, err := encodeWrite(s.keys.Candidates(), candidatesVersion, candidates)
		if err != nil {
			return s.internal(err, "failed to encode candidates")
		}
		usersWrite, err := encodeWrite(s.keys.Users(), usersVersion, users)
		if err != nil {
			return s.internal(err, "failed to encode users")
		}
		writes := []storage.Write{candidatesWrite, usersWrite}

		session, sessionVersion, err := s.loadSession(ctx)
		if err != nil {
			return err
		}
		if session != nil && session.ID == userID {
			session.HasVoted = true
			sessionWrite, err := encodeWrite(s.keys.Session(s.clientID), sessionVersion, session)
			if err != nil {
				return s.internal(err, "failed to encode session")
			}
			writes = append(writes, sessionWrite)
		}

		if err := s.commit(ctx, writes...); err != nil {
			return err
		}

		voted := candidates[ci]
		out = &CastVoteOutput{User: users[ui].Clone(), Candidate: &voted}
		return nil
	})
	if err != nil {
		if reason, ok := domain.RejectReasonOf(err); ok {
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.VoteRejections.WithLabelValues(string(reason)).Inc()
			}
			s.logger.Info().Str("reason", string(reason)).Int64("candidate_id", candidateID).Msg("vote rejected")
		}
		return nil, err
	}

	if s.cfg.Metrics != nil {
		s.cfg.Metrics.VotesCast.WithLabelValues(string(out.Candidate.Language)).Inc()
	}
	s.logger.Info().
		Str("username", out.User.Username).
		Int64("candidate_id", candidateID).
		Msg("vote cast")

	return out, nil
}

// =============================================================================
// Admin capabilities
// =============================================================================

// ResetVotes zeroes every tally and clears every voted flag, including the
// one on this client's session.
func (s *LedgerService) ResetVotes(ctx context.Context) error {
	err := s.withLock(ctx, "reset_votes", func() error {
		candidates, candidatesVersion, err := s.loadCandidates(ctx)
		if err != nil {
			return err
		}
		for i := range candidates {
			candidates[i].Votes = 0
		}

		users, usersVersion, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		for i := range users {
			users[i].HasVoted = false
		}

		candidatesWrite, err := encodeWrite(s.keys.Candidates(), candidatesVersion, candidates)
		if err != nil {
			return s.internal(err, "failed to encode candidates")
		}
		usersWrite, err := encodeWrite(s.keys.Users(), usersVersion, users)
		if err != nil {
			return s.internal(err, "failed to encode users")
		}
		writes := []storage.Write{candidatesWrite, usersWrite}

		session, sessionVersion, err := s.loadSession(ctx)
		if err != nil {
			return err
		}
		if session != nil {
			session.HasVoted = false
			sessionWrite, err := encodeWrite(s.keys.Session(s.clientID), sessionVersion, session)
			if err != nil {
				return s.internal(err, "failed to encode session")
			}
			writes = append(writes, sessionWrite)
		}

		return s.commit(ctx, writes...)
	})
	if err != nil {
		return err
	}

	s.recordAdmin("reset_votes")
	s.logger.Warn().Msg("all votes reset")
	return nil
}

// PurgeUsers empties the user set. Candidates and sessions are untouched,
// so a logged-in voter stays logged in.
func (s *LedgerService) PurgeUsers(ctx context.Context) error {
	err := s.withLock(ctx, "purge_users", func() error {
		_, usersVersion, err := s.loadUsers(ctx)
		if err != nil {
			return err
		}
		w, err := encodeWrite(s.keys.Users(), usersVersion, []domain.User{})
		if err != nil {
			return s.internal(err, "failed to encode users")
		}
		return s.commit(ctx, w)
	})
	if err != nil {
		return err
	}

	s.recordAdmin("purge_users")
	s.logger.Warn().Msg("all users purged")
	return nil
}

// AddCandidate appends a candidate with no votes and a fresh id.
// Ids come from the clock in milliseconds and always exceed every existing id.
func (s *LedgerService) AddCandidate(ctx context.Context, name string, language domain.Language, bio string) (*domain.Candidate, error) {
	if err := domain.ValidateCandidateInput(name, language, bio); err != nil {
		return nil, err
	}

	var added *domain.Candidate
	err := s.withLock(ctx, "add_candidate", func() error {
		candidates, version, err := s.loadCandidates(ctx)
		if err != nil {
			return err
		}

		id := s.cfg.Now().UnixMilli()
		for _, c := range candidates {
			if c.ID >= id {
				id = c.ID + 1
			}
		}

		added = domain.NewCandidate(id, name, language, bio)
		w, err := encodeWrite(s.keys.Candidates(), version, append(candidates, *added))
		if err != nil {
			return s.internal(err, "failed to encode candidates")
		}
		return s.commit(ctx, w)
	})
	if err != nil {
		return nil, err
	}

	s.recordAdmin("add_candidate")
	s.logger.Info().Int64("candidate_id", added.ID).Str("name", name).Msg("candidate added")
	return added, nil
}

// DeleteCandidate removes a candidate and reports whether it existed.
// Voted flags of users who chose it are left as they are.
func (s *LedgerService) DeleteCandidate(ctx context.Context, id int64) (bool, error) {
	removed := false
	err := s.withLock(ctx, "delete_candidate", func() error {
		candidates, version, err := s.loadCandidates(ctx)
		if err != nil {
			return err
		}

		kept := make([]domain.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if c.ID == id {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		if !removed {
			return nil
		}

		w, err := encodeWrite(s.keys.Candidates(), version, kept)
		if err != nil {
			return s.internal(err, "failed to encode candidates")
		}
		return s.commit(ctx, w)
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.recordAdmin("delete_candidate")
		s.logger.Info().Int64("candidate_id", id).Msg("candidate deleted")
	}
	return removed, nil
}

// =============================================================================
// Helpers
// =============================================================================

// withLock runs fn while holding the ledger lock.
func (s *LedgerService) withLock(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	release, err := lock.Hold(ctx, s.locker, lock.Keys.Ledger(s.cfg.Namespace), lock.Policy{
		TTL:        s.cfg.LockTTL,
		Retries:    s.cfg.LockRetries,
		RetryDelay: s.cfg.LockRetryDelay,
	})
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.LockWait.Observe(time.Since(start).Seconds())
	}
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		s.logger.Warn().Str("op", op).Msg("ledger lock busy")
		return domain.ErrLedgerBusy
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return s.internal(err, "failed to acquire ledger lock")
	}

	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn().Err(err).Str("op", op).Msg("failed to release ledger lock")
		}
	}()

	return fn()
}

// setSessionLocked writes or clears the session. The ledger lock must be held.
func (s *LedgerService) setSessionLocked(ctx context.Context, user *domain.User) error {
	current, version, err := s.loadSession(ctx)
	if err != nil {
		return err
	}

	if user == nil {
		if current == nil {
			return nil
		}
		return s.commit(ctx, storage.Write{Key: s.keys.Session(s.clientID), Delete: true, ExpectedVersion: version})
	}

	w, err := encodeWrite(s.keys.Session(s.clientID), version, user)
	if err != nil {
		return s.internal(err, "failed to encode session")
	}
	return s.commit(ctx, w)
}

// loadCandidates returns the candidates and their bucket version.
// An absent bucket yields the seed roster at version 0.
func (s *LedgerService) loadCandidates(ctx context.Context) ([]domain.Candidate, int64, error) {
	var candidates []domain.Candidate
	version, found, err := s.loadJSON(ctx, s.keys.Candidates(), &candidates)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return cloneCandidates(s.cfg.Roster), 0, nil
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return candidates, version, nil
}

// loadUsers returns the users and their bucket version.
func (s *LedgerService) loadUsers(ctx context.Context) ([]domain.User, int64, error) {
	var users []domain.User
	version, _, err := s.loadJSON(ctx, s.keys.Users(), &users)
	if err != nil {
		return nil, 0, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, version, nil
}

// loadSession returns this client's session (nil when absent) and its version.
func (s *LedgerService) loadSession(ctx context.Context) (*domain.User, int64, error) {
	var user *domain.User
	version, _, err := s.loadJSON(ctx, s.keys.Session(s.clientID), &user)
	if err != nil {
		return nil, 0, err
	}
	return user, version, nil
}

func (s *LedgerService) loadJSON(ctx context.Context, key string, v any) (int64, bool, error) {
	entry, found, err := storage.LoadOrEmpty(ctx, s.store, key)
	if err != nil {
		return 0, false, s.internal(err, "failed to load "+key)
	}
	if !found {
		return 0, false, nil
	}
	if err := json.Unmarshal(entry.Data, v); err != nil {
		return 0, false, s.internal(err, "failed to decode "+key)
	}
	return entry.Version, true, nil
}

// commit applies the writes and translates version conflicts.
func (s *LedgerService) commit(ctx context.Context, writes ...storage.Write) error {
	err := s.store.Commit(ctx, writes...)
	if err == nil {
		return nil
	}
	if errors.Is(err, storage.ErrStaleWrite) {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.StaleWrites.Inc()
		}
		s.logger.Warn().Msg("stale write rejected")
		return domain.ErrStaleWrite
	}
	return s.internal(err, "failed to commit ledger")
}

func (s *LedgerService) internal(err error, msg string) error {
	s.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}

func (s *LedgerService) recordLogin(outcome string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.Logins.WithLabelValues(outcome).Inc()
	}
}

func (s *LedgerService) recordAdmin(action string) {
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.AdminActions.WithLabelValues(action).Inc()
	}
}

func encodeWrite(key string, version int64, v any) (storage.Write, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return storage.Write{}, err
	}
	return storage.Write{Key: key, Data: data, ExpectedVersion: version}, nil
}

func cloneCandidates(in []domain.Candidate) []domain.Candidate {
	out := make([]domain.Candidate, len(in))
	copy(out, in)
	return out
}
