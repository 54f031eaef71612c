// Package relationships owns the friend request workflow: pending incoming
// requests per user and the symmetric friendship relation they turn into.
package relationships

import (
	"errors"
	"sort"
	"sync"
)

var (
	// ErrUnauthenticated indicates the operation was attempted without a caller identity.
	ErrUnauthenticated = errors.New("caller is not authenticated")
	// ErrSelfReference indicates a user tried to befriend themselves.
	ErrSelfReference = errors.New("cannot send a friend request to yourself")
	// ErrUnknownUser indicates the target is not present in the directory.
	ErrUnknownUser = errors.New("user not found")
	// ErrAlreadyFriends indicates the pair is already connected.
	ErrAlreadyFriends = errors.New("already friends")
	// ErrDuplicateRequest indicates a request between the pair is already pending.
	ErrDuplicateRequest = errors.New("friend request already pending")
	// ErrRequestNotFound indicates there is no pending request to answer.
	ErrRequestNotFound = errors.New("friend request not found")
)

// Status is the successful outcome of a store operation.
type Status int

const (
	StatusRequestSent Status = iota + 1
	StatusAccepted
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusRequestSent:
		return "request sent"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Directory reports whether an identity may take part in a relationship.
type Directory interface {
	Exists(id string) bool
}

// Snapshot is a point-in-time copy of one user's relations.
type Snapshot struct {
	PendingIncoming []string
	Friends         []string
}

type idSet map[string]struct{}

// Store holds pending requests and friendships in memory. A single mutex
// serializes every operation, so each send or respond call validates and
// mutates atomically with respect to all others.
type Store struct {
	directory Directory

	mu      sync.Mutex
	pending map[string]idSet // receiver -> requesters
	friends map[string]idSet
}

// NewStore constructs an empty store validating targets against directory.
func NewStore(directory Directory) *Store {
	if directory == nil {
		panic("relationships: directory must not be nil")
	}
	return &Store{
		directory: directory,
		pending:   make(map[string]idSet),
		friends:   make(map[string]idSet),
	}
}

// SendRequest records a pending request from callerID to toUser.
func (s *Store) SendRequest(callerID, toUser string) (Status, error) {
	if callerID == "" {
		return 0, ErrUnauthenticated
	}
	if callerID == toUser {
		return 0, ErrSelfReference
	}
	if !s.directory.Exists(toUser) {
		return 0, ErrUnknownUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.friends[callerID].has(toUser) {
		return 0, ErrAlreadyFriends
	}
	if s.pending[toUser].has(callerID) || s.pending[callerID].has(toUser) {
		return 0, ErrDuplicateRequest
	}

	add(s.pending, toUser, callerID)
	return StatusRequestSent, nil
}

// Respond answers the request fromUser sent to callerID. The pending entry
// is removed whether or not the request is accepted.
func (s *Store) Respond(callerID, fromUser string, accept bool) (Status, error) {
	if callerID == "" {
		return 0, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending[callerID].has(fromUser) {
		return 0, ErrRequestNotFound
	}
	remove(s.pending, callerID, fromUser)

	if !accept {
		return StatusRejected, nil
	}

	add(s.friends, callerID, fromUser)
	add(s.friends, fromUser, callerID)
	return StatusAccepted, nil
}

// Query returns the pending incoming requests and friends of userID.
func (s *Store) Query(userID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		PendingIncoming: s.pending[userID].sorted(),
		Friends:         s.friends[userID].sorted(),
	}
}

func (set idSet) has(id string) bool {
	_, ok := set[id]
	return ok
}

func (set idSet) sorted() []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func add(rel map[string]idSet, key, id string) {
	set, ok := rel[key]
	if !ok {
		set = make(idSet)
		rel[key] = set
	}
	set[id] = struct{}{}
}

func remove(rel map[string]idSet, key, id string) {
	set, ok := rel[key]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(rel, key)
	}
}
