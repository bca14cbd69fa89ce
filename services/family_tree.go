package services

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/camden-git/familytree/models"
)

// ErrSubjectNotFound is returned by helpers that need an existing person to act on
var ErrSubjectNotFound = errors.New("subject not found")

// ChangeKind names a mutation of the tree
type ChangeKind string

const (
	ChangePersonAdded     ChangeKind = "person_added"
	ChangeMarriageAdded   ChangeKind = "marriage_added"
	ChangeChildAdded      ChangeKind = "child_added"
	ChangePersonUpdated   ChangeKind = "person_updated"
	ChangePortraitUpdated ChangeKind = "portrait_updated"
	ChangeTreeReplaced    ChangeKind = "tree_replaced"
)

// ChangeEvent is delivered to listeners after the rebuilt graph is published
type ChangeEvent struct {
	Kind      ChangeKind `json:"kind"`
	SubjectID string     `json:"subject_id,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// FamilyTree owns a record store and the relationship graph derived from it.
// Every mutation rebuilds the graph in full and swaps it in once complete.
type FamilyTree struct {
	writeMu   sync.Mutex
	mu        sync.RWMutex
	data      *models.FamilyData
	graph     atomic.Pointer[RelationshipGraph]
	logger    *zap.Logger
	now       func() time.Time
	listeners []func(ChangeEvent)
}

// Option configures a FamilyTree
type Option func(*FamilyTree)

func WithLogger(logger *zap.Logger) Option {
	return func(t *FamilyTree) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithClock replaces time.Now for age and statistics calculations
func WithClock(now func() time.Time) Option {
	return func(t *FamilyTree) {
		if now != nil {
			t.now = now
		}
	}
}

// WithListener registers a callback for change events. Callbacks run synchronously
// on the mutating goroutine after the lock is released.
func WithListener(fn func(ChangeEvent)) Option {
	return func(t *FamilyTree) {
		if fn != nil {
			t.listeners = append(t.listeners, fn)
		}
	}
}

// NewFamilyTree takes ownership of data (an empty store when nil) and builds its graph
func NewFamilyTree(data *models.FamilyData, opts ...Option) *FamilyTree {
	if data == nil {
		data = models.NewFamilyData()
	}
	t := &FamilyTree{
		data:   data,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.rebuild()
	return t
}

// rebuild must be called with mu held for writing
func (t *FamilyTree) rebuild() {
	start := time.Now()
	g := BuildGraph(t.data)
	t.graph.Store(g)
	t.logger.Debug("relationship graph rebuilt",
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
		zap.Duration("duration", time.Since(start)),
	)
}

func (t *FamilyTree) notify(kind ChangeKind, subjectID string) {
	if len(t.listeners) == 0 {
		return
	}
	event := ChangeEvent{Kind: kind, SubjectID: subjectID, Timestamp: t.now()}
	for _, fn := range t.listeners {
		fn(event)
	}
}

func (t *FamilyTree) today() models.Date {
	return models.DateOf(t.now())
}

// Exclusive runs fn while holding the tree's writer lock, so a caller can read the
// tree, persist a change and apply it without another writer interleaving. fn may use
// any other FamilyTree method but must not call Exclusive.
func (t *FamilyTree) Exclusive(fn func() error) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return fn()
}

// Graph returns the currently published relationship graph
func (t *FamilyTree) Graph() *RelationshipGraph {
	return t.graph.Load()
}

// AddPerson stores p unless its identifier is taken. It reports whether p was added.
func (t *FamilyTree) AddPerson(p *models.Person) bool {
	if p == nil {
		return false
	}
	t.mu.Lock()
	added := t.data.AddPerson(p.Clone())
	if added {
		t.rebuild()
	}
	t.mu.Unlock()

	if added {
		t.logger.Info("person added", zap.String("person_id", p.ID), zap.String("name", p.FullName()))
		t.notify(ChangePersonAdded, p.ID)
	}
	return added
}

// AddMarriage stores m unless its identifier is taken. Partner lists are left alone;
// use Marry to record both sides.
func (t *FamilyTree) AddMarriage(m *models.Marriage) bool {
	if m == nil {
		return false
	}
	t.mu.Lock()
	added := t.data.AddMarriage(m.Clone())
	if added {
		t.rebuild()
	}
	t.mu.Unlock()

	if added {
		t.logger.Info("marriage added", zap.String("marriage_id", m.ID))
		t.notify(ChangeMarriageAdded, m.ID)
	}
	return added
}

// AddChild adds child (if new) and links it to an existing parent
func (t *FamilyTree) AddChild(parentID string, child *models.Person) error {
	if child == nil {
		return fmt.Errorf("%w: child record is nil", models.ErrInvalidPerson)
	}
	t.mu.Lock()
	if _, ok := t.data.Person(parentID); !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: parent %s: %w", ErrSubjectNotFound, parentID, models.ErrPersonNotFound)
	}
	t.data.AddPerson(child.Clone())
	if err := t.data.LinkParentChild(parentID, child.ID); err != nil {
		t.rebuild()
		t.mu.Unlock()
		return fmt.Errorf("failed to link child %s to parent %s: %w", child.ID, parentID, err)
	}
	t.rebuild()
	t.mu.Unlock()

	t.logger.Info("child added", zap.String("parent_id", parentID), zap.String("child_id", child.ID))
	t.notify(ChangeChildAdded, child.ID)
	return nil
}

// Marry creates a marriage between two existing people and records each as the
// other's partner
func (t *FamilyTree) Marry(partner1ID, partner2ID string, date *models.Date, place string) (*models.Marriage, error) {
	m, err := models.NewMarriage(models.Marriage{
		Partner1ID:   partner1ID,
		Partner2ID:   partner2ID,
		MarriageDate: date,
		Place:        place,
	})
	if err != nil {
		return nil, err
	}
	if err := t.RecordMarriage(m); err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// RecordMarriage stores an already validated marriage between two existing people and
// links them as partners. A marriage whose identifier is taken is rejected.
func (t *FamilyTree) RecordMarriage(m *models.Marriage) error {
	if m == nil {
		return fmt.Errorf("%w: marriage record is nil", models.ErrInvalidMarriage)
	}
	t.mu.Lock()
	for _, id := range []string{m.Partner1ID, m.Partner2ID} {
		if _, ok := t.data.Person(id); !ok {
			t.mu.Unlock()
			return fmt.Errorf("%w: partner %s: %w", ErrSubjectNotFound, id, models.ErrPersonNotFound)
		}
	}
	if !t.data.AddMarriage(m.Clone()) {
		t.mu.Unlock()
		return fmt.Errorf("%w: marriage %s already exists", models.ErrInvalidMarriage, m.ID)
	}
	if err := t.data.LinkPartners(m.Partner1ID, m.Partner2ID); err != nil {
		t.rebuild()
		t.mu.Unlock()
		return fmt.Errorf("failed to link partners: %w", err)
	}
	t.rebuild()
	t.mu.Unlock()

	t.logger.Info("marriage recorded",
		zap.String("marriage_id", m.ID),
		zap.String("partner1_id", m.Partner1ID),
		zap.String("partner2_id", m.Partner2ID),
	)
	t.notify(ChangeMarriageAdded, m.ID)
	return nil
}

// SetPortrait records the portrait image of a person
func (t *FamilyTree) SetPortrait(personID, path string) error {
	t.mu.Lock()
	err := t.data.SetPortrait(personID, path)
	if err == nil {
		t.rebuild()
	}
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubjectNotFound, err)
	}
	t.notify(ChangePortraitUpdated, personID)
	return nil
}

// SetExtra stores a free-form field on a person
func (t *FamilyTree) SetExtra(personID, key string, value any) error {
	t.mu.Lock()
	err := t.data.SetExtra(personID, key, value)
	if err == nil {
		t.rebuild()
	}
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubjectNotFound, err)
	}
	t.notify(ChangePersonUpdated, personID)
	return nil
}

// Replace swaps in a whole new store, e.g. after an import
func (t *FamilyTree) Replace(data *models.FamilyData) {
	if data == nil {
		data = models.NewFamilyData()
	}
	t.mu.Lock()
	t.data = data
	t.rebuild()
	t.mu.Unlock()

	t.logger.Info("family tree replaced", zap.Int("persons", data.PersonCount()), zap.Int("marriages", data.MarriageCount()))
	t.notify(ChangeTreeReplaced, "")
}

// Person returns a copy of the stored record
func (t *FamilyTree) Person(id string) (*models.Person, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.data.Person(id)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

func (t *FamilyTree) Marriage(id string) (*models.Marriage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.data.Marriage(id)
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Persons returns copies of all people in store order
func (t *FamilyTree) Persons() []*models.Person {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return clonePersons(t.data.Persons())
}

// Marriages returns copies of all marriages in store order
func (t *FamilyTree) Marriages() []*models.Marriage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	stored := t.data.Marriages()
	out := make([]*models.Marriage, len(stored))
	for i, m := range stored {
		out[i] = m.Clone()
	}
	return out
}

// Snapshot returns a deep copy of the store for savers and exporters
func (t *FamilyTree) Snapshot() *models.FamilyData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.data.Clone()
}

func clonePersons(persons []*models.Person) []*models.Person {
	out := make([]*models.Person, len(persons))
	for i, p := range persons {
		out[i] = p.Clone()
	}
	return out
}

// resolve maps identifiers to copies of their records, skipping unknown ones.
// Callers hold mu for reading.
func (t *FamilyTree) resolve(ids []string) []*models.Person {
	out := make([]*models.Person, 0, len(ids))
	for _, id := range ids {
		if p, ok := t.data.Person(id); ok {
			out = append(out, p.Clone())
		}
	}
	return out
}
