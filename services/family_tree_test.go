package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/camden-git/familytree/models"
)

func TestNewFamilyTreeNilData(t *testing.T) {
	tree := NewFamilyTree(nil)
	assert.Empty(t, tree.Persons())
	assert.Equal(t, 0, tree.Graph().NodeCount())
}

func TestAddPersonIsIdempotent(t *testing.T) {
	tree := NewFamilyTree(nil)
	p := person(t, "p", "Ola", "Nordmann", models.GenderMale, nil)

	assert.True(t, tree.AddPerson(p))
	assert.False(t, tree.AddPerson(person(t, "p", "Someone", "Else", models.GenderFemale, nil)))
	assert.False(t, tree.AddPerson(nil))

	stored, ok := tree.Person("p")
	require.True(t, ok)
	assert.Equal(t, "Ola", stored.GivenName)
	assert.Len(t, tree.Persons(), 1)
}

func TestAddMarriageIsIdempotent(t *testing.T) {
	tree := canonicalTree(t)
	assert.False(t, tree.AddMarriage(marriage(t, "m-ole-kari", "ole", "kari")))
	assert.True(t, tree.AddMarriage(marriage(t, "m-anne", "anne", "somebody")))
	assert.Len(t, tree.Marriages(), 3)
}

func TestMutationsRebuildGraph(t *testing.T) {
	tree := NewFamilyTree(nil)
	before := tree.Graph()

	tree.AddPerson(person(t, "p", "Ola", "", models.GenderMale, nil))
	after := tree.Graph()

	assert.NotSame(t, before, after)
	assert.True(t, after.HasNode("p"))
	assert.False(t, before.HasNode("p"), "published graphs are never mutated")
}

func TestAddChild(t *testing.T) {
	tree := canonicalTree(t)
	child := person(t, "ny", "Ny", "Nordmann", models.GenderOther, models.DatePtr(2010, time.May, 17))

	require.NoError(t, tree.AddChild("emma", child))

	parent, _ := tree.Person("emma")
	assert.Equal(t, []string{"ny"}, parent.Children)
	stored, ok := tree.Person("ny")
	require.True(t, ok)
	assert.Equal(t, []string{"emma"}, stored.Parents)
	assert.Equal(t, []string{"emma", "per", "ole", "kari", "lise"}, ids(tree.Ancestors("ny", 0)))
	assert.Equal(t, 2, tree.GenerationDepth("ny"))
}

func TestAddChildExistingChildLinksOnce(t *testing.T) {
	tree := canonicalTree(t)
	emma, _ := tree.Person("emma")

	require.NoError(t, tree.AddChild("per", emma))
	require.NoError(t, tree.AddChild("per", emma))

	per, _ := tree.Person("per")
	assert.Equal(t, []string{"emma"}, per.Children)
	assert.Len(t, tree.Persons(), 6)
}

func TestAddChildUnknownParent(t *testing.T) {
	tree := canonicalTree(t)
	err := tree.AddChild("nobody", person(t, "ny", "Ny", "", models.GenderOther, nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.ErrorIs(t, err, models.ErrPersonNotFound)
	_, ok := tree.Person("ny")
	assert.False(t, ok, "nothing is stored when the parent is missing")
}

func TestAddChildNil(t *testing.T) {
	err := canonicalTree(t).AddChild("per", nil)
	assert.ErrorIs(t, err, models.ErrInvalidPerson)
}

func TestMarry(t *testing.T) {
	tree := canonicalTree(t)
	m, err := tree.Marry("anne", "emma", models.DatePtr(2020, time.June, 20), "Bergen")
	require.NoError(t, err)

	assert.NotEmpty(t, m.ID)
	assert.Equal(t, models.DefaultMarriageType, m.Type)
	assert.True(t, m.IsActive())

	anne, _ := tree.Person("anne")
	emma, _ := tree.Person("emma")
	assert.Contains(t, anne.Partners, "emma")
	assert.Contains(t, emma.Partners, "anne")
	assert.Equal(t, RelationPartner, tree.ClassifyRelation("anne", "emma"))
	assert.Equal(t, []string{m.ID}, tree.Graph().Marriages("anne"))
}

func TestMarryUnknownPartner(t *testing.T) {
	tree := canonicalTree(t)
	_, err := tree.Marry("anne", "nobody", nil, "")

	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.Len(t, tree.Marriages(), 2)
}

func TestMarrySelf(t *testing.T) {
	tree := canonicalTree(t)
	_, err := tree.Marry("anne", "anne", nil, "")
	assert.ErrorIs(t, err, models.ErrInvalidMarriage)
}

func TestSetPortraitAndExtra(t *testing.T) {
	tree := canonicalTree(t)

	require.NoError(t, tree.SetPortrait("per", "portraits/per.jpg"))
	require.NoError(t, tree.SetExtra("per", "occupation", "fisherman"))

	per, _ := tree.Person("per")
	assert.Equal(t, "portraits/per.jpg", per.PortraitPath)
	assert.Equal(t, "fisherman", per.Extra["occupation"])

	assert.ErrorIs(t, tree.SetPortrait("nobody", "x.jpg"), ErrSubjectNotFound)
	assert.ErrorIs(t, tree.SetExtra("nobody", "k", 1), models.ErrPersonNotFound)
}

func TestReplace(t *testing.T) {
	tree := canonicalTree(t)
	tree.Replace(nil)

	assert.Empty(t, tree.Persons())
	assert.Nil(t, tree.Statistics())
	assert.Equal(t, 0, tree.Graph().NodeCount())
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	tree := canonicalTree(t)

	per, _ := tree.Person("per")
	per.GivenName = "Changed"
	per.Children = append(per.Children, "ghost")

	again, _ := tree.Person("per")
	assert.Equal(t, "Per", again.GivenName)
	assert.Equal(t, []string{"emma"}, again.Children)

	snapshot := tree.Snapshot()
	snapshot.AddPerson(person(t, "extra", "Extra", "", models.GenderOther, nil))
	_, ok := tree.Person("extra")
	assert.False(t, ok)
}

func TestAddedRecordsAreCopies(t *testing.T) {
	tree := NewFamilyTree(nil)
	p := person(t, "p", "Ola", "", models.GenderMale, nil)
	tree.AddPerson(p)
	p.GivenName = "Changed"

	stored, _ := tree.Person("p")
	assert.Equal(t, "Ola", stored.GivenName)
}

func TestListenersSeeEveryChange(t *testing.T) {
	var events []ChangeEvent
	tree := canonicalTree(t, WithListener(func(e ChangeEvent) { events = append(events, e) }))

	tree.AddPerson(person(t, "ny", "Ny", "", models.GenderOther, nil))
	tree.AddPerson(person(t, "ny", "Ny", "", models.GenderOther, nil))
	require.NoError(t, tree.AddChild("ny", person(t, "barn", "Barn", "", models.GenderOther, nil)))
	_, err := tree.Marry("ny", "anne", nil, "")
	require.NoError(t, err)
	require.NoError(t, tree.SetPortrait("ny", "ny.jpg"))
	tree.Replace(nil)

	kinds := make([]ChangeKind, 0, len(events))
	for _, e := range events {
		kinds = append(kinds, e.Kind)
		assert.Equal(t, fixedNow, e.Timestamp)
	}
	assert.Equal(t, []ChangeKind{
		ChangePersonAdded,
		ChangeChildAdded,
		ChangeMarriageAdded,
		ChangePortraitUpdated,
		ChangeTreeReplaced,
	}, kinds)
	assert.Equal(t, "barn", events[1].SubjectID)
}

func TestListenerCanReadTree(t *testing.T) {
	var tree *FamilyTree
	var seen int
	tree = NewFamilyTree(nil, WithListener(func(ChangeEvent) { seen = len(tree.Persons()) }))

	tree.AddPerson(person(t, "p", "Ola", "", models.GenderMale, nil))
	assert.Equal(t, 1, seen)
}

func TestMutationsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tree := canonicalTree(t, WithLogger(zap.New(core)))

	tree.AddPerson(person(t, "ny", "Ny", "Nordmann", models.GenderOther, nil))

	entries := logs.FilterMessage("person added").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ny", entries[0].ContextMap()["person_id"])
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	tree := canonicalTree(t)
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				p, err := models.NewPerson(models.Person{GivenName: "Barn", Gender: models.GenderOther})
				if err != nil {
					return
				}
				_ = tree.AddChild("emma", p)
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = tree.Descendants("ole", 0)
				_ = tree.Statistics()
				_ = tree.ClassifyRelation("per", "anne")
				_ = tree.Validate()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, tree.Persons(), 106)
	assert.Len(t, tree.Descendants("emma", 0), 100)
	assert.Equal(t, tree.Graph().NodeCount(), 106+2)
}

func TestRecordMarriage(t *testing.T) {
	tree := canonicalTree(t)

	m := marriage(t, "m-anne", "anne", "emma")
	require.NoError(t, tree.RecordMarriage(m))
	stored, ok := tree.Marriage("m-anne")
	require.True(t, ok)
	assert.Equal(t, "anne", stored.Partner1ID)

	assert.ErrorIs(t, tree.RecordMarriage(m), models.ErrInvalidMarriage)
	assert.ErrorIs(t, tree.RecordMarriage(marriage(t, "m-x", "anne", "nobody")), ErrSubjectNotFound)
	assert.ErrorIs(t, tree.RecordMarriage(nil), models.ErrInvalidMarriage)
}

func TestExclusiveSerializesCheckThenAdd(t *testing.T) {
	tree := NewFamilyTree(nil, WithClock(fixedClock))
	only := person(t, "only", "Eneste", "", models.GenderOther, nil)
	added := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tree.Exclusive(func() error {
				if _, exists := tree.Person("only"); exists {
					return nil
				}
				time.Sleep(time.Millisecond)
				tree.AddPerson(only)
				added++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, added)
	assert.Len(t, tree.Persons(), 1)
}

func TestExclusiveReturnsError(t *testing.T) {
	tree := NewFamilyTree(nil)
	errBoom := errors.New("boom")
	assert.ErrorIs(t, tree.Exclusive(func() error { return errBoom }), errBoom)

	// the lock is released after an error
	assert.NoError(t, tree.Exclusive(func() error { return nil }))
}
