package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/camden-git/familytree/database"
	"github.com/camden-git/familytree/models"
)

func newTestRepository(t *testing.T) *FamilyRepository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "family.db")

	db, err := database.InitGormDB(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrateModels(db))
	metaDB, err := database.InitDB(path, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		metaDB.Close()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewFamilyRepository(db, metaDB, zap.NewNop())
}

func newPerson(t *testing.T, p models.Person) *models.Person {
	t.Helper()
	if p.Gender == "" {
		p.Gender = models.GenderOther
	}
	out, err := models.NewPerson(p)
	require.NoError(t, err)
	return out
}

func TestPersonRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	p := newPerson(t, models.Person{
		ID:         "ole",
		GivenName:  "Ole",
		MiddleName: "Johan",
		FamilyName: "Nordmann",
		Gender:     models.GenderMale,
		BirthDate:  models.DatePtr(1920, time.March, 4),
		DeathDate:  models.DatePtr(1999, time.December, 31),
		BirthPlace: "Ålesund",
		Notes:      "Fisker",
		Stories:    []string{"Lofotfisket 1938", "Krigsårene"},
		Parents:    []string{"far", "mor"},
		Children:   []string{"per"},
		Partners:   []string{"kari"},
		Extra:      map[string]any{"occupation": "fisker"},
	})
	require.NoError(t, repo.Persons.Create(p))

	got, err := repo.Persons.GetByID("ole")
	require.NoError(t, err)
	assert.Equal(t, p.FullName(), got.FullName())
	assert.Equal(t, p.BirthDate, got.BirthDate)
	assert.Equal(t, p.DeathDate, got.DeathDate)
	assert.Equal(t, p.Stories, got.Stories)
	assert.Equal(t, []string{"far", "mor"}, got.Parents)
	assert.Equal(t, []string{"per"}, got.Children)
	assert.Equal(t, []string{"kari"}, got.Partners)
	assert.Equal(t, "fisker", got.Extra["occupation"])
}

func TestPersonRepositoryGetMissing(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.Persons.GetByID("nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPersonRepositoryListAllKeepsInsertionOrder(t *testing.T) {
	repo := newTestRepository(t)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Persons.Create(newPerson(t, models.Person{ID: id, GivenName: id})))
	}

	people, err := repo.Persons.ListAll()
	require.NoError(t, err)
	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestPersonRepositoryReplaceRelations(t *testing.T) {
	repo := newTestRepository(t)
	p := newPerson(t, models.Person{ID: "p", GivenName: "P", Children: []string{"a"}})
	require.NoError(t, repo.Persons.Create(p))

	p.Children = []string{"b", "a"}
	p.Partners = []string{"q"}
	require.NoError(t, repo.Persons.ReplaceRelations(p))

	got, err := repo.Persons.GetByID("p")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got.Children)
	assert.Equal(t, []string{"q"}, got.Partners)
	assert.Empty(t, got.Parents)

	missing := newPerson(t, models.Person{ID: "missing", GivenName: "M"})
	assert.ErrorIs(t, repo.Persons.ReplaceRelations(missing), gorm.ErrRecordNotFound)
}

func TestPersonRepositoryUpdatePortraitAndExtra(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Persons.Create(newPerson(t, models.Person{ID: "p", GivenName: "P"})))

	require.NoError(t, repo.Persons.UpdatePortrait("p", "portraits/p.jpg"))
	require.NoError(t, repo.Persons.UpdateExtra("p", map[string]any{"portrait_taken": "1950-06-01"}))

	got, err := repo.Persons.GetByID("p")
	require.NoError(t, err)
	assert.Equal(t, "portraits/p.jpg", got.PortraitPath)
	assert.Equal(t, "1950-06-01", got.Extra["portrait_taken"])

	assert.ErrorIs(t, repo.Persons.UpdatePortrait("nobody", "x.jpg"), gorm.ErrRecordNotFound)
}

func TestMarriageRepository(t *testing.T) {
	repo := newTestRepository(t)
	m, err := models.NewMarriage(models.Marriage{
		ID:              "m1",
		Partner1ID:      "ole",
		Partner2ID:      "kari",
		MarriageDate:    models.DatePtr(1945, time.June, 9),
		DissolutionDate: models.DatePtr(1960, time.January, 1),
		Place:           "Bergen",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Marriages.Create(m))

	got, err := repo.Marriages.GetByID("m1")
	require.NoError(t, err)
	assert.Equal(t, m, got)

	all, err := repo.Marriages.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.Marriages.GetByID("nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func sampleStore(t *testing.T) *models.FamilyData {
	t.Helper()
	fd := models.NewFamilyData()
	fd.Description = "Nordmann"
	fd.AddPerson(newPerson(t, models.Person{ID: "ole", GivenName: "Ole", Gender: models.GenderMale, Children: []string{"per"}, Partners: []string{"kari"}}))
	fd.AddPerson(newPerson(t, models.Person{ID: "kari", GivenName: "Kari", Gender: models.GenderFemale, Children: []string{"per"}, Partners: []string{"ole"}}))
	fd.AddPerson(newPerson(t, models.Person{ID: "per", GivenName: "Per", Gender: models.GenderMale, Parents: []string{"ole", "kari"}}))
	m, err := models.NewMarriage(models.Marriage{ID: "m1", Partner1ID: "ole", Partner2ID: "kari"})
	require.NoError(t, err)
	fd.AddMarriage(m)
	return fd
}

func TestFamilyRepositorySaveAndLoad(t *testing.T) {
	repo := newTestRepository(t)

	empty, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.PersonCount())

	fd := sampleStore(t)
	require.NoError(t, repo.Save(fd))
	// saving twice replaces rather than duplicates
	require.NoError(t, repo.Save(fd))

	got, err := repo.Load()
	require.NoError(t, err)
	require.Equal(t, 3, got.PersonCount())
	require.Equal(t, 1, got.MarriageCount())
	assert.Equal(t, "Nordmann", got.Description)
	assert.Equal(t, fd.CreatedAt.Unix(), got.CreatedAt.Unix())

	for i, p := range fd.Persons() {
		g := got.Persons()[i]
		assert.Equal(t, p.ID, g.ID)
		assert.Equal(t, p.Parents, g.Parents)
		assert.Equal(t, p.Children, g.Children)
		assert.Equal(t, p.Partners, g.Partners)
	}
}

func TestFamilyRepositoryAddChild(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Save(sampleStore(t)))

	parent, err := repo.Persons.GetByID("per")
	require.NoError(t, err)
	child := newPerson(t, models.Person{ID: "emma", GivenName: "Emma", Parents: []string{"per"}})
	parent.Children = append(parent.Children, "emma")
	require.NoError(t, repo.AddChild(parent, child, true))

	got, err := repo.Load()
	require.NoError(t, err)
	per, _ := got.Person("per")
	emma, ok := got.Person("emma")
	require.True(t, ok)
	assert.Equal(t, []string{"emma"}, per.Children)
	assert.Equal(t, []string{"per"}, emma.Parents)
	assert.Equal(t, "emma", got.Persons()[3].ID)
}

func TestFamilyRepositoryRecordMarriageRollsBack(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Save(sampleStore(t)))

	m, err := models.NewMarriage(models.Marriage{ID: "m2", Partner1ID: "per", Partner2ID: "ghost"})
	require.NoError(t, err)
	ghost := newPerson(t, models.Person{ID: "ghost", GivenName: "Ghost", Partners: []string{"per"}})

	err = repo.RecordMarriage(m, ghost)
	require.Error(t, err)

	_, err = repo.Marriages.GetByID("m2")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFamilyRepositorySetPortrait(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.AddPerson(newPerson(t, models.Person{ID: "p", GivenName: "P"})))

	require.NoError(t, repo.SetPortrait("p", "p.jpg", map[string]any{"portrait_taken": "2001-02-03"}))

	got, err := repo.Persons.GetByID("p")
	require.NoError(t, err)
	assert.Equal(t, "p.jpg", got.PortraitPath)
	assert.Equal(t, "2001-02-03", got.Extra["portrait_taken"])

	meta, err := database.GetFamilyMeta(repo.MetaDB)
	require.NoError(t, err)
	assert.NotZero(t, meta.ModifiedAt)
}
