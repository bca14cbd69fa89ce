package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camden-git/familytree/database"
	"github.com/camden-git/familytree/familyio"
	"github.com/camden-git/familytree/models"
	"github.com/camden-git/familytree/repository"
	"github.com/camden-git/familytree/services"
)

// FamilyHandler serves the tree's queries and mutations. Mutations are written to the
// repository first and only reach the in-memory tree once persisted.
type FamilyHandler struct {
	Tree   *services.FamilyTree
	Repo   repository.FamilyRepositoryInterface
	Logger *zap.Logger
}

type generationResponse struct {
	PersonID   string `json:"person_id"`
	Generation int    `json:"generation"`
	Known      bool   `json:"known"`
}

type generationGroup struct {
	Generation int              `json:"generation"`
	Persons    []*models.Person `json:"persons"`
}

type relationResponse struct {
	A        string            `json:"a"`
	B        string            `json:"b"`
	Relation services.Relation `json:"relation"`
}

func (h *FamilyHandler) personFromPath(w http.ResponseWriter, r *http.Request) (*models.Person, bool) {
	id := chi.URLParam(r, "person_id")
	person, ok := h.Tree.Person(id)
	if !ok {
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Person %s not found", id))
		return nil, false
	}
	return person, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeMutationError maps tree and validation errors to responses; anything else is a 500
func (h *FamilyHandler) writeMutationError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidPerson), errors.Is(err, models.ErrInvalidMarriage):
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, services.ErrSubjectNotFound), errors.Is(err, models.ErrPersonNotFound):
		WriteAPIError(w, http.StatusNotFound, CodeNotFound, err.Error())
	default:
		h.Logger.Error("mutation failed", zap.String("action", action), zap.Error(err))
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to "+action)
	}
}

// SerializeWrites runs each wrapped request under the tree's writer lock, so the
// existence checks, the repository write and the tree update of one mutation never
// interleave with another.
func (h *FamilyHandler) SerializeWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.Tree.Exclusive(func() error {
			next.ServeHTTP(w, r)
			return nil
		})
	})
}

func maxGenerationsParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("max")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid max '%s': must be an integer", raw)
	}
	return n, nil
}

func (h *FamilyHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	order := r.URL.Query().Get("sort")
	if order == "" {
		order = database.DefaultSortOrder
	}
	if !database.IsValidSortOrder(order) {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, fmt.Sprintf("Invalid sort order '%s'", order))
		return
	}

	people := h.Tree.Persons()
	database.SortPersons(people, order)
	writeJSON(w, http.StatusOK, people)
}

func (h *FamilyHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	person, ok := h.personFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (h *FamilyHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req models.Person
	if !decodeBody(w, r, &req) {
		return
	}
	person, err := models.NewPerson(req)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if _, exists := h.Tree.Person(person.ID); exists {
		WriteAPIError(w, http.StatusConflict, CodeConflict, fmt.Sprintf("Person %s already exists", person.ID))
		return
	}

	if err := h.Repo.AddPerson(person); err != nil {
		h.writeMutationError(w, "create person", err)
		return
	}
	h.Tree.AddPerson(person)

	stored, _ := h.Tree.Person(person.ID)
	writeJSON(w, http.StatusCreated, stored)
}

// AddChild links a child to the parent in the path. A body naming an existing person
// links that person; otherwise the body is created as a new person.
func (h *FamilyHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	parent, ok := h.personFromPath(w, r)
	if !ok {
		return
	}
	var req models.Person
	if !decodeBody(w, r, &req) {
		return
	}

	child, exists := h.Tree.Person(req.ID)
	if !exists {
		var err error
		if child, err = models.NewPerson(req); err != nil {
			WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
			return
		}
	}
	if child.ID == parent.ID {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "A person cannot be their own child")
		return
	}

	if !slices.Contains(parent.Children, child.ID) {
		parent.Children = append(parent.Children, child.ID)
	}
	if !slices.Contains(child.Parents, parent.ID) {
		child.Parents = append(child.Parents, parent.ID)
	}

	if err := h.Repo.AddChild(parent, child, !exists); err != nil {
		h.writeMutationError(w, "add child", err)
		return
	}
	if err := h.Tree.AddChild(parent.ID, child); err != nil {
		h.writeMutationError(w, "add child", err)
		return
	}

	stored, _ := h.Tree.Person(child.ID)
	writeJSON(w, http.StatusCreated, stored)
}

func (h *FamilyHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	person, ok := h.personFromPath(w, r)
	if !ok {
		return
	}
	maxGenerations, err := maxGenerationsParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Tree.Ancestors(person.ID, maxGenerations))
}

func (h *FamilyHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	person, ok := h.personFromPath(w, r)
	if !ok {
		return
	}
	maxGenerations, err := maxGenerationsParam(r)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Tree.Descendants(person.ID, maxGenerations))
}

func (h *FamilyHandler) Siblings(w http.ResponseWriter, r *http.Request) {
	person, ok := h.personFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Tree.Siblings(person.ID))
}

func (h *FamilyHandler) Generation(w http.ResponseWriter, r *http.Request) {
	person, ok := h.personFromPath(w, r)
	if !ok {
		return
	}
	depth, known := h.Tree.GenerationDepthKnown(person.ID)
	writeJSON(w, http.StatusOK, generationResponse{PersonID: person.ID, Generation: depth, Known: known})
}

func (h *FamilyHandler) ListMarriages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tree.Marriages())
}

func (h *FamilyHandler) CreateMarriage(w http.ResponseWriter, r *http.Request) {
	var req models.Marriage
	if !decodeBody(w, r, &req) {
		return
	}
	marriage, err := models.NewMarriage(req)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	if _, exists := h.Tree.Marriage(marriage.ID); exists {
		WriteAPIError(w, http.StatusConflict, CodeConflict, fmt.Sprintf("Marriage %s already exists", marriage.ID))
		return
	}

	partners := make([]*models.Person, 0, 2)
	for _, pair := range [][2]string{{marriage.Partner1ID, marriage.Partner2ID}, {marriage.Partner2ID, marriage.Partner1ID}} {
		p, ok := h.Tree.Person(pair[0])
		if !ok {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, fmt.Sprintf("Person %s not found", pair[0]))
			return
		}
		if !slices.Contains(p.Partners, pair[1]) {
			p.Partners = append(p.Partners, pair[1])
		}
		partners = append(partners, p)
	}

	if err := h.Repo.RecordMarriage(marriage, partners...); err != nil {
		h.writeMutationError(w, "record marriage", err)
		return
	}
	if err := h.Tree.RecordMarriage(marriage); err != nil {
		h.writeMutationError(w, "record marriage", err)
		return
	}
	writeJSON(w, http.StatusCreated, marriage)
}

func (h *FamilyHandler) ClassifyRelation(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, "Query parameters a and b are required")
		return
	}
	writeJSON(w, http.StatusOK, relationResponse{A: a, B: b, Relation: h.Tree.ClassifyRelation(a, b)})
}

func (h *FamilyHandler) Generations(w http.ResponseWriter, r *http.Request) {
	byDepth := h.Tree.PersonsByGeneration()
	groups := make([]generationGroup, 0, len(byDepth))
	for depth, persons := range byDepth {
		groups = append(groups, generationGroup{Generation: depth, Persons: persons})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Generation < groups[j].Generation })
	writeJSON(w, http.StatusOK, groups)
}

func (h *FamilyHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats := h.Tree.Statistics()
	if stats == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *FamilyHandler) Validation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tree.Validate())
}

func (h *FamilyHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(familyio.FormatJSON)
	}
	format, err := familyio.ParseFormat(name)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}

	contentType := "application/json"
	if format == familyio.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="family.%s"`, format))
	if err := familyio.Write(w, h.Tree.Snapshot(), format); err != nil {
		h.Logger.Error("export failed", zap.String("format", string(format)), zap.Error(err))
	}
}
