package plate

import (
	"fmt"
	"slices"
)

// Phase is the position of the food-entry flow.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseCapturing    Phase = "capturing"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseDraftPending Phase = "draft_pending"
)

// CaptureMode distinguishes image capture from text search.
type CaptureMode string

const (
	ModeCamera CaptureMode = "camera"
	ModeText   CaptureMode = "text"
)

// Goals are the user's daily targets.
type Goals struct {
	DailyCalories int `json:"dailyCalories"`
	DailySteps    int `json:"dailySteps"`
}

// State is the whole session state. Transitions never modify a State in
// place: they return the next State, which the Tracker commits only when
// the transition succeeded.
type State struct {
	Phase     Phase       `json:"phase"`
	Mode      CaptureMode `json:"mode,omitempty"`
	Entries   []FoodEntry `json:"entries"` // newest first
	Draft     *Draft      `json:"draft,omitempty"`
	Goals     Goals       `json:"goals"`
	Steps     int         `json:"steps"`
	Hydration Hydration   `json:"hydration"`
}

// NewState returns an idle state with an empty log.
func NewState(goals Goals, hydration Hydration) (State, error) {
	if goals.DailyCalories < 0 || goals.DailySteps < 0 {
		return State{}, fmt.Errorf("goals must not be negative")
	}
	return State{
		Phase:     PhaseIdle,
		Entries:   []FoodEntry{},
		Goals:     goals,
		Hydration: hydration,
	}, nil
}

// Clone returns a deep copy so callers cannot alias the live entry slice or draft.
func (s State) Clone() State {
	s.Entries = slices.Clone(s.Entries)
	if s.Entries == nil {
		s.Entries = []FoodEntry{}
	}
	if s.Draft != nil {
		d := *s.Draft
		s.Draft = &d
	}
	return s
}

// Entry returns the entry with the given id.
func (s State) Entry(id string) (FoodEntry, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return FoodEntry{}, false
	}
	return s.Entries[i], true
}

func (s State) indexOf(id string) int {
	return slices.IndexFunc(s.Entries, func(e FoodEntry) bool { return e.ID == id })
}

// withDraft moves to DraftPending holding d.
func (s State) withDraft(d Draft) State {
	s.Phase = PhaseDraftPending
	s.Mode = ""
	s.Draft = &d
	return s
}

// idle drops any draft and returns to Idle.
func (s State) idle() State {
	s.Phase = PhaseIdle
	s.Mode = ""
	s.Draft = nil
	return s
}

// beginEdit opens a draft for an existing entry.
func (s State) beginEdit(id string) (State, error) {
	e, ok := s.Entry(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.withDraft(newDraftFromEntry(e)), nil
}

// confirm commits the draft. New entries go to the head of the log;
// an edit replaces the entry with the same id in place and keeps its timestamp.
func (s State) confirm(mealType MealType, newID string, timestamp int64) (State, FoodEntry, error) {
	if s.Draft == nil {
		return s, FoodEntry{}, ErrNoDraft
	}
	if !mealType.Valid() {
		return s, FoodEntry{}, fmt.Errorf("%w: unknown meal type %q", ErrInvalidDraft, mealType)
	}
	d := *s.Draft

	if !d.Editing() {
		entry := d.entry(newID, timestamp, mealType)
		entries := make([]FoodEntry, 0, len(s.Entries)+1)
		entries = append(entries, entry)
		s.Entries = append(entries, s.Entries...)
		return s.idle(), entry, nil
	}

	i := s.indexOf(d.EditingID)
	if i < 0 {
		return s, FoodEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, d.EditingID)
	}
	entry := d.entry(d.EditingID, s.Entries[i].Timestamp, mealType)
	s.Entries = slices.Clone(s.Entries)
	s.Entries[i] = entry
	return s.idle(), entry, nil
}

// deleteEditing removes the entry referenced by an edit draft.
func (s State) deleteEditing() (State, FoodEntry, error) {
	if s.Draft == nil {
		return s, FoodEntry{}, ErrNoDraft
	}
	if !s.Draft.Editing() {
		return s, FoodEntry{}, ErrNotEditing
	}
	i := s.indexOf(s.Draft.EditingID)
	if i < 0 {
		return s, FoodEntry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, s.Draft.EditingID)
	}
	removed := s.Entries[i]
	s.Entries = slices.Delete(slices.Clone(s.Entries), i, i+1)
	return s.idle(), removed, nil
}

// withServings sets the draft's serving multiplier.
func (s State) withServings(servings float64) (State, error) {
	if s.Draft == nil {
		return s, ErrNoDraft
	}
	if err := ValidateServings(servings); err != nil {
		return s, err
	}
	d := *s.Draft
	d.Servings = servings
	s.Draft = &d
	return s, nil
}

// revised applies user corrections to the draft.
func (s State) revised(r DraftRevision) (State, error) {
	if s.Draft == nil {
		return s, ErrNoDraft
	}
	d, err := s.Draft.revise(r)
	if err != nil {
		return s, err
	}
	s.Draft = &d
	return s, nil
}
