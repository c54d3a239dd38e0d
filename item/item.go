// Package item contains the entities of the todo application and the
// contracts every storage implementation has to fulfil.
package item

type (
	ID      int64
	LabelID int64
)

// Item is a task with its associated labels.
// Labels are always ordered by ascending LabelID.
type Item struct {
	ID        ID      `json:"id"`
	Text      string  `json:"text"`
	Completed bool    `json:"completed"`
	Labels    []Label `json:"labels"`
}

// LabelIDs returns the ids of all labels associated with the item.
func (i Item) LabelIDs() []LabelID {
	ids := make([]LabelID, 0, len(i.Labels))

	for _, l := range i.Labels {
		ids = append(ids, l.ID)
	}

	return ids
}

type Label struct {
	ID   LabelID `json:"id"`
	Name string  `json:"name"`
}

// CreateItem is the payload to create a new Item.
// LabelIDs is a set, duplicated ids are ignored.
type CreateItem struct {
	Text     string    `json:"text"   validate:"required,min=1,max=100"`
	LabelIDs []LabelID `json:"labels"`
}

// UpdateItem is the payload for a partial update of an Item.
// A nil field leaves the corresponding value of the Item unchanged.
// A non-nil but empty LabelIDs removes all labels from the Item.
type UpdateItem struct {
	Text      *string    `json:"text"      validate:"omitnil,min=1,max=100"`
	Completed *bool      `json:"completed"`
	LabelIDs  *[]LabelID `json:"labels"`
}

// NewUpdate returns an empty UpdateItem, use the With methods to set the fields to change.
func NewUpdate() UpdateItem {
	return UpdateItem{}
}

func (u UpdateItem) WithText(text string) UpdateItem {
	u.Text = &text
	return u
}

func (u UpdateItem) WithCompleted(completed bool) UpdateItem {
	u.Completed = &completed
	return u
}

func (u UpdateItem) WithLabels(ids ...LabelID) UpdateItem {
	if ids == nil {
		ids = []LabelID{}
	}

	u.LabelIDs = &ids

	return u
}

type CreateLabel struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// UniqueLabelIDs returns ids without duplicates, keeping the first occurrence of each id.
func UniqueLabelIDs(ids []LabelID) []LabelID {
	seen := make(map[LabelID]struct{}, len(ids))
	unique := make([]LabelID, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	return unique
}
