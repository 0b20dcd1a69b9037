package models

// JSON views returned by the API. Request payloads use camelCase keys
// (dueDate, estimatedTime, tagIds) while responses keep the snake_case
// field names clients already depend on.

type UserJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TagJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type SubtaskJSON struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type CardJSON struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	DueDate       *string       `json:"due_date"`
	Assignee      *string       `json:"assignee"`
	EstimatedTime *int64        `json:"estimated_time"`
	Archived      bool          `json:"archived"`
	Subtasks      []SubtaskJSON `json:"subtasks"`
	Tags          []TagJSON     `json:"tags"`
}

func (u *User) JSON() UserJSON {
	return UserJSON{ID: u.ID, Name: u.Name}
}

func (t *Tag) JSON() TagJSON {
	return TagJSON{ID: t.ID, Name: t.Name, Color: t.Color}
}

func (s *Subtask) JSON() SubtaskJSON {
	return SubtaskJSON{ID: s.ID, Text: s.Text, Done: s.Done}
}

// JSON serializes a card together with its owned subtasks and associated
// tags. Slices are never nil so empty collections marshal as [].
func (c *Card) JSON(subtasks []Subtask, tags []Tag) CardJSON {
	out := CardJSON{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Archived:    c.Archived,
		Subtasks:    make([]SubtaskJSON, 0, len(subtasks)),
		Tags:        make([]TagJSON, 0, len(tags)),
	}
	if c.DueDate.Valid {
		out.DueDate = &c.DueDate.String
	}
	if c.Assignee.Valid {
		out.Assignee = &c.Assignee.String
	}
	if c.EstimatedTime.Valid {
		out.EstimatedTime = &c.EstimatedTime.Int64
	}
	for i := range subtasks {
		out.Subtasks = append(out.Subtasks, subtasks[i].JSON())
	}
	for i := range tags {
		out.Tags = append(out.Tags, tags[i].JSON())
	}
	return out
}
