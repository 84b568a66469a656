package content

import "github.com/google/uuid"

// assignID fills a zero primary key before insert; IDs are generated client-side.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// Models lists every table owned by the content pipeline, in migration order.
func Models() []any {
	return []any{
		&RawDocument{},
		&Section{},
		&Idea{},
		&Insight{},
		&Draft{},
		&WritingStyle{},
	}
}

