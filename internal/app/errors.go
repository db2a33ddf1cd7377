package app

import "errors"

var (
	// ErrDocumentLimit indicates the tier's document ceiling is reached.
	ErrDocumentLimit = errors.New("document limit reached for tier")
	// ErrEditLimit indicates the weekly manual-edit quota is exhausted.
	ErrEditLimit = errors.New("edit limit reached for this week")
	// ErrNotMaterialized indicates an edit was attempted on a lite record.
	ErrNotMaterialized = errors.New("document content not materialized")
)
