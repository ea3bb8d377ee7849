package models

// All lists every model the service migrates.
func All() []interface{} {
	return []interface{}{
		&Source{},
		&Task{},
		&Quiz{},
		&QuizQuestion{},
		&Session{},
		&Play{},
		&ActivityLog{},
		&UploadRecord{},
	}
}
